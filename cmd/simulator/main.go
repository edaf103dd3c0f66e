package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

var languages = []string{"english", "spanish", "french", "german", "japanese", "korean", "portuguese", "italian"}

var locations = []string{"Berlin", "Madrid", "Lyon", "Tokyo", "Seoul", "Lisbon", "Rome", "Toronto"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:5001"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "seed":
		seedCmd(apiURL, args)
	case "befriend":
		befriendCmd(apiURL, args)
	case "watch":
		watchCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Simulator - Development tool for the language exchange API

USAGE:
  simulator <command> [options]

COMMANDS:
  seed      Sign up and onboard fake users, optionally sending them requests
  befriend  Send a friend request between two accounts and accept it
  watch     Print realtime notifications for an account
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:5001)

EXAMPLES:
  # Create 8 onboarded users
  simulator seed

  # Create 5 users that all send a friend request to you
  simulator seed --count=5 --target=me@example.com --target-password=secret1

  # Make two existing accounts friends
  simulator befriend --from=ann@example.com --to=bob@example.com

  # Watch notifications for an account
  simulator watch --email=me@example.com --password=secret1`)
}

func seedCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	count := fs.Int("count", 8, "Number of users to create")
	password := fs.String("password", "password123", "Password for every seeded user")
	target := fs.String("target", "", "Email of an existing account every seeded user sends a request to")
	targetPassword := fs.String("target-password", "", "Password of the target account")
	fs.Parse(args)

	if *count < 1 {
		fmt.Println("Error: --count must be at least 1")
		os.Exit(1)
	}

	var targetUser *User
	if *target != "" {
		if *targetPassword == "" {
			fmt.Println("Error: --target-password is required with --target")
			os.Exit(1)
		}
		u, err := NewAPIClient(apiURL).Login(*target, *targetPassword)
		if err != nil {
			fmt.Printf("Failed to log in as target: %v\n", err)
			os.Exit(1)
		}
		targetUser = u
	}

	fmt.Println("=== Simulator: Seed ===")
	fmt.Println()

	run := time.Now().UnixNano() % 100000
	for i := 0; i < *count; i++ {
		client := NewAPIClient(apiURL)
		fullName := fmt.Sprintf("Learner %d", i+1)
		email := fmt.Sprintf("learner%d_%d@example.com", i+1, run)
		native := languages[i%len(languages)]
		learning := languages[(i+3)%len(languages)]

		if _, err := client.Signup(email, *password, fullName); err != nil {
			fmt.Printf("  [%d/%d] FAILED: %v\n", i+1, *count, err)
			continue
		}
		if _, err := client.Onboard(fullName, native, learning, locations[i%len(locations)]); err != nil {
			fmt.Printf("  [%d/%d] FAILED: %v\n", i+1, *count, err)
			continue
		}
		fmt.Printf("  [%d/%d] %s <%s> %s -> %s\n", i+1, *count, fullName, email, native, learning)

		if targetUser != nil {
			if _, err := client.SendFriendRequest(targetUser.ID); err != nil {
				fmt.Printf("        Warning: %v\n", err)
			}
		}
	}

	fmt.Println()
	fmt.Printf("Done! Every seeded user has password %q\n", *password)
}

func befriendCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("befriend", flag.ExitOnError)
	from := fs.String("from", "", "Sender email (required)")
	to := fs.String("to", "", "Recipient email (required)")
	password := fs.String("password", "password123", "Password shared by both accounts")
	fs.Parse(args)

	if *from == "" || *to == "" {
		fmt.Println("Error: --from and --to are required")
		fmt.Println("\nUsage: simulator befriend --from=ann@example.com --to=bob@example.com")
		os.Exit(1)
	}

	sender := NewAPIClient(apiURL)
	recipient := NewAPIClient(apiURL)

	if _, err := sender.Login(*from, *password); err != nil {
		fmt.Printf("Failed to log in as %s: %v\n", *from, err)
		os.Exit(1)
	}
	recipientUser, err := recipient.Login(*to, *password)
	if err != nil {
		fmt.Printf("Failed to log in as %s: %v\n", *to, err)
		os.Exit(1)
	}

	fmt.Print("Sending friend request... ")
	requestID, err := sender.SendFriendRequest(recipientUser.ID)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK (%s)\n", requestID)

	fmt.Print("Accepting... ")
	if err := recipient.AcceptFriendRequest(requestID); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")

	friends, err := sender.Friends()
	if err != nil {
		fmt.Printf("Failed to list friends: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()
	fmt.Printf("%s now has %d friend(s):\n", *from, len(friends))
	for _, f := range friends {
		fmt.Printf("  - %s (%s)\n", f.FullName, f.ID)
	}
}

func watchCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "password123", "Account password")
	fs.Parse(args)

	if *email == "" {
		fmt.Println("Error: --email is required")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	user, err := client.Login(*email, *password)
	if err != nil {
		fmt.Printf("Failed to log in: %v\n", err)
		os.Exit(1)
	}

	pending, err := client.IncomingRequests()
	if err != nil {
		fmt.Printf("Failed to list requests: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Watching %s (%d pending request(s)). Ctrl-C to stop.\n\n", user.FullName, len(pending))

	wsURL, header, err := client.WebSocketURL()
	if err != nil {
		fmt.Printf("Bad API URL: %v\n", err)
		os.Exit(1)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				fmt.Printf("Connection closed: %v\n", err)
				return
			}

			var msg struct {
				Type    string          `json:"type"`
				Payload json.RawMessage `json:"payload"`
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				fmt.Printf("Unreadable message: %s\n", string(data))
				continue
			}
			fmt.Printf("[%s] %s %s\n", time.Now().Format("15:04:05"), msg.Type, string(msg.Payload))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-done:
	}
}
