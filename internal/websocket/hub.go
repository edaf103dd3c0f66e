package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/google/uuid"
)

type delivery struct {
	userID uuid.UUID
	data   []byte
}

// Hub tracks live sessions per user and fans notifications out to them.
// Registration state is owned by the Run goroutine.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for _, set := range h.clients {
				for client := range set {
					client.Close()
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case d := <-h.deliver:
			h.mu.Lock()
			for client := range h.clients[d.userID] {
				if !client.trySend(d.data) {
					log.Printf("WARN [websocket.Hub] dropping slow client for user %s", d.userID)
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	client.Close()
}

// Stop gracefully shuts down the hub and closes every client.
// It blocks until Run has returned.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

// Register adds a client. A client registered after Stop is closed immediately.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client, handling the case where the hub may be stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ConnectedClients returns the number of live sessions for a user.
func (h *Hub) ConnectedClients(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// SendToUser delivers msg to every session of userID. Users with no sessions are skipped.
func (h *Hub) SendToUser(userID uuid.UUID, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ERROR [websocket.SendToUser] failed to marshal %s: %v", msg.Type, err)
		return
	}

	select {
	case h.deliver <- delivery{userID: userID, data: data}:
	case <-h.done:
	}
}

// FriendRequestReceived notifies the recipient of a new pending request.
func (h *Hub) FriendRequestReceived(req *domain.FriendRequest) {
	msg, err := NewMessage(MessageTypeFriendRequestReceived, FriendRequestReceivedPayload{
		Request: FriendRequestInfo{
			ID:        req.ID.String(),
			Sender:    summarize(req.Sender),
			Recipient: req.RecipientID.String(),
			Status:    string(req.Status),
			CreatedAt: req.CreatedAt,
		},
	})
	if err != nil {
		log.Printf("ERROR [websocket.FriendRequestReceived] %v", err)
		return
	}
	h.SendToUser(req.RecipientID, msg)
}

// FriendRequestAccepted tells the original sender who accepted.
func (h *Hub) FriendRequestAccepted(req *domain.FriendRequest, recipient *domain.User) {
	msg, err := NewMessage(MessageTypeFriendRequestAccepted, FriendRequestAcceptedPayload{
		RequestID: req.ID.String(),
		Friend:    summarize(recipient),
	})
	if err != nil {
		log.Printf("ERROR [websocket.FriendRequestAccepted] %v", err)
		return
	}
	h.SendToUser(req.SenderID, msg)
}
