package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"testing"
	"time"

	"github.com/dom/lingo-exchange/internal/chat"
	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/dom/lingo-exchange/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email            string
	password         string
	fullName         string
	nativeLanguage   string
	learningLanguage string
	onboarded        bool
	friends          []uuid.UUID
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		email:            fmt.Sprintf("user_%s@example.com", suffix),
		password:         "testpassword123",
		fullName:         "Test User " + suffix,
		nativeLanguage:   "english",
		learningLanguage: "spanish",
		onboarded:        true,
	}
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithFullName(name string) *UserBuilder {
	b.fullName = name
	return b
}

// NotOnboarded leaves the profile incomplete
func (b *UserBuilder) NotOnboarded() *UserBuilder {
	b.onboarded = false
	return b
}

// WithFriends seeds the friend list directly
func (b *UserBuilder) WithFriends(ids ...uuid.UUID) *UserBuilder {
	b.friends = append(b.friends, ids...)
	return b
}

// Build stores the user and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, repo repository.UserRepository) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	friends := append([]uuid.UUID{}, b.friends...)
	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		FullName:     b.fullName,
		ProfilePic:   "https://avatar.iran.liara.run/public/1.png",
		IsOnboarded:  b.onboarded,
		Friends:      friends,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if b.onboarded {
		user.Bio = "hello"
		user.NativeLanguage = b.nativeLanguage
		user.LearningLanguage = b.learningLanguage
		user.Location = "Lisbon"
	}

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	// Create initializes an empty friend list; seed the requested friends afterwards.
	for _, id := range friends {
		if err := repo.AddFriend(context.Background(), user.ID, id); err != nil {
			t.Fatalf("failed to seed friend: %v", err)
		}
	}
	user.Friends = friends

	return user, b.password
}

// FakeChatProvider records upserts and mints predictable tokens
type FakeChatProvider struct {
	mu        sync.Mutex
	upserts   []chat.User
	UpsertErr error
	TokenErr  error
}

func NewFakeChatProvider() *FakeChatProvider {
	return &FakeChatProvider{}
}

func (f *FakeChatProvider) UpsertUser(_ context.Context, user chat.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpsertErr != nil {
		return f.UpsertErr
	}
	f.upserts = append(f.upserts, user)
	return nil
}

func (f *FakeChatProvider) CreateToken(userID string) (string, error) {
	if f.TokenErr != nil {
		return "", f.TokenErr
	}
	return "chat-token-" + userID, nil
}

// Upserts returns a copy of every recorded upsert
func (f *FakeChatProvider) Upserts() []chat.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.User(nil), f.upserts...)
}

// APIClient is an HTTP client with its own cookie jar, i.e. one browser session
type APIClient struct {
	t      *testing.T
	ts     *TestServer
	Client *http.Client
}

func NewAPIClient(t *testing.T, ts *TestServer) *APIClient {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &APIClient{t: t, ts: ts, Client: &http.Client{Jar: jar}}
}

// Do sends a request with an optional JSON body. The caller closes the response body.
func (c *APIClient) Do(method, path string, body interface{}) *http.Response {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.ts.APIURL(path), reader)
	if err != nil {
		c.t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// Cookies returns the jar's cookies for the server
func (c *APIClient) Cookies() []*http.Cookie {
	req, _ := http.NewRequest(http.MethodGet, c.ts.Server.URL, nil)
	return c.Client.Jar.Cookies(req.URL)
}

// UserPayload is the subset of the user JSON tests care about
type UserPayload struct {
	ID               string   `json:"_id"`
	Email            string   `json:"email"`
	FullName         string   `json:"fullName"`
	ProfilePic       string   `json:"profilePic"`
	NativeLanguage   string   `json:"nativeLanguage"`
	LearningLanguage string   `json:"learningLanguage"`
	IsOnboarded      bool     `json:"isOnboarded"`
	Friends          []string `json:"friends"`
}

// Signup registers through the API, leaving the session cookie in the jar
func (c *APIClient) Signup(email, password, fullName string) UserPayload {
	c.t.Helper()

	resp := c.Do(http.MethodPost, "/auth/signup", map[string]string{
		"email":    email,
		"password": password,
		"fullName": fullName,
	})
	defer resp.Body.Close()
	AssertStatusCode(c.t, resp, http.StatusCreated)

	var out struct {
		Success bool        `json:"success"`
		User    UserPayload `json:"user"`
	}
	AssertJSONResponse(c.t, resp, &out)
	return out.User
}

// SignupOnboarded registers and completes onboarding in one step
func (c *APIClient) SignupOnboarded(fullName, native, learning string) UserPayload {
	c.t.Helper()

	email := fmt.Sprintf("user_%s@example.com", uuid.New().String()[:8])
	c.Signup(email, "secret1", fullName)

	resp := c.Do(http.MethodPost, "/auth/onboard", map[string]string{
		"fullName":         fullName,
		"bio":              "Hi, I am " + fullName,
		"nativeLanguage":   native,
		"learningLanguage": learning,
		"location":         "Berlin",
	})
	defer resp.Body.Close()
	AssertStatusCode(c.t, resp, http.StatusOK)

	var out struct {
		User UserPayload `json:"user"`
	}
	AssertJSONResponse(c.t, resp, &out)
	return out.User
}
