package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// APIClient is one signed-in session against the backend. The session lives
// in the cookie jar, so every simulated user needs its own client.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	jar, _ := cookiejar.New(nil)
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// Response types matching backend

type User struct {
	ID               string   `json:"_id"`
	Email            string   `json:"email"`
	FullName         string   `json:"fullName"`
	NativeLanguage   string   `json:"nativeLanguage"`
	LearningLanguage string   `json:"learningLanguage"`
	IsOnboarded      bool     `json:"isOnboarded"`
	Friends          []string `json:"friends"`
}

type authResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

type UserSummary struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
}

type FriendRequest struct {
	ID     string          `json:"_id"`
	Sender json.RawMessage `json:"sender"`
	Status string          `json:"status"`
}

type friendRequestsResponse struct {
	IncomingReqs []FriendRequest `json:"incomingReqs"`
	AcceptedReqs []FriendRequest `json:"acceptedReqs"`
}

// Signup registers a new account and keeps its session
func (c *APIClient) Signup(email, password, fullName string) (*User, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
		"fullName": fullName,
	}

	var result authResponse
	if err := c.do(http.MethodPost, "/auth/signup", body, http.StatusCreated, &result); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return &result.User, nil
}

// Login starts a session for an existing account
func (c *APIClient) Login(email, password string) (*User, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var result authResponse
	if err := c.do(http.MethodPost, "/auth/login", body, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &result.User, nil
}

// Onboard completes the profile of the signed-in user
func (c *APIClient) Onboard(fullName, native, learning, location string) (*User, error) {
	body := map[string]string{
		"fullName":         fullName,
		"bio":              fmt.Sprintf("Native %s speaker learning %s", native, learning),
		"nativeLanguage":   native,
		"learningLanguage": learning,
		"location":         location,
	}

	var result authResponse
	if err := c.do(http.MethodPost, "/auth/onboard", body, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("onboard: %w", err)
	}
	return &result.User, nil
}

// SendFriendRequest sends a request to recipientID and returns the new request id
func (c *APIClient) SendFriendRequest(recipientID string) (string, error) {
	var req FriendRequest
	if err := c.do(http.MethodPost, "/users/send-friend-request/"+recipientID, nil, http.StatusCreated, &req); err != nil {
		return "", fmt.Errorf("send friend request: %w", err)
	}
	return req.ID, nil
}

func (c *APIClient) AcceptFriendRequest(requestID string) error {
	if err := c.do(http.MethodPost, "/users/accept-friend-request/"+requestID, nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	return nil
}

// IncomingRequests lists pending requests addressed to the signed-in user
func (c *APIClient) IncomingRequests() ([]FriendRequest, error) {
	var result friendRequestsResponse
	if err := c.do(http.MethodGet, "/users/friend-requests", nil, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	return result.IncomingReqs, nil
}

func (c *APIClient) Friends() ([]UserSummary, error) {
	var friends []UserSummary
	if err := c.do(http.MethodGet, "/users/friends", nil, http.StatusOK, &friends); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

// WebSocketURL returns the notification socket URL and the cookie header for this session
func (c *APIClient) WebSocketURL() (string, http.Header, error) {
	u, err := url.Parse(c.baseURL + "/api/ws")
	if err != nil {
		return "", nil, err
	}

	origin := *u
	origin.Path = ""

	header := http.Header{}
	for _, cookie := range c.httpClient.Jar.Cookies(&origin) {
		header.Add("Cookie", cookie.String())
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), header, nil
}

// HTTP helpers

func (c *APIClient) do(method, path string, body interface{}, wantStatus int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+"/api"+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
