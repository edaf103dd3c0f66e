package websocket_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/dom/lingo-exchange/internal/websocket"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hubServer upgrades every request and registers it under the user id in ?user=.
func hubServer(t *testing.T, hub *websocket.Hub) *httptest.Server {
	t.Helper()

	upgrader := gorillaWS.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := uuid.MustParse(r.URL.Query().Get("user"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := websocket.NewClient(hub, conn, userID)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, hub *websocket.Hub, userID uuid.UUID) *gorillaWS.Conn {
	t.Helper()

	before := hub.ConnectedClients(userID)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?user=" + userID.String()
	conn, _, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.ConnectedClients(userID) == before+1
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *gorillaWS.Conn) websocket.Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg websocket.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func expectSilence(t *testing.T, conn *gorillaWS.Conn) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestHub_SendToUser(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	server := hubServer(t, hub)

	ann, bob := uuid.New(), uuid.New()
	annConn := dial(t, server, hub, ann)
	bobTab1 := dial(t, server, hub, bob)
	bobTab2 := dial(t, server, hub, bob)

	msg, err := websocket.NewMessage(websocket.MessageTypeFriendRequestReceived, map[string]string{"hello": "bob"})
	require.NoError(t, err)
	hub.SendToUser(bob, msg)

	for _, conn := range []*gorillaWS.Conn{bobTab1, bobTab2} {
		got := readMessage(t, conn)
		assert.Equal(t, websocket.MessageTypeFriendRequestReceived, got.Type)
		assert.JSONEq(t, `{"hello":"bob"}`, string(got.Payload))
	}
	expectSilence(t, annConn)

	// Nobody connected: dropped without error.
	hub.SendToUser(uuid.New(), msg)
}

func TestHub_FriendRequestEvents(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	server := hubServer(t, hub)

	sender := &domain.User{ID: uuid.New(), FullName: "Ann", NativeLanguage: "english", LearningLanguage: "spanish"}
	recipient := &domain.User{ID: uuid.New(), FullName: "Bob", Email: "bob@example.com"}
	senderConn := dial(t, server, hub, sender.ID)
	recipientConn := dial(t, server, hub, recipient.ID)

	req := &domain.FriendRequest{
		ID:          uuid.New(),
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Status:      domain.FriendRequestPending,
		CreatedAt:   time.Now(),
		Sender:      sender,
		Recipient:   recipient,
	}

	hub.FriendRequestReceived(req)
	got := readMessage(t, recipientConn)
	require.Equal(t, websocket.MessageTypeFriendRequestReceived, got.Type)
	var received websocket.FriendRequestReceivedPayload
	require.NoError(t, json.Unmarshal(got.Payload, &received))
	assert.Equal(t, req.ID.String(), received.Request.ID)
	assert.Equal(t, "Ann", received.Request.Sender.FullName)
	assert.Equal(t, "pending", received.Request.Status)

	req.Status = domain.FriendRequestAccepted
	hub.FriendRequestAccepted(req, recipient)
	got = readMessage(t, senderConn)
	require.Equal(t, websocket.MessageTypeFriendRequestAccepted, got.Type)
	assert.NotContains(t, string(got.Payload), "bob@example.com")
	var accepted websocket.FriendRequestAcceptedPayload
	require.NoError(t, json.Unmarshal(got.Payload, &accepted))
	assert.Equal(t, req.ID.String(), accepted.RequestID)
	assert.Equal(t, recipient.ID.String(), accepted.Friend.ID)
}

func TestHub_Stop(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()
	server := hubServer(t, hub)

	user := uuid.New()
	conn := dial(t, server, hub, user)

	hub.Stop()
	hub.Stop()
	assert.Equal(t, 0, hub.ConnectedClients(user))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "stopping the hub closes live sessions")

	// Calls after Stop return instead of blocking.
	msg, err := websocket.NewMessage(websocket.MessageTypeFriendRequestAccepted, struct{}{})
	require.NoError(t, err)
	hub.SendToUser(user, msg)
	hub.Unregister(websocket.NewClient(hub, nil, user))
	hub.Register(websocket.NewClient(hub, nil, user))
	assert.Equal(t, 0, hub.ConnectedClients(user))
}
