package roomchat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer is a minimal room server speaking the same wire protocol.
type chatServer struct {
	mu    sync.Mutex
	rooms []string
	kick  chan struct{}
}

func (s *chatServer) handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws/{room}", s.serveWS)
	return r
}

func (s *chatServer) serveWS(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer c.CloseNow()

	s.mu.Lock()
	s.rooms = append(s.rooms, room)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-s.kick:
			_ = c.Close(websocket.StatusGoingAway, "restart")
		case <-ctx.Done():
		}
	}()

	var hello struct {
		Username string `json:"username"`
	}
	if err := wsjson.Read(ctx, c, &hello); err != nil {
		return
	}
	info := map[string]any{
		"type": "room_info",
		"room": room,
		"users": []map[string]string{
			{"username": hello.Username, "user_id": "u1", "joined_at": "2024-05-01T10:00:00"},
		},
	}
	if err := wsjson.Write(ctx, c, info); err != nil {
		return
	}

	for {
		var in struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if err := wsjson.Read(ctx, c, &in); err != nil {
			return
		}
		if in.Type != "chat_message" {
			continue
		}
		out := map[string]string{
			"type":      "chat_message",
			"username":  hello.Username,
			"user_id":   "u1",
			"message":   in.Message,
			"timestamp": "2024-05-01T10:00:01",
		}
		if err := wsjson.Write(ctx, c, out); err != nil {
			return
		}
	}
}

func (s *chatServer) visited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.rooms...)
}

func TestSessionOverWebSocket(t *testing.T) {
	srv := &chatServer{kick: make(chan struct{})}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = ts.URL
	view := &recordingView{}
	clock := &manualClock{}
	s, err := NewSession(cfg, WithView(view), WithClock(clock))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetUsername("alice"))
	require.Eventually(t, func() bool { return len(s.Roster()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []RosterEntry{{UserID: "u1", Username: "alice", JoinedAt: "2024-05-01T10:00:00"}}, s.Roster())

	require.NoError(t, s.SendChat("hello"))
	require.Eventually(t, func() bool { return len(view.messageList()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "alice: hello @2024-05-01T10:00:01", view.messageList()[0])

	require.NoError(t, s.JoinRoom("lobby"))
	require.Eventually(t, func() bool { return s.State() == StateConnected }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(srv.visited()) == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"general", "lobby"}, srv.visited())

	// server goes away: one retry is scheduled
	close(srv.kick)
	require.Eventually(t, func() bool { return s.State() == StateReconnecting }, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, clock.pending(), 1)
	assert.Empty(t, view.transportErrors(), "going away is a normal closure")
}
