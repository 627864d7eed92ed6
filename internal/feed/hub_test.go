package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gorilla/websocket"

	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Clients = %d, want %d", h.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_ForwardsPublishedEvents(t *testing.T) {
	logger := discardLogger()
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 10, Persistent: true}, watermill.NewSlogLogger(logger))
	defer pubsub.Close()

	hub := NewHub(logger, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx, pubsub, events.DefaultTopic) }()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := dial(t, srv, "")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	d := events.NewDispatcher(logger)
	d.SetPublisher(pubsub, events.DefaultTopic)
	d.Publish(context.Background(), events.ImageUploaded{Photo: models.Photo{ID: "photo-1"}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	env, err := events.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.Event != events.NameImageUploaded {
		t.Errorf("Event = %q, want %q", env.Event, events.NameImageUploaded)
	}
	if !strings.Contains(string(env.Payload), "photo-1") {
		t.Errorf("Payload %s does not carry the photo", env.Payload)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if hub.Clients() != 0 {
		t.Errorf("Clients = %d after shutdown, want 0", hub.Clients())
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(discardLogger(), nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := dial(t, srv, "")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// Broadcasting with nobody connected is a no-op.
	hub.Broadcast([]byte(`{}`))
}

func TestHub_CheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		wantOK  bool
	}{
		{"no list", nil, "https://evil.example", true},
		{"wildcard", []string{"*"}, "https://evil.example", true},
		{"listed", []string{"https://littertag.example"}, "https://littertag.example", true},
		{"not listed", []string{"https://littertag.example"}, "https://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(discardLogger(), tt.origins)
			srv := httptest.NewServer(hub)
			defer srv.Close()

			conn, resp, err := dial(t, srv, tt.origin)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Dial failed: %v", err)
				}
				conn.Close()
				return
			}
			if err == nil {
				conn.Close()
				t.Fatal("Expected handshake to be rejected")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("Expected 403 response, got %v", resp)
			}
		})
	}
}
