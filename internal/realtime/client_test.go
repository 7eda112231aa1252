package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cineforge/internal/logging"
)

// channelServer upgrades incoming connections and forwards every client
// frame onto frames for the test to inspect.
func channelServer(t *testing.T, frames chan<- frame) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg frame
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case frames <- msg:
			default:
			}
		}
	}))
}

func waitFrame(t *testing.T, frames <-chan frame, event string) frame {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg := <-frames:
			if msg.Event == event {
				return msg
			}
		case <-deadline:
			t.Fatalf("no %s frame within 3s", event)
		}
	}
}

func TestRunSendsAccessTokenOnJoin(t *testing.T) {
	frames := make(chan frame, 16)
	srv := channelServer(t, frames)
	defer srv.Close()

	client, err := NewClient(Options{
		BaseURL: srv.URL,
		APIKey:  "anon-key",
		Token:   "user-jwt",
		Logger:  logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Subscribe(Subscription{Table: "movie_projects", Filter: "user_id=eq.u1"}, func(ChangeEvent) {}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	join := waitFrame(t, frames, "phx_join")
	if join.Topic != "realtime:movie_projects:user_id=eq.u1" {
		t.Fatalf("join topic = %q", join.Topic)
	}
	var payload joinPayload
	if err := json.Unmarshal(join.Payload, &payload); err != nil {
		t.Fatalf("decode join payload: %v", err)
	}
	if payload.AccessToken != "user-jwt" {
		t.Fatalf("join payload access_token = %q, want user-jwt", payload.AccessToken)
	}
	if len(payload.Config.PostgresChanges) != 1 {
		t.Fatalf("expected one change spec, got %d", len(payload.Config.PostgresChanges))
	}
	change := payload.Config.PostgresChanges[0]
	if change.Table != "movie_projects" || change.Filter != "user_id=eq.u1" {
		t.Fatalf("unexpected change spec %+v", change)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestHeartbeatRefreshesChannelToken(t *testing.T) {
	frames := make(chan frame, 16)
	srv := channelServer(t, frames)
	defer srv.Close()

	client, err := NewClient(Options{
		BaseURL:           srv.URL,
		APIKey:            "anon-key",
		Token:             "user-jwt",
		HeartbeatInterval: 20 * time.Millisecond,
		Logger:            logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Subscribe(Subscription{Table: "video_clips"}, func(ChangeEvent) {}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	waitFrame(t, frames, "heartbeat")
	refresh := waitFrame(t, frames, "access_token")
	if refresh.Topic != "realtime:video_clips" {
		t.Fatalf("refresh topic = %q", refresh.Topic)
	}
	var payload tokenPayload
	if err := json.Unmarshal(refresh.Payload, &payload); err != nil {
		t.Fatalf("decode token payload: %v", err)
	}
	if payload.AccessToken != "user-jwt" {
		t.Fatalf("refreshed token = %q, want user-jwt", payload.AccessToken)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestRunDeliversChangesToHandler(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var join frame
		if err := conn.ReadJSON(&join); err != nil {
			return
		}
		change := frame{
			Topic: join.Topic,
			Event: "postgres_changes",
			Payload: json.RawMessage(`{
				"data": {
					"table": "video_clips",
					"type": "UPDATE",
					"record": {"id": "c9", "status": "completed"}
				}
			}`),
		}
		if err := conn.WriteJSON(change); err != nil {
			return
		}
		for {
			var msg frame
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	client, err := NewClient(Options{BaseURL: srv.URL, APIKey: "anon-key", Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	events := make(chan ChangeEvent, 1)
	if err := client.Subscribe(Subscription{Table: "video_clips"}, func(event ChangeEvent) {
		select {
		case events <- event:
		default:
		}
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	select {
	case event := <-events:
		if event.Type != EventUpdate || event.Table != "video_clips" {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("handler never received the change")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
