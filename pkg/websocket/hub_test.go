// pkg/websocket/hub_test.go
package websocket

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(h *Hub, room string) *Client {
	return &Client{
		hub:  h,
		send: make(chan []byte, 16),
		room: room,
		done: make(chan struct{}),
	}
}

func TestRoomKey(t *testing.T) {
	got := RoomKey(3, "O_LEVEL", "Mathematics", "QUIZ")
	if got != "3:O_LEVEL:Mathematics:QUIZ" {
		t.Fatalf("unexpected room key %q", got)
	}
}

func TestBroadcastReachesRoomSubscribersOnly(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	mathRoom := RoomKey(1, "O_LEVEL", "Mathematics", "QUIZ")
	physicsRoom := RoomKey(1, "O_LEVEL", "Physics", "QUIZ")

	math := newTestClient(hub, mathRoom)
	physics := newTestClient(hub, physicsRoom)
	hub.register <- math
	hub.register <- physics

	// Wait for both registrations to land.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		registered := len(hub.rooms[mathRoom]) == 1 && len(hub.rooms[physicsRoom]) == 1
		hub.mu.RUnlock()
		if registered {
			break
		}
		time.Sleep(time.Millisecond)
	}

	hub.BroadcastMessage(mathRoom, "leaderboard", map[string]int{"entries": 3})

	select {
	case payload := <-math.send:
		var message Message
		if err := json.Unmarshal(payload, &message); err != nil {
			t.Fatalf("broadcast payload is not valid JSON: %v", err)
		}
		if message.Type != "leaderboard" {
			t.Errorf("unexpected message type %q", message.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("math subscriber never received the broadcast")
	}

	select {
	case payload := <-physics.send:
		t.Fatalf("physics subscriber must not receive math broadcasts: %s", payload)
	default:
	}
}

func TestBroadcastToEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Must not panic or block.
	hub.BroadcastMessage(RoomKey(9, "PRIMARY", "Science", "QUIZ"), "leaderboard", nil)
}

func TestBroadcastDropsSlowSubscriber(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	room := RoomKey(1, "O_LEVEL", "Mathematics", "QUIZ")
	slow := newTestClient(hub, room)
	hub.register <- slow

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		registered := len(hub.rooms[room]) == 1
		hub.mu.RUnlock()
		if registered {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// Fill the send buffer so the next broadcast cannot be delivered.
	for i := 0; i < cap(slow.send); i++ {
		slow.send <- []byte("{}")
	}

	hub.BroadcastMessage(room, "leaderboard", nil)

	// The hub kicks the stalled subscriber instead of blocking.
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		gone := len(hub.rooms[room]) == 0
		hub.mu.RUnlock()
		if gone {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("slow subscriber was never dropped")
}

func TestBroadcastDuringChurn(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	room := RoomKey(1, "O_LEVEL", "Mathematics", "QUIZ")
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 50; i++ {
			client := newTestClient(hub, room)
			hub.register <- client
			hub.unregister <- client
		}
	}()

	// Broadcasts racing subscriber churn must not trip on the room map.
	for {
		select {
		case <-finished:
			return
		default:
			hub.BroadcastMessage(room, "leaderboard", nil)
		}
	}
}
