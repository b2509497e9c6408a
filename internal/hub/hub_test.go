package hub

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/PixelSam123/wordgames-client/internal/lobby"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, lobby.Config{RoundTime: time.Minute, Seed: 7})
}

func ensure(h *Hub, code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- EnsureLobby{Code: code, Reply: reply}
	return <-reply
}

func get(h *Hub, code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- GetLobby{Code: code, Reply: reply}
	return <-reply
}

func stats(h *Hub) Snapshot {
	reply := make(chan Snapshot, 1)
	h.Inbox() <- Stats{Reply: reply}
	return <-reply
}

func TestHub_Ensure_Get_SamePointer(t *testing.T) {
	h := newTestHub(t)

	lb1 := ensure(h, "ZED123")
	lb2 := get(h, "ZED123")
	lb3 := ensure(h, "ZED123")

	if lb1 == nil || lb2 == nil || lb1 != lb2 || lb1 != lb3 {
		t.Fatalf("expected same lobby pointer")
	}
}

func TestHub_GetMissingIsNil(t *testing.T) {
	h := newTestHub(t)

	if lb := get(h, "NOPE00"); lb != nil {
		t.Fatalf("expected nil lobby for unknown code")
	}
}

func TestHub_RemoveStopsLobby(t *testing.T) {
	h := newTestHub(t)
	lb := ensure(h, "ABC123")

	h.Inbox() <- RemoveLobby{Code: "ABC123"}

	select {
	case <-lb.Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("removed lobby did not stop")
	}
	if get(h, "ABC123") != nil {
		t.Fatalf("expected lobby to be gone")
	}
}

func TestHub_StatsListsRooms(t *testing.T) {
	h := newTestHub(t)
	ensure(h, "B")
	ensure(h, "A")

	rooms := stats(h).Rooms
	sort.Strings(rooms)

	if len(rooms) != 2 || rooms[0] != "A" || rooms[1] != "B" {
		t.Fatalf("unexpected rooms %v", rooms)
	}
}

func TestHub_ShutdownStopsEverything(t *testing.T) {
	h := newTestHub(t)
	lb := ensure(h, "ROOM01")

	done := make(chan struct{})
	h.Inbox() <- ShutdownHub{Done: done}

	for name, ch := range map[string]<-chan struct{}{"ack": done, "hub": h.Done(), "lobby": lb.Done()} {
		select {
		case <-ch:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("%s not closed after shutdown", name)
		}
	}
}

func TestHub_RequestsAfterShutdownReturnErrClosed(t *testing.T) {
	h := newTestHub(t)
	ensure(h, "ROOM01")

	done := make(chan struct{})
	h.Inbox() <- ShutdownHub{Done: done}
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := h.Get(ctx, "ROOM01"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after shutdown: want ErrClosed, got %v", err)
	}
	if _, err := h.Ensure(ctx, "ROOM02"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Ensure after shutdown: want ErrClosed, got %v", err)
	}
	if _, err := h.Rooms(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("Rooms after shutdown: want ErrClosed, got %v", err)
	}
}

func TestHub_RequestHelpers(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	lb, err := h.Ensure(ctx, "HELPER")
	if err != nil || lb == nil {
		t.Fatalf("Ensure: lobby=%v err=%v", lb, err)
	}
	got, err := h.Get(ctx, "HELPER")
	if err != nil || got != lb {
		t.Fatalf("Get: want same lobby, got %v err=%v", got, err)
	}
	rooms, err := h.Rooms(ctx)
	if err != nil || len(rooms) != 1 || rooms[0] != "HELPER" {
		t.Fatalf("Rooms: got %v err=%v", rooms, err)
	}
}

func TestHub_RequestHonoursContext(t *testing.T) {
	h := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Either the send or the reply may win the race with the cancelled
	// context; both outcomes must return promptly.
	_, err := h.Get(ctx, "X")
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("want nil or context.Canceled, got %v", err)
	}
}
