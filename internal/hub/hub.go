package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/PixelSam123/wordgames-client/internal/lobby"
	"github.com/PixelSam123/wordgames-client/internal/logger"
	"github.com/PixelSam123/wordgames-client/internal/metrics"
)

// ErrClosed is returned by requests made after the hub stopped.
var ErrClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// EnsureLobby returns the room for Code, creating it with the hub's room
// config when it does not exist yet.
type EnsureLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

type Stats struct {
	Reply chan Snapshot
}

type ShutdownHub struct {
	Done chan struct{} // optional; closed once every room was told to stop
}

type Snapshot struct {
	Rooms []string
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	rooms   lobby.Config
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (Stats) isHubMsg()       {}
func (ShutdownHub) isHubMsg() {}

func NewHub(parent context.Context, rooms lobby.Config) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		rooms:   rooms,
		log:     logger.With(zap.String("component", "hub")),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed after the hub stopped.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

// Get, Ensure and Rooms send one request to the hub and wait for the answer.
// They give up with ErrClosed once the hub is gone, or with ctx's error.
func (h *Hub) Get(ctx context.Context, code string) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	return ask(ctx, h, GetLobby{Code: code, Reply: reply}, reply)
}

func (h *Hub) Ensure(ctx context.Context, code string) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	return ask(ctx, h, EnsureLobby{Code: code, Reply: reply}, reply)
}

func (h *Hub) Rooms(ctx context.Context) ([]string, error) {
	reply := make(chan Snapshot, 1)
	snap, err := ask(ctx, h, Stats{Reply: reply}, reply)
	return snap.Rooms, err
}

// A send into the buffered inbox can succeed after the loop exited, so the
// wait for the reply watches Done as well.
func ask[T any](ctx context.Context, h *Hub, msg HubMsg, reply <-chan T) (T, error) {
	var zero T
	select {
	case h.inbox <- msg:
	case <-h.ctx.Done():
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-h.ctx.Done():
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case EnsureLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				lb := lobby.NewLobby(h.ctx, msg.Code, h.rooms)
				h.lobbies[msg.Code] = lb
				metrics.RoomsActive.Inc()
				h.log.Info("room created", zap.String("room", msg.Code))
				msg.Reply <- lb

			case RemoveLobby:
				lb := h.lobbies[msg.Code]
				if lb == nil {
					break
				}
				lb.Inbox() <- lobby.Shutdown{}
				delete(h.lobbies, msg.Code)
				metrics.RoomsActive.Dec()
				h.log.Info("room removed", zap.String("room", msg.Code))

			case Stats:
				snap := Snapshot{Rooms: make([]string, 0, len(h.lobbies))}
				for code := range h.lobbies {
					snap.Rooms = append(snap.Rooms, code)
				}
				msg.Reply <- snap

			case ShutdownHub:
				h.shutdown()
				if msg.Done != nil {
					close(msg.Done)
				}
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for code, lb := range h.lobbies {
		lb.Inbox() <- lobby.Shutdown{}
		delete(h.lobbies, code)
		metrics.RoomsActive.Dec()
	}
	h.cancel()
}
