package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PixelSam123/wordgames-client/internal/hub"
	"github.com/PixelSam123/wordgames-client/internal/lobby"
	"github.com/PixelSam123/wordgames-client/internal/logger"
)

const (
	idleTimeout  = 10 * time.Minute
	outboxBuffer = 32
)

// Games lists the game kinds the server hosts under /ws/{game}/{room}.
var Games = map[string]bool{"anagram": true}

// Handler serves /ws/{game}/{room}. Rooms are created on first use.
func Handler(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := chi.URLParam(r, "game")
		room := chi.URLParam(r, "room")
		if !Games[game] {
			http.Error(w, "unknown game", http.StatusNotFound)
			return
		}
		if room == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}

		lb, err := h.Ensure(r.Context(), room)
		if err != nil || lb == nil {
			http.Error(w, "room not available", http.StatusServiceUnavailable)
			return
		}

		clientID := "player-" + uuid.NewString()[:8]
		log := logger.With(zap.String("room", room), zap.String("client", clientID))

		out := make(chan []byte, outboxBuffer)
		select {
		case lb.Inbox() <- lobby.Join{ClientID: clientID, Outbox: out}:
		case <-lb.Done():
			http.Error(w, "room not available", http.StatusServiceUnavailable)
			return
		}
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
		}()

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(4096)

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case frame, ok := <-out:
					if !ok {
						// The room dropped us or shut down.
						_ = conn.Close(websocket.StatusGoingAway, "room closed")
						return
					}
					ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
					err := conn.Write(ctx, websocket.MessageText, frame)
					cancel()
					if err != nil {
						log.Debug("write failed", zap.Error(err))
						return
					}
				}
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), idleTimeout)
			typ, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Debug("client closed")
				default:
					log.Debug("read ended", zap.Error(err))
				}
				return
			}
			if typ != websocket.MessageText {
				continue
			}

			select {
			case lb.Inbox() <- lobby.Chat{ClientID: clientID, Text: string(data)}:
			case <-lb.Done():
				return
			}
		}
	}
}
