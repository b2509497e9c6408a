package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"go.uber.org/zap"

	"github.com/PixelSam123/wordgames-client/internal/hub"
	"github.com/PixelSam123/wordgames-client/internal/logger"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type createRoomResponse struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

// CreateRoom reserves a fresh room code and answers with the websocket URL
// a client should connect to.
func CreateRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			existing, err := h.Get(r.Context(), c)
			if err != nil {
				unavailable(w, err)
				return
			}
			if existing == nil {
				code = c
				break
			}
			logger.Get().Debug("collision on code, regenerating", zap.String("code", c))
		}

		if _, err := h.Ensure(r.Context(), code); err != nil {
			unavailable(w, err)
			return
		}

		game := r.URL.Query().Get("game")
		if game == "" {
			game = "anagram"
		}
		scheme := "ws"
		if r.TLS != nil {
			scheme = "wss"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createRoomResponse{
			Code: code,
			URL:  scheme + "://" + r.Host + "/ws/" + game + "/" + code,
		})
	}
}

type roomsResponse struct {
	Rooms []string `json:"rooms"`
}

func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := h.Rooms(r.Context())
		if err != nil {
			unavailable(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(roomsResponse{Rooms: rooms})
	}
}

// unavailable answers a request the hub could not serve, normally because
// the server is shutting down.
func unavailable(w http.ResponseWriter, err error) {
	logger.Get().Debug("hub request failed", zap.Error(err))
	http.Error(w, "server shutting down", http.StatusServiceUnavailable)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
