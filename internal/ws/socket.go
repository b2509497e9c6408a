package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/coder/websocket"

	"github.com/PixelSam123/wordgames-client/internal/bridge"
)

const (
	readLimit    = 1 << 20
	writeTimeout = 3 * time.Second
	pumpBuffer   = 64
)

type readResult struct {
	frame string
	err   error
}

// socket adapts a coder/websocket client connection to bridge.Socket.
// The library only offers blocking reads, so a private pump goroutine reads
// ahead into a buffered channel and ReadFrame takes from it without waiting.
type socket struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	frames chan readResult
}

// Dial opens a websocket client connection. It satisfies bridge.DialFunc.
func Dial(ctx context.Context, address string) (bridge.Socket, error) {
	conn, _, err := websocket.Dial(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	conn.SetReadLimit(readLimit)

	pumpCtx, cancel := context.WithCancel(context.Background())
	s := &socket{
		conn:   conn,
		ctx:    pumpCtx,
		cancel: cancel,
		frames: make(chan readResult, pumpBuffer),
	}
	go s.pump()
	return s, nil
}

func (s *socket) pump() {
	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			select {
			case s.frames <- readResult{err: err}:
			case <-s.ctx.Done():
			}
			return
		}
		select {
		case s.frames <- readResult{frame: string(data)}:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *socket) ReadFrame() (string, error) {
	select {
	case r := <-s.frames:
		if r.err != nil {
			return "", closeReason(r.err)
		}
		return r.frame, nil
	default:
		return "", bridge.ErrWouldBlock
	}
}

func (s *socket) WriteFrame(text string) error {
	ctx, cancel := context.WithTimeout(s.ctx, writeTimeout)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, []byte(text))
}

func (s *socket) Close() error {
	err := s.conn.Close(websocket.StatusNormalClosure, "bye")
	s.cancel()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// closeReason labels a peer close so the user sees why the game went away.
func closeReason(err error) error {
	switch status := websocket.CloseStatus(err); status {
	case -1:
		return err
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return fmt.Errorf("server closed the connection: %w", err)
	default:
		return fmt.Errorf("server closed the connection (%v): %w", status, err)
	}
}
