// Package bridge moves frames between one websocket and a consumer that polls
// once per render tick.
//
// Each Connection runs exactly one worker goroutine, and that goroutine is
// the only code that writes to or closes the socket. The consumer talks to
// it through two FIFO queues and a one-shot shutdown signal:
//
//	Send       -> outbound queue -> worker -> socket
//	socket     -> worker -> inbound queue -> Poll (decoded)
//	Disconnect -> shutdown signal -> worker flushes, closes, exits
//
// Send and Poll never block.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PixelSam123/wordgames-client/internal/logger"
	"github.com/PixelSam123/wordgames-client/internal/metrics"
)

const (
	DefaultInterval        = time.Second / 30
	DefaultIdleNotifyEvery = 2
)

var (
	// ErrWouldBlock is what Socket.ReadFrame returns when no frame is ready.
	ErrWouldBlock = errors.New("would block")
	// ErrSendClosed is the SendError: the connection is already torn down.
	ErrSendClosed = errors.New("send on closed connection")
)

// Socket is a message-oriented connection. ReadFrame must not block; it
// returns ErrWouldBlock when nothing has arrived yet.
type Socket interface {
	ReadFrame() (string, error)
	WriteFrame(text string) error
	Close() error
}

type DialFunc func(ctx context.Context, address string) (Socket, error)

// ConnectionError reports a failed connect. Nothing was started; retrying
// Connect is the recovery.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

type Options struct {
	// Interval is the worker's sleep between iterations. It bounds both CPU
	// use and how long a shutdown request can go unnoticed.
	Interval time.Duration

	// Notify wakes the consumer. It runs on the worker goroutine and must not
	// block. It is called for every inbound item and otherwise once every
	// IdleNotifyEvery iterations.
	Notify          func()
	IdleNotifyEvery int

	Logger *zap.Logger
}

type Bridge struct {
	dial DialFunc
	opts Options
}

func New(dial DialFunc, opts Options) *Bridge {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.IdleNotifyEvery <= 0 {
		opts.IdleNotifyEvery = DefaultIdleNotifyEvery
	}
	if opts.Notify == nil {
		opts.Notify = func() {}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Get()
	}
	return &Bridge{dial: dial, opts: opts}
}

// Connect dials synchronously. On success the returned Connection already has
// its worker running.
func (b *Bridge) Connect(ctx context.Context, address string) (*Connection, error) {
	sock, err := b.dial(ctx, address)
	if err == nil && sock == nil {
		err = errors.New("dialer returned no socket")
	}
	if err != nil {
		metrics.ConnectFailures.Inc()
		b.opts.Logger.Info("connect failed", zap.String("address", address), zap.Error(err))
		return nil, &ConnectionError{Address: address, Err: err}
	}

	c := newConnection(address, sock, b.opts)
	metrics.ConnectionsActive.Inc()
	c.log.Info("connected")
	go c.run()
	return c, nil
}
