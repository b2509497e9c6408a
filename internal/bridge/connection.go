package bridge

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PixelSam123/wordgames-client/internal/metrics"
	"github.com/PixelSam123/wordgames-client/internal/protocol"
)

// inbound is either a raw frame or the terminal socket error.
type inbound struct {
	frame string
	err   error
}

type Connection struct {
	id      string
	address string
	sock    Socket
	opts    Options
	log     *zap.Logger

	outbound *queue[string]
	inbound  *queue[inbound]

	// mu orders Send against the shutdown signal: once closed is set no
	// further item can enter the outbound queue.
	mu       sync.Mutex
	closed   bool
	shutdown chan struct{}
	done     chan struct{}
}

func newConnection(address string, sock Socket, opts Options) *Connection {
	id := uuid.NewString()
	return &Connection{
		id:       id,
		address:  address,
		sock:     sock,
		opts:     opts,
		log:      opts.Logger.With(zap.String("conn", id), zap.String("address", address)),
		outbound: newQueue[string](),
		inbound:  newQueue[inbound](),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (c *Connection) ID() string      { return c.id }
func (c *Connection) Address() string { return c.address }

// Done is closed after the worker has exited and the socket is closed.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Send queues text for the worker. It fails with ErrSendClosed after
// Disconnect or after the connection hit a transport error.
func (c *Connection) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrSendClosed
	}
	c.outbound.push(text)
	return nil
}

// Poll returns the next inbound event, if any. Items queued before a
// shutdown stay available after it.
func (c *Connection) Poll() (protocol.ServerEvent, bool) {
	item, ok := c.inbound.pop()
	if !ok {
		return nil, false
	}
	if item.err != nil {
		return protocol.TransportError{Err: item.err}, true
	}
	ev := protocol.Decode(item.frame)
	if notice, ok := ev.(protocol.ProtocolNotice); ok {
		metrics.ProtocolNotices.Inc()
		c.log.Debug("protocol notice", zap.String("reason", notice.Reason))
	}
	return ev, true
}

// Pending reports how many inbound items are waiting to be polled.
func (c *Connection) Pending() int { return c.inbound.len() }

// Disconnect raises the shutdown signal and returns without waiting. The
// worker sees it within one interval, writes whatever Send had already
// accepted, then closes the socket. Calling it more than once is harmless.
func (c *Connection) Disconnect() {
	if c.markClosed() {
		c.log.Info("disconnect requested")
	}
}

func (c *Connection) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.shutdown)
	return true
}
