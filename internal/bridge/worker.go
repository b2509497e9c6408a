package bridge

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/PixelSam123/wordgames-client/internal/metrics"
)

func (c *Connection) run() {
	defer close(c.done)
	defer metrics.ConnectionsActive.Dec()

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	iterations := 0
	for {
		select {
		case <-c.shutdown:
			c.teardown()
			return
		default:
		}

		if text, ok := c.outbound.pop(); ok {
			if err := c.sock.WriteFrame(text); err != nil {
				c.fail(fmt.Errorf("write: %w", err))
				return
			}
			metrics.FramesSent.Inc()
		}

		frame, err := c.sock.ReadFrame()
		switch {
		case err == nil:
			metrics.FramesReceived.Inc()
			c.inbound.push(inbound{frame: frame})
			c.opts.Notify()
		case errors.Is(err, ErrWouldBlock):
		default:
			c.fail(fmt.Errorf("read: %w", err))
			return
		}

		iterations++
		if iterations >= c.opts.IdleNotifyEvery {
			iterations = 0
			c.opts.Notify()
		}

		select {
		case <-c.shutdown:
		case <-ticker.C:
		}
	}
}

// teardown runs after a requested shutdown. Items Send accepted before the
// signal are written in order; nothing can be added after it.
func (c *Connection) teardown() {
	var err error
	flushed := 0
	for {
		text, ok := c.outbound.pop()
		if !ok {
			break
		}
		if werr := c.sock.WriteFrame(text); werr != nil {
			err = multierr.Append(err, fmt.Errorf("flush: %w", werr))
			break
		}
		metrics.FramesSent.Inc()
		flushed++
	}
	err = multierr.Append(err, c.sock.Close())

	if err != nil {
		c.log.Warn("disconnected with errors", zap.Int("flushed", flushed), zap.Error(err))
		return
	}
	c.log.Info("disconnected", zap.Int("flushed", flushed))
}

// fail ends the connection after a socket error. The error is queued as the
// last inbound item; the worker reads nothing after it.
func (c *Connection) fail(err error) {
	c.markClosed()
	metrics.TransportErrors.Inc()
	c.inbound.push(inbound{err: err})
	c.opts.Notify()

	if cerr := c.sock.Close(); cerr != nil {
		c.log.Debug("close after failure", zap.Error(cerr))
	}
	c.log.Warn("transport error", zap.Error(err))
}
