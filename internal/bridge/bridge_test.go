package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PixelSam123/wordgames-client/internal/protocol"
)

type readStep struct {
	frame string
	err   error
}

type fakeSocket struct {
	mu        sync.Mutex
	reads     []readStep
	readCalls int
	written   []string
	writeErr  error
	closed    int
}

func (f *fakeSocket) ReadFrame() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readCalls >= len(f.reads) {
		return "", ErrWouldBlock
	}
	step := f.reads[f.readCalls]
	f.readCalls++
	return step.frame, step.err
}

func (f *fakeSocket) WriteFrame(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, text)
	return nil
}

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeSocket) feed(steps ...readStep) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, steps...)
}

func (f *fakeSocket) getWritten() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.written...)
}

func (f *fakeSocket) getClosed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSocket) getReadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readCalls
}

func chat(text string) readStep {
	return readStep{frame: string(protocol.EncodeChat(text))}
}

func dialTo(sock Socket) DialFunc {
	return func(context.Context, string) (Socket, error) { return sock, nil }
}

func newTestBridge(dial DialFunc, notify func()) *Bridge {
	return New(dial, Options{Interval: time.Millisecond, Notify: notify, Logger: zap.NewNop()})
}

func connect(t *testing.T, sock Socket) *Connection {
	t.Helper()
	c, err := newTestBridge(dialTo(sock), nil).Connect(context.Background(), "ws://test")
	require.NoError(t, err)
	return c
}

// pollN polls until n events arrived, failing the test after within.
func pollN(t *testing.T, c *Connection, n int, within time.Duration) []protocol.ServerEvent {
	t.Helper()
	var got []protocol.ServerEvent
	deadline := time.Now().Add(within)
	for len(got) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %d of %d events: %#v", len(got), n, got)
		}
		if ev, ok := c.Poll(); ok {
			got = append(got, ev)
			continue
		}
		time.Sleep(time.Millisecond)
	}
	return got
}

func waitDone(t *testing.T, c *Connection, within time.Duration) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(within):
		t.Fatalf("worker did not exit within %v", within)
	}
}

func TestConnect_FailureReturnsConnectionError(t *testing.T) {
	dialErr := errors.New("connection refused")
	b := newTestBridge(func(context.Context, string) (Socket, error) { return nil, dialErr }, nil)

	c, err := b.Connect(context.Background(), "ws://nowhere:1")

	assert.Nil(t, c)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "ws://nowhere:1", connErr.Address)
	assert.ErrorIs(t, err, dialErr)
}

func TestConnect_NilSocketIsAnError(t *testing.T) {
	b := newTestBridge(func(context.Context, string) (Socket, error) { return nil, nil }, nil)

	_, err := b.Connect(context.Background(), "ws://test")

	var connErr *ConnectionError
	assert.ErrorAs(t, err, &connErr)
}

func TestPoll_EmptyDoesNotBlock(t *testing.T) {
	c := connect(t, &fakeSocket{})
	defer c.Disconnect()

	ev, ok := c.Poll()
	assert.False(t, ok)
	assert.Nil(t, ev)
}

func TestInbound_PreservesArrivalOrder(t *testing.T) {
	sock := &fakeSocket{}
	sock.feed(chat("one"), chat("two"), chat("three"))
	c := connect(t, sock)
	defer c.Disconnect()

	got := pollN(t, c, 3, time.Second)

	assert.Equal(t, []protocol.ServerEvent{
		protocol.ChatMessage{Text: "one"},
		protocol.ChatMessage{Text: "two"},
		protocol.ChatMessage{Text: "three"},
	}, got)
}

func TestOutbound_PreservesSubmissionOrder(t *testing.T) {
	sock := &fakeSocket{}
	c := connect(t, sock)
	defer c.Disconnect()

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Send(fmt.Sprintf("msg-%d", i)))
	}

	require.Eventually(t, func() bool { return len(sock.getWritten()) == 10 }, time.Second, time.Millisecond)
	for i, w := range sock.getWritten() {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), w)
	}
}

func TestMalformedFrame_BecomesNoticeAndStreamContinues(t *testing.T) {
	sock := &fakeSocket{}
	sock.feed(readStep{frame: "{not json"}, chat("still here"))
	c := connect(t, sock)
	defer c.Disconnect()

	got := pollN(t, c, 2, time.Second)

	notice, ok := got[0].(protocol.ProtocolNotice)
	require.True(t, ok, "got %#v", got[0])
	assert.Equal(t, "{not json", notice.Frame)
	assert.Equal(t, protocol.ChatMessage{Text: "still here"}, got[1])
}

// Two sends followed by a disconnect before the worker gets to them: both
// frames are still written, in order, and later sends are refused.
func TestDisconnect_FlushesAcceptedSendsInOrder(t *testing.T) {
	sock := &fakeSocket{}
	b := New(dialTo(sock), Options{Interval: time.Hour, Logger: zap.NewNop()})
	c, err := b.Connect(context.Background(), "ws://test")
	require.NoError(t, err)

	require.NoError(t, c.Send("hello-1"))
	require.NoError(t, c.Send("hello-2"))
	c.Disconnect()

	waitDone(t, c, time.Second)
	assert.Equal(t, []string{"hello-1", "hello-2"}, sock.getWritten())
	assert.Equal(t, 1, sock.getClosed())
	assert.ErrorIs(t, c.Send("late"), ErrSendClosed)
	assert.Equal(t, []string{"hello-1", "hello-2"}, sock.getWritten())
}

func TestDisconnect_ObservedWithinOneInterval(t *testing.T) {
	sock := &fakeSocket{}
	b := New(dialTo(sock), Options{Interval: 50 * time.Millisecond, Logger: zap.NewNop()})
	c, err := b.Connect(context.Background(), "ws://test")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	start := time.Now()
	c.Disconnect()
	waitDone(t, c, time.Second)

	assert.Less(t, time.Since(start), 50*time.Millisecond+20*time.Millisecond)
}

func TestDisconnect_IsIdempotent(t *testing.T) {
	sock := &fakeSocket{}
	c := connect(t, sock)

	c.Disconnect()
	c.Disconnect()
	waitDone(t, c, time.Second)
	c.Disconnect()

	assert.Equal(t, 1, sock.getClosed())
}

func TestDisconnect_QueuedInboundStaysDrainable(t *testing.T) {
	var notified atomic.Int32
	sock := &fakeSocket{}
	sock.feed(chat("a"), chat("b"))
	b := newTestBridge(dialTo(sock), func() { notified.Add(1) })
	c, err := b.Connect(context.Background(), "ws://test")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return c.Pending() == 2 }, time.Second, time.Millisecond)
	c.Disconnect()
	waitDone(t, c, time.Second)

	got := pollN(t, c, 2, 10*time.Millisecond)
	assert.Equal(t, protocol.ChatMessage{Text: "a"}, got[0])
	assert.Equal(t, protocol.ChatMessage{Text: "b"}, got[1])
	assert.GreaterOrEqual(t, notified.Load(), int32(2))
}

func TestReadFailure_YieldsExactlyOneTransportError(t *testing.T) {
	reset := errors.New("connection reset by peer")
	sock := &fakeSocket{}
	sock.feed(chat("before"), readStep{err: reset}, chat("after"))
	c := connect(t, sock)

	waitDone(t, c, time.Second)
	got := pollN(t, c, 2, 10*time.Millisecond)

	assert.Equal(t, protocol.ChatMessage{Text: "before"}, got[0])
	terr, ok := got[1].(protocol.TransportError)
	require.True(t, ok, "got %#v", got[1])
	assert.ErrorIs(t, terr.Err, reset)

	_, more := c.Poll()
	assert.False(t, more, "no events may follow the transport error")
	assert.Equal(t, 2, sock.getReadCalls(), "worker must stop reading after the failure")
	assert.Equal(t, 1, sock.getClosed())
	assert.ErrorIs(t, c.Send("x"), ErrSendClosed)
}

func TestWriteFailure_YieldsTransportError(t *testing.T) {
	broken := errors.New("broken pipe")
	sock := &fakeSocket{writeErr: broken}
	c := connect(t, sock)

	require.NoError(t, c.Send("doomed"))
	waitDone(t, c, time.Second)

	got := pollN(t, c, 1, 10*time.Millisecond)
	terr, ok := got[0].(protocol.TransportError)
	require.True(t, ok, "got %#v", got[0])
	assert.ErrorIs(t, terr.Err, broken)
	_, more := c.Poll()
	assert.False(t, more)
}

func TestNotify_FiresForEveryInboundItem(t *testing.T) {
	var notified atomic.Int32
	sock := &fakeSocket{}
	b := New(dialTo(sock), Options{
		Interval:        time.Millisecond,
		IdleNotifyEvery: 1 << 30,
		Notify:          func() { notified.Add(1) },
		Logger:          zap.NewNop(),
	})
	c, err := b.Connect(context.Background(), "ws://test")
	require.NoError(t, err)
	defer c.Disconnect()

	sock.feed(chat("1"), chat("2"), chat("3"))
	require.Eventually(t, func() bool { return notified.Load() == 3 }, time.Second, time.Millisecond)

	assert.Equal(t, 3, c.Pending())
}

func TestNotify_IdleTicksAreThrottled(t *testing.T) {
	var notified atomic.Int32
	sock := &fakeSocket{}
	b := New(dialTo(sock), Options{
		Interval:        time.Millisecond,
		IdleNotifyEvery: 2,
		Notify:          func() { notified.Add(1) },
		Logger:          zap.NewNop(),
	})
	c, err := b.Connect(context.Background(), "ws://test")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sock.getReadCalls() >= 20 }, time.Second, time.Millisecond)
	c.Disconnect()
	waitDone(t, c, time.Second)

	reads := int32(sock.getReadCalls())
	assert.Greater(t, notified.Load(), int32(0))
	assert.LessOrEqual(t, notified.Load(), reads/2+1)
}

// Every Send that returned nil must reach the socket, in per-sender order,
// and every refused Send must not.
func TestSendDisconnectInterleavings(t *testing.T) {
	for round := 0; round < 20; round++ {
		sock := &fakeSocket{}
		c := connect(t, sock)

		const senders, perSender = 4, 50
		accepted := make([][]string, senders)
		var wg sync.WaitGroup
		for s := 0; s < senders; s++ {
			wg.Add(1)
			go func(s int) {
				defer wg.Done()
				for i := 0; i < perSender; i++ {
					msg := fmt.Sprintf("%d-%d", s, i)
					if err := c.Send(msg); err == nil {
						accepted[s] = append(accepted[s], msg)
					} else {
						assert.ErrorIs(t, err, ErrSendClosed)
					}
				}
			}(s)
		}
		time.Sleep(time.Duration(round) * 100 * time.Microsecond)
		c.Disconnect()
		wg.Wait()
		waitDone(t, c, time.Second)

		written := sock.getWritten()
		perSenderWritten := make([][]string, senders)
		for _, w := range written {
			var s, i int
			_, err := fmt.Sscanf(w, "%d-%d", &s, &i)
			require.NoError(t, err)
			perSenderWritten[s] = append(perSenderWritten[s], w)
		}
		for s := 0; s < senders; s++ {
			assert.Equal(t, accepted[s], perSenderWritten[s], "round %d sender %d", round, s)
		}
	}
}
