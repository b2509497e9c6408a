// Package session is the single-threaded consumer of a bridge connection.
// A presentation shell calls Tick once per frame and renders View, Messages
// and Notices; user actions map to Connect, Disconnect, Send and SetAddress.
//
// A Session is not safe for concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PixelSam123/wordgames-client/internal/bridge"
	"github.com/PixelSam123/wordgames-client/internal/engine"
	"github.com/PixelSam123/wordgames-client/internal/logger"
	"github.com/PixelSam123/wordgames-client/internal/protocol"
	"github.com/PixelSam123/wordgames-client/internal/settings"
)

const (
	DefaultAddress     = "ws://localhost:3000/ws/anagram/1"
	DefaultMaxMessages = 500
)

var (
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
	ErrNoSuchNotice     = errors.New("no such notice")
)

// Conn is the part of *bridge.Connection a Session uses.
type Conn interface {
	Send(text string) error
	Poll() (protocol.ServerEvent, bool)
	Disconnect()
	Done() <-chan struct{}
}

type Connector interface {
	Connect(ctx context.Context, address string) (Conn, error)
}

type bridgeConnector struct{ b *bridge.Bridge }

func (c bridgeConnector) Connect(ctx context.Context, address string) (Conn, error) {
	conn, err := c.b.Connect(ctx, address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// FromBridge adapts a bridge to a Connector.
func FromBridge(b *bridge.Bridge) Connector { return bridgeConnector{b: b} }

type Notice struct {
	At   time.Time
	Text string
}

type Options struct {
	DefaultAddress string
	MaxMessages    int
	Logger         *zap.Logger
	Now            func() time.Time
}

type Session struct {
	connector Connector
	store     settings.Store
	opts      Options
	log       *zap.Logger

	address string
	conn    Conn
	live    bool

	state    engine.RoundState
	messages []string
	received int
	notices  []Notice
}

// New builds a Session. The address is the one saved in store, or
// opts.DefaultAddress when nothing was saved. store may be nil.
func New(connector Connector, store settings.Store, opts Options) *Session {
	if opts.DefaultAddress == "" {
		opts.DefaultAddress = DefaultAddress
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = DefaultMaxMessages
	}
	if opts.Logger == nil {
		opts.Logger = logger.Get()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		connector: connector,
		store:     store,
		opts:      opts,
		log:       opts.Logger.With(zap.String("component", "session")),
		address:   opts.DefaultAddress,
		state:     engine.Idle(),
	}
	s.loadAddress()
	return s
}

func (s *Session) loadAddress() {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	addr, err := s.store.Load(ctx)
	switch {
	case err == nil:
		s.address = addr
	case errors.Is(err, settings.ErrNotFound):
	default:
		s.log.Warn("load saved address", zap.Error(err))
		s.notice("could not load saved address: " + err.Error())
	}
}

func (s *Session) Address() string                   { return s.address }
func (s *Session) Connected() bool                   { return s.live }
func (s *Session) State() engine.RoundState          { return s.state }
func (s *Session) View(now time.Time) engine.Display { return engine.Project(s.state, now) }

// Connect dials the current address. A connection that is still tearing
// down is waited for first, so two sockets are never open at once.
func (s *Session) Connect(ctx context.Context) error {
	if s.live {
		return ErrAlreadyConnected
	}
	if s.conn != nil {
		select {
		case <-s.conn.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		s.conn = nil
	}

	conn, err := s.connector.Connect(ctx, s.address)
	if err != nil {
		s.notice(err.Error())
		return err
	}
	s.conn = conn
	s.live = true
	s.state = engine.Idle()
	s.log.Info("connected", zap.String("address", s.address))
	return nil
}

// Disconnect asks the connection to shut down and resets the round. Events
// already queued are still drained by Tick; round updates among them are
// ignored.
func (s *Session) Disconnect() {
	if !s.live {
		return
	}
	s.conn.Disconnect()
	s.live = false
	s.state = engine.Idle()
	s.log.Info("disconnected", zap.String("address", s.address))
}

// Wait blocks until the last connection has finished tearing down.
func (s *Session) Wait(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	select {
	case <-s.conn.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send submits a chat line or guess. Empty text is ignored.
func (s *Session) Send(text string) error {
	if text == "" {
		return nil
	}
	if !s.live {
		s.notice("not connected")
		return ErrNotConnected
	}
	if err := s.conn.Send(text); err != nil {
		s.notice("send failed: " + err.Error())
		return err
	}
	return nil
}

// Tick drains every event that is ready and reports how many it handled.
func (s *Session) Tick() int {
	if s.conn == nil {
		return 0
	}
	n := 0
	for {
		ev, ok := s.conn.Poll()
		if !ok {
			return n
		}
		n++
		s.handle(ev)
	}
}

func (s *Session) handle(ev protocol.ServerEvent) {
	switch e := ev.(type) {
	case protocol.ChatMessage:
		s.messages = append(s.messages, e.Text)
		s.received++
		if over := len(s.messages) - s.opts.MaxMessages; over > 0 {
			s.messages = append(s.messages[:0], s.messages[over:]...)
		}
	case protocol.ProtocolNotice:
		s.notice(e.String())
	case protocol.TransportError:
		s.notice(e.String())
		if s.live {
			s.conn.Disconnect()
			s.live = false
			s.state = engine.Idle()
		}
	default:
		if s.live {
			s.state = engine.Next(s.state, ev)
		}
	}
}

// SetAddress changes the address used by the next Connect and saves it.
// It is refused while a connection is live.
func (s *Session) SetAddress(ctx context.Context, address string) error {
	if s.live {
		return ErrAlreadyConnected
	}
	s.address = address
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, address); err != nil {
		s.notice("could not save address: " + err.Error())
		return fmt.Errorf("save address: %w", err)
	}
	return nil
}

func (s *Session) Messages() []string {
	return append([]string(nil), s.messages...)
}

// Received counts every chat message seen, including ones dropped from the
// log by MaxMessages.
func (s *Session) Received() int { return s.received }

func (s *Session) Notices() []Notice {
	return append([]Notice(nil), s.notices...)
}

func (s *Session) DismissNotice(i int) error {
	if i < 0 || i >= len(s.notices) {
		return ErrNoSuchNotice
	}
	s.notices = append(s.notices[:i], s.notices[i+1:]...)
	return nil
}

func (s *Session) notice(text string) {
	s.notices = append(s.notices, Notice{At: s.opts.Now(), Text: text})
}
