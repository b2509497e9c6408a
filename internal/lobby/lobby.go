package lobby

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/PixelSam123/wordgames-client/internal/logger"
	"github.com/PixelSam123/wordgames-client/internal/metrics"
	"github.com/PixelSam123/wordgames-client/internal/protocol"
)

type Msg interface{ isLobbyMsg() }

// Join attaches a client. Frames for it are delivered on Outbox, which the
// lobby closes when the client is dropped or the lobby shuts down.
type Join struct {
	ClientID string
	Outbox   chan []byte
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// Chat is one text frame from a client: a guess or a chat line.
type Chat struct {
	ClientID string
	Text     string
}

func (Chat) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// timerFired is posted by the round timer. Fires whose gen no longer matches
// the lobby's are stale and ignored.
type timerFired struct{ gen int }

func (timerFired) isLobbyMsg() {}

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseGuessing Phase = "guessing"
	PhaseRevealed Phase = "revealed"
	PhaseFinished Phase = "finished"
)

type View struct {
	Phase      Phase
	Round      int
	Word       string
	Answer     string
	Deadline   time.Time
	NumClients int
}

type Config struct {
	Game      string
	RoundTime time.Duration
	BreakTime time.Duration
	Rounds    int
	Words     []string

	// Seed fixes word order and scrambling; zero picks a random seed.
	Seed uint64
}

func (c Config) withDefaults() Config {
	if c.Game == "" {
		c.Game = "anagram"
	}
	if c.RoundTime <= 0 {
		c.RoundTime = 30 * time.Second
	}
	if c.BreakTime <= 0 {
		c.BreakTime = 5 * time.Second
	}
	if c.Rounds <= 0 {
		c.Rounds = 5
	}
	if len(c.Words) == 0 {
		c.Words = DefaultWords
	}
	if c.Seed == 0 {
		c.Seed = rand.Uint64()
	}
	return c
}

type Lobby struct {
	inbox   chan Msg
	cfg     Config
	rng     *rand.Rand
	fold    cases.Caser
	log     *zap.Logger
	clients map[string]chan []byte

	phase     Phase
	round     int
	answer    string
	scrambled string
	deadline  time.Time
	gen       int
	timer     *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
}

func NewLobby(parent context.Context, code string, cfg Config) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	cfg = cfg.withDefaults()

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1|1)),
		fold:    cases.Fold(),
		log:     logger.With(zap.String("room", code), zap.String("game", cfg.Game)),
		clients: make(map[string]chan []byte),
		phase:   PhaseWaiting,
		ctx:     ctx,
		cancel:  cancel,
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = msg.Outbox
				metrics.ClientsConnected.Inc()
				l.log.Info("client joined", zap.String("client", msg.ClientID), zap.Int("clients", len(l.clients)))
				l.greet(msg.ClientID, msg.Outbox)
				if l.phase == PhaseWaiting {
					l.startRound()
				}

			case Leave:
				if _, ok := l.clients[msg.ClientID]; !ok {
					break
				}
				delete(l.clients, msg.ClientID)
				metrics.ClientsConnected.Dec()
				l.log.Info("client left", zap.String("client", msg.ClientID), zap.Int("clients", len(l.clients)))
				if len(l.clients) == 0 {
					l.reset()
				}

			case Chat:
				l.handleChat(msg)

			case timerFired:
				if msg.gen != l.gen {
					break
				}
				l.advance()

			case GetState:
				msg.Reply <- View{
					Phase:      l.phase,
					Round:      l.round,
					Word:       l.scrambled,
					Answer:     l.answer,
					Deadline:   l.deadline,
					NumClients: len(l.clients),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// greet brings a late joiner up to date with the current round.
func (l *Lobby) greet(id string, out chan []byte) {
	frames := [][]byte{protocol.EncodeChat(fmt.Sprintf("Welcome, %s!", id))}
	switch l.phase {
	case PhaseGuessing:
		frames = append(frames, protocol.EncodeRoundStarted(l.scrambled, l.deadline))
	case PhaseRevealed:
		frames = append(frames, protocol.EncodeRoundEnded(l.answer, l.deadline))
	}
	for _, f := range frames {
		if !l.deliver(id, out, f) {
			return
		}
	}
}

func (l *Lobby) handleChat(msg Chat) {
	if _, ok := l.clients[msg.ClientID]; !ok {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if l.phase == PhaseGuessing && l.fold.String(text) == l.fold.String(l.answer) {
		metrics.CorrectGuesses.WithLabelValues(l.cfg.Game).Inc()
		l.log.Info("correct guess", zap.String("client", msg.ClientID), zap.Int("round", l.round))
		l.broadcast(protocol.EncodeChat(fmt.Sprintf("%s guessed the word!", msg.ClientID)))
		l.revealRound()
		return
	}
	l.broadcast(protocol.EncodeChat(fmt.Sprintf("%s: %s", msg.ClientID, text)))
}

// advance moves the schedule on when the current deadline passes.
func (l *Lobby) advance() {
	if len(l.clients) == 0 {
		l.reset()
		return
	}
	switch l.phase {
	case PhaseGuessing:
		l.revealRound()
	case PhaseRevealed:
		if l.round >= l.cfg.Rounds {
			l.finishGame()
			return
		}
		l.startRound()
	case PhaseFinished:
		l.round = 0
		l.startRound()
	}
}

func (l *Lobby) startRound() {
	l.round++
	l.answer = l.cfg.Words[l.rng.IntN(len(l.cfg.Words))]
	l.scrambled = Scramble(l.answer, l.rng)
	l.phase = PhaseGuessing
	l.deadline = time.Now().Add(l.cfg.RoundTime)
	l.arm(l.cfg.RoundTime)

	metrics.RoundsStarted.WithLabelValues(l.cfg.Game).Inc()
	l.log.Debug("round started", zap.Int("round", l.round), zap.String("answer", l.answer))
	l.broadcast(protocol.EncodeRoundStarted(l.scrambled, l.deadline))
}

func (l *Lobby) revealRound() {
	l.phase = PhaseRevealed
	l.deadline = time.Now().Add(l.cfg.BreakTime)
	l.arm(l.cfg.BreakTime)
	l.broadcast(protocol.EncodeRoundEnded(l.answer, l.deadline))
}

func (l *Lobby) finishGame() {
	l.phase = PhaseFinished
	l.deadline = time.Now().Add(l.cfg.BreakTime)
	l.arm(l.cfg.BreakTime)
	l.log.Info("game finished", zap.Int("rounds", l.round))
	l.broadcast(protocol.EncodeGameFinished())
}

// reset parks an empty room until the next Join.
func (l *Lobby) reset() {
	l.disarm()
	l.phase = PhaseWaiting
	l.round = 0
	l.answer = ""
	l.scrambled = ""
	l.deadline = time.Time{}
}

func (l *Lobby) arm(d time.Duration) {
	l.disarm()
	gen := l.gen
	l.timer = time.AfterFunc(d, func() {
		select {
		case l.inbox <- timerFired{gen: gen}:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) disarm() {
	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (l *Lobby) shutdown() {
	l.disarm()
	for id, ch := range l.clients {
		close(ch)
		delete(l.clients, id)
		metrics.ClientsConnected.Dec()
	}
	l.cancel()
}

func (l *Lobby) broadcast(frame []byte) {
	for id, ch := range l.clients {
		l.deliver(id, ch, frame)
	}
}

// deliver never blocks; a client whose outbox is full is dropped.
func (l *Lobby) deliver(id string, ch chan []byte, frame []byte) bool {
	select {
	case ch <- frame:
		return true
	default:
		l.log.Warn("dropping slow client", zap.String("client", id))
		close(ch)
		delete(l.clients, id)
		metrics.ClientsConnected.Dec()
		return false
	}
}

func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the lobby has stopped.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }
