package engine

import (
	"time"

	"github.com/PixelSam123/wordgames-client/internal/protocol"
)

type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseGuessing Phase = "guessing"
	PhaseRevealed Phase = "revealed"
)

// RoundState is the game-phase projection of the event stream.
//
//	idle:     no fields set
//	guessing: Word, Deadline (round finish time)
//	revealed: Answer, Deadline (start of the next round)
//
// Deadline is stored as received and never adjusted; see Remaining.
type RoundState struct {
	Phase    Phase
	Word     string
	Answer   string
	Deadline time.Time
}

func Idle() RoundState {
	return RoundState{Phase: PhaseIdle}
}

func Guessing(word string, deadline time.Time) RoundState {
	return RoundState{Phase: PhaseGuessing, Word: word, Deadline: deadline}
}

func Revealed(answer string, next time.Time) RoundState {
	return RoundState{Phase: PhaseRevealed, Answer: answer, Deadline: next}
}

// Next folds one event into the state. Every (state, event) pair has a
// result; events that are not about the round leave it untouched.
func Next(s RoundState, ev protocol.ServerEvent) RoundState {
	switch e := ev.(type) {
	case protocol.RoundStarted:
		return Guessing(e.Word, e.Deadline)
	case protocol.RoundEnded:
		return Revealed(e.Answer, e.NextDeadline)
	case protocol.GameFinished:
		return Idle()
	default:
		// ChatMessage, ProtocolNotice, TransportError, nil
		return s
	}
}

// Reduce replays events from Idle.
func Reduce(events []protocol.ServerEvent) RoundState {
	s := Idle()
	for _, ev := range events {
		s = Next(s, ev)
	}
	return s
}

// Remaining reports deadline - now. It is negative once the deadline has
// passed and absent (false) while idle.
func Remaining(s RoundState, now time.Time) (time.Duration, bool) {
	if !s.HasDeadline() {
		return 0, false
	}
	return s.Deadline.Sub(now), true
}

func (s RoundState) HasDeadline() bool {
	switch s.Phase {
	case PhaseGuessing, PhaseRevealed:
		return true
	default:
		return false
	}
}

// Shown returns the word the round is about: the scrambled word while
// guessing, the answer once revealed.
func (s RoundState) Shown() string {
	switch s.Phase {
	case PhaseGuessing:
		return s.Word
	case PhaseRevealed:
		return s.Answer
	default:
		return ""
	}
}
