package engine

import (
	"fmt"
	"time"
)

const (
	GuideWaiting  = "Waiting Round Start!"
	GuideGuessing = "Please guess:"
	GuideRevealed = "Time's up! The answer is:"
)

// Display is everything a renderer needs for the round area. It is derived
// on every frame and never stored back into RoundState.
type Display struct {
	Guide   string
	Word    string
	Timer   string
	PastDue bool
}

func Project(s RoundState, now time.Time) Display {
	d := Display{Guide: guide(s.Phase), Word: s.Shown()}

	remaining, ok := Remaining(s, now)
	if !ok {
		return d
	}
	d.PastDue = remaining < 0
	d.Timer = FormatRemaining(remaining)
	return d
}

// FormatRemaining renders seconds with one decimal. Overdue values keep
// their sign and are flagged instead of being clamped to zero.
func FormatRemaining(d time.Duration) string {
	text := fmt.Sprintf("%.1f seconds", d.Seconds())
	if d < 0 {
		text += " (overdue)"
	}
	return text
}

// Line is the guide and timer joined for a single status line.
func (d Display) Line() string {
	if d.Timer == "" {
		return d.Guide
	}
	return d.Guide + " " + d.Timer
}

func guide(p Phase) string {
	switch p {
	case PhaseGuessing:
		return GuideGuessing
	case PhaseRevealed:
		return GuideRevealed
	default:
		return GuideWaiting
	}
}
