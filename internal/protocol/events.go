package protocol

import (
	"fmt"
	"time"
)

// ServerEvent is the decoded form of one inbound frame, or a synthetic event
// injected by the decoder or the bridge.
type ServerEvent interface{ isServerEvent() }

type ChatMessage struct {
	Text string
}

type RoundStarted struct {
	Word     string
	Deadline time.Time
}

type RoundEnded struct {
	Answer       string
	NextDeadline time.Time
}

type GameFinished struct{}

// ProtocolNotice replaces a frame that could not be decoded. The stream keeps
// going after it.
type ProtocolNotice struct {
	Frame  string
	Reason string
}

// TransportError is the terminal event of a connection whose socket failed.
type TransportError struct {
	Err error
}

func (ChatMessage) isServerEvent()    {}
func (RoundStarted) isServerEvent()   {}
func (RoundEnded) isServerEvent()     {}
func (GameFinished) isServerEvent()   {}
func (ProtocolNotice) isServerEvent() {}
func (TransportError) isServerEvent() {}

func (n ProtocolNotice) String() string {
	return fmt.Sprintf("malformed server message (%s): %s", n.Reason, n.Frame)
}

func (e TransportError) String() string {
	if e.Err == nil {
		return "connection lost"
	}
	return "connection lost: " + e.Err.Error()
}
