package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/PixelSam123/wordgames-client/pkg/types"
)

var (
	ErrUnknownType  = errors.New("unknown message type")
	ErrMissingField = errors.New("missing field")
	ErrBadTimestamp = errors.New("bad timestamp")
)

// Field names are matched exactly. encoding/json folds case when filling
// structs, so objects are read into maps and looked up by key instead.
type object map[string]json.RawMessage

// Decode maps exactly one frame to exactly one event. It never fails: any
// frame it cannot make sense of comes back as a ProtocolNotice.
func Decode(frame string) ServerEvent {
	ev, err := decode(frame)
	if err != nil {
		return ProtocolNotice{Frame: frame, Reason: err.Error()}
	}
	return ev
}

func decode(frame string) (ServerEvent, error) {
	var env object
	if err := json.Unmarshal([]byte(frame), &env); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	typ, err := env.str("type")
	if err != nil {
		return nil, err
	}

	switch typ {
	case types.TypeChatMessage:
		var text string
		if err := unmarshalContent(env["content"], &text); err != nil {
			return nil, err
		}
		return ChatMessage{Text: text}, nil

	case types.TypeOngoingRoundInfo:
		var info object
		if err := unmarshalContent(env["content"], &info); err != nil {
			return nil, err
		}
		word, err := info.str("word_to_guess")
		if err != nil {
			return nil, err
		}
		deadline, err := info.timestamp("round_finish_time")
		if err != nil {
			return nil, err
		}
		return RoundStarted{Word: word, Deadline: deadline}, nil

	case types.TypeFinishedRoundInfo:
		var info object
		if err := unmarshalContent(env["content"], &info); err != nil {
			return nil, err
		}
		answer, err := info.str("word_answer")
		if err != nil {
			return nil, err
		}
		next, err := info.timestamp("to_next_round_time")
		if err != nil {
			return nil, err
		}
		return RoundEnded{Answer: answer, NextDeadline: next}, nil

	case types.TypeFinishedGame:
		return GameFinished{}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

// str returns the string stored under exactly name. Absent and null both
// count as missing.
func (o object) str(name string) (string, error) {
	raw, ok := o[name]
	if !ok || string(raw) == "null" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

func (o object) timestamp(name string) (time.Time, error) {
	s, err := o.str(name)
	if err != nil {
		return time.Time{}, err
	}
	return ParseTimestamp(s)
}

func unmarshalContent(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: content", ErrMissingField)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	return nil
}
