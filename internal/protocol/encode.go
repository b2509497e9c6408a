package protocol

import (
	"encoding/json"
	"time"

	"github.com/PixelSam123/wordgames-client/pkg/types"
)

// FormatTimestamp renders t the way the server sends deadlines.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func EncodeChat(text string) []byte {
	content, _ := json.Marshal(text)
	return encode(types.TypeChatMessage, content)
}

func EncodeRoundStarted(word string, deadline time.Time) []byte {
	content, _ := json.Marshal(types.OngoingRoundInfo{
		WordToGuess:     word,
		RoundFinishTime: FormatTimestamp(deadline),
	})
	return encode(types.TypeOngoingRoundInfo, content)
}

func EncodeRoundEnded(answer string, next time.Time) []byte {
	content, _ := json.Marshal(types.FinishedRoundInfo{
		WordAnswer:      answer,
		ToNextRoundTime: FormatTimestamp(next),
	})
	return encode(types.TypeFinishedRoundInfo, content)
}

func EncodeGameFinished() []byte {
	return encode(types.TypeFinishedGame, json.RawMessage("null"))
}

func encode(typ string, content json.RawMessage) []byte {
	payload, _ := json.Marshal(types.ServerMessage{Type: typ, Content: content})
	return payload
}
