package types

import "encoding/json"

// Server -> Client
// ChatMessage:
//   content: string
//
// OngoingRoundInfo:
//   word_to_guess: string
//   round_finish_time: ISO-8601 timestamp
//
// FinishedRoundInfo:
//   word_answer: string
//   to_next_round_time: ISO-8601 timestamp
//
// FinishedGame:
//   content: null (or absent)

// Client -> Server
// Plain UTF-8 text frames. Chat and guesses share the same channel; the
// server decides whether a line is a correct guess.

const (
	TypeChatMessage       = "ChatMessage"
	TypeOngoingRoundInfo  = "OngoingRoundInfo"
	TypeFinishedRoundInfo = "FinishedRoundInfo"
	TypeFinishedGame      = "FinishedGame"
)

// ServerMessage is the adjacently tagged envelope every server frame uses.
type ServerMessage struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

type OngoingRoundInfo struct {
	WordToGuess     string `json:"word_to_guess"`
	RoundFinishTime string `json:"round_finish_time"`
}

type FinishedRoundInfo struct {
	WordAnswer      string `json:"word_answer"`
	ToNextRoundTime string `json:"to_next_round_time"`
}
