// Package game owns the round lifecycle: scoring a human guess against the
// AI's, persisting the round record, and keeping the owning game's running
// total.
package game

import (
	"errors"
	"time"
)

const (
	DefaultTotalRounds = 10
	DefaultPlayerCount = 1
)

// ErrGameNotFound signals the create-on-first-round path in the arbiter.
var ErrGameNotFound = errors.New("game not found")

type Game struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	TotalRounds int       `json:"totalRounds"`
	FinalScore  int       `json:"finalScore"`
	PlayerCount int       `json:"playerCount"`
}

// Round is the persisted record of one draw → guess → score cycle. Rounds
// store prompt text, not item references, so deck edits never break history.
// Immutable once written.
type Round struct {
	ID          int64     `json:"id"`
	GameID      int64     `json:"gameId"`
	RoundNumber int       `json:"roundNumber"`
	CreatedAt   time.Time `json:"createdAt"`

	ImageData     string   `json:"-"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctOption"`
	CorrectIndex  int      `json:"correctIndex"`

	HumanGuess      *string `json:"humanGuess"`
	HumanGuessIndex *int    `json:"humanGuessIndex"`
	HumanIsCorrect  bool    `json:"humanIsCorrect"`

	AIProvider      string   `json:"aiProvider"`
	AIModel         string   `json:"aiModel"`
	AIPromptVersion string   `json:"aiPromptVersion"`
	AIGuess         *string  `json:"aiGuess"`
	AIGuessIndex    *int     `json:"aiGuessIndex"`
	AIConfidence    *float64 `json:"aiConfidence"`
	AIReasoning     string   `json:"aiReasoning,omitempty"`
	AILatencyMS     *int64   `json:"aiLatencyMs"`
	AITokensUsed    *int     `json:"aiTokensUsed"`
	AIIsCorrect     bool     `json:"aiIsCorrect"`

	RoundScore   int    `json:"roundScore"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}
