package server

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// DeckSummary is one row in the deck list.
type DeckSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	IsActive    bool   `json:"isActive"`
	IsPublic    bool   `json:"isPublic"`
	TotalItems  int    `json:"totalItems"`
	UsageCount  int64  `json:"usageCount"`
	CreatedAt   string `json:"createdAt"`
}

// DeckItemInfo is one prompt inside a deck, with its usage history.
type DeckItemInfo struct {
	ID               int64   `json:"id"`
	Prompt           string  `json:"prompt"`
	Difficulty       string  `json:"difficulty"`
	UsageCount       int64   `json:"usageCount"`
	HumanCorrectRate float64 `json:"humanCorrectRate"`
	AICorrectRate    float64 `json:"aiCorrectRate"`
}

type DeckDetail struct {
	DeckSummary
	Items []DeckItemInfo `json:"items"`
}

// DeckRequest is the create/update body for a deck.
type DeckRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	IsActive    *bool  `json:"isActive"`
	IsPublic    *bool  `json:"isPublic"`
}

// DeckItemRequest is one prompt to add to a deck.
type DeckItemRequest struct {
	Prompt     string `json:"prompt"`
	Difficulty string `json:"difficulty"`
}

// DeckStats summarizes how a deck has performed in play.
type DeckStats struct {
	DeckID        int64   `json:"deckId"`
	TotalItems    int     `json:"totalItems"`
	TotalUsage    int64   `json:"totalUsage"`
	RoundsPlayed  int     `json:"roundsPlayed"`
	HumanCorrect  int     `json:"humanCorrect"`
	AICorrect     int     `json:"aiCorrect"`
	HumanWinRate  float64 `json:"humanWinRate"`
	AIWinRate     float64 `json:"aiWinRate"`
	HardestPrompt string  `json:"hardestPrompt,omitempty"`
	EasiestPrompt string  `json:"easiestPrompt,omitempty"`
}

type adminSession struct {
	AdminID string
	Email   string
}

// Store is what the handlers need from persistence beyond the domain
// interfaces the arbiter and aggregator already consume.
type Store interface {
	ListDecks(ctx context.Context) ([]DeckSummary, error)
	GetDeck(ctx context.Context, id int64) (DeckDetail, error)
	CreateDeck(ctx context.Context, req DeckRequest, createdBy string) (DeckDetail, error)
	UpdateDeck(ctx context.Context, id int64, req DeckRequest) (DeckDetail, error)
	DeleteDeck(ctx context.Context, id int64) error
	AddDeckItems(ctx context.Context, deckID int64, items []DeckItemRequest) (int, error)
	DeleteDeckItems(ctx context.Context, deckID int64, itemIDs []int64) (int, error)
	DeckStats(ctx context.Context, deckID int64) (DeckStats, error)

	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	CreateAdminSession(ctx context.Context, adminID, sessionID string) error
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)
}
