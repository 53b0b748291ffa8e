package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sketchduel/api/internal/ai"
	"github.com/sketchduel/api/internal/deck"
	"github.com/sketchduel/api/internal/game"
	"github.com/sketchduel/api/internal/recent"
)

const (
	minCandidates     = 2
	maxCandidates     = 6
	defaultCandidates = 4
)

// AnalyzeRequest asks the AI to identify a drawing. Candidates come either
// from the explicit options/correctIndex pair or from deck selection driven
// by count/deckIds/difficulty.
type AnalyzeRequest struct {
	ImageData     string   `json:"imageData"`
	Options       []string `json:"options"`
	CorrectIndex  *int     `json:"correctIndex"`
	Count         int      `json:"count"`
	DeckIDs       []int64  `json:"deckIds"`
	Difficulty    string   `json:"difficulty"`
	GameID        int64    `json:"gameId"`
	Provider      string   `json:"provider"`
	Model         string   `json:"model"`
	PromptVersion string   `json:"promptVersion"`
}

type AnalyzeResponse struct {
	AIAnalysis ai.Response       `json:"aiAnalysis"`
	Candidates deck.CandidateSet `json:"candidates"`
}

func (req *AnalyzeRequest) validate() string {
	if req.ImageData == "" {
		return "imageData is required"
	}
	if len(req.Options) > 0 {
		if req.CorrectIndex == nil {
			return "correctIndex is required with options"
		}
		if *req.CorrectIndex < 0 || *req.CorrectIndex >= len(req.Options) {
			return "correctIndex out of range"
		}
		return ""
	}
	if req.Count != 0 && (req.Count < minCandidates || req.Count > maxCandidates) {
		return "count must be between 2 and 6"
	}
	return ""
}

func (req *AnalyzeRequest) toInput() game.AnalyzeInput {
	in := game.AnalyzeInput{
		ImageData:     req.ImageData,
		Options:       req.Options,
		Count:         req.Count,
		DeckIDs:       req.DeckIDs,
		Difficulty:    req.Difficulty,
		Provider:      req.Provider,
		Model:         req.Model,
		PromptVersion: req.PromptVersion,
	}
	if req.CorrectIndex != nil {
		in.CorrectIndex = *req.CorrectIndex
	}
	if len(in.Options) == 0 && in.Count == 0 {
		in.Count = defaultCandidates
	}
	return in
}

func handleAnalyze(logger *slog.Logger, arbiter *game.Arbiter, tracker recent.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		in := req.toInput()
		if len(in.Options) == 0 && req.GameID > 0 {
			seen, err := tracker.Recent(r.Context(), req.GameID)
			if err != nil {
				logger.Warn("recent prompt lookup failed", "game_id", req.GameID, "error", err)
			}
			in.ExcludeRecent = seen
		}

		resp, set, err := arbiter.Analyze(r.Context(), in)
		if err != nil {
			writeAnalyzeError(w, err)
			return
		}

		if req.GameID > 0 && len(set.Prompts) > 0 {
			if err := tracker.Remember(r.Context(), req.GameID, set.Prompts...); err != nil {
				logger.Warn("remembering prompts failed", "game_id", req.GameID, "error", err)
			}
		}

		writeJSON(w, http.StatusOK, AnalyzeResponse{AIAnalysis: resp, Candidates: set})
	}
}

func writeAnalyzeError(w http.ResponseWriter, err error) {
	var insufficient *deck.InsufficientPromptsError
	switch {
	case errors.As(err, &insufficient):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrProviderUnavailable):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
