package server

import (
	"log/slog"
	"net/http"

	"github.com/sketchduel/api/internal/game"
	"github.com/sketchduel/api/internal/recent"
)

// RoundRequest saves one complete round. The AI side re-runs when imageData
// is present; a round without a drawing is still scored and persisted.
type RoundRequest struct {
	AnalyzeRequest
	RoundNumber     int     `json:"roundNumber"`
	HumanGuess      *string `json:"humanGuess"`
	HumanGuessIndex *int    `json:"humanGuessIndex"`
	HumanIsCorrect  bool    `json:"humanIsCorrect"`
}

func (req *RoundRequest) validate() string {
	if req.GameID <= 0 {
		return "gameId is required"
	}
	if req.RoundNumber <= 0 {
		return "roundNumber is required"
	}
	if len(req.Options) > 0 {
		if req.CorrectIndex == nil {
			return "correctIndex is required with options"
		}
		if *req.CorrectIndex < 0 || *req.CorrectIndex >= len(req.Options) {
			return "correctIndex out of range"
		}
	}
	if req.HumanGuessIndex != nil && *req.HumanGuessIndex < 0 {
		return "humanGuessIndex out of range"
	}
	return ""
}

func handleRounds(logger *slog.Logger, arbiter *game.Arbiter, tracker recent.Tracker, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RoundRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		in := game.RoundInput{
			AnalyzeInput:    req.toInput(),
			GameID:          req.GameID,
			RoundNumber:     req.RoundNumber,
			HumanGuess:      req.HumanGuess,
			HumanGuessIndex: req.HumanGuessIndex,
			HumanIsCorrect:  req.HumanIsCorrect,
		}
		if len(in.Options) == 0 {
			seen, err := tracker.Recent(r.Context(), req.GameID)
			if err != nil {
				logger.Warn("recent prompt lookup failed", "game_id", req.GameID, "error", err)
			}
			in.ExcludeRecent = seen
		}

		result, err := arbiter.PlayRound(r.Context(), in)
		if err != nil {
			writeAnalyzeError(w, err)
			return
		}

		if len(result.Candidates.Prompts) > 0 {
			if err := tracker.Remember(r.Context(), result.GameID, result.Candidates.Prompts...); err != nil {
				logger.Warn("remembering prompts failed", "game_id", result.GameID, "error", err)
			}
		}

		broker.Publish(result.GameID, RoundEvent{
			Type:        "round_scored",
			RoundID:     result.RoundID,
			GameID:      result.GameID,
			RoundNumber: req.RoundNumber,
			RoundScore:  result.RoundScore,
			TotalScore:  result.TotalScore,
			AICorrect:   result.AICorrect,
			HumanWon:    req.HumanIsCorrect,
		})

		writeJSON(w, http.StatusCreated, result)
	}
}
