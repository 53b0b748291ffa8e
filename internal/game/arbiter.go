package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sketchduel/api/internal/ai"
	"github.com/sketchduel/api/internal/deck"
	"github.com/sketchduel/api/internal/prompt"
)

// ErrProviderUnavailable is returned when the requested AI provider has no
// configured client.
var ErrProviderUnavailable = errors.New("ai provider not configured")

// Store is the transactional record store the arbiter writes rounds through.
// AddToGameScore must apply the delta atomically at the storage layer and
// return the new running total.
type Store interface {
	GameByID(ctx context.Context, id int64) (Game, error)
	CreateGame(ctx context.Context, g Game) (int64, error)
	InsertRound(ctx context.Context, r *Round) (int64, error)
	AddToGameScore(ctx context.Context, gameID int64, delta int) (int, error)
}

// Arbiter orchestrates one round: candidate selection, AI invocation,
// scoring, and persistence.
type Arbiter struct {
	store           Store
	selector        *deck.Selector
	templates       *prompt.Registry
	clients         map[string]*ai.Client
	defaultProvider string
	defaultVersion  string
	logger          *slog.Logger
}

func NewArbiter(store Store, selector *deck.Selector, templates *prompt.Registry,
	clients map[string]*ai.Client, defaultProvider, defaultVersion string, logger *slog.Logger) *Arbiter {
	return &Arbiter{
		store:           store,
		selector:        selector,
		templates:       templates,
		clients:         clients,
		defaultProvider: defaultProvider,
		defaultVersion:  defaultVersion,
		logger:          logger,
	}
}

// AnalyzeInput describes one analysis request. Either Options carries an
// explicit candidate list with its correct index, or Count/DeckIDs/
// Difficulty/ExcludeRecent drive a fresh selection.
type AnalyzeInput struct {
	ImageData     string
	Options       []string
	CorrectIndex  int
	Count         int
	DeckIDs       []int64
	Difficulty    string
	ExcludeRecent []string
	Provider      string
	Model         string
	PromptVersion string
}

// RoundInput is AnalyzeInput plus the human side of the round.
type RoundInput struct {
	AnalyzeInput
	GameID          int64
	RoundNumber     int
	HumanGuess      *string
	HumanGuessIndex *int
	HumanIsCorrect  bool
}

// RoundResult is the scored outcome of one round.
type RoundResult struct {
	RoundID    int64            `json:"roundId"`
	GameID     int64            `json:"gameId"`
	RoundScore int              `json:"roundScore"`
	TotalScore int              `json:"totalScore"`
	AICorrect  bool             `json:"aiIsCorrect"`
	AIResponse *ai.Response      `json:"aiAnalysis,omitempty"`
	Candidates deck.CandidateSet `json:"candidates"`
}

func (a *Arbiter) version(v string) string {
	if v == "" {
		return a.defaultVersion
	}
	return v
}

func (a *Arbiter) client(provider string) (*ai.Client, error) {
	if provider == "" {
		provider = a.defaultProvider
	}
	c, ok := a.clients[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, provider)
	}
	return c, nil
}

// candidates resolves the round's candidate set, either from the caller's
// explicit options or by drawing from the decks.
func (a *Arbiter) candidates(ctx context.Context, in AnalyzeInput) (deck.CandidateSet, error) {
	if len(in.Options) > 0 {
		if in.CorrectIndex < 0 || in.CorrectIndex >= len(in.Options) {
			return deck.CandidateSet{}, fmt.Errorf("correct index %d out of range for %d options", in.CorrectIndex, len(in.Options))
		}
		return deck.CandidateSet{
			Prompts:       in.Options,
			CorrectIndex:  in.CorrectIndex,
			CorrectPrompt: in.Options[in.CorrectIndex],
		}, nil
	}
	return a.selector.Select(ctx, in.Count, deck.Filter{
		DeckIDs:       in.DeckIDs,
		Difficulty:    in.Difficulty,
		ExcludeRecent: in.ExcludeRecent,
	})
}

// Analyze resolves candidates and runs the AI analysis without persisting
// anything. The returned response is always normalized; provider failures
// surface inside it, not as an error.
func (a *Arbiter) Analyze(ctx context.Context, in AnalyzeInput) (ai.Response, deck.CandidateSet, error) {
	set, err := a.candidates(ctx, in)
	if err != nil {
		return ai.Response{}, deck.CandidateSet{}, err
	}

	client, err := a.client(in.Provider)
	if err != nil {
		return ai.Response{}, deck.CandidateSet{}, err
	}

	version := a.version(in.PromptVersion)
	rendered := a.templates.Render(version, set.Prompts)

	resp := client.Analyze(ctx, ai.Request{
		Prompt:     rendered,
		ImageData:  in.ImageData,
		Candidates: set.Prompts,
		Model:      in.Model,
	})

	a.logger.Info("drawing analyzed",
		"provider", resp.Provider,
		"model", resp.Model,
		"prompt_version", version,
		"success", resp.Success,
		"confidence", resp.Confidence,
		"latency_ms", resp.LatencyMS,
	)
	return resp, set, nil
}

// PlayRound runs one full round: analyze (when a drawing is present), score,
// persist the round, then add the score to the owning game's running total.
// The game is created on first use.
func (a *Arbiter) PlayRound(ctx context.Context, in RoundInput) (RoundResult, error) {
	version := a.version(in.PromptVersion)

	var resp *ai.Response
	set, err := a.candidates(ctx, in.AnalyzeInput)
	if err != nil {
		return RoundResult{}, err
	}
	if in.ImageData != "" {
		r, _, err := a.Analyze(ctx, AnalyzeInput{
			ImageData:     in.ImageData,
			Options:       set.Prompts,
			CorrectIndex:  set.CorrectIndex,
			Provider:      in.Provider,
			Model:         in.Model,
			PromptVersion: version,
		})
		if err != nil {
			return RoundResult{}, err
		}
		resp = &r
	}

	aiCorrect, score := Score(resp, set.CorrectIndex, in.HumanIsCorrect)

	gameID, err := a.ensureGame(ctx, in.GameID)
	if err != nil {
		return RoundResult{}, err
	}

	round := &Round{
		GameID:          gameID,
		RoundNumber:     in.RoundNumber,
		ImageData:       in.ImageData,
		Options:         set.Prompts,
		CorrectOption:   set.CorrectPrompt,
		CorrectIndex:    set.CorrectIndex,
		HumanGuess:      in.HumanGuess,
		HumanGuessIndex: in.HumanGuessIndex,
		HumanIsCorrect:  in.HumanIsCorrect,
		AIPromptVersion: version,
		AIIsCorrect:     aiCorrect,
		RoundScore:      score,
	}
	if resp != nil {
		round.AIProvider = resp.Provider
		round.AIModel = resp.Model
		round.AIGuess = resp.GuessText
		round.AIGuessIndex = resp.GuessIndex
		round.AIConfidence = &resp.Confidence
		round.AIReasoning = resp.Reasoning
		round.AILatencyMS = &resp.LatencyMS
		round.AITokensUsed = resp.TokensUsed
		round.ErrorMessage = resp.ErrorMessage
	}

	roundID, err := a.store.InsertRound(ctx, round)
	if err != nil {
		return RoundResult{}, fmt.Errorf("persisting round: %w", err)
	}

	total, err := a.store.AddToGameScore(ctx, gameID, score)
	if err != nil {
		return RoundResult{}, fmt.Errorf("updating game score: %w", err)
	}

	a.logger.Info("round scored",
		"game_id", gameID,
		"round_id", roundID,
		"round_score", score,
		"human_correct", in.HumanIsCorrect,
		"ai_correct", aiCorrect,
	)

	return RoundResult{
		RoundID:    roundID,
		GameID:     gameID,
		RoundScore: score,
		TotalScore: total,
		AICorrect:  aiCorrect,
		AIResponse: resp,
		Candidates: set,
	}, nil
}

// ensureGame returns the id of an existing game, creating it with defaults
// when absent. A zero id always creates a fresh game.
func (a *Arbiter) ensureGame(ctx context.Context, id int64) (int64, error) {
	if id != 0 {
		_, err := a.store.GameByID(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrGameNotFound) {
			return 0, fmt.Errorf("looking up game %d: %w", id, err)
		}
	}
	created, err := a.store.CreateGame(ctx, Game{
		ID:          id,
		TotalRounds: DefaultTotalRounds,
		PlayerCount: DefaultPlayerCount,
	})
	if err != nil {
		return 0, fmt.Errorf("creating game: %w", err)
	}
	a.logger.Info("auto-created game", "game_id", created)
	return created, nil
}
