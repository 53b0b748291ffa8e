package game

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sketchduel/api/internal/ai"
	"github.com/sketchduel/api/internal/deck"
	"github.com/sketchduel/api/internal/prompt"
)

// fakeStore tracks call order so persistence-before-score-update can be
// asserted.
type fakeStore struct {
	games   map[int64]Game
	rounds  []*Round
	nextID  int64
	calls   []string
	created []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{games: make(map[int64]Game), nextID: 1}
}

func (s *fakeStore) GameByID(ctx context.Context, id int64) (Game, error) {
	s.calls = append(s.calls, "GameByID")
	g, ok := s.games[id]
	if !ok {
		return Game{}, ErrGameNotFound
	}
	return g, nil
}

func (s *fakeStore) CreateGame(ctx context.Context, g Game) (int64, error) {
	s.calls = append(s.calls, "CreateGame")
	if g.ID == 0 {
		g.ID = s.nextID
		s.nextID++
	}
	s.games[g.ID] = g
	s.created = append(s.created, g.ID)
	return g.ID, nil
}

func (s *fakeStore) InsertRound(ctx context.Context, r *Round) (int64, error) {
	s.calls = append(s.calls, "InsertRound")
	r.ID = int64(len(s.rounds) + 1)
	s.rounds = append(s.rounds, r)
	return r.ID, nil
}

func (s *fakeStore) AddToGameScore(ctx context.Context, gameID int64, delta int) (int, error) {
	s.calls = append(s.calls, "AddToGameScore")
	g := s.games[gameID]
	g.FinalScore += delta
	s.games[gameID] = g
	return g.FinalScore, nil
}

type scriptedVision struct{ content string }

func (v *scriptedVision) Invoke(ctx context.Context, prompt, imageData, model string) (ai.Completion, error) {
	return ai.Completion{Content: v.content}, nil
}
func (v *scriptedVision) Provider() string     { return "openai" }
func (v *scriptedVision) DefaultModel() string { return "gpt-4o" }
func (v *scriptedVision) ModelInfo() ai.ModelInfo {
	return ai.ModelInfo{Provider: "openai", Model: "gpt-4o", Type: "vision"}
}

type staticPool struct{ items []deck.Item }

func (p *staticPool) FilteredItems(ctx context.Context, f deck.Filter) ([]deck.Item, error) {
	return p.items, nil
}
func (p *staticPool) ActiveItems(ctx context.Context) ([]deck.Item, error) { return p.items, nil }
func (p *staticPool) BumpUsage(ctx context.Context, itemIDs []int64, deckCounts map[int64]int) error {
	return nil
}

func testArbiter(store Store, visionContent string) *Arbiter {
	pool := &staticPool{items: []deck.Item{
		{ID: 1, DeckID: 1, Prompt: "cat"},
		{ID: 2, DeckID: 1, Prompt: "dog"},
		{ID: 3, DeckID: 1, Prompt: "bird"},
		{ID: 4, DeckID: 1, Prompt: "fish"},
	}}
	selector := deck.NewSelectorWithRand(pool, rand.New(rand.NewPCG(7, 7)))
	clients := map[string]*ai.Client{
		"openai": ai.NewClient(&scriptedVision{content: visionContent}, 0),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewArbiter(store, selector, prompt.NewRegistry(), clients, "openai", "v1", logger)
}

func TestPlayRoundAIWins(t *testing.T) {
	store := newFakeStore()
	a := testArbiter(store, "0") // AI guesses index 0

	humanGuess := "dog"
	res, err := a.PlayRound(context.Background(), RoundInput{
		AnalyzeInput: AnalyzeInput{
			ImageData:    "aW1hZ2U=",
			Options:      []string{"cat", "dog", "bird", "fish"},
			CorrectIndex: 0,
		},
		GameID:          42,
		RoundNumber:     1,
		HumanGuess:      &humanGuess,
		HumanGuessIndex: intPtr(1),
		HumanIsCorrect:  false,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !res.AICorrect {
		t.Error("AI guessed the correct index, should be correct")
	}
	if res.RoundScore != -1 {
		t.Errorf("score = %d, want -1", res.RoundScore)
	}
	if res.TotalScore != -1 {
		t.Errorf("total = %d, want -1", res.TotalScore)
	}

	round := store.rounds[0]
	if round.AIGuess == nil || *round.AIGuess != "cat" {
		t.Errorf("persisted AI guess = %v, want cat", round.AIGuess)
	}
	if !round.AIIsCorrect || round.HumanIsCorrect {
		t.Error("persisted correctness flags wrong")
	}
}

func TestPlayRoundCreatesGameOnFirstUse(t *testing.T) {
	store := newFakeStore()
	a := testArbiter(store, "1")

	res, err := a.PlayRound(context.Background(), RoundInput{
		AnalyzeInput: AnalyzeInput{
			ImageData:    "aW1hZ2U=",
			Options:      []string{"cat", "dog"},
			CorrectIndex: 0,
		},
		GameID:         99,
		RoundNumber:    1,
		HumanIsCorrect: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.GameID != 99 {
		t.Errorf("expected caller-supplied game id 99, got %d", res.GameID)
	}

	g := store.games[99]
	if g.TotalRounds != DefaultTotalRounds || g.PlayerCount != DefaultPlayerCount {
		t.Errorf("game defaults not applied: %+v", g)
	}

	// Second round reuses the game.
	if _, err := a.PlayRound(context.Background(), RoundInput{
		AnalyzeInput:   AnalyzeInput{ImageData: "aWmhZ2U=", Options: []string{"cat", "dog"}, CorrectIndex: 0},
		GameID:         99,
		RoundNumber:    2,
		HumanIsCorrect: true,
	}); err != nil {
		t.Fatal(err)
	}
	if len(store.created) != 1 {
		t.Errorf("game created %d times, want 1", len(store.created))
	}
}

func TestPlayRoundPersistsBeforeScoreUpdate(t *testing.T) {
	store := newFakeStore()
	a := testArbiter(store, "0")

	if _, err := a.PlayRound(context.Background(), RoundInput{
		AnalyzeInput:   AnalyzeInput{ImageData: "aW1hZ2U=", Options: []string{"cat", "dog"}, CorrectIndex: 1},
		GameID:         1,
		HumanIsCorrect: true,
	}); err != nil {
		t.Fatal(err)
	}

	want := []string{"GameByID", "CreateGame", "InsertRound", "AddToGameScore"}
	if diff := cmp.Diff(want, store.calls); diff != "" {
		t.Errorf("call order (-want +got):\n%s", diff)
	}
}

func TestPlayRoundWithoutDrawingScoresMissingAI(t *testing.T) {
	store := newFakeStore()
	a := testArbiter(store, "0")

	res, err := a.PlayRound(context.Background(), RoundInput{
		AnalyzeInput:   AnalyzeInput{Options: []string{"cat", "dog"}, CorrectIndex: 0},
		GameID:         5,
		HumanIsCorrect: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.AIResponse != nil {
		t.Error("no drawing, no AI analysis expected")
	}
	if res.AICorrect {
		t.Error("missing AI response cannot be correct")
	}
	if res.RoundScore != 1 {
		t.Errorf("score = %d, want +1", res.RoundScore)
	}
}

func TestPlayRoundSelectsWhenNoExplicitOptions(t *testing.T) {
	store := newFakeStore()
	a := testArbiter(store, "not a guess")

	res, err := a.PlayRound(context.Background(), RoundInput{
		AnalyzeInput:   AnalyzeInput{ImageData: "aW1hZ2U=", Count: 3},
		GameID:         7,
		HumanIsCorrect: false,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Candidates.Prompts) != 3 {
		t.Fatalf("expected 3 selected candidates, got %v", res.Candidates.Prompts)
	}
	// Unparseable AI output with a wrong human: a tie, zero score.
	if res.RoundScore != 0 {
		t.Errorf("score = %d, want 0", res.RoundScore)
	}
	if res.AIResponse == nil || res.AIResponse.Success {
		t.Error("expected a failed-but-present AI response")
	}
}

func TestPlayRoundUnknownProvider(t *testing.T) {
	store := newFakeStore()
	a := testArbiter(store, "0")

	_, err := a.PlayRound(context.Background(), RoundInput{
		AnalyzeInput: AnalyzeInput{
			ImageData:    "aW1hZ2U=",
			Options:      []string{"cat", "dog"},
			CorrectIndex: 0,
			Provider:     "acme",
		},
		GameID: 1,
	})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
