// Package deck implements constrained-random prompt selection for game
// rounds. A Selector draws candidates from a Pool of deck items, picks the
// correct answer uniformly, and records usage as part of the same call.
package deck

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// Item is one drawable prompt inside a deck.
type Item struct {
	ID         int64
	DeckID     int64
	Prompt     string
	Difficulty string
	UsageCount int64
}

// Filter narrows the candidate pool. Zero values mean "no constraint".
type Filter struct {
	DeckIDs       []int64
	Difficulty    string
	ExcludeRecent []string
}

// Pool is the queryable view over stored deck items. Implementations must
// only return items whose deck is active, and BumpUsage must apply counter
// increments atomically at the storage layer (counter = counter + n).
type Pool interface {
	FilteredItems(ctx context.Context, f Filter) ([]Item, error)
	ActiveItems(ctx context.Context) ([]Item, error)
	BumpUsage(ctx context.Context, itemIDs []int64, deckCounts map[int64]int) error
}

// CandidateSet is one round's multiple-choice options in sampled order.
type CandidateSet struct {
	Prompts       []string `json:"prompts"`
	CorrectIndex  int      `json:"correctIndex"`
	CorrectPrompt string   `json:"correctPrompt"`
	DeckIDs       []int64  `json:"deckIdsUsed"`
}

// InsufficientPromptsError reports that the pool cannot satisfy the
// requested count even after the fallback.
type InsufficientPromptsError struct {
	Found  int
	Needed int
}

func (e *InsufficientPromptsError) Error() string {
	return fmt.Sprintf("not enough prompts available: found %d, need %d", e.Found, e.Needed)
}

type Selector struct {
	pool Pool
	rnd  *rand.Rand
}

func NewSelector(pool Pool) *Selector {
	return &Selector{
		pool: pool,
		rnd:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewSelectorWithRand injects a deterministic random source for tests.
func NewSelectorWithRand(pool Pool, rnd *rand.Rand) *Selector {
	return &Selector{pool: pool, rnd: rnd}
}

// Select builds one round's candidate set.
//
// When the filtered pool is smaller than count, the filters are dropped and
// every active-deck item becomes eligible again. Availability over
// precision: a round with off-deck prompts beats no round at all.
//
// Selection increments the usage counter of each chosen item and its owning
// deck (once per selected item) before returning; callers get the candidate
// prompts in sampled order, never reordered.
func (s *Selector) Select(ctx context.Context, count int, f Filter) (CandidateSet, error) {
	items, err := s.pool.FilteredItems(ctx, f)
	if err != nil {
		return CandidateSet{}, fmt.Errorf("querying prompt pool: %w", err)
	}

	if len(items) < count {
		items, err = s.pool.ActiveItems(ctx)
		if err != nil {
			return CandidateSet{}, fmt.Errorf("querying fallback pool: %w", err)
		}
	}
	if len(items) < count {
		return CandidateSet{}, &InsufficientPromptsError{Found: len(items), Needed: count}
	}

	picked := s.sample(items, count)

	set := CandidateSet{
		Prompts:      make([]string, 0, count),
		CorrectIndex: s.rnd.IntN(count),
	}
	itemIDs := make([]int64, 0, count)
	deckCounts := make(map[int64]int, count)
	for _, it := range picked {
		set.Prompts = append(set.Prompts, it.Prompt)
		itemIDs = append(itemIDs, it.ID)
		if deckCounts[it.DeckID] == 0 {
			set.DeckIDs = append(set.DeckIDs, it.DeckID)
		}
		deckCounts[it.DeckID]++
	}
	set.CorrectPrompt = set.Prompts[set.CorrectIndex]

	if err := s.pool.BumpUsage(ctx, itemIDs, deckCounts); err != nil {
		return CandidateSet{}, fmt.Errorf("recording prompt usage: %w", err)
	}
	return set, nil
}

// sample draws count distinct items uniformly without replacement.
func (s *Selector) sample(items []Item, count int) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	for i := range count {
		j := i + s.rnd.IntN(len(out)-i)
		out[i], out[j] = out[j], out[i]
	}
	return out[:count]
}
