// Package recent remembers which prompts a game has seen so the selector
// can avoid repeats within a session. Backed by redis when available, an
// in-process map otherwise.
package recent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tracker records and recalls the prompts already shown in a game.
type Tracker interface {
	Recent(ctx context.Context, gameID int64) ([]string, error)
	Remember(ctx context.Context, gameID int64, prompts ...string) error
}

const keyTTL = 24 * time.Hour

func gameKey(gameID int64) string {
	return fmt.Sprintf("recent_prompts:%d", gameID)
}

// RedisTracker keeps a capped per-game list in redis. Entries expire a day
// after the last write, so finished games clean up on their own.
type RedisTracker struct {
	rdb   *redis.Client
	limit int
}

func NewRedisTracker(rdb *redis.Client, limit int) *RedisTracker {
	return &RedisTracker{rdb: rdb, limit: limit}
}

func (t *RedisTracker) Recent(ctx context.Context, gameID int64) ([]string, error) {
	prompts, err := t.rdb.LRange(ctx, gameKey(gameID), 0, int64(t.limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading recent prompts: %w", err)
	}
	return prompts, nil
}

func (t *RedisTracker) Remember(ctx context.Context, gameID int64, prompts ...string) error {
	if len(prompts) == 0 {
		return nil
	}
	key := gameKey(gameID)
	values := make([]interface{}, len(prompts))
	for i, p := range prompts {
		values[i] = p
	}

	pipe := t.rdb.Pipeline()
	pipe.LPush(ctx, key, values...)
	pipe.LTrim(ctx, key, 0, int64(t.limit)-1)
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remembering prompts: %w", err)
	}
	return nil
}

// MemoryTracker is the fallback when no redis is configured. Same newest-first
// capped-list semantics, no expiry.
type MemoryTracker struct {
	mu     sync.Mutex
	byGame map[int64][]string
	limit  int
}

func NewMemoryTracker(limit int) *MemoryTracker {
	return &MemoryTracker{byGame: make(map[int64][]string), limit: limit}
}

func (t *MemoryTracker) Recent(_ context.Context, gameID int64) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prompts := t.byGame[gameID]
	out := make([]string, len(prompts))
	copy(out, prompts)
	return out, nil
}

func (t *MemoryTracker) Remember(_ context.Context, gameID int64, prompts ...string) error {
	if len(prompts) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	existing := t.byGame[gameID]
	updated := make([]string, 0, len(prompts)+len(existing))
	for i := len(prompts) - 1; i >= 0; i-- {
		updated = append(updated, prompts[i])
	}
	updated = append(updated, existing...)
	if len(updated) > t.limit {
		updated = updated[:t.limit]
	}
	t.byGame[gameID] = updated
	return nil
}
