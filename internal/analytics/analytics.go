// Package analytics aggregates historical game rounds into real-time
// statistics, rolling model comparisons, and latency reports. Everything is
// computed on demand from the round store; the only writer is the daily
// rollup, which upserts one snapshot per (date, provider, model,
// prompt-version) key and is safe to re-run.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sketchduel/api/internal/game"
)

// Snapshot is one day's aggregate performance for one model configuration.
type Snapshot struct {
	Date               string  `json:"date"`
	Provider           string  `json:"provider"`
	Model              string  `json:"model"`
	PromptVersion      string  `json:"promptVersion"`
	TotalPredictions   int     `json:"totalPredictions"`
	CorrectPredictions int     `json:"correctPredictions"`
	Accuracy           float64 `json:"accuracy"`
	AvgConfidence      float64 `json:"avgConfidence"`
	AvgLatencyMS       float64 `json:"avgLatencyMs"`
	AvgTokens          float64 `json:"avgTokens"`
	AgreementRate      float64 `json:"agreementRate"`
	HumanWins          int     `json:"humanWins"`
	AIWins             int     `json:"aiWins"`
	BothCorrect        int     `json:"bothCorrect"`
	BothWrong          int     `json:"bothWrong"`
}

// Source is the read side of the round store plus snapshot persistence.
type Source interface {
	CountGames(ctx context.Context) (int, error)
	CountRounds(ctx context.Context) (int, error)
	CountRoundsSince(ctx context.Context, since time.Time) (int, error)
	RoundsSince(ctx context.Context, since time.Time) ([]game.Round, error)
	RoundsOn(ctx context.Context, date string) ([]game.Round, error)
	SnapshotsSince(ctx context.Context, since time.Time) ([]Snapshot, error)
	UpsertSnapshot(ctx context.Context, s Snapshot) error
}

type Aggregator struct {
	src Source
	now func() time.Time
}

func NewAggregator(src Source) *Aggregator {
	return &Aggregator{src: src, now: time.Now}
}

// ModelLatency is the mean AI latency for one provider/model pair.
type ModelLatency struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	AvgLatencyMS float64 `json:"avgLatencyMs"`
}

// WinCounts tallies round outcomes; a tie is both right or both wrong.
type WinCounts struct {
	HumanWins int `json:"humanWins"`
	AIWins    int `json:"aiWins"`
	Ties      int `json:"ties"`
	Total     int `json:"total"`
}

type RealTimeStats struct {
	TotalGames    int            `json:"totalGames"`
	TotalRounds   int            `json:"totalRounds"`
	RoundsLast24h int            `json:"recentRounds24h"`
	Last7Days     WinCounts      `json:"last7Days"`
	AvgLatencies  []ModelLatency `json:"averageResponseTimes"`
}

// RealTimeStats computes live running totals and the last week's
// human-vs-AI comparison.
func (a *Aggregator) RealTimeStats(ctx context.Context) (RealTimeStats, error) {
	var stats RealTimeStats
	var err error

	if stats.TotalGames, err = a.src.CountGames(ctx); err != nil {
		return stats, fmt.Errorf("counting games: %w", err)
	}
	if stats.TotalRounds, err = a.src.CountRounds(ctx); err != nil {
		return stats, fmt.Errorf("counting rounds: %w", err)
	}
	if stats.RoundsLast24h, err = a.src.CountRoundsSince(ctx, a.now().Add(-24*time.Hour)); err != nil {
		return stats, fmt.Errorf("counting recent rounds: %w", err)
	}

	rounds, err := a.src.RoundsSince(ctx, a.now().Add(-7*24*time.Hour))
	if err != nil {
		return stats, fmt.Errorf("loading weekly rounds: %w", err)
	}

	type latencyAcc struct {
		sum   int64
		count int
	}
	latencies := make(map[[2]string]*latencyAcc)

	for _, r := range rounds {
		stats.Last7Days.Total++
		switch {
		case r.HumanIsCorrect && !r.AIIsCorrect:
			stats.Last7Days.HumanWins++
		case r.AIIsCorrect && !r.HumanIsCorrect:
			stats.Last7Days.AIWins++
		default:
			stats.Last7Days.Ties++
		}

		if r.AILatencyMS != nil && r.AIProvider != "" {
			key := [2]string{r.AIProvider, r.AIModel}
			acc := latencies[key]
			if acc == nil {
				acc = &latencyAcc{}
				latencies[key] = acc
			}
			acc.sum += *r.AILatencyMS
			acc.count++
		}
	}

	for key, acc := range latencies {
		stats.AvgLatencies = append(stats.AvgLatencies, ModelLatency{
			Provider:     key[0],
			Model:        key[1],
			AvgLatencyMS: float64(acc.sum) / float64(acc.count),
		})
	}
	sort.Slice(stats.AvgLatencies, func(i, j int) bool {
		x, y := stats.AvgLatencies[i], stats.AvgLatencies[j]
		if x.Provider != y.Provider {
			return x.Provider < y.Provider
		}
		return x.Model < y.Model
	})

	return stats, nil
}

// ModelStats is the aggregated comparison row for one model configuration.
type ModelStats struct {
	Provider           string  `json:"provider"`
	Model              string  `json:"model"`
	PromptVersion      string  `json:"promptVersion"`
	TotalPredictions   int     `json:"totalPredictions"`
	CorrectPredictions int     `json:"correctPredictions"`
	Accuracy           float64 `json:"accuracy"`
	AvgLatencyMS       float64 `json:"avgResponseTimeMs"`
	AvgTokens          float64 `json:"avgTokensPerRequest"`
	DaysActive         int     `json:"daysActive"`
}

type ModelComparison struct {
	PeriodDays int          `json:"comparisonPeriodDays"`
	Models     []ModelStats `json:"models"`
}

// ModelComparison sums the daily snapshots of the last N days per model
// configuration. Latency and token averages are weighted by each day's
// prediction count, not naively averaged across days.
func (a *Aggregator) ModelComparison(ctx context.Context, days int) (ModelComparison, error) {
	cutoff := a.now().AddDate(0, 0, -days)
	snaps, err := a.src.SnapshotsSince(ctx, cutoff)
	if err != nil {
		return ModelComparison{}, fmt.Errorf("loading snapshots: %w", err)
	}

	type acc struct {
		stats      ModelStats
		latencySum float64
		tokenSum   float64
	}
	byKey := make(map[[3]string]*acc)

	for _, s := range snaps {
		key := [3]string{s.Provider, s.Model, s.PromptVersion}
		entry := byKey[key]
		if entry == nil {
			entry = &acc{stats: ModelStats{
				Provider:      s.Provider,
				Model:         s.Model,
				PromptVersion: s.PromptVersion,
			}}
			byKey[key] = entry
		}
		entry.stats.TotalPredictions += s.TotalPredictions
		entry.stats.CorrectPredictions += s.CorrectPredictions
		entry.latencySum += s.AvgLatencyMS * float64(s.TotalPredictions)
		entry.tokenSum += s.AvgTokens * float64(s.TotalPredictions)
		entry.stats.DaysActive++
	}

	out := ModelComparison{PeriodDays: days}
	for _, entry := range byKey {
		total := entry.stats.TotalPredictions
		entry.stats.Accuracy = ratio(entry.stats.CorrectPredictions, total)
		entry.stats.AvgLatencyMS = weightedAverage(entry.latencySum, total)
		entry.stats.AvgTokens = weightedAverage(entry.tokenSum, total)
		out.Models = append(out.Models, entry.stats)
	}
	sort.Slice(out.Models, func(i, j int) bool {
		x, y := out.Models[i], out.Models[j]
		if x.Provider != y.Provider {
			return x.Provider < y.Provider
		}
		if x.Model != y.Model {
			return x.Model < y.Model
		}
		return x.PromptVersion < y.PromptVersion
	})
	return out, nil
}

// LatencyStats summarizes AI latency over a window, in milliseconds.
type LatencyStats struct {
	Average float64 `json:"average"`
	Min     int64   `json:"min"`
	Max     int64   `json:"max"`
	P50     int64   `json:"p50"`
	P95     int64   `json:"p95"`
	P99     int64   `json:"p99"`
}

type PerformanceReport struct {
	TimeframeHours     int          `json:"timeframeHours"`
	TotalRequests      int          `json:"totalRequests"`
	SuccessfulRequests int          `json:"successfulRequests"`
	FailedRequests     int          `json:"failedRequests"`
	SuccessRate        float64      `json:"successRate"`
	Latency            LatencyStats `json:"responseTimeMs"`
}

// APIPerformance reports AI call success rate and latency distribution over
// the last H hours. An empty window yields a zero-filled report.
func (a *Aggregator) APIPerformance(ctx context.Context, hours int) (PerformanceReport, error) {
	report := PerformanceReport{TimeframeHours: hours}

	rounds, err := a.src.RoundsSince(ctx, a.now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return report, fmt.Errorf("loading rounds: %w", err)
	}

	var latencies []int64
	for _, r := range rounds {
		report.TotalRequests++
		if r.AIGuess != nil {
			report.SuccessfulRequests++
		}
		if r.AILatencyMS != nil {
			latencies = append(latencies, *r.AILatencyMS)
		}
	}
	report.FailedRequests = report.TotalRequests - report.SuccessfulRequests
	report.SuccessRate = ratio(report.SuccessfulRequests, report.TotalRequests)

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		var sum int64
		for _, l := range latencies {
			sum += l
		}
		report.Latency = LatencyStats{
			Average: float64(sum) / float64(len(latencies)),
			Min:     latencies[0],
			Max:     latencies[len(latencies)-1],
			P50:     percentile(latencies, 0.5),
			P95:     percentile(latencies, 0.95),
			P99:     percentile(latencies, 0.99),
		}
	}
	return report, nil
}

// RollupDay recomputes the snapshots for one date (YYYY-MM-DD) from that
// day's rounds and upserts them. Re-running for the same date overwrites;
// it never accumulates.
func (a *Aggregator) RollupDay(ctx context.Context, date string) (int, error) {
	rounds, err := a.src.RoundsOn(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("loading rounds for %s: %w", date, err)
	}

	byKey := make(map[[3]string][]game.Round)
	for _, r := range rounds {
		if r.AIProvider == "" {
			continue // round played without an AI call
		}
		key := [3]string{r.AIProvider, r.AIModel, r.AIPromptVersion}
		byKey[key] = append(byKey[key], r)
	}

	for key, group := range byKey {
		snap := Snapshot{
			Date:          date,
			Provider:      key[0],
			Model:         key[1],
			PromptVersion: key[2],
		}
		var confidenceSum, latencySum, tokenSum float64
		for _, r := range group {
			snap.TotalPredictions++
			if r.AIIsCorrect {
				snap.CorrectPredictions++
			}
			switch {
			case r.AIIsCorrect && r.HumanIsCorrect:
				snap.BothCorrect++
			case !r.AIIsCorrect && !r.HumanIsCorrect:
				snap.BothWrong++
			case r.HumanIsCorrect:
				snap.HumanWins++
			default:
				snap.AIWins++
			}
			if r.AIConfidence != nil {
				confidenceSum += *r.AIConfidence
			}
			if r.AILatencyMS != nil {
				latencySum += float64(*r.AILatencyMS)
			}
			if r.AITokensUsed != nil {
				tokenSum += float64(*r.AITokensUsed)
			}
		}
		total := snap.TotalPredictions
		snap.Accuracy = ratio(snap.CorrectPredictions, total)
		snap.AvgConfidence = weightedAverage(confidenceSum, total)
		snap.AvgLatencyMS = weightedAverage(latencySum, total)
		snap.AvgTokens = weightedAverage(tokenSum, total)
		snap.AgreementRate = ratio(snap.BothCorrect+snap.BothWrong, total)

		if err := a.src.UpsertSnapshot(ctx, snap); err != nil {
			return 0, fmt.Errorf("upserting snapshot %v: %w", key, err)
		}
	}
	return len(byKey), nil
}

// percentile is nearest-rank with truncation: index = floor(len * p),
// clamped to the last valid index. No interpolation.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func weightedAverage(weightedSum float64, totalCount int) float64 {
	if totalCount == 0 {
		return 0
	}
	return weightedSum / float64(totalCount)
}
