package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sketchduel/api/internal/game"
)

type fakeSource struct {
	games     int
	rounds    []game.Round
	snapshots []Snapshot

	upserted map[string]Snapshot
}

func (f *fakeSource) CountGames(context.Context) (int, error)  { return f.games, nil }
func (f *fakeSource) CountRounds(context.Context) (int, error) { return len(f.rounds), nil }

func (f *fakeSource) CountRoundsSince(_ context.Context, since time.Time) (int, error) {
	n := 0
	for _, r := range f.rounds {
		if !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeSource) RoundsSince(_ context.Context, since time.Time) ([]game.Round, error) {
	var out []game.Round
	for _, r := range f.rounds {
		if !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) RoundsOn(_ context.Context, date string) ([]game.Round, error) {
	var out []game.Round
	for _, r := range f.rounds {
		if r.CreatedAt.UTC().Format("2006-01-02") == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) SnapshotsSince(context.Context, time.Time) ([]Snapshot, error) {
	return f.snapshots, nil
}

func (f *fakeSource) UpsertSnapshot(_ context.Context, s Snapshot) error {
	if f.upserted == nil {
		f.upserted = make(map[string]Snapshot)
	}
	f.upserted[s.Date+"|"+s.Provider+"|"+s.Model+"|"+s.PromptVersion] = s
	return nil
}

func testAggregator(src *fakeSource, now time.Time) *Aggregator {
	agg := NewAggregator(src)
	agg.now = func() time.Time { return now }
	return agg
}

func int64Ptr(v int64) *int64       { return &v }
func intPtr(v int) *int             { return &v }
func strPtr(v string) *string       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func aiRound(at time.Time, provider, model, version string, latency int64, humanRight, aiRight bool) game.Round {
	return game.Round{
		CreatedAt:       at,
		AIProvider:      provider,
		AIModel:         model,
		AIPromptVersion: version,
		AIGuess:         strPtr("cat"),
		AIGuessIndex:    intPtr(0),
		AIConfidence:    float64Ptr(0.5),
		AILatencyMS:     int64Ptr(latency),
		AITokensUsed:    intPtr(120),
		HumanIsCorrect:  humanRight,
		AIIsCorrect:     aiRight,
	}
}

func TestRealTimeStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		games: 3,
		rounds: []game.Round{
			aiRound(now.Add(-time.Hour), "openai", "gpt-4o", "v1", 100, true, false),
			aiRound(now.Add(-2*time.Hour), "openai", "gpt-4o", "v1", 300, false, true),
			aiRound(now.Add(-3*24*time.Hour), "anthropic", "claude", "v1", 500, true, true),
			aiRound(now.Add(-10*24*time.Hour), "openai", "gpt-4o", "v1", 900, false, false),
		},
	}

	stats, err := testAggregator(src, now).RealTimeStats(context.Background())
	if err != nil {
		t.Fatalf("RealTimeStats: %v", err)
	}

	if stats.TotalGames != 3 || stats.TotalRounds != 4 {
		t.Errorf("totals = %d games, %d rounds, want 3, 4", stats.TotalGames, stats.TotalRounds)
	}
	if stats.RoundsLast24h != 2 {
		t.Errorf("RoundsLast24h = %d, want 2", stats.RoundsLast24h)
	}
	wantWins := WinCounts{HumanWins: 1, AIWins: 1, Ties: 1, Total: 3}
	if diff := cmp.Diff(wantWins, stats.Last7Days); diff != "" {
		t.Errorf("Last7Days mismatch (-want +got):\n%s", diff)
	}
	wantLatencies := []ModelLatency{
		{Provider: "anthropic", Model: "claude", AvgLatencyMS: 500},
		{Provider: "openai", Model: "gpt-4o", AvgLatencyMS: 200},
	}
	if diff := cmp.Diff(wantLatencies, stats.AvgLatencies); diff != "" {
		t.Errorf("AvgLatencies mismatch (-want +got):\n%s", diff)
	}
}

func TestRealTimeStatsBothWrongCountsAsTie(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{rounds: []game.Round{
		aiRound(now.Add(-time.Hour), "openai", "gpt-4o", "v1", 100, false, false),
	}}

	stats, err := testAggregator(src, now).RealTimeStats(context.Background())
	if err != nil {
		t.Fatalf("RealTimeStats: %v", err)
	}
	if stats.Last7Days.Ties != 1 || stats.Last7Days.HumanWins != 0 || stats.Last7Days.AIWins != 0 {
		t.Errorf("Last7Days = %+v, want single tie", stats.Last7Days)
	}
}

func TestModelComparisonWeightsByPredictionCount(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{snapshots: []Snapshot{
		{
			Date: "2025-06-14", Provider: "openai", Model: "gpt-4o", PromptVersion: "v1",
			TotalPredictions: 10, CorrectPredictions: 8, AvgLatencyMS: 100, AvgTokens: 50,
		},
		{
			Date: "2025-06-13", Provider: "openai", Model: "gpt-4o", PromptVersion: "v1",
			TotalPredictions: 30, CorrectPredictions: 15, AvgLatencyMS: 200, AvgTokens: 150,
		},
	}}

	comparison, err := testAggregator(src, now).ModelComparison(context.Background(), 7)
	if err != nil {
		t.Fatalf("ModelComparison: %v", err)
	}
	if len(comparison.Models) != 1 {
		t.Fatalf("got %d model rows, want 1", len(comparison.Models))
	}

	row := comparison.Models[0]
	if row.TotalPredictions != 40 || row.CorrectPredictions != 23 {
		t.Errorf("predictions = %d/%d, want 23/40", row.CorrectPredictions, row.TotalPredictions)
	}
	// (10*100 + 30*200) / 40, not (100+200)/2.
	if row.AvgLatencyMS != 175 {
		t.Errorf("AvgLatencyMS = %v, want 175", row.AvgLatencyMS)
	}
	if row.AvgTokens != 125 {
		t.Errorf("AvgTokens = %v, want 125", row.AvgTokens)
	}
	if row.Accuracy != 0.575 {
		t.Errorf("Accuracy = %v, want 0.575", row.Accuracy)
	}
	if row.DaysActive != 2 {
		t.Errorf("DaysActive = %d, want 2", row.DaysActive)
	}
}

func TestModelComparisonSeparatesPromptVersions(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{snapshots: []Snapshot{
		{Date: "2025-06-14", Provider: "openai", Model: "gpt-4o", PromptVersion: "v1", TotalPredictions: 5},
		{Date: "2025-06-14", Provider: "openai", Model: "gpt-4o", PromptVersion: "v2", TotalPredictions: 5},
	}}

	comparison, err := testAggregator(src, now).ModelComparison(context.Background(), 7)
	if err != nil {
		t.Fatalf("ModelComparison: %v", err)
	}
	if len(comparison.Models) != 2 {
		t.Fatalf("got %d model rows, want 2", len(comparison.Models))
	}
	if comparison.Models[0].PromptVersion != "v1" || comparison.Models[1].PromptVersion != "v2" {
		t.Errorf("rows = %q, %q, want v1 then v2",
			comparison.Models[0].PromptVersion, comparison.Models[1].PromptVersion)
	}
}

func TestAPIPerformancePercentiles(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	latencies := []int64{30, 10, 50, 20, 40}
	src := &fakeSource{}
	for _, l := range latencies {
		src.rounds = append(src.rounds, aiRound(now.Add(-time.Minute), "openai", "gpt-4o", "v1", l, false, true))
	}

	report, err := testAggregator(src, now).APIPerformance(context.Background(), 24)
	if err != nil {
		t.Fatalf("APIPerformance: %v", err)
	}

	if report.TotalRequests != 5 || report.SuccessfulRequests != 5 || report.FailedRequests != 0 {
		t.Errorf("requests = %d total, %d ok, %d failed, want 5/5/0",
			report.TotalRequests, report.SuccessfulRequests, report.FailedRequests)
	}
	if report.SuccessRate != 1 {
		t.Errorf("SuccessRate = %v, want 1", report.SuccessRate)
	}
	want := LatencyStats{Average: 30, Min: 10, Max: 50, P50: 30, P95: 50, P99: 50}
	if diff := cmp.Diff(want, report.Latency); diff != "" {
		t.Errorf("latency mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIPerformanceCountsFailedCalls(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	failed := aiRound(now.Add(-time.Minute), "openai", "gpt-4o", "v1", 750, true, false)
	failed.AIGuess = nil
	failed.AIGuessIndex = nil
	src := &fakeSource{rounds: []game.Round{
		aiRound(now.Add(-time.Minute), "openai", "gpt-4o", "v1", 100, false, true),
		failed,
	}}

	report, err := testAggregator(src, now).APIPerformance(context.Background(), 1)
	if err != nil {
		t.Fatalf("APIPerformance: %v", err)
	}
	if report.SuccessfulRequests != 1 || report.FailedRequests != 1 {
		t.Errorf("requests = %d ok, %d failed, want 1/1", report.SuccessfulRequests, report.FailedRequests)
	}
	if report.SuccessRate != 0.5 {
		t.Errorf("SuccessRate = %v, want 0.5", report.SuccessRate)
	}
	// The failed call still has a measured latency and counts toward the
	// distribution.
	if report.Latency.Max != 750 {
		t.Errorf("Latency.Max = %d, want 750", report.Latency.Max)
	}
}

func TestAPIPerformanceEmptyWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	report, err := testAggregator(&fakeSource{}, now).APIPerformance(context.Background(), 24)
	if err != nil {
		t.Fatalf("APIPerformance: %v", err)
	}
	want := PerformanceReport{TimeframeHours: 24}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestPercentileSingleSample(t *testing.T) {
	samples := []int64{42}
	for _, p := range []float64{0.5, 0.95, 0.99} {
		if got := percentile(samples, p); got != 42 {
			t.Errorf("percentile(p=%v) = %d, want 42", p, got)
		}
	}
}

func TestRollupDay(t *testing.T) {
	day := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{rounds: []game.Round{
		aiRound(day, "openai", "gpt-4o", "v1", 100, true, true),
		aiRound(day.Add(time.Hour), "openai", "gpt-4o", "v1", 300, true, false),
		aiRound(day.Add(2*time.Hour), "anthropic", "claude", "v1", 400, false, true),
		aiRound(day.Add(24*time.Hour), "openai", "gpt-4o", "v1", 999, true, true), // next day
	}}
	agg := testAggregator(src, day.Add(26*time.Hour))

	n, err := agg.RollupDay(context.Background(), "2025-06-14")
	if err != nil {
		t.Fatalf("RollupDay: %v", err)
	}
	if n != 2 {
		t.Fatalf("rolled up %d keys, want 2", n)
	}

	snap, ok := src.upserted["2025-06-14|openai|gpt-4o|v1"]
	if !ok {
		t.Fatalf("no snapshot upserted for openai/gpt-4o, got %v", src.upserted)
	}
	if snap.TotalPredictions != 2 || snap.CorrectPredictions != 1 {
		t.Errorf("predictions = %d/%d, want 1/2", snap.CorrectPredictions, snap.TotalPredictions)
	}
	if snap.Accuracy != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", snap.Accuracy)
	}
	if snap.AvgLatencyMS != 200 {
		t.Errorf("AvgLatencyMS = %v, want 200", snap.AvgLatencyMS)
	}
	if snap.BothCorrect != 1 || snap.HumanWins != 1 || snap.AIWins != 0 || snap.BothWrong != 0 {
		t.Errorf("outcome counts = %+v, want 1 both-correct and 1 human win", snap)
	}
	if snap.AgreementRate != 0.5 {
		t.Errorf("AgreementRate = %v, want 0.5", snap.AgreementRate)
	}
}

func TestRollupDayRerunOverwrites(t *testing.T) {
	day := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{rounds: []game.Round{
		aiRound(day, "openai", "gpt-4o", "v1", 100, false, true),
	}}
	agg := testAggregator(src, day.Add(26*time.Hour))

	for i := 0; i < 2; i++ {
		if _, err := agg.RollupDay(context.Background(), "2025-06-14"); err != nil {
			t.Fatalf("RollupDay run %d: %v", i+1, err)
		}
	}

	if len(src.upserted) != 1 {
		t.Fatalf("got %d snapshot keys, want 1", len(src.upserted))
	}
	snap := src.upserted["2025-06-14|openai|gpt-4o|v1"]
	if snap.TotalPredictions != 1 {
		t.Errorf("TotalPredictions = %d after rerun, want 1 (no accumulation)", snap.TotalPredictions)
	}
}

func TestRollupDaySkipsRoundsWithoutAI(t *testing.T) {
	day := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{rounds: []game.Round{
		{CreatedAt: day, HumanIsCorrect: true, RoundScore: 1},
	}}
	agg := testAggregator(src, day.Add(26*time.Hour))

	n, err := agg.RollupDay(context.Background(), "2025-06-14")
	if err != nil {
		t.Fatalf("RollupDay: %v", err)
	}
	if n != 0 || len(src.upserted) != 0 {
		t.Errorf("rolled up %d keys with %d upserts, want none", n, len(src.upserted))
	}
}
