package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sketchduel/api/internal/analytics"
	"github.com/sketchduel/api/internal/deck"
	"github.com/sketchduel/api/internal/game"
)

// Timestamps are stored as sqlite TEXT in this layout (see the migrations'
// strftime defaults).
const sqliteTimeLayout = "2006-01-02T15:04:05.000Z"

// SQLiteStore backs the HTTP layer, the deck selector, the round arbiter,
// and the analytics aggregator with one sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// --- deck.Pool ---

const itemColumns = `i.id, i.deck_id, i.prompt, i.difficulty, i.usage_count`

func (s *SQLiteStore) FilteredItems(ctx context.Context, f deck.Filter) ([]deck.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM deck_items i
		JOIN decks d ON d.id = i.deck_id
		WHERE d.is_active = 1`
	var args []any

	if len(f.DeckIDs) > 0 {
		query += ` AND i.deck_id IN (` + placeholders(len(f.DeckIDs)) + `)`
		for _, id := range f.DeckIDs {
			args = append(args, id)
		}
	}
	if f.Difficulty != "" {
		// Both the deck and the item must carry the requested difficulty.
		query += ` AND d.difficulty = ? AND i.difficulty = ?`
		args = append(args, f.Difficulty, f.Difficulty)
	}
	if len(f.ExcludeRecent) > 0 {
		query += ` AND i.prompt NOT IN (` + placeholders(len(f.ExcludeRecent)) + `)`
		for _, p := range f.ExcludeRecent {
			args = append(args, p)
		}
	}

	return s.queryItems(ctx, query, args...)
}

func (s *SQLiteStore) ActiveItems(ctx context.Context) ([]deck.Item, error) {
	return s.queryItems(ctx, `
		SELECT `+itemColumns+`
		FROM deck_items i
		JOIN decks d ON d.id = i.deck_id
		WHERE d.is_active = 1`)
}

func (s *SQLiteStore) queryItems(ctx context.Context, query string, args ...any) ([]deck.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []deck.Item
	for rows.Next() {
		var it deck.Item
		if err := rows.Scan(&it.ID, &it.DeckID, &it.Prompt, &it.Difficulty, &it.UsageCount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) BumpUsage(ctx context.Context, itemIDs []int64, deckCounts map[int64]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if len(itemIDs) > 0 {
		query := `UPDATE deck_items SET usage_count = usage_count + 1 WHERE id IN (` + placeholders(len(itemIDs)) + `)`
		args := make([]any, len(itemIDs))
		for i, id := range itemIDs {
			args[i] = id
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	for deckID, n := range deckCounts {
		if _, err := tx.ExecContext(ctx, `
			UPDATE decks SET usage_count = usage_count + ?,
				updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
			WHERE id = ?
		`, n, deckID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// --- game.Store ---

func (s *SQLiteStore) GameByID(ctx context.Context, id int64) (game.Game, error) {
	var g game.Game
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, total_rounds, final_score, player_count
		FROM games WHERE id = ?
	`, id).Scan(&g.ID, &createdAt, &g.TotalRounds, &g.FinalScore, &g.PlayerCount)
	if errors.Is(err, sql.ErrNoRows) {
		return g, game.ErrGameNotFound
	}
	if err != nil {
		return g, err
	}
	g.CreatedAt = parseTime(createdAt)
	return g, nil
}

func (s *SQLiteStore) CreateGame(ctx context.Context, g game.Game) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO games (id, total_rounds, player_count)
		VALUES (NULLIF(?, 0), ?, ?)
		RETURNING id
	`, g.ID, g.TotalRounds, g.PlayerCount).Scan(&id)
	return id, err
}

func (s *SQLiteStore) InsertRound(ctx context.Context, r *game.Round) (int64, error) {
	optionsJSON, err := json.Marshal(r.Options)
	if err != nil {
		return 0, fmt.Errorf("encoding options: %w", err)
	}

	var id int64
	var createdAt string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO game_rounds (
			game_id, round_number, image_data, options, correct_option, correct_index,
			human_guess, human_guess_index, human_is_correct,
			ai_provider, ai_model, ai_prompt_version,
			ai_guess, ai_guess_index, ai_confidence, ai_reasoning,
			ai_latency_ms, ai_tokens_used, ai_is_correct,
			round_score, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`,
		r.GameID, r.RoundNumber, r.ImageData, string(optionsJSON), r.CorrectOption, r.CorrectIndex,
		r.HumanGuess, r.HumanGuessIndex, boolToInt(r.HumanIsCorrect),
		r.AIProvider, r.AIModel, r.AIPromptVersion,
		r.AIGuess, r.AIGuessIndex, r.AIConfidence, r.AIReasoning,
		r.AILatencyMS, r.AITokensUsed, boolToInt(r.AIIsCorrect),
		r.RoundScore, r.ErrorMessage,
	).Scan(&id, &createdAt)
	if err != nil {
		return 0, err
	}

	r.ID = id
	r.CreatedAt = parseTime(createdAt)
	return id, nil
}

func (s *SQLiteStore) AddToGameScore(ctx context.Context, gameID int64, delta int) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		UPDATE games SET final_score = final_score + ?
		WHERE id = ?
		RETURNING final_score
	`, delta, gameID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, game.ErrGameNotFound
	}
	return total, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- analytics.Source ---

func (s *SQLiteStore) CountGames(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) CountRounds(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_rounds`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) CountRoundsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM game_rounds WHERE created_at >= ?
	`, since.UTC().Format(sqliteTimeLayout)).Scan(&n)
	return n, err
}

const roundColumns = `
	id, game_id, round_number, created_at, options, correct_option, correct_index,
	human_guess, human_guess_index, human_is_correct,
	ai_provider, ai_model, ai_prompt_version,
	ai_guess, ai_guess_index, ai_confidence, ai_reasoning,
	ai_latency_ms, ai_tokens_used, ai_is_correct,
	round_score, error_message`

func (s *SQLiteStore) RoundsSince(ctx context.Context, since time.Time) ([]game.Round, error) {
	return s.queryRounds(ctx, `
		SELECT `+roundColumns+`
		FROM game_rounds WHERE created_at >= ?
	`, since.UTC().Format(sqliteTimeLayout))
}

func (s *SQLiteStore) RoundsOn(ctx context.Context, date string) ([]game.Round, error) {
	return s.queryRounds(ctx, `
		SELECT `+roundColumns+`
		FROM game_rounds WHERE date(created_at) = ?
	`, date)
}

func (s *SQLiteStore) queryRounds(ctx context.Context, query string, args ...any) ([]game.Round, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []game.Round
	for rows.Next() {
		var r game.Round
		var createdAt, optionsJSON string
		var humanCorrect, aiCorrect int
		if err := rows.Scan(
			&r.ID, &r.GameID, &r.RoundNumber, &createdAt, &optionsJSON, &r.CorrectOption, &r.CorrectIndex,
			&r.HumanGuess, &r.HumanGuessIndex, &humanCorrect,
			&r.AIProvider, &r.AIModel, &r.AIPromptVersion,
			&r.AIGuess, &r.AIGuessIndex, &r.AIConfidence, &r.AIReasoning,
			&r.AILatencyMS, &r.AITokensUsed, &aiCorrect,
			&r.RoundScore, &r.ErrorMessage,
		); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(createdAt)
		json.Unmarshal([]byte(optionsJSON), &r.Options)
		r.HumanIsCorrect = humanCorrect == 1
		r.AIIsCorrect = aiCorrect == 1
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

func (s *SQLiteStore) SnapshotsSince(ctx context.Context, since time.Time) ([]analytics.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, ai_provider, ai_model, prompt_version,
			total_predictions, correct_predictions, accuracy,
			avg_confidence, avg_latency_ms, avg_tokens, agreement_rate,
			human_wins, ai_wins, both_correct, both_wrong
		FROM model_performance
		WHERE date >= ?
	`, since.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []analytics.Snapshot
	for rows.Next() {
		var sn analytics.Snapshot
		if err := rows.Scan(
			&sn.Date, &sn.Provider, &sn.Model, &sn.PromptVersion,
			&sn.TotalPredictions, &sn.CorrectPredictions, &sn.Accuracy,
			&sn.AvgConfidence, &sn.AvgLatencyMS, &sn.AvgTokens, &sn.AgreementRate,
			&sn.HumanWins, &sn.AIWins, &sn.BothCorrect, &sn.BothWrong,
		); err != nil {
			return nil, err
		}
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

func (s *SQLiteStore) UpsertSnapshot(ctx context.Context, sn analytics.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_performance (
			date, ai_provider, ai_model, prompt_version,
			total_predictions, correct_predictions, accuracy,
			avg_confidence, avg_latency_ms, avg_tokens, agreement_rate,
			human_wins, ai_wins, both_correct, both_wrong
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date, ai_provider, ai_model, prompt_version) DO UPDATE SET
			total_predictions = excluded.total_predictions,
			correct_predictions = excluded.correct_predictions,
			accuracy = excluded.accuracy,
			avg_confidence = excluded.avg_confidence,
			avg_latency_ms = excluded.avg_latency_ms,
			avg_tokens = excluded.avg_tokens,
			agreement_rate = excluded.agreement_rate,
			human_wins = excluded.human_wins,
			ai_wins = excluded.ai_wins,
			both_correct = excluded.both_correct,
			both_wrong = excluded.both_wrong
	`,
		sn.Date, sn.Provider, sn.Model, sn.PromptVersion,
		sn.TotalPredictions, sn.CorrectPredictions, sn.Accuracy,
		sn.AvgConfidence, sn.AvgLatencyMS, sn.AvgTokens, sn.AgreementRate,
		sn.HumanWins, sn.AIWins, sn.BothCorrect, sn.BothWrong,
	)
	return err
}

// RefreshItemRates recomputes the per-prompt human and AI correct rates from
// round history. Run after a rollup; prompts never played keep rate zero.
func (s *SQLiteStore) RefreshItemRates(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE deck_items SET
			human_correct_rate = COALESCE((
				SELECT AVG(human_is_correct) FROM game_rounds r
				WHERE r.correct_option = deck_items.prompt
			), 0),
			ai_correct_rate = COALESCE((
				SELECT AVG(ai_is_correct) FROM game_rounds r
				WHERE r.correct_option = deck_items.prompt
			), 0)
	`)
	return err
}

// --- decks ---

const deckColumns = `
	id, name, COALESCE(description, ''), category, difficulty,
	is_active, is_public, total_items, usage_count, created_at`

func scanDeck(row interface{ Scan(...any) error }) (DeckSummary, error) {
	var d DeckSummary
	var active, public int
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Category, &d.Difficulty,
		&active, &public, &d.TotalItems, &d.UsageCount, &d.CreatedAt)
	d.IsActive = active == 1
	d.IsPublic = public == 1
	return d, err
}

func (s *SQLiteStore) ListDecks(ctx context.Context) ([]DeckSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+deckColumns+` FROM decks ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decks := []DeckSummary{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

func (s *SQLiteStore) GetDeck(ctx context.Context, id int64) (DeckDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+deckColumns+` FROM decks WHERE id = ?
	`, id)
	summary, err := scanDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return DeckDetail{}, ErrNotFound
	}
	if err != nil {
		return DeckDetail{}, err
	}

	detail := DeckDetail{DeckSummary: summary, Items: []DeckItemInfo{}}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prompt, difficulty, usage_count, human_correct_rate, ai_correct_rate
		FROM deck_items WHERE deck_id = ? ORDER BY id
	`, id)
	if err != nil {
		return detail, err
	}
	defer rows.Close()

	for rows.Next() {
		var it DeckItemInfo
		if err := rows.Scan(&it.ID, &it.Prompt, &it.Difficulty, &it.UsageCount,
			&it.HumanCorrectRate, &it.AICorrectRate); err != nil {
			return detail, err
		}
		detail.Items = append(detail.Items, it)
	}
	return detail, rows.Err()
}

func (req DeckRequest) withDefaults() DeckRequest {
	if req.Category == "" {
		req.Category = "custom"
	}
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}
	return req
}

func optBool(p *bool, fallback bool) int {
	v := fallback
	if p != nil {
		v = *p
	}
	return boolToInt(v)
}

func (s *SQLiteStore) CreateDeck(ctx context.Context, req DeckRequest, createdBy string) (DeckDetail, error) {
	req = req.withDefaults()

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO decks (name, description, category, difficulty, is_active, is_public, created_by)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?)
		RETURNING id
	`, req.Name, req.Description, req.Category, req.Difficulty,
		optBool(req.IsActive, true), optBool(req.IsPublic, true), createdBy).Scan(&id)
	if err != nil {
		return DeckDetail{}, err
	}
	return s.GetDeck(ctx, id)
}

func (s *SQLiteStore) UpdateDeck(ctx context.Context, id int64, req DeckRequest) (DeckDetail, error) {
	req = req.withDefaults()

	result, err := s.db.ExecContext(ctx, `
		UPDATE decks SET name = ?, description = NULLIF(?, ''), category = ?, difficulty = ?,
			is_active = COALESCE(?, is_active),
			is_public = COALESCE(?, is_public),
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`, req.Name, req.Description, req.Category, req.Difficulty,
		nullableBool(req.IsActive), nullableBool(req.IsPublic), id)
	if err != nil {
		return DeckDetail{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return DeckDetail{}, ErrNotFound
	}
	return s.GetDeck(ctx, id)
}

func nullableBool(p *bool) any {
	if p == nil {
		return nil
	}
	return boolToInt(*p)
}

func (s *SQLiteStore) DeleteDeck(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) AddDeckItems(ctx context.Context, deckID int64, items []DeckItemRequest) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM decks WHERE id = ?`, deckID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	for _, item := range items {
		if item.Difficulty == "" {
			item.Difficulty = "medium"
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO deck_items (deck_id, prompt, difficulty) VALUES (?, ?, ?)
		`, deckID, item.Prompt, item.Difficulty); err != nil {
			return 0, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE decks SET total_items = total_items + ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`, len(items), deckID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *SQLiteStore) DeleteDeckItems(ctx context.Context, deckID int64, itemIDs []int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query := `DELETE FROM deck_items WHERE deck_id = ? AND id IN (` + placeholders(len(itemIDs)) + `)`
	args := make([]any, 0, len(itemIDs)+1)
	args = append(args, deckID)
	for _, id := range itemIDs {
		args = append(args, id)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, _ := result.RowsAffected()

	if n > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE decks SET total_items = total_items - ?,
				updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
			WHERE id = ?
		`, n, deckID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStore) DeckStats(ctx context.Context, deckID int64) (DeckStats, error) {
	stats := DeckStats{DeckID: deckID}

	err := s.db.QueryRowContext(ctx, `
		SELECT total_items, usage_count FROM decks WHERE id = ?
	`, deckID).Scan(&stats.TotalItems, &stats.TotalUsage)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, ErrNotFound
	}
	if err != nil {
		return stats, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(human_is_correct), 0), COALESCE(SUM(ai_is_correct), 0)
		FROM game_rounds
		WHERE correct_option IN (SELECT prompt FROM deck_items WHERE deck_id = ?)
	`, deckID).Scan(&stats.RoundsPlayed, &stats.HumanCorrect, &stats.AICorrect)
	if err != nil {
		return stats, err
	}
	if stats.RoundsPlayed > 0 {
		stats.HumanWinRate = float64(stats.HumanCorrect) / float64(stats.RoundsPlayed)
		stats.AIWinRate = float64(stats.AICorrect) / float64(stats.RoundsPlayed)
	}

	// Hardest and easiest by human correct rate, among played prompts.
	s.db.QueryRowContext(ctx, `
		SELECT prompt FROM deck_items
		WHERE deck_id = ? AND usage_count > 0
		ORDER BY human_correct_rate ASC, usage_count DESC LIMIT 1
	`, deckID).Scan(&stats.HardestPrompt)
	s.db.QueryRowContext(ctx, `
		SELECT prompt FROM deck_items
		WHERE deck_id = ? AND usage_count > 0
		ORDER BY human_correct_rate DESC, usage_count DESC LIMIT 1
	`, deckID).Scan(&stats.EasiestPrompt)

	return stats, nil
}

// --- admin auth ---

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var adminID, passwordHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE email = ?
	`, email).Scan(&adminID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return adminID, passwordHash, err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (id, admin_id) VALUES (?, ?)
	`, sessionID, adminID)
	return err
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var sess adminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, ErrNotFound
	}
	return sess, err
}

// EnsureAdmin creates the admin account if the email is not registered yet.
func (s *SQLiteStore) EnsureAdmin(ctx context.Context, email, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (email, password_hash) VALUES (?, ?)
		ON CONFLICT (email) DO NOTHING
	`, email, passwordHash)
	return err
}
