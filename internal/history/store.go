// Package history is the append-only indexed record of every completed or
// failed review. Entries are keyed by a stable ordinal assigned at append
// time; ordinals are never reused, even after pruning.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alfred-cli/alfred/internal/core"
	"github.com/alfred-cli/alfred/internal/storage"
)

// Store persists review results. The log itself is immutable; normal
// operation only ever appends.
type Store struct {
	db *storage.DB
}

func New(db *storage.DB) *Store {
	return &Store{db: db}
}

type entryRow struct {
	Ordinal         int64     `db:"ordinal"`
	RequestID       string    `db:"request_id"`
	UnitID          string    `db:"unit_id"`
	Origin          string    `db:"origin"`
	Focus           string    `db:"focus"`
	Status          string    `db:"status"`
	Model           string    `db:"model"`
	Findings        string    `db:"findings"`
	Unstructured    bool      `db:"unstructured"`
	RawOutput       string    `db:"raw_output"`
	Summary         string    `db:"summary"`
	Score           int       `db:"score"`
	InputTokens     int       `db:"input_tokens"`
	OutputTokens    int       `db:"output_tokens"`
	TokensEstimated bool      `db:"tokens_estimated"`
	Cost            float64   `db:"cost"`
	LastError       string    `db:"last_error"`
	CreatedAt       time.Time `db:"created_at"`
}

const entryColumns = `ordinal, request_id, unit_id, origin, focus, status, model,
	findings, unstructured, raw_output, summary, score,
	input_tokens, output_tokens, tokens_estimated, cost, last_error, created_at`

// Append persists a result and returns its assigned ordinal.
func (s *Store) Append(ctx context.Context, res *core.ReviewResult) (int64, error) {
	var ordinal int64
	err := s.db.Transact(ctx, func(tx *sqlx.Tx) error {
		var err error
		ordinal, err = AppendTx(ctx, tx, res)
		return err
	})
	return ordinal, err
}

// AppendTx inserts a result inside an existing transaction. The AUTOINCREMENT
// ordinal guarantees monotonic, never-reused assignment.
func AppendTx(ctx context.Context, tx *sqlx.Tx, res *core.ReviewResult) (int64, error) {
	findings, err := json.Marshal(res.Findings)
	if err != nil {
		return 0, fmt.Errorf("failed to encode findings: %w", err)
	}

	r, err := tx.ExecContext(ctx, `
		INSERT INTO reviews (request_id, unit_id, origin, focus, status, model,
			findings, unstructured, raw_output, summary, score,
			input_tokens, output_tokens, tokens_estimated, cost, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RequestID, res.UnitID, string(res.Origin), string(res.Focus), string(res.Status), res.Model,
		string(findings), res.Unstructured, res.RawOutput, res.Summary, res.Score,
		res.InputTokens, res.OutputTokens, res.TokensEstimated, res.Cost, res.LastError, res.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to append review: %w", err)
	}

	ordinal, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read assigned ordinal: %w", err)
	}
	return ordinal, nil
}

// Get returns the entry for an ordinal, or core.ErrNotFound if that ordinal
// was never assigned.
func (s *Store) Get(ctx context.Context, ordinal int64) (*core.HistoryEntry, error) {
	var row entryRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+entryColumns+` FROM reviews WHERE ordinal = ?`, ordinal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review #%d: %w", ordinal, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load review #%d: %w", ordinal, err)
	}
	return row.toEntry()
}

// List returns up to limit entries, most recent first, optionally filtered
// to units whose identifier contains file.
func (s *Store) List(ctx context.Context, limit int, file string) ([]core.HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + entryColumns + ` FROM reviews`
	args := []any{}
	if file != "" {
		query += ` WHERE unit_id LIKE ?`
		args = append(args, "%"+file+"%")
	}
	query += ` ORDER BY ordinal DESC LIMIT ?`
	args = append(args, limit)

	return s.queryEntries(ctx, query, args...)
}

// Search returns entries whose findings, raw output, or unit identifier
// contain the query substring, most recent first.
func (s *Store) Search(ctx context.Context, query string) ([]core.HistoryEntry, error) {
	pattern := "%" + query + "%"
	return s.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM reviews
		WHERE findings LIKE ? OR raw_output LIKE ? OR unit_id LIKE ?
		ORDER BY ordinal DESC`,
		pattern, pattern, pattern)
}

// Stats is an aggregate projection recomputed from the log on every call;
// nothing here is stored redundantly.
type Stats struct {
	TotalReviews  int
	Succeeded     int
	Failed        int
	FilesReviewed int
	TotalCost     float64
	InputTokens   int64
	OutputTokens  int64
	ByFocus       map[core.FocusArea]int
}

// Stats aggregates counts, token totals, and total cost over the whole log.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByFocus: make(map[core.FocusArea]int)}

	err := s.db.QueryRowxContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status != ? THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT unit_id),
			COALESCE(SUM(cost), 0),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0)
		FROM reviews`,
		string(core.StatusSuccess), string(core.StatusSuccess)).
		Scan(&stats.TotalReviews, &stats.Succeeded, &stats.Failed, &stats.FilesReviewed,
			&stats.TotalCost, &stats.InputTokens, &stats.OutputTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, `SELECT focus, COUNT(*) FROM reviews GROUP BY focus`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate focus counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var focus string
		var count int
		if err := rows.Scan(&focus, &count); err != nil {
			return nil, fmt.Errorf("failed to scan focus count: %w", err)
		}
		stats.ByFocus[core.FocusArea(focus)] = count
	}
	return stats, rows.Err()
}

// CostRecord is the projection of one entry used by the costs command.
// It is derived from the review log, never written independently, so the
// cost view can never drift from history.
type CostRecord struct {
	Ordinal   int64
	UnitID    string
	Model     string
	Tokens    int
	Estimated bool
	Amount    float64
	Timestamp time.Time
}

// Costs returns the cost projection for the most recent successful reviews.
func (s *Store) Costs(ctx context.Context, limit int) ([]CostRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	entries, err := s.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM reviews
		WHERE status = ? ORDER BY ordinal DESC LIMIT ?`,
		string(core.StatusSuccess), limit)
	if err != nil {
		return nil, err
	}
	records := make([]CostRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, CostRecord{
			Ordinal:   e.Ordinal,
			UnitID:    e.UnitID,
			Model:     e.Model,
			Tokens:    e.InputTokens + e.OutputTokens,
			Estimated: e.TokensEstimated,
			Amount:    e.Cost,
			Timestamp: e.CreatedAt,
		})
	}
	return records, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]core.HistoryEntry, error) {
	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	entries := make([]core.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (r *entryRow) toEntry() (*core.HistoryEntry, error) {
	var findings []core.Finding
	if err := json.Unmarshal([]byte(r.Findings), &findings); err != nil {
		return nil, fmt.Errorf("failed to decode findings for #%d: %w", r.Ordinal, err)
	}
	return &core.HistoryEntry{
		Ordinal: r.Ordinal,
		ReviewResult: core.ReviewResult{
			RequestID:       r.RequestID,
			UnitID:          r.UnitID,
			Origin:          core.Origin(r.Origin),
			Focus:           core.FocusArea(r.Focus),
			Model:           r.Model,
			Findings:        findings,
			Unstructured:    r.Unstructured,
			RawOutput:       r.RawOutput,
			Summary:         r.Summary,
			Score:           r.Score,
			InputTokens:     r.InputTokens,
			OutputTokens:    r.OutputTokens,
			TokensEstimated: r.TokensEstimated,
			Cost:            r.Cost,
			Status:          core.Status(r.Status),
			LastError:       r.LastError,
			CreatedAt:       r.CreatedAt,
		},
	}, nil
}
