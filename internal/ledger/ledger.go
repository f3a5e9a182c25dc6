// Package ledger maintains the persistent running balance. The balance is
// the one piece of mutable persistent state outside the append-only review
// log, and it is only reachable through Get, Set, and Debit.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alfred-cli/alfred/internal/storage"
)

// Ledger provides serialized access to the balance. All mutations run in
// SQLite transactions, so two concurrent dispatches can never both pass a
// read-check-debit sequence the balance could only afford once.
type Ledger struct {
	db *storage.DB
}

func New(db *storage.DB) *Ledger {
	return &Ledger{db: db}
}

// Get returns the current balance. A never-set balance reads as zero.
func (l *Ledger) Get(ctx context.Context) (float64, error) {
	var amount float64
	err := l.db.GetContext(ctx, &amount, `SELECT amount FROM balance WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return amount, nil
}

// LastUpdated returns when the balance row was last written, or the zero
// time when no balance has ever been set.
func (l *Ledger) LastUpdated(ctx context.Context) (time.Time, error) {
	var ts time.Time
	err := l.db.GetContext(ctx, &ts, `SELECT updated_at FROM balance WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read balance timestamp: %w", err)
	}
	return ts, nil
}

// Set overwrites the balance with an explicit user-provided amount. It is
// always allowed; a Set racing an in-flight debit resolves last-write-wins.
func (l *Ledger) Set(ctx context.Context, amount float64) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO balance (id, amount, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`,
		amount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	return nil
}

// Debit subtracts amount from the balance exactly once per requestID.
func (l *Ledger) Debit(ctx context.Context, requestID string, amount float64) error {
	return l.db.Transact(ctx, func(tx *sqlx.Tx) error {
		return DebitTx(ctx, tx, requestID, amount)
	})
}

// DebitTx applies an idempotent debit inside an existing transaction. The
// requestID acts as the accounting key: a replayed debit for an already
// recorded requestID is a no-op, never a double charge.
func DebitTx(ctx context.Context, tx *sqlx.Tx, requestID string, amount float64) error {
	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO debits (request_id, amount, created_at) VALUES (?, ?, ?)`,
		requestID, amount, now)
	if err != nil {
		return fmt.Errorf("failed to record debit: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check debit insert: %w", err)
	}
	if inserted == 0 {
		// Already debited for this request, likely a retried write
		// after a crash mid-persist.
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO balance (id, amount, updated_at) VALUES (1, 0, ?)
		ON CONFLICT(id) DO NOTHING`, now); err != nil {
		return fmt.Errorf("failed to ensure balance row: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE balance SET amount = amount - ?, updated_at = ? WHERE id = 1`,
		amount, now); err != nil {
		return fmt.Errorf("failed to apply debit: %w", err)
	}
	return nil
}
