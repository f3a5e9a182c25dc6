// Package review composes the resolver, prompt builder, backend, ledger,
// and history store into the review and review-pr behaviors.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alfred-cli/alfred/internal/core"
	"github.com/alfred-cli/alfred/internal/history"
	"github.com/alfred-cli/alfred/internal/ledger"
	"github.com/alfred-cli/alfred/internal/llm"
	"github.com/alfred-cli/alfred/internal/pricing"
	"github.com/alfred-cli/alfred/internal/prompt"
	"github.com/alfred-cli/alfred/internal/storage"
)

// DispatcherConfig bounds a dispatcher's retry and budget behavior.
type DispatcherConfig struct {
	MaxRetries      int
	MinBalance      float64
	MaxOutputTokens int
	// RetryBaseDelay is the first backoff step; each retry doubles it.
	// Zero means one second.
	RetryBaseDelay time.Duration
}

// Dispatcher sends built requests to the backend under the budget gate and
// settles the accounting for every attempt.
type Dispatcher struct {
	backend llm.Backend
	db      *storage.DB
	ledger  *ledger.Ledger
	history *history.Store
	cfg     DispatcherConfig
	logger  *slog.Logger

	// mu admits one dispatch at a time. The gate's balance read and the
	// eventual debit must not interleave across units, or every concurrent
	// unit would pass the gate against the same starting balance.
	mu sync.Mutex
}

func NewDispatcher(backend llm.Backend, db *storage.DB, l *ledger.Ledger, h *history.Store, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	return &Dispatcher{backend: backend, db: db, ledger: l, history: h, cfg: cfg, logger: logger}
}

// Dispatch runs one review attempt end to end. The returned entry carries
// Ordinal 0 when nothing was persisted (budget rejection). A non-nil error
// means the accounting state could not be settled and the command must abort.
func (d *Dispatcher) Dispatch(ctx context.Context, unit core.ReviewUnit, focus core.FocusArea, msg prompt.Message) (*core.HistoryEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// An unpriced model must fail before any backend contact: the provider
	// would bill a request whose cost could never be settled.
	if !pricing.Known(d.backend.Model()) {
		return nil, fmt.Errorf("model %q has no configured price: %w", d.backend.Model(), core.ErrUnknownModel)
	}

	result := &core.ReviewResult{
		RequestID: uuid.NewString(),
		UnitID:    unit.SourceID,
		Origin:    unit.Origin,
		Focus:     focus,
		Model:     d.backend.Model(),
		CreatedAt: time.Now().UTC(),
	}

	// Hard budget gate: no backend contact, no ledger mutation, no
	// history entry when the balance check fails.
	balance, err := d.ledger.Get(ctx)
	if err != nil {
		return nil, err
	}
	if balance <= d.cfg.MinBalance {
		d.logger.Warn("review rejected by budget gate", "unit", unit.SourceID, "balance", balance)
		result.Status = core.StatusBudgetRejected
		return &core.HistoryEntry{ReviewResult: *result}, nil
	}

	completion, sendErr := d.send(ctx, llm.Request{
		System:    msg.System,
		User:      msg.User,
		MaxTokens: d.cfg.MaxOutputTokens,
	})
	if sendErr != nil {
		result.Status = core.StatusBackendError
		result.LastError = sendErr.Error()
		ordinal, err := d.history.Append(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("failed to record backend failure: %w", err)
		}
		return &core.HistoryEntry{Ordinal: ordinal, ReviewResult: *result}, nil
	}

	d.fillFromCompletion(result, msg, completion)

	cost, err := pricing.Cost(result.Model, result.InputTokens, result.OutputTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to price review: %w", err)
	}
	result.Cost = cost
	result.Status = core.StatusSuccess

	// Debit and append commit together. A crash can lose the whole review
	// but can never charge without recording it, or record without charging.
	var ordinal int64
	err = d.db.Transact(ctx, func(tx *sqlx.Tx) error {
		if err := ledger.DebitTx(ctx, tx, result.RequestID, result.Cost); err != nil {
			return err
		}
		ordinal, err = history.AppendTx(ctx, tx, result)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to settle review accounting: %w", err)
	}

	d.logger.Info("review completed",
		"unit", unit.SourceID,
		"ordinal", ordinal,
		"cost", result.Cost,
		"tokens_estimated", result.TokensEstimated)
	return &core.HistoryEntry{Ordinal: ordinal, ReviewResult: *result}, nil
}

// send performs the backend call with bounded exponential backoff on
// transient failures. Permanent failures return immediately.
func (d *Dispatcher) send(ctx context.Context, req llm.Request) (llm.Completion, error) {
	var lastErr error
	for attempt := 0; attempt < d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := d.cfg.RetryBaseDelay << uint(attempt-1)
			d.logger.Debug("retrying backend call", "attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return llm.Completion{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		completion, err := d.backend.Complete(ctx, req)
		if err == nil {
			return completion, nil
		}
		lastErr = err
		if !llm.IsTransient(err) {
			return llm.Completion{}, err
		}
	}
	return llm.Completion{}, lastErr
}

// fillFromCompletion parses the raw output into findings and settles token
// counts. Parsing is best effort: if no structure is recognized the raw
// text is kept as a single unstructured finding, never dropped.
func (d *Dispatcher) fillFromCompletion(result *core.ReviewResult, msg prompt.Message, completion llm.Completion) {
	result.RawOutput = completion.Text
	result.Score = llm.ExtractScore(completion.Text)

	parsed, err := llm.ParseReview(completion.Text)
	if err != nil {
		d.logger.Warn("could not parse review output, keeping raw text", "unit", result.UnitID, "error", err)
		result.Unstructured = true
		result.Findings = []core.Finding{{Comment: completion.Text}}
	} else {
		result.Summary = parsed.Summary
		result.Findings = parsed.Findings
	}

	if completion.Usage.Reported {
		result.InputTokens = completion.Usage.InputTokens
		result.OutputTokens = completion.Usage.OutputTokens
	} else {
		result.TokensEstimated = true
		result.InputTokens = llm.EstimateTokens(msg.System + msg.User)
		result.OutputTokens = llm.EstimateTokens(completion.Text)
	}
}
