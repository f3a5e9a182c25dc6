package review

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alfred-cli/alfred/internal/core"
	"github.com/alfred-cli/alfred/internal/github"
	"github.com/alfred-cli/alfred/internal/prompt"
	"github.com/alfred-cli/alfred/internal/resolver"
)

// Engine is the review orchestrator: the only component that touches the
// resolver, prompt builder, and dispatcher together.
type Engine struct {
	resolver       *resolver.Resolver
	dispatcher     *Dispatcher
	maxPromptBytes int
	concurrency    int
	logger         *slog.Logger
}

func NewEngine(r *resolver.Resolver, d *Dispatcher, maxPromptBytes, concurrency int, logger *slog.Logger) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{
		resolver:       r,
		dispatcher:     d,
		maxPromptBytes: maxPromptBytes,
		concurrency:    concurrency,
		logger:         logger,
	}
}

// Outcome is the per-unit result of a multi-unit review. Entry is nil when
// the unit failed before dispatch (resolution or prompt building).
type Outcome struct {
	UnitID string
	Entry  *core.HistoryEntry
	Err    error
}

// FailedOutright reports whether the unit counts as a hard failure for the
// command exit code. A BACKEND_ERROR with recorded output does not; a
// budget rejection or pre-dispatch error does.
func (o Outcome) FailedOutright() bool {
	if o.Err != nil {
		return true
	}
	return o.Entry != nil && o.Entry.Status == core.StatusBudgetRejected
}

// ReviewFile runs a single-file review to completion.
func (e *Engine) ReviewFile(ctx context.Context, path string, focus core.FocusArea) (*core.HistoryEntry, error) {
	unit, err := e.resolver.ResolveFile(path)
	if err != nil {
		return nil, err
	}
	return e.reviewUnit(ctx, unit, focus)
}

// ReviewPR reviews every changed file of a pull request. Units run on an
// errgroup bounded by the configured limit; one unit's failure never aborts
// its siblings, and outcomes are reported per unit in file order. The
// dispatcher admits one unit at a time, so each unit's budget check sees
// the balance as settled by the units before it.
func (e *Engine) ReviewPR(ctx context.Context, target string, focus core.FocusArea) (*github.PullRequest, []Outcome, error) {
	pr, units, err := e.resolver.ResolvePR(ctx, target)
	if err != nil {
		return nil, nil, err
	}

	outcomes := make([]Outcome, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, unit := range units {
		g.Go(func() error {
			entry, err := e.reviewUnit(gctx, unit, focus)
			outcomes[i] = Outcome{UnitID: unit.SourceID, Entry: entry, Err: err}
			return nil
		})
	}
	// Unit errors are carried in outcomes, never through the group.
	_ = g.Wait()

	return pr, outcomes, nil
}

// PostComment publishes an aggregated review body on the pull request.
func (e *Engine) PostComment(ctx context.Context, pr *github.PullRequest, body string) error {
	return e.resolver.PostComment(ctx, pr, body)
}

func (e *Engine) reviewUnit(ctx context.Context, unit core.ReviewUnit, focus core.FocusArea) (*core.HistoryEntry, error) {
	msg, err := prompt.Build(unit, focus, e.maxPromptBytes)
	if err != nil {
		return nil, err
	}
	return e.dispatcher.Dispatch(ctx, unit, focus, msg)
}
