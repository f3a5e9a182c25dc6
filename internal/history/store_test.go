package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfred-cli/alfred/internal/core"
	"github.com/alfred-cli/alfred/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, cleanup, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return New(db)
}

func sampleResult(requestID, unitID string) *core.ReviewResult {
	return &core.ReviewResult{
		RequestID: requestID,
		UnitID:    unitID,
		Origin:    core.OriginLocalFile,
		Focus:     core.FocusGeneral,
		Model:     "claude-sonnet-4-20250514",
		Findings: []core.Finding{
			{Severity: "High", FilePath: unitID, Line: 12, Category: "Bug", Comment: "nil map write"},
		},
		RawOutput:    "# REVIEW SUMMARY\nLooks mostly fine.",
		Summary:      "Looks mostly fine.",
		Score:        7,
		InputTokens:  1200,
		OutputTokens: 450,
		Cost:         0.0103,
		Status:       core.StatusSuccess,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestAppendAssignsMonotonicOrdinals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Append(ctx, sampleResult("req-1", "a.go"))
	require.NoError(t, err)
	second, err := s.Append(ctx, sampleResult("req-2", "b.go"))
	require.NoError(t, err)

	assert.Equal(t, first+1, second)
}

func TestGetRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res := sampleResult("req-1", "main.go")
	ordinal, err := s.Append(ctx, res)
	require.NoError(t, err)

	entry, err := s.Get(ctx, ordinal)
	require.NoError(t, err)

	assert.Equal(t, res.RequestID, entry.RequestID)
	assert.Equal(t, res.Findings, entry.Findings)
	assert.Equal(t, res.Cost, entry.Cost)
	assert.Equal(t, res.Score, entry.Score)
	assert.Equal(t, core.StatusSuccess, entry.Status)

	// Replay is idempotent: repeated reads return the same persisted data.
	again, err := s.Get(ctx, ordinal)
	require.NoError(t, err)
	assert.Equal(t, entry, again)
}

func TestGetUnknownOrdinal(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListNewestFirstWithFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, sampleResult("req-1", "pkg/app.go"))
	require.NoError(t, err)
	_, err = s.Append(ctx, sampleResult("req-2", "pkg/server.go"))
	require.NoError(t, err)
	_, err = s.Append(ctx, sampleResult("req-3", "pkg/app.go"))
	require.NoError(t, err)

	all, err := s.List(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "req-3", all[0].RequestID)
	assert.Equal(t, "req-1", all[2].RequestID)

	filtered, err := s.List(ctx, 10, "app.go")
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, e := range filtered {
		assert.Equal(t, "pkg/app.go", e.UnitID)
	}

	limited, err := s.List(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSearchMatchesFindingsAndRawOutput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res := sampleResult("req-1", "auth.go")
	res.Findings = []core.Finding{{Severity: "Critical", Comment: "SQL injection via string concat"}}
	_, err := s.Append(ctx, res)
	require.NoError(t, err)

	other := sampleResult("req-2", "util.go")
	other.Findings = []core.Finding{{Severity: "Low", Comment: "unused variable"}}
	other.RawOutput = "nothing notable"
	_, err = s.Append(ctx, other)
	require.NoError(t, err)

	hits, err := s.Search(ctx, "injection")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "req-1", hits[0].RequestID)

	hits, err = s.Search(ctx, "notable")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "req-2", hits[0].RequestID)

	hits, err = s.Search(ctx, "no-such-text")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStatsRecomputedFromLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok := sampleResult("req-1", "a.go")
	_, err := s.Append(ctx, ok)
	require.NoError(t, err)

	sec := sampleResult("req-2", "a.go")
	sec.Focus = core.FocusSecurity
	sec.Cost = 0.02
	_, err = s.Append(ctx, sec)
	require.NoError(t, err)

	failed := sampleResult("req-3", "b.go")
	failed.Status = core.StatusBackendError
	failed.Cost = 0
	_, err = s.Append(ctx, failed)
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalReviews)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.FilesReviewed)
	assert.InDelta(t, 0.0103+0.02, stats.TotalCost, 1e-9)
	assert.Equal(t, 2, stats.ByFocus[core.FocusGeneral])
	assert.Equal(t, 1, stats.ByFocus[core.FocusSecurity])
}

func TestCostsProjectionSkipsFailures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, sampleResult("req-1", "a.go"))
	require.NoError(t, err)

	failed := sampleResult("req-2", "b.go")
	failed.Status = core.StatusBackendError
	_, err = s.Append(ctx, failed)
	require.NoError(t, err)

	records, err := s.Costs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.go", records[0].UnitID)
	assert.Equal(t, 1650, records[0].Tokens)
	assert.InDelta(t, 0.0103, records[0].Amount, 1e-9)
}
