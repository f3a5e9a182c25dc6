package review

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfred-cli/alfred/internal/core"
	"github.com/alfred-cli/alfred/internal/github"
	"github.com/alfred-cli/alfred/internal/llm"
	"github.com/alfred-cli/alfred/internal/resolver"
)

type fakeGitHub struct {
	pr       *github.PullRequest
	files    []github.ChangedFile
	comments []string
}

func (f *fakeGitHub) GetPullRequest(context.Context, string, string, int) (*github.PullRequest, error) {
	return f.pr, nil
}

func (f *fakeGitHub) ListChangedFiles(context.Context, string, string, int) ([]github.ChangedFile, error) {
	return f.files, nil
}

func (f *fakeGitHub) PostComment(_ context.Context, _, _ string, _ int, body string) error {
	f.comments = append(f.comments, body)
	return nil
}

func newEngine(t *testing.T, f *fixture, gh github.Client) *Engine {
	t.Helper()
	r := resolver.New(gh, 100_000, slog.New(slog.DiscardHandler))
	return NewEngine(r, f.dispatcher, 100_000, 3, slog.New(slog.DiscardHandler))
}

func threeFilePR() *fakeGitHub {
	return &fakeGitHub{
		pr: &github.PullRequest{Owner: "o", Repo: "r", Number: 12, Title: "Refactor auth", FilesChanged: 3},
		files: []github.ChangedFile{
			{Filename: "auth.go", Patch: "@@ -1 +1 @@\n+a", Status: "modified"},
			{Filename: "auth_test.go", Patch: "@@ -1 +1 @@\n+b", Status: "modified"},
			{Filename: "session.go", Patch: "@@ -1 +1 @@\n+c", Status: "added"},
		},
	}
}

func TestReviewPRThreeFilesWithTransientFailure(t *testing.T) {
	// Second backend call fails transiently, then every call succeeds.
	backend := &fakeBackend{script: []func() (llm.Completion, error){
		succeed, failTransient, succeed, succeed, succeed,
	}}
	f := newFixture(t, backend)
	ctx := context.Background()
	require.NoError(t, f.ledger.Set(ctx, 10.00))
	before, err := f.ledger.Get(ctx)
	require.NoError(t, err)

	e := newEngine(t, f, threeFilePR())
	pr, outcomes, err := e.ReviewPR(ctx, "https://github.com/o/r/pull/12", core.FocusGeneral)
	require.NoError(t, err)
	assert.Equal(t, "o/r#12", pr.Ref())
	require.Len(t, outcomes, 3)

	var total float64
	for _, o := range outcomes {
		require.NoError(t, o.Err)
		require.NotNil(t, o.Entry)
		assert.Equal(t, core.StatusSuccess, o.Entry.Status)
		assert.False(t, o.FailedOutright())
		total += o.Entry.Cost
	}

	after, err := f.ledger.Get(ctx)
	require.NoError(t, err)
	assert.InDelta(t, before-total, after, 1e-9, "aggregate debit equals sum of unit costs")

	entries, err := f.history.List(ctx, 10, "")
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestReviewPRUnitFailureDoesNotAbortSiblings(t *testing.T) {
	// One file is oversized for the prompt; the others still complete.
	gh := threeFilePR()
	gh.files[1].Patch = string(make([]byte, 200))

	backend := &fakeBackend{script: []func() (llm.Completion, error){succeed}}
	f := newFixture(t, backend)
	ctx := context.Background()
	require.NoError(t, f.ledger.Set(ctx, 10.00))

	r := resolver.New(gh, 100_000, slog.New(slog.DiscardHandler))
	e := NewEngine(r, f.dispatcher, 150, 1, slog.New(slog.DiscardHandler))

	_, outcomes, err := e.ReviewPR(ctx, "https://github.com/o/r/pull/12", core.FocusGeneral)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.False(t, outcomes[0].FailedOutright())
	assert.True(t, outcomes[1].FailedOutright())
	assert.ErrorIs(t, outcomes[1].Err, core.ErrUnsupportedContent)
	assert.False(t, outcomes[2].FailedOutright())
}

func TestReviewFileEndToEnd(t *testing.T) {
	backend := &fakeBackend{script: []func() (llm.Completion, error){succeed}}
	f := newFixture(t, backend)
	ctx := context.Background()
	require.NoError(t, f.ledger.Set(ctx, 5.00))

	e := newEngine(t, f, nil)
	path := writeTempFile(t, "package main\n")

	entry, err := e.ReviewFile(ctx, path, core.FocusBugs)
	require.NoError(t, err)
	assert.Equal(t, core.StatusSuccess, entry.Status)
	assert.Equal(t, core.FocusBugs, entry.Focus)
}

func TestBudgetRejectedOutcomeFailsOutright(t *testing.T) {
	backend := &fakeBackend{script: []func() (llm.Completion, error){succeed}}
	f := newFixture(t, backend)

	e := newEngine(t, f, nil)
	path := writeTempFile(t, "package main\n")

	entry, err := e.ReviewFile(context.Background(), path, core.FocusGeneral)
	require.NoError(t, err)
	assert.Equal(t, core.StatusBudgetRejected, entry.Status)
	assert.True(t, Outcome{UnitID: path, Entry: entry}.FailedOutright())
}

func TestFormatPRComment(t *testing.T) {
	pr := &github.PullRequest{Owner: "o", Repo: "r", Number: 12, Title: "Refactor auth", FilesChanged: 2, Additions: 10, Deletions: 4}
	outcomes := []Outcome{
		{
			UnitID: "o/r#12:auth.go",
			Entry: &core.HistoryEntry{Ordinal: 1, ReviewResult: core.ReviewResult{
				Summary:  "Fine overall.",
				Findings: []core.Finding{{Severity: "High", Line: 14, Comment: "token logged in plain text"}},
			}},
		},
		{UnitID: "o/r#12:gen.go", Err: core.ErrUnsupportedContent},
	}

	body := FormatPRComment(pr, outcomes)

	assert.Contains(t, body, "#12 - Refactor auth")
	assert.Contains(t, body, "**[High]** line 14: token logged in plain text")
	assert.Contains(t, body, "Review skipped")
	assert.Contains(t, body, "generated automatically")
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
