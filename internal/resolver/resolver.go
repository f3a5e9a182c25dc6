// Package resolver turns CLI targets into review units: a local file path
// becomes one unit, a pull request reference becomes one unit per changed
// file.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alfred-cli/alfred/internal/core"
	"github.com/alfred-cli/alfred/internal/github"
	"github.com/alfred-cli/alfred/internal/gitutil"
)

// binaryProbeSize is how many leading bytes are scanned for NUL when
// deciding whether a file is binary.
const binaryProbeSize = 8000

// Resolver builds review units from CLI targets. The GitHub client may be
// nil; PR targets then fail with core.ErrAuthenticationRequired.
type Resolver struct {
	gh           github.Client
	maxFileBytes int
	logger       *slog.Logger
}

func New(gh github.Client, maxFileBytes int, logger *slog.Logger) *Resolver {
	return &Resolver{gh: gh, maxFileBytes: maxFileBytes, logger: logger}
}

// ResolveFile reads a local file into a single review unit. Missing or
// unreadable paths fail with core.ErrNotFound; binary or oversized files
// fail with core.ErrUnsupportedContent rather than being truncated.
func (r *Resolver) ResolveFile(path string) (core.ReviewUnit, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return core.ReviewUnit{}, fmt.Errorf("file %s: %w", path, core.ErrNotFound)
	}
	if info.Size() > int64(r.maxFileBytes) {
		return core.ReviewUnit{}, fmt.Errorf("file %s is %d bytes, limit is %d: %w",
			path, info.Size(), r.maxFileBytes, core.ErrUnsupportedContent)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return core.ReviewUnit{}, fmt.Errorf("file %s: %w", path, core.ErrNotFound)
	}
	if isBinary(content) {
		return core.ReviewUnit{}, fmt.Errorf("file %s appears to be binary: %w", path, core.ErrUnsupportedContent)
	}

	return core.ReviewUnit{
		SourceID:     path,
		Content:      string(content),
		LanguageHint: languageHint(path),
		Origin:       core.OriginLocalFile,
	}, nil
}

// ResolvePR resolves a PR target (URL or bare number) into the PR metadata
// and one review unit per changed file. Unit content is the per-file
// unified diff patch as served by the GitHub API; files without a patch
// are skipped with a logged notice.
func (r *Resolver) ResolvePR(ctx context.Context, target string) (*github.PullRequest, []core.ReviewUnit, error) {
	if r.gh == nil {
		return nil, nil, fmt.Errorf("no GitHub token configured, set GITHUB_TOKEN: %w", core.ErrAuthenticationRequired)
	}

	owner, repo, number, err := resolveTarget(target)
	if err != nil {
		return nil, nil, err
	}

	pr, err := r.gh.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, nil, err
	}

	files, err := r.gh.ListChangedFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, nil, err
	}

	units := make([]core.ReviewUnit, 0, len(files))
	for _, f := range files {
		if f.Patch == "" {
			r.logger.Info("skipping file without a text patch", "file", f.Filename, "status", f.Status)
			continue
		}
		units = append(units, core.ReviewUnit{
			SourceID:     fmt.Sprintf("%s:%s", pr.Ref(), f.Filename),
			Content:      f.Patch,
			LanguageHint: languageHint(f.Filename),
			Origin:       core.OriginPRDiff,
		})
	}
	if len(units) == 0 {
		return nil, nil, fmt.Errorf("pull request %s has no reviewable text changes: %w", pr.Ref(), core.ErrNotFound)
	}
	return pr, units, nil
}

// PostComment publishes a comment on the pull request's conversation.
func (r *Resolver) PostComment(ctx context.Context, pr *github.PullRequest, body string) error {
	if r.gh == nil {
		return fmt.Errorf("no GitHub token configured, set GITHUB_TOKEN: %w", core.ErrAuthenticationRequired)
	}
	return r.gh.PostComment(ctx, pr.Owner, pr.Repo, pr.Number, body)
}

func resolveTarget(target string) (owner, repo string, number int, err error) {
	if n, ok := gitutil.IsBareNumber(target); ok {
		owner, repo, err = gitutil.CurrentRepo()
		if err != nil {
			return "", "", 0, fmt.Errorf("PR #%d: %w: %w", n, core.ErrAmbiguousRepo, err)
		}
		return owner, repo, n, nil
	}
	owner, repo, number, err = gitutil.ParsePullRequestURL(target)
	if err != nil {
		return "", "", 0, fmt.Errorf("target %q: %w", target, errors.Join(core.ErrNotFound, err))
	}
	return owner, repo, number, nil
}

func isBinary(content []byte) bool {
	probe := content
	if len(probe) > binaryProbeSize {
		probe = probe[:binaryProbeSize]
	}
	for _, b := range probe {
		if b == 0 {
			return true
		}
	}
	return false
}

var languageByExt = map[string]string{
	".go":   "Go",
	".py":   "Python",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".tsx":  "TypeScript",
	".jsx":  "JavaScript",
	".rs":   "Rust",
	".java": "Java",
	".rb":   "Ruby",
	".c":    "C",
	".h":    "C",
	".cpp":  "C++",
	".cs":   "C#",
	".php":  "PHP",
	".sh":   "Shell",
	".sql":  "SQL",
	".yaml": "YAML",
	".yml":  "YAML",
}

func languageHint(path string) string {
	return languageByExt[strings.ToLower(filepath.Ext(path))]
}
