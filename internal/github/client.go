// Package github wraps the official go-github client with the small surface
// the review engine needs: changed files for a PR and comment posting.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/alfred-cli/alfred/internal/core"
)

// PullRequest is the PR metadata the engine cares about.
type PullRequest struct {
	Owner        string
	Repo         string
	Number       int
	Title        string
	FilesChanged int
	Additions    int
	Deletions    int
}

// Ref renders the canonical "owner/repo#N" reference.
func (p PullRequest) Ref() string {
	return fmt.Sprintf("%s/%s#%d", p.Owner, p.Repo, p.Number)
}

// ChangedFile holds the filename and unified diff patch for one file in a
// pull request. Files without a patch (binary, pure renames) have an empty Patch.
type ChangedFile struct {
	Filename  string
	Patch     string
	Status    string
	Additions int
	Deletions int
}

// Client is the GitHub surface consumed by the content resolver.
type Client interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error)
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error)
	PostComment(ctx context.Context, owner, repo string, number int, body string) error
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewPATClient creates a GitHub client authenticated with a personal access
// token.
func NewPATClient(ctx context.Context, token string, logger *slog.Logger) Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &gitHubClient{client: github.NewClient(tc), logger: logger}
}

func (g *gitHubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	pr, resp, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("pull request %s/%s#%d: %w", owner, repo, number, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch pull request: %w", err)
	}
	return &PullRequest{
		Owner:        owner,
		Repo:         repo,
		Number:       number,
		Title:        pr.GetTitle(),
		FilesChanged: pr.GetChangedFiles(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
	}, nil
}

func (g *gitHubClient) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error) {
	var files []ChangedFile
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := g.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("pull request %s/%s#%d: %w", owner, repo, number, core.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to list changed files: %w", err)
		}
		for _, f := range page {
			files = append(files, ChangedFile{
				Filename:  f.GetFilename(),
				Patch:     f.GetPatch(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	g.logger.Debug("listed changed files", "pr", number, "count", len(files))
	return files, nil
}

func (g *gitHubClient) PostComment(ctx context.Context, owner, repo string, number int, body string) error {
	comment := &github.IssueComment{Body: github.Ptr(body)}
	_, _, err := g.client.Issues.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		return fmt.Errorf("failed to post comment on %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}
