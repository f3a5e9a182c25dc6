package review

import (
	"fmt"
	"strings"

	"github.com/alfred-cli/alfred/internal/github"
)

// FormatPRComment renders the outcomes of a PR review as a single Markdown
// comment suitable for posting back to the pull request.
func FormatPRComment(pr *github.PullRequest, outcomes []Outcome) string {
	var b strings.Builder

	b.WriteString("## Alfred Code Review\n\n")
	fmt.Fprintf(&b, "**PR:** #%d - %s\n", pr.Number, pr.Title)
	fmt.Fprintf(&b, "**Files changed:** %d (+%d -%d)\n\n---\n", pr.FilesChanged, pr.Additions, pr.Deletions)

	for _, o := range outcomes {
		fmt.Fprintf(&b, "\n### %s\n\n", o.UnitID)

		switch {
		case o.Err != nil:
			fmt.Fprintf(&b, "_Review skipped: %s_\n", o.Err)
		case o.Entry == nil:
			b.WriteString("_No result recorded._\n")
		case o.Entry.Summary != "":
			b.WriteString(o.Entry.Summary + "\n")
		}

		if o.Entry == nil {
			continue
		}
		for _, f := range o.Entry.Findings {
			b.WriteString("\n")
			if f.Severity != "" {
				fmt.Fprintf(&b, "**[%s]** ", f.Severity)
			}
			if f.Line > 0 {
				fmt.Fprintf(&b, "line %d: ", f.Line)
			}
			b.WriteString(f.Comment + "\n")
		}
	}

	b.WriteString("\n---\n*This review was generated automatically by Alfred.*\n")
	return b.String()
}
