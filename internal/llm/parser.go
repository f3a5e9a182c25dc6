package llm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alfred-cli/alfred/internal/core"
)

var (
	// Matches: ## Suggestion [path/to/file.go:123] or ## Suggestion [path/to/file.go: 123]
	suggestionHeaderRegex = regexp.MustCompile(`(?i)##\s+Suggestion\s+\[(.*?):\s*(\d+)\]`)
	severityRegex         = regexp.MustCompile(`(?i)\*\*Severity:?\*\*\s*(.*)`)
	categoryRegex         = regexp.MustCompile(`(?i)\*\*Category:?\*\*\s*(.*)`)
	scoreRegex            = regexp.MustCompile(`(?i)(?:overall\s+)?score:?\s*(\d+)\s*/\s*10`)
)

// Parsed is the structured form of one model review.
type Parsed struct {
	Summary  string
	Findings []core.Finding
}

// ParseReview extracts a summary and structured findings from the model's
// Markdown output. It tolerates common model quirks: output wrapped in
// ```markdown fences, inconsistent heading casing, and missing sections.
// An error means no recognizable structure at all; the caller then keeps
// the raw text as a single unstructured finding.
func ParseReview(markdown string) (*Parsed, error) {
	markdown = stripMarkdownFence(markdown)

	parsed := &Parsed{}
	lines := strings.Split(markdown, "\n")

	var section string
	var current *core.Finding
	var comment strings.Builder
	var summary strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		current.Comment = strings.TrimSpace(comment.String())
		comment.Reset()
		parsed.Findings = append(parsed.Findings, *current)
		current = nil
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "# REVIEW SUMMARY"):
			flush()
			section = "SUMMARY"
			continue
		case strings.HasPrefix(upper, "# SUGGESTIONS"):
			flush()
			section = "SUGGESTIONS"
			continue
		case strings.HasPrefix(upper, "# OVERALL SCORE"):
			flush()
			section = "SCORE"
			continue
		}

		if strings.HasPrefix(upper, "## SUGGESTION") {
			flush()
			if m := suggestionHeaderRegex.FindStringSubmatch(line); len(m) == 3 {
				lineNum, _ := strconv.Atoi(m[2])
				current = &core.Finding{FilePath: strings.TrimSpace(m[1]), Line: lineNum}
			} else {
				// Header present but unparseable; keep the finding anyway.
				current = &core.Finding{}
			}
			section = "SUGGESTION_BODY"
			continue
		}

		switch section {
		case "SUMMARY":
			if line != "" && !strings.HasPrefix(line, "#") {
				if summary.Len() > 0 {
					summary.WriteString("\n")
				}
				summary.WriteString(line)
			}
		case "SUGGESTION_BODY":
			if current == nil {
				continue
			}
			if strings.HasPrefix(line, "**Severity") {
				if m := severityRegex.FindStringSubmatch(line); len(m) > 1 {
					current.Severity = strings.TrimSpace(m[1])
				}
				continue
			}
			if strings.HasPrefix(line, "**Category") {
				if m := categoryRegex.FindStringSubmatch(line); len(m) > 1 {
					current.Category = strings.TrimSpace(m[1])
				}
				continue
			}
			// Preserve original indentation for code blocks.
			if line != "" || comment.Len() > 0 {
				comment.WriteString(lines[i] + "\n")
			}
		}
	}
	flush()

	parsed.Summary = summary.String()
	if parsed.Summary == "" && len(parsed.Findings) == 0 {
		return nil, fmt.Errorf("no recognized review sections found")
	}
	return parsed, nil
}

// ExtractScore pulls an "Overall Score: N/10" rating out of the raw review
// text. Returns 0 when absent or out of range.
func ExtractScore(text string) int {
	m := scoreRegex.FindStringSubmatch(text)
	if len(m) != 2 {
		return 0
	}
	score, err := strconv.Atoi(m[1])
	if err != nil || score < 0 || score > 10 {
		return 0
	}
	return score
}

// stripMarkdownFence removes ```markdown ... ``` wrapping that some models
// add around their whole output.
func stripMarkdownFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```markdown") && !strings.HasPrefix(trimmed, "```md") {
		return s
	}
	idx := strings.Index(trimmed, "\n")
	if idx < 0 {
		return s
	}
	inner := trimmed[idx+1:]
	if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
		inner = inner[:lastFence]
	}
	return strings.TrimSpace(inner)
}
