// Package prompt builds the backend-facing message for a review unit.
// Building is deterministic: the same unit and focus always produce the
// same message, which keeps cost estimates reproducible and lets history
// replay stand in for a re-run.
package prompt

import (
	"fmt"
	"strings"

	"github.com/alfred-cli/alfred/internal/core"
)

// Message is the structured request content for one backend call.
type Message struct {
	System string
	User   string
}

const systemPrompt = `You are an expert code reviewer with deep knowledge of software engineering best practices, security, and performance optimization.

Your reviews are specific, actionable, prioritized by severity, and focused on real issues rather than nitpicks.

Respond in exactly this Markdown structure:

# REVIEW SUMMARY
One short paragraph assessing overall quality.

# SUGGESTIONS
One section per issue, formatted as:

## Suggestion [path/to/file:line]
**Severity:** Critical | High | Medium | Low
**Category:** Bug | Security | Performance | Style | Best Practice

Description of the problem, why it matters, and a suggested fix with code where helpful.

# OVERALL SCORE
N/10

If there are no issues, include only the summary and score sections.`

// focusInstructions maps each focus area to its fixed review instruction.
var focusInstructions = map[core.FocusArea]string{
	core.FocusGeneral:     "Review for bugs, code quality, best practices, and potential improvements.",
	core.FocusSecurity:    "Focus on security vulnerabilities, injection risks, authentication issues, and data exposure.",
	core.FocusPerformance: "Analyze for performance bottlenecks, inefficient algorithms, and resource usage.",
	core.FocusStyle:       "Check code style, naming conventions, documentation, and readability.",
	core.FocusBugs:        "Hunt for logical errors, edge cases, nil handling issues, and runtime errors.",
}

// Build produces the backend message for one unit. Units whose content
// exceeds maxBytes are rejected with core.ErrUnsupportedContent; splitting
// is deliberately not attempted, because it would multiply backend calls
// and cost without the caller asking for it.
func Build(unit core.ReviewUnit, focus core.FocusArea, maxBytes int) (Message, error) {
	if maxBytes > 0 && len(unit.Content) > maxBytes {
		return Message{}, fmt.Errorf("unit %s is %d bytes, prompt limit is %d: %w",
			unit.SourceID, len(unit.Content), maxBytes, core.ErrUnsupportedContent)
	}

	instruction, ok := focusInstructions[focus]
	if !ok {
		instruction = focusInstructions[core.FocusGeneral]
	}

	var b strings.Builder
	if unit.Origin == core.OriginPRDiff {
		fmt.Fprintf(&b, "Please review this unified diff for %s.\n", unit.SourceID)
		b.WriteString("Only comment on the changed lines and their immediate context.\n")
	} else {
		fmt.Fprintf(&b, "Please review the file %s.\n", unit.SourceID)
	}
	if unit.LanguageHint != "" {
		fmt.Fprintf(&b, "Language: %s\n", unit.LanguageHint)
	}
	fmt.Fprintf(&b, "\nFocus: %s\n", instruction)
	b.WriteString("\nCode to review:\n```\n")
	b.WriteString(unit.Content)
	b.WriteString("\n```\n")

	return Message{System: systemPrompt, User: b.String()}, nil
}
