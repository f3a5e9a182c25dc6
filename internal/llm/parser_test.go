package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedReview = `# REVIEW SUMMARY
Solid structure overall, but error handling has gaps.

# SUGGESTIONS

## Suggestion [internal/server/handler.go:42]
**Severity:** High
**Category:** Bug

The error from Decode is ignored, so malformed payloads fall through.

## Suggestion [internal/server/handler.go:88]
**Severity:** Low
**Category:** Style

Prefer early return over nested else.

# OVERALL SCORE
7/10
`

func TestParseReviewWellFormed(t *testing.T) {
	parsed, err := ParseReview(wellFormedReview)
	require.NoError(t, err)

	assert.Equal(t, "Solid structure overall, but error handling has gaps.", parsed.Summary)
	require.Len(t, parsed.Findings, 2)

	first := parsed.Findings[0]
	assert.Equal(t, "internal/server/handler.go", first.FilePath)
	assert.Equal(t, 42, first.Line)
	assert.Equal(t, "High", first.Severity)
	assert.Equal(t, "Bug", first.Category)
	assert.Contains(t, first.Comment, "Decode is ignored")

	assert.Equal(t, "Low", parsed.Findings[1].Severity)
}

func TestParseReviewFencedOutput(t *testing.T) {
	fenced := "```markdown\n" + wellFormedReview + "\n```"

	parsed, err := ParseReview(fenced)
	require.NoError(t, err)
	assert.Len(t, parsed.Findings, 2)
}

func TestParseReviewSummaryOnly(t *testing.T) {
	parsed, err := ParseReview("# REVIEW SUMMARY\nNo issues found.\n")
	require.NoError(t, err)
	assert.Equal(t, "No issues found.", parsed.Summary)
	assert.Empty(t, parsed.Findings)
}

func TestParseReviewUnrecognized(t *testing.T) {
	_, err := ParseReview("I could not review this file, sorry.")
	assert.Error(t, err)
}

func TestParseReviewMalformedHeaderKeepsFinding(t *testing.T) {
	md := "# SUGGESTIONS\n## Suggestion [somewhere]\n**Severity:** Medium\n\nbody text\n"

	parsed, err := ParseReview(md)
	require.NoError(t, err)
	require.Len(t, parsed.Findings, 1)
	assert.Equal(t, "Medium", parsed.Findings[0].Severity)
	assert.Equal(t, "", parsed.Findings[0].FilePath)
}

func TestExtractScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"standard", "## Overall Score: 8/10", 8},
		{"bare", "Score: 3 / 10", 3},
		{"absent", "great code", 0},
		{"out of range", "Score: 42/10", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractScore(tt.text))
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 25, EstimateTokens(string(make([]byte, 100))))
}
