package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfred-cli/alfred/internal/core"
)

func unit() core.ReviewUnit {
	return core.ReviewUnit{
		SourceID:     "cmd/main.go",
		Content:      "package main\n\nfunc main() {}\n",
		LanguageHint: "Go",
		Origin:       core.OriginLocalFile,
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := Build(unit(), core.FocusSecurity, 0)
	require.NoError(t, err)
	b, err := Build(unit(), core.FocusSecurity, 0)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestBuildIncludesContentAndFocus(t *testing.T) {
	msg, err := Build(unit(), core.FocusPerformance, 0)
	require.NoError(t, err)

	assert.Contains(t, msg.User, "func main()")
	assert.Contains(t, msg.User, "performance bottlenecks")
	assert.Contains(t, msg.User, "Language: Go")
	assert.Contains(t, msg.System, "# REVIEW SUMMARY")
}

func TestBuildFocusChangesInstruction(t *testing.T) {
	sec, err := Build(unit(), core.FocusSecurity, 0)
	require.NoError(t, err)
	style, err := Build(unit(), core.FocusStyle, 0)
	require.NoError(t, err)

	assert.NotEqual(t, sec.User, style.User)
	assert.Equal(t, sec.System, style.System)
}

func TestBuildDiffUnitsGetDiffFraming(t *testing.T) {
	u := unit()
	u.Origin = core.OriginPRDiff
	u.SourceID = "o/r#3:a.go"
	u.Content = "@@ -1 +1 @@\n-x\n+y"

	msg, err := Build(u, core.FocusGeneral, 0)
	require.NoError(t, err)
	assert.Contains(t, msg.User, "unified diff")
	assert.Contains(t, msg.User, "o/r#3:a.go")
}

func TestBuildRejectsOversizedUnits(t *testing.T) {
	u := unit()

	_, err := Build(u, core.FocusGeneral, 10)
	assert.ErrorIs(t, err, core.ErrUnsupportedContent)
}
