package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfred-cli/alfred/internal/core"
)

func TestCost(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		in, out int
		want    float64
		wantErr error
	}{
		{
			name:  "sonnet per-1k rates",
			model: "claude-sonnet-4-20250514",
			in:    1000, out: 1000,
			want: 0.003 + 0.015,
		},
		{
			name:  "zero tokens cost zero",
			model: "claude-sonnet-4-20250514",
			in:    0, out: 0,
			want: 0,
		},
		{
			name:  "fractional thousands",
			model: "claude-3-5-haiku-20241022",
			in:    500, out: 250,
			want: 0.5*0.0008 + 0.25*0.004,
		},
		{
			name:    "unknown model",
			model:   "unknown-model",
			in:      100, out: 100,
			wantErr: core.ErrUnknownModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cost(tt.model, tt.in, tt.out)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestCostRejectsNegativeTokens(t *testing.T) {
	_, err := Cost("claude-sonnet-4-20250514", -1, 0)
	assert.Error(t, err)
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("claude-sonnet-4-20250514"))
	assert.False(t, Known("gpt-extreme"))
}

func TestModelsSorted(t *testing.T) {
	models := Models()
	require.NotEmpty(t, models)
	for i := 1; i < len(models); i++ {
		assert.Less(t, models[i-1], models[i])
	}
}
