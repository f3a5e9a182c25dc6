// Package pricing is the pure cost model: it maps a model identifier and
// token counts to a dollar amount using a fixed rate table.
package pricing

import (
	"fmt"
	"sort"

	"github.com/alfred-cli/alfred/internal/core"
)

// Rate holds USD prices per 1K tokens for one model.
type Rate struct {
	InputPer1K  float64
	OutputPer1K float64
}

// rates is the fixed per-model price table. Unknown models are an error,
// never a silent default: a wrong default rate corrupts the ledger.
var rates = map[string]Rate{
	"claude-sonnet-4-20250514":   {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-3-7-sonnet-20250219": {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-3-5-haiku-20241022":  {InputPer1K: 0.0008, OutputPer1K: 0.004},
	"claude-3-opus-20240229":     {InputPer1K: 0.015, OutputPer1K: 0.075},
}

// Cost computes the charge for one request. Zero tokens cost zero.
func Cost(model string, inputTokens, outputTokens int) (float64, error) {
	rate, ok := rates[model]
	if !ok {
		return 0, fmt.Errorf("no rate for %q: %w", model, core.ErrUnknownModel)
	}
	if inputTokens < 0 || outputTokens < 0 {
		return 0, fmt.Errorf("negative token count (%d in, %d out)", inputTokens, outputTokens)
	}
	return float64(inputTokens)/1000*rate.InputPer1K +
		float64(outputTokens)/1000*rate.OutputPer1K, nil
}

// Known reports whether a model has a configured rate.
func Known(model string) bool {
	_, ok := rates[model]
	return ok
}

// Models returns the priced model identifiers in sorted order.
func Models() []string {
	models := make([]string, 0, len(rates))
	for m := range rates {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}
