package llm

// EstimateTokens approximates a token count as len(text)/4, the common
// ~4-characters-per-token heuristic. Used only when the backend reports no
// usage; results carrying estimated counts are flagged so cost figures are
// visibly approximate.
func EstimateTokens(text string) int {
	return len(text) / 4
}
