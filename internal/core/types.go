// Package core defines the domain types shared across the review engine:
// review units, requests, results, and the error taxonomy.
package core

import (
	"fmt"
	"strings"
	"time"
)

// Origin identifies where a review unit's content came from.
type Origin string

const (
	OriginLocalFile Origin = "LOCAL_FILE"
	OriginPRDiff    Origin = "PR_DIFF"
)

// FocusArea is a named review lens that changes the instructions
// sent to the backend.
type FocusArea string

const (
	FocusGeneral     FocusArea = "general"
	FocusSecurity    FocusArea = "security"
	FocusPerformance FocusArea = "performance"
	FocusStyle       FocusArea = "style"
	FocusBugs        FocusArea = "bugs"
)

// FocusAreas lists all valid focus areas in display order.
func FocusAreas() []FocusArea {
	return []FocusArea{FocusGeneral, FocusSecurity, FocusPerformance, FocusStyle, FocusBugs}
}

// ParseFocus validates a user-supplied focus string. An empty string
// defaults to FocusGeneral.
func ParseFocus(s string) (FocusArea, error) {
	if s == "" {
		return FocusGeneral, nil
	}
	f := FocusArea(strings.ToLower(s))
	for _, v := range FocusAreas() {
		if f == v {
			return f, nil
		}
	}
	names := make([]string, 0, len(FocusAreas()))
	for _, v := range FocusAreas() {
		names = append(names, string(v))
	}
	return "", fmt.Errorf("invalid focus %q, choose from: %s", s, strings.Join(names, ", "))
}

// Status is the outcome of a single dispatch attempt.
type Status string

const (
	StatusSuccess        Status = "SUCCESS"
	StatusBackendError   Status = "BACKEND_ERROR"
	StatusBudgetRejected Status = "BUDGET_REJECTED"
)

// ReviewUnit is one reviewable artifact: a local file's content or a
// single changed file's patch from a pull request. Units are immutable
// and consumed once by the prompt builder.
type ReviewUnit struct {
	SourceID     string // file path or "owner/repo#N:filename"
	Content      string
	LanguageHint string
	Origin       Origin
}

// ReviewRequest pairs a unit with the review parameters for one invocation.
// Requests are transient and never persisted directly.
type ReviewRequest struct {
	Unit    ReviewUnit
	Focus   FocusArea
	Verbose bool
}

// Finding is a single structured issue extracted from the backend's review.
type Finding struct {
	Severity string `json:"severity"`
	FilePath string `json:"file_path,omitempty"`
	Line     int    `json:"line,omitempty"`
	Category string `json:"category,omitempty"`
	Comment  string `json:"comment"`
}

// ReviewResult is the immutable record of one completed or failed dispatch
// attempt. On persistence it becomes a HistoryEntry.
type ReviewResult struct {
	RequestID string
	UnitID    string
	Origin    Origin
	Focus     FocusArea
	Model     string

	Findings []Finding
	// Unstructured marks results whose raw output could not be parsed into
	// findings; Findings then holds a single entry carrying the raw text.
	Unstructured bool
	RawOutput    string
	Summary      string
	Score        int // 0 when no "Overall Score: N/10" was present

	InputTokens  int
	OutputTokens int
	// TokensEstimated is set when the backend reported no usage and the
	// counts were estimated from content length; cost is then approximate.
	TokensEstimated bool
	Cost            float64

	Status    Status
	LastError string // display only, preserved from the final failed attempt
	CreatedAt time.Time
}

// HistoryEntry is the persisted form of a ReviewResult with its stable
// ordinal. Ordinals are assigned at append time and never reused.
type HistoryEntry struct {
	Ordinal int64
	ReviewResult
}
