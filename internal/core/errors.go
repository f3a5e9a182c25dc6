package core

import "errors"

var (
	// ErrNotFound covers missing files, unresolvable PRs, and never-assigned
	// history ordinals.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedContent is returned for binary files and content above
	// the configured size ceiling. Oversized units fail explicitly instead
	// of being truncated, so billing never silently diverges from intent.
	ErrUnsupportedContent = errors.New("unsupported content")
	// ErrAuthenticationRequired means no GitHub session exists for a PR target.
	ErrAuthenticationRequired = errors.New("github authentication required")
	// ErrAmbiguousRepo means a bare PR number was given without an
	// unambiguous current-repository context.
	ErrAmbiguousRepo = errors.New("cannot determine repository for PR number")
	// ErrUnknownModel is returned by the cost model for model identifiers
	// missing from the rate table. Unknown models never default to a rate.
	ErrUnknownModel = errors.New("unknown model")
)
