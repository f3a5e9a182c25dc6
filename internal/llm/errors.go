package llm

import "errors"

// TransientError marks failures worth retrying: rate limits, 5xx
// responses, network errors, timeouts.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient backend error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks failures retrying cannot fix: invalid credentials,
// malformed requests.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent backend error: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
