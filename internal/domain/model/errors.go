package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStorage marks failures of the relational store. It is the only class
	// that aborts a comment submission.
	ErrStorage = errors.New("storage failure")

	// ErrDelivery marks a failed bus publish. The comment stays persisted.
	ErrDelivery = errors.New("delivery failure")

	// ErrTaskTimeout marks a request that outlived its own processing budget.
	ErrTaskTimeout = errors.New("task timeout")

	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ValidationError reports a malformed inbound payload. It is recoverable and
// only ever reported back to the originator.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid payload: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
