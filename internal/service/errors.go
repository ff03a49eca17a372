package service

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrVideoNotFound   = errors.New("video not found")
	ErrStartNotFuture  = errors.New("scheduled start must be in the future")
	ErrNotOperator     = errors.New("operation requires an operator identity")
	ErrRateLimited     = errors.New("message rate limit exceeded")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrGuestWrongScope = errors.New("guest identity is scoped to a different session")
)

// Validation error kinds for ledger batches.
const (
	KindInvalidTimestamp   = "INVALID_TIMESTAMP"
	KindDuplicateTimestamp = "DUPLICATE_TIMESTAMP"
	KindMissingContent     = "MISSING_CONTENT"
)

// ValidationError rejects a whole ledger batch with the offending field.
type ValidationError struct {
	Kind    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
