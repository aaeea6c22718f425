package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across store adapters and the listings service.
var (
	ErrNotFound       = errors.New("record not found")
	ErrForbidden      = errors.New("not permitted for this user")
	ErrDuplicateEmail = errors.New("email already registered")
)

// ValidationError reports malformed or missing input. Nothing is persisted
// when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConflictError is returned to every losing claimer: the listing exists but
// is no longer available. CurrentStatus tells the caller what state won.
type ConflictError struct {
	CurrentStatus ListingStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("listing is not available for claiming (status: %s)", e.CurrentStatus)
}
