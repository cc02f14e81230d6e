package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals an unknown product id.
	ErrNotFound = errors.New("product not found")
	// ErrIndexUnavailable signals that no catalog snapshot has been published yet.
	// Callers may retry after the initial load completes.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// MalformedRecordError describes a single catalog row that failed to parse.
// The load skips such rows instead of aborting; the error is logged and counted.
type MalformedRecordError struct {
	Row    int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at row %d: %s", e.Row, e.Reason)
}

// NewMalformedRecord creates a malformed record error for the given row.
func NewMalformedRecord(row int, reason string) error {
	return &MalformedRecordError{Row: row, Reason: reason}
}
