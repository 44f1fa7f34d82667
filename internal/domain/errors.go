package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch signals vectors of different lengths in one comparison.
	// It points at corrupt collection data, not a transient fault.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrUnsupportedInput signals a non-text embedding input.
	ErrUnsupportedInput = errors.New("unsupported input")
	// ErrInvalidOptions signals out-of-range search or embedding options.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrCollectionNotFound signals a missing collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrDocumentExists signals a duplicate document ID within a collection.
	ErrDocumentExists = errors.New("document already exists")
	// ErrInvalidDocument signals a document that failed validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrEmptyMessage signals a chat message with no text.
	ErrEmptyMessage = errors.New("message required")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRemoteSearch signals a failure of the remote vector search collaborator.
	ErrRemoteSearch = errors.New("remote search failed")
)

// DimensionMismatchError carries the offending lengths for diagnostics.
type DimensionMismatchError struct {
	Want int
	Got  int
	// DocumentID is empty when the mismatch is not tied to a stored document.
	DocumentID string
}

func (e *DimensionMismatchError) Error() string {
	if e.DocumentID != "" {
		return fmt.Sprintf("%s: document %q has %d dimensions, query has %d",
			ErrDimensionMismatch.Error(), e.DocumentID, e.Got, e.Want)
	}
	return fmt.Sprintf("%s: got %d, want %d", ErrDimensionMismatch.Error(), e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(want, got int, documentID string) error {
	return &DimensionMismatchError{Want: want, Got: got, DocumentID: documentID}
}
