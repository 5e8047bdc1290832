package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexNotBuilt is returned when a search is attempted before any corpus is published.
	ErrIndexNotBuilt = errors.New("index not built")
	// ErrNoChunks is returned when an index build receives no text.
	ErrNoChunks = errors.New("no text chunks to index")
	// ErrStreamConsumed is yielded when an answer stream is ranged over a second time.
	ErrStreamConsumed = errors.New("answer stream already consumed")
	// ErrEmptyQuestion is returned for blank chat input.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrAuthFailure is returned when admin credentials do not match.
	ErrAuthFailure = errors.New("invalid username or password")
	// ErrNotAuthenticated is returned when an admin operation runs without a logged-in session.
	ErrNotAuthenticated = errors.New("admin login required")
	// ErrDocumentNotFound is returned when a stored document is unknown or its file is gone.
	ErrDocumentNotFound = errors.New("document not found")
)

// DocumentParseError reports a PDF that could not be read (corrupt, encrypted, not a PDF).
type DocumentParseError struct {
	Filename string
	Err      error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("failed to parse document %q: %v", e.Filename, e.Err)
}

func (e *DocumentParseError) Unwrap() error {
	return e.Err
}

// EmbeddingServiceError reports a failed call to the embedding service.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service error: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error {
	return e.Err
}

// GenerationServiceError reports a failed call to the chat completion service.
type GenerationServiceError struct {
	Err error
}

func (e *GenerationServiceError) Error() string {
	return fmt.Sprintf("generation service error: %v", e.Err)
}

func (e *GenerationServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err came from the embedding or generation service.
func IsServiceError(err error) bool {
	var embErr *EmbeddingServiceError
	var genErr *GenerationServiceError
	return errors.As(err, &embErr) || errors.As(err, &genErr)
}
