package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyQuestion rejects blank input before any retrieval work happens.
var ErrEmptyQuestion = errors.New("question is empty")

// DataLoadError means the corpus file is missing or malformed. Fatal at
// startup; the loader never returns a partial corpus.
type DataLoadError struct {
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load corpus %s: %v", e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// VersionMismatchError means a persisted index was written under a
// different schema version or embedder and must be rebuilt, never
// partially reused.
type VersionMismatchError struct {
	Stored   string
	Expected string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("index version mismatch: stored %q, expected %q", e.Stored, e.Expected)
}

// EmbeddingError wraps a failure of the embedding capability.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding failed: %v", e.Err) }

func (e *EmbeddingError) Unwrap() error { return e.Err }

// GenerationError wraps a failure of the generation capability. The
// composer surfaces it instead of returning a partial answer.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generation failed: %v", e.Err) }

func (e *GenerationError) Unwrap() error { return e.Err }
