package domain

import (
	"errors"
	"fmt"
)

// ErrNoMatch is returned when the store holds nothing relevant to a question.
var ErrNoMatch = errors.New("no match found")

// DocumentLoadError reports an unsupported or unreadable input document.
type DocumentLoadError struct {
	Path string
	Err  error
}

func (e *DocumentLoadError) Error() string {
	return fmt.Sprintf("load document %s: %v", e.Path, e.Err)
}

func (e *DocumentLoadError) Unwrap() error { return e.Err }

// ConfigurationError reports invalid parameters.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "invalid configuration: " + e.Msg }

// Configf builds a ConfigurationError from a format string.
func Configf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// EmbeddingError wraps a provider failure for one unit of text.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return "embedding failed: " + e.Err.Error() }

func (e *EmbeddingError) Unwrap() error { return e.Err }

// GenerationError wraps a failure of the generative answerer.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "generation failed: " + e.Err.Error() }

func (e *GenerationError) Unwrap() error { return e.Err }

// StoreError wraps a vector store failure. Op names the failed operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
