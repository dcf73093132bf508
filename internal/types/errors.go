package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout        = errors.New("timed out waiting for page")
	ErrNoData         = errors.New("no detail data on page")
	ErrEmptyResponse  = errors.New("empty response body")
	ErrInvalidNumber  = errors.New("invalid number")
	ErrEmptyInput     = errors.New("no topics in input")
	ErrColumnNotFound = errors.New("topic column not found")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	Topic      string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	Topic    string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("parse error for topic %q: %v", e.Topic, e.Err)
	}
	return fmt.Sprintf("parse error for topic %q (selector=%q): %v", e.Topic, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the record pipeline.
type PipelineError struct {
	Stage string
	Topic string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q for topic %q: %v", e.Stage, e.Topic, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
