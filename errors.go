package rehydrate

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageRequired is returned by New when no storage is configured.
	ErrStorageRequired = errors.New("rehydrate: storage is required")
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("rehydrate: store is closed")
	// ErrReducerRequired is returned when a nil reducer is installed.
	ErrReducerRequired = errors.New("rehydrate: reducer is required")
)

// ShapeError reports a reducer whose state is neither a state tree nor nil,
// which leaves no slices to discover.
type ShapeError struct {
	// Type is the Go type the reducer produced for the shape probe.
	Type string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("rehydrate: reducer state must be a keyed aggregate, got %s", e.Type)
}
