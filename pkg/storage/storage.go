// Package storage defines how slices reach a persistence backend.
//
// Two contracts live here. Backend is the raw byte store a driver implements
// (bbolt, goleveldb, sqlite, an expiring cache, memory). Storage is what the
// rehydration engine consumes: values in, values out, with a schema version on
// write. Persistor adapts a Backend to Storage by running the codec, the
// migration table and the transform pipeline; Merged fans one Storage call out
// to several named storages.
//
// Every implementation must be safe for concurrent calls on different keys.
// Calls for the same key are ordered by the caller.
package storage

import (
	"context"
	"errors"
)

// MarkerKey is the reserved top-level key holding the envelope metadata.
const MarkerKey = "@@__rehydrate__"

var (
	// ErrStorageExists is returned by Merged.Add for a duplicate identifier.
	ErrStorageExists = errors.New("storage: storage already registered")
	// ErrNoBackend is returned when a Persistor has no backend.
	ErrNoBackend = errors.New("storage: backend not configured")
)

// Backend stores raw bytes. Get reports false for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}

// Storage stores decoded state values. Get reports false for a missing key;
// a negative version on Set means "no version".
type Storage interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any, version int) error
	Remove(ctx context.Context, key string) error
}

// Envelope is a persisted value together with its schema version.
type Envelope struct {
	// Version is migrate.NoVersion when the stored data carried no marker.
	Version   int
	Versioned bool
	State     any
}
