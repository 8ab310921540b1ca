// Package cachestore is an expiring in-memory storage.Backend. It suits
// session-scoped state that should not outlive a period of inactivity.
package cachestore

import (
	"context"
	"time"

	cache "github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration = 30 * time.Minute
	DefaultCleanup    = 5 * time.Minute
)

// Store keeps envelopes in a go-cache instance; every write renews the
// entry's expiration.
type Store struct {
	cache      *cache.Cache
	expiration time.Duration
}

// New returns a Store whose entries expire after expiration. Non-positive
// values select the defaults.
func New(expiration, cleanup time.Duration) *Store {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	if cleanup <= 0 {
		cleanup = DefaultCleanup
	}
	return &Store{
		cache:      cache.New(expiration, cleanup),
		expiration: expiration,
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	obj, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	data, ok := obj.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, data...), true, nil
}

func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Set(key, append([]byte{}, data...), s.expiration)
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Delete(key)
	return nil
}

// Flush drops every entry.
func (s *Store) Flush() {
	s.cache.Flush()
}
