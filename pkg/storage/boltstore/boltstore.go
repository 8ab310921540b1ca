// Package boltstore is a storage.Backend on a single-file bbolt database.
package boltstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// DefaultBucket holds slice envelopes when Open is given no bucket name.
const DefaultBucket = "rehydrate"

// Store is a bbolt-backed storage.Backend.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

// Open opens (creating if needed) the database at path and ensures bucket
// exists.
func Open(path, bucket string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("boltstore: path is required")
	}
	if strings.TrimSpace(bucket) == "" {
		bucket = DefaultBucket
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open db: %w", err)
	}
	store := &Store{db: db, bucket: []byte(bucket)}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(store.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltstore: create bucket %q: %w", bucket, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %q is missing", s.bucket)
		}
		if payload := bucket.Get([]byte(key)); payload != nil {
			// payload is only valid inside the transaction.
			out = append([]byte{}, payload...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("boltstore: get %q: %w", key, err)
	}
	return out, out != nil, nil
}

func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %q is missing", s.bucket)
		}
		return bucket.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("boltstore: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("boltstore: remove %q: %w", key, err)
	}
	return nil
}

// Keys lists stored keys starting with prefix in byte order.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return nil
		}
		c := bucket.Cursor()
		for k, _ := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: keys: %w", err)
	}
	return keys, nil
}
