package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-rehydrate/layering"
)

// Entry names a Storage for Merged.AddAll and Merged.PutAll.
type Entry struct {
	ID      string
	Storage Storage
}

// Merged fans every call out to a set of named storages.
//
// Get reads all storages concurrently, waits for every result and folds the
// values found, in registration order, into a deep copy of the blank state.
// Later storages win. Set and Remove complete once every storage has.
type Merged struct {
	blank any
	merge layering.Merger

	mu       sync.RWMutex
	ids      []string
	storages map[string]Storage
}

// NewMerged returns an empty Merged storage. A nil merge layers the values
// with layering.MergeLayers; otherwise merge is applied pairwise.
func NewMerged(blank any, merge layering.Merger) *Merged {
	return &Merged{
		blank:    blank,
		merge:    merge,
		storages: map[string]Storage{},
	}
}

// Add registers s under id. A duplicate id returns ErrStorageExists.
func (m *Merged) Add(id string, s Storage) error {
	if s == nil {
		return fmt.Errorf("storage: storage %q is nil", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.storages[id]; exists {
		return fmt.Errorf("%w: %q", ErrStorageExists, id)
	}
	m.put(id, s)
	return nil
}

// AddAll registers every entry with Add semantics, stopping at the first
// error.
func (m *Merged) AddAll(entries ...Entry) error {
	for _, entry := range entries {
		if err := m.Add(entry.ID, entry.Storage); err != nil {
			return err
		}
	}
	return nil
}

// Put registers s under id, replacing any storage already there. A replaced
// storage keeps its position.
func (m *Merged) Put(id string, s Storage) {
	if s == nil {
		return
	}
	m.mu.Lock()
	m.put(id, s)
	m.mu.Unlock()
}

// PutAll registers every entry with Put semantics.
func (m *Merged) PutAll(entries ...Entry) {
	for _, entry := range entries {
		m.Put(entry.ID, entry.Storage)
	}
}

func (m *Merged) put(id string, s Storage) {
	if _, exists := m.storages[id]; !exists {
		m.ids = append(m.ids, id)
	}
	m.storages[id] = s
}

// Has reports whether id is registered.
func (m *Merged) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.storages[id]
	return ok
}

// Lookup returns the storage registered under id.
func (m *Merged) Lookup(id string) (Storage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.storages[id]
	return s, ok
}

// Delete unregisters id. Unknown ids are ignored.
func (m *Merged) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.storages[id]; !ok {
		return
	}
	delete(m.storages, id)
	for i, existing := range m.ids {
		if existing == id {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			break
		}
	}
}

// DeleteAll unregisters every id.
func (m *Merged) DeleteAll(ids ...string) {
	for _, id := range ids {
		m.Delete(id)
	}
}

// Clear unregisters all storages.
func (m *Merged) Clear() {
	m.mu.Lock()
	m.ids = nil
	m.storages = map[string]Storage{}
	m.mu.Unlock()
}

// IDs returns the registered identifiers in registration order.
func (m *Merged) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.ids...)
}

func (m *Merged) snapshot() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]Entry, 0, len(m.ids))
	for _, id := range m.ids {
		entries = append(entries, Entry{ID: id, Storage: m.storages[id]})
	}
	return entries
}

type partial struct {
	value any
	found bool
}

// Get implements Storage. It reports false when no storage holds key.
func (m *Merged) Get(ctx context.Context, key string) (any, bool, error) {
	entries := m.snapshot()
	results := make([]partial, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			value, ok, err := entry.Storage.Get(gctx, key)
			if err != nil {
				return fmt.Errorf("storage: %s: %w", entry.ID, err)
			}
			results[i] = partial{value: value, found: ok && value != nil}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	var found []any
	for _, result := range results {
		if result.found {
			found = append(found, result.value)
		}
	}
	if len(found) == 0 {
		return nil, false, nil
	}

	if m.merge == nil {
		layers := make([]any, 0, len(found)+1)
		for i := len(found) - 1; i >= 0; i-- {
			layers = append(layers, found[i])
		}
		if m.blank != nil {
			layers = append(layers, m.blank)
		}
		return layering.MergeLayers(layers...), true, nil
	}

	state := layering.Clone(m.blank)
	for _, value := range found {
		if state == nil {
			state = value
			continue
		}
		state = m.merge(state, value)
	}
	return state, true, nil
}

// Set implements Storage. Every storage is written even when some fail; the
// failures are joined.
func (m *Merged) Set(ctx context.Context, key string, value any, version int) error {
	return m.fanOut(func(s Storage) error {
		return s.Set(ctx, key, value, version)
	})
}

// Remove implements Storage.
func (m *Merged) Remove(ctx context.Context, key string) error {
	return m.fanOut(func(s Storage) error {
		return s.Remove(ctx, key)
	})
}

func (m *Merged) fanOut(fn func(Storage) error) error {
	entries := m.snapshot()
	errs := make([]error, len(entries))

	var g errgroup.Group
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := fn(entry.Storage); err != nil {
				errs[i] = fmt.Errorf("storage: %s: %w", entry.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
