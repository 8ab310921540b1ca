package rehydrate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-rehydrate/pkg/store"
)

type setCall struct {
	key     string
	value   any
	version int
}

// fakeStorage is an in-memory storage.Storage whose reads and writes can be
// held open to control completion order.
type fakeStorage struct {
	mu       sync.Mutex
	values   map[string]any
	gets     map[string]int
	getGates map[string]chan struct{}
	started  map[string]chan struct{}
	fired    map[string]bool
	sets     []setCall
	setGate  chan struct{}
	getErr   error
	setErr   error
}

func newFakeStorage(values map[string]any) *fakeStorage {
	if values == nil {
		values = map[string]any{}
	}
	return &fakeStorage{
		values:   values,
		gets:     map[string]int{},
		getGates: map[string]chan struct{}{},
		started:  map[string]chan struct{}{},
		fired:    map[string]bool{},
	}
}

// holdGet blocks reads of key until the returned release is called.
func (f *fakeStorage) holdGet(key string) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.getGates[key] = gate
	f.started[key] = make(chan struct{})
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// holdSets blocks every write until the returned release is called.
func (f *fakeStorage) holdSets() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.setGate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (f *fakeStorage) waitGet(t *testing.T, key string) {
	t.Helper()
	f.mu.Lock()
	started := f.started[key]
	f.mu.Unlock()
	if started == nil {
		t.Fatalf("read of %q is not held", key)
	}
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for read of %q", key)
	}
}

func (f *fakeStorage) Get(ctx context.Context, key string) (any, bool, error) {
	f.mu.Lock()
	f.gets[key]++
	gate := f.getGates[key]
	if started, ok := f.started[key]; ok && !f.fired[key] {
		close(started)
		f.fired[key] = true
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *fakeStorage) Set(ctx context.Context, key string, value any, version int) error {
	f.mu.Lock()
	gate := f.setGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, setCall{key: key, value: value, version: version})
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func (f *fakeStorage) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func (f *fakeStorage) getCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets[key]
}

func (f *fakeStorage) setsFor(key string) []setCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []setCall
	for _, call := range f.sets {
		if call.key == key {
			out = append(out, call)
		}
	}
	return out
}

func (f *fakeStorage) resetSets() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = nil
}

// recorder collects values from reducers and listeners.
type recorder struct {
	mu     sync.Mutex
	values []any
}

func (r *recorder) add(value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, value)
}

func (r *recorder) snapshot() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.values...)
}

func asInt(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func counterSlice(state any, action store.Action) any {
	n := asInt(state)
	if action.Type == "increment" {
		return n + 1
	}
	if state == nil {
		return n
	}
	return state
}

func counterReducer(names ...string) store.Reducer {
	if len(names) == 0 {
		names = []string{"counter"}
	}
	reducers := make(map[string]store.Reducer, len(names))
	for _, name := range names {
		reducers[name] = counterSlice
	}
	return store.Combine(reducers)
}

func newTestStore(t *testing.T, reducer store.Reducer, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithLogger(NopLogger())}, opts...)
	s, err := New(reducer, nil, opts...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func settle(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Settle(ctx); err != nil {
		t.Fatalf("settle: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func sliceOf(t *testing.T, s *Store, name string) any {
	t.Helper()
	value, ok := sliceValue(s.GetState(), name)
	if !ok {
		t.Fatalf("slice %q missing from %#v", name, s.GetState())
	}
	return value
}

func dispatchWait(t *testing.T, s *Store, action store.Action) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.DispatchWait(ctx, action); err != nil {
		t.Fatalf("dispatch %s: %v", action.Type, err)
	}
}
