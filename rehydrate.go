// Package rehydrate keeps a store's state across restarts by loading each
// top-level slice from storage and merging it into live state.
//
// New wraps a store.Store. Slices are discovered from the reducer's state
// shape, read concurrently and injected through the reducer as an internal
// action. Actions dispatched while any slice is loading are buffered and
// replayed once the slice is committed, in the order their buffers opened
// across all slices. Every change to a committed slice is written back under
// storageKey@slice.
//
// All engine state is owned by a single loop goroutine. Public methods post
// tasks to that loop; storage I/O runs on separate goroutines and reports
// back through the same queue.
package rehydrate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-rehydrate/pkg/activity"
	"github.com/goliatone/go-rehydrate/pkg/store"
	"github.com/goliatone/go-rehydrate/pkg/tree"
	"github.com/google/uuid"
)

// Internal action types. Reducers may handle ActionRehydrate to fold the
// merged payload themselves; ActionRehydrated and ActionLoaded are
// notifications.
const (
	ActionRehydrate   = "@@rehydrate/REHYDRATE_SLICE"
	ActionRehydrated  = "@@rehydrate/REHYDRATED_SLICE"
	ActionLoaded      = "@@rehydrate/LOADED"
	shapeActionPrefix = "@@rehydrate/GET_SHAPE_"
)

// Store is a store.Store wrapped with per-slice rehydration.
type Store struct {
	cfg     config
	inner   *store.Store
	emitter *activity.Emitter
	probe   string

	queue    *taskQueue
	loopDone chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	io       sync.WaitGroup
	closed   atomic.Bool
	closeMu  sync.Mutex

	// Loop-owned.
	buffers    map[int]*actionBuffer
	open       []int
	nextBuffer int
	pendingIO  int
	writers    map[string]*writer
	idle       []chan struct{}

	// statusMu guards slices for readers outside the loop.
	statusMu sync.RWMutex
	slices   map[string]*slice
	order    []string
}

// New creates the inner store from reducer and initial, starts the engine
// loop and schedules discovery of the reducer's slices. Configuration and
// shape errors are returned synchronously.
func New(reducer store.Reducer, initial any, opts ...Option) (*Store, error) {
	cfg := applyOptions(opts)
	if cfg.storage == nil {
		return nil, ErrStorageRequired
	}
	if reducer == nil {
		return nil, ErrReducerRequired
	}

	s := &Store{
		cfg:      cfg,
		emitter:  activity.NewEmitter(cfg.hooks, cfg.activity),
		probe:    shapeActionPrefix + uuid.NewString(),
		queue:    newTaskQueue(),
		loopDone: make(chan struct{}),
		buffers:  map[int]*actionBuffer{},
		writers:  map[string]*writer{},
		slices:   map[string]*slice{},
	}
	keys, err := s.shape(reducer)
	if err != nil {
		return nil, err
	}
	s.ctx, s.cancel = context.WithCancel(cfg.ctx)

	s.inner = store.New(reducer, initial)
	s.inner.Subscribe(s.persistDone)

	s.queue.push(func() { s.installReducer(reducer, keys) })
	s.queue.push(func() { s.dispatch(store.Action{Type: ActionLoaded}) })
	go s.loop()
	return s, nil
}

func (s *Store) loop() {
	defer close(s.loopDone)
	for {
		task, ok := s.queue.next()
		if !ok {
			return
		}
		task()
		s.notifyIdle()
	}
}

func (s *Store) post(task func()) error {
	if s.closed.Load() || !s.queue.push(task) {
		return ErrClosed
	}
	return nil
}

// Dispatch schedules action. It is buffered while any slice is loading.
func (s *Store) Dispatch(action store.Action) error {
	return s.post(func() { s.dispatch(action) })
}

// DispatchWait schedules action and waits until the loop has handled it.
// Handled means dispatched or buffered.
func (s *Store) DispatchWait(ctx context.Context, action store.Action) error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	if err := s.post(func() {
		s.dispatch(action)
		close(done)
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetState returns the current state tree.
func (s *Store) GetState() any {
	return s.inner.GetState()
}

// Subscribe registers fn to run after every state change. Listeners run on
// the engine loop and must not block.
func (s *Store) Subscribe(fn func()) func() {
	return s.inner.Subscribe(fn)
}

// ReplaceReducer installs reducer and rehydrates any slice it introduces.
// Known slices keep their status.
func (s *Store) ReplaceReducer(reducer store.Reducer) error {
	if reducer == nil {
		return ErrReducerRequired
	}
	keys, err := s.shape(reducer)
	if err != nil {
		return err
	}
	return s.post(func() { s.installReducer(reducer, keys) })
}

// Status reports the lifecycle status of slice.
func (s *Store) Status(name string) (Status, bool) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	entry, ok := s.slices[name]
	if !ok {
		return 0, false
	}
	return entry.status, true
}

// Slices returns every discovered slice in discovery order.
func (s *Store) Slices() []string {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return append([]string(nil), s.order...)
}

// Settle waits until no task is queued, no storage call is in flight and no
// action buffer is open.
func (s *Store) Settle(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	if err := s.post(func() { s.idle = append(s.idle, done) }); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop after draining queued tasks and waits for in-flight
// storage calls. Completions arriving after Close are discarded.
func (s *Store) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed.Load() {
		return nil
	}
	s.closed.Store(true)
	s.queue.close()
	<-s.loopDone
	s.io.Wait()
	s.cancel()
	return nil
}

// notifyIdle releases Settle waiters. Called on the loop after each task.
func (s *Store) notifyIdle() {
	if len(s.idle) == 0 || s.queue.len() > 0 || s.pendingIO > 0 || len(s.open) > 0 {
		return
	}
	for _, ch := range s.idle {
		close(ch)
	}
	s.idle = nil
}

// shape probes reducer with the shape action and returns the slice names.
func (s *Store) shape(reducer store.Reducer) ([]string, error) {
	state := reducer(nil, store.Action{Type: s.probe})
	if state == nil {
		return nil, nil
	}
	agg, ok := tree.Of(state)
	if !ok {
		return nil, &ShapeError{Type: fmt.Sprintf("%T", state)}
	}
	return agg.Keys(), nil
}

func (s *Store) key(name string) string {
	return s.cfg.storageKey + "@" + name
}
