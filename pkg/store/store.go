// Package store is a minimal state container: a reducer, the current state,
// a dispatch entry point and change listeners.
//
// The rehydration engine wraps a Store rather than patching it, so the
// container knows nothing about persistence.
package store

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Builtin action types dispatched by the container itself.
const (
	ActionInit    = "@@store/INIT"
	ActionReplace = "@@store/REPLACE"
)

// ErrDispatching is returned when Dispatch is called while a reducer is
// running, either from inside the reducer or from another goroutine.
var ErrDispatching = errors.New("store: reducers may not dispatch actions")

// Action is the unit of change.
type Action struct {
	Type string
	// Slice names the state slice an internal action targets.
	Slice string
	// Buffer is an action-buffer index; zero means none.
	Buffer  int
	Payload any
}

// Reducer computes the next state from the current state and an action.
// A nil state means "not yet initialised".
type Reducer func(state any, action Action) any

// Store holds state produced by a Reducer. GetState and Subscribe are safe for
// concurrent use; dispatches must be serialised by the caller.
type Store struct {
	mu        sync.RWMutex
	reducer   Reducer
	state     any
	listeners map[uint64]func()
	order     []uint64
	nextID    uint64

	dispatching atomic.Bool
}

// New creates a store and dispatches ActionInit so the reducer can produce
// its initial state from initial.
func New(reducer Reducer, initial any) *Store {
	s := &Store{
		reducer:   reducer,
		state:     initial,
		listeners: map[uint64]func(){},
	}
	_ = s.Dispatch(Action{Type: ActionInit})
	return s
}

// GetState returns the current state.
func (s *Store) GetState() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch runs the reducer and notifies listeners registered at the time of
// the call, in subscription order.
func (s *Store) Dispatch(action Action) error {
	if !s.dispatching.CompareAndSwap(false, true) {
		return ErrDispatching
	}
	s.mu.RLock()
	reducer, state := s.reducer, s.state
	s.mu.RUnlock()

	next := state
	if reducer != nil {
		next = reducer(state, action)
	}

	s.mu.Lock()
	s.state = next
	listeners := make([]func(), 0, len(s.order))
	for _, id := range s.order {
		if fn, ok := s.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()
	s.dispatching.Store(false)

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// Subscribe registers fn to run after every dispatch. The returned function
// removes the listener and is safe to call more than once.
func (s *Store) Subscribe(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, existing := range s.order {
				if existing == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// ReplaceReducer swaps the active reducer and dispatches ActionReplace.
func (s *Store) ReplaceReducer(reducer Reducer) error {
	s.mu.Lock()
	s.reducer = reducer
	s.mu.Unlock()
	return s.Dispatch(Action{Type: ActionReplace})
}
