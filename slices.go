package rehydrate

import (
	"github.com/goliatone/go-rehydrate/pkg/store"
	"github.com/goliatone/go-rehydrate/pkg/tree"
)

type slice struct {
	name   string
	status Status
}

// actionBuffer holds actions dispatched while its slice loads.
type actionBuffer struct {
	index   int
	slice   string
	actions []store.Action
	// persisted is the loaded slice value; found is false when storage had
	// none or the read failed.
	persisted any
	found     bool
	// ready is set once the slice is committed; emitted once the
	// rehydrated notification went out.
	ready   bool
	emitted bool
	payload any
}

// installReducer records newly seen slices, swaps the wrapped reducer in and
// schedules a rehydration pass.
func (s *Store) installReducer(reducer store.Reducer, keys []string) {
	s.discover(keys)
	_ = s.inner.ReplaceReducer(s.wrap(reducer))
	_ = s.post(s.rehydratePending)
}

func (s *Store) discover(keys []string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	for _, name := range keys {
		if _, ok := s.slices[name]; ok {
			continue
		}
		s.slices[name] = &slice{name: name, status: StatusDiscovered}
		s.order = append(s.order, name)
	}
	for _, name := range s.order {
		if entry := s.slices[name]; entry.status == StatusDiscovered {
			entry.status = StatusPending
		}
	}
}

func (s *Store) rehydratePending() {
	for _, name := range s.Slices() {
		if status, _ := s.Status(name); status == StatusPending {
			s.dispatch(store.Action{Type: ActionRehydrate, Slice: name})
		}
	}
}

// advance moves a slice from one status to the next; it reports false when
// the slice is not at from.
func (s *Store) advance(name string, from, to Status) bool {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	entry, ok := s.slices[name]
	if !ok || entry.status != from {
		return false
	}
	entry.status = to
	return true
}

func (s *Store) statusOf(name string) Status {
	status, ok := s.Status(name)
	if !ok {
		return -1
	}
	return status
}

func (s *Store) openBuffer(name string) *actionBuffer {
	s.nextBuffer++
	buffer := &actionBuffer{index: s.nextBuffer, slice: name}
	s.buffers[buffer.index] = buffer
	s.open = append(s.open, buffer.index)
	return buffer
}

// currentBuffer is the most recently opened buffer, or nil.
func (s *Store) currentBuffer() *actionBuffer {
	if len(s.open) == 0 {
		return nil
	}
	return s.buffers[s.open[len(s.open)-1]]
}

// flush replays buffers in index order, stopping at the first one whose
// slice has not been committed and announced.
func (s *Store) flush() {
	for len(s.open) > 0 {
		buffer := s.buffers[s.open[0]]
		if !buffer.ready || !buffer.emitted {
			return
		}
		s.open = s.open[1:]
		delete(s.buffers, buffer.index)
		for _, action := range buffer.actions {
			_ = s.inner.Dispatch(action)
		}
		s.cfg.logger.Debug("slice buffer flushed", Fields{"slice": buffer.slice, "buffer": buffer.index, "replayed": len(buffer.actions)})
		s.emitRehydrated(buffer)
	}
}

func sliceValue(state any, name string) (any, bool) {
	agg, ok := tree.Of(state)
	if !ok {
		return nil, false
	}
	return agg.Get(name)
}

func withSlice(state any, name string, value any) any {
	agg, ok := tree.Of(state)
	if !ok {
		return state
	}
	return agg.With(name, value).Value()
}
