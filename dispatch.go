package rehydrate

import (
	"github.com/goliatone/go-rehydrate/layering"
	"github.com/goliatone/go-rehydrate/pkg/store"
	"github.com/goliatone/go-rehydrate/pkg/tree"
)

// dispatch is the intercepting entry point. Runs on the loop.
func (s *Store) dispatch(action store.Action) {
	switch action.Type {
	case ActionRehydrate:
		if action.Slice == "" {
			_ = s.inner.Dispatch(action)
			return
		}
		if action.Buffer != 0 || !s.advance(action.Slice, StatusPending, StatusLoading) {
			return
		}
		s.load(s.openBuffer(action.Slice))
		return
	case ActionRehydrated:
		buffer, ok := s.buffers[action.Buffer]
		if !ok || buffer.slice != action.Slice || !buffer.ready || buffer.emitted {
			return
		}
		buffer.emitted = true
		_ = s.inner.Dispatch(store.Action{
			Type:    ActionRehydrated,
			Slice:   buffer.slice,
			Buffer:  buffer.index,
			Payload: buffer.payload,
		})
		s.flush()
		return
	}

	if buffer := s.currentBuffer(); buffer != nil {
		buffer.actions = append(buffer.actions, action)
		return
	}
	_ = s.inner.Dispatch(action)
}

// load reads the slice in the background and posts the result to the loop.
func (s *Store) load(buffer *actionBuffer) {
	key := s.key(buffer.slice)
	s.pendingIO++
	s.io.Add(1)
	go func() {
		defer s.io.Done()
		value, found, err := s.cfg.storage.Get(s.ctx, key)
		_ = s.post(func() {
			s.pendingIO--
			s.loaded(buffer, key, value, found, err)
		})
	}()
}

// loaded merges the persisted value into the current slice and runs the
// buffer-indexed rehydrate action through the wrapped reducer.
func (s *Store) loaded(buffer *actionBuffer, key string, value any, found bool, err error) {
	if err != nil {
		s.cfg.logger.Warn("failed to retrieve persisted state from storage", Fields{"slice": buffer.slice, "key": key, "error": err.Error()})
		s.emitReadFailed(buffer.slice, key, err)
		found = false
	}
	if found {
		agg, ok := tree.Of(value)
		if ok {
			buffer.persisted, buffer.found = agg.Get(buffer.slice)
		}
		if buffer.persisted == nil {
			buffer.found = false
		}
	}

	current, _ := sliceValue(s.inner.GetState(), buffer.slice)
	merged := s.cfg.merger(current, buffer.persisted)
	if !s.advance(buffer.slice, StatusLoading, StatusMerged) {
		buffer.ready, buffer.emitted = true, true
		s.flush()
		return
	}
	_ = s.inner.Dispatch(store.Action{
		Type:    ActionRehydrate,
		Slice:   buffer.slice,
		Buffer:  buffer.index,
		Payload: merged,
	})
}

// wrap special-cases buffer-indexed rehydrate actions and passes everything
// else to reducer.
func (s *Store) wrap(reducer store.Reducer) store.Reducer {
	return func(state any, action store.Action) any {
		if action.Type != ActionRehydrate || action.Buffer == 0 {
			return reducer(state, action)
		}
		buffer, ok := s.buffers[action.Buffer]
		if !ok || buffer.slice != action.Slice || s.statusOf(action.Slice) != StatusMerged {
			return state
		}

		before, _ := sliceValue(state, action.Slice)
		next := reducer(state, action)
		after, present := sliceValue(next, action.Slice)
		if buffer.found && present && layering.Equal(before, after) {
			next = withSlice(next, action.Slice, action.Payload)
			after = action.Payload
		}

		s.advance(action.Slice, StatusMerged, StatusDone)
		buffer.ready = true
		buffer.payload = after
		_ = s.post(func() {
			s.dispatch(store.Action{Type: ActionRehydrated, Slice: action.Slice, Buffer: action.Buffer})
		})
		return next
	}
}
