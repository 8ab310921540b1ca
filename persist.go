package rehydrate

import "github.com/goliatone/go-rehydrate/pkg/tree"

// writer serialises writes for one key. At most one write is in flight; a
// newer value replaces any value still waiting.
type writer struct {
	slice      string
	busy       bool
	pending    any
	hasPending bool
}

// persistDone writes every committed slice still present in the state. It is
// registered as an inner store listener and so runs on the loop.
func (s *Store) persistDone() {
	agg, ok := tree.Of(s.inner.GetState())
	if !ok {
		return
	}
	for _, name := range s.Slices() {
		if status, _ := s.Status(name); status != StatusDone {
			continue
		}
		if _, present := agg.Get(name); !present {
			continue
		}
		s.write(name, tree.Pick(agg, name).Value())
	}
}

func (s *Store) write(name string, value any) {
	key := s.key(name)
	w, ok := s.writers[key]
	if !ok {
		w = &writer{slice: name}
		s.writers[key] = w
	}
	if w.busy {
		w.pending, w.hasPending = value, true
		return
	}
	w.busy = true
	s.startWrite(w, key, value)
}

func (s *Store) startWrite(w *writer, key string, value any) {
	version := s.cfg.version
	s.pendingIO++
	s.io.Add(1)
	go func() {
		defer s.io.Done()
		err := s.cfg.storage.Set(s.ctx, key, value, version)
		_ = s.post(func() {
			s.pendingIO--
			s.written(w, key, version, err)
		})
	}()
}

func (s *Store) written(w *writer, key string, version int, err error) {
	if err != nil {
		s.cfg.logger.Warn("unable to persist state to storage", Fields{"slice": w.slice, "key": key, "error": err.Error()})
		s.emitWrite(w.slice, key, version, err)
	} else {
		s.cfg.logger.Debug("slice persisted", Fields{"slice": w.slice, "key": key, "version": version})
		s.emitWrite(w.slice, key, version, nil)
	}

	if w.hasPending {
		value := w.pending
		w.pending, w.hasPending = nil, false
		s.startWrite(w, key, value)
		return
	}
	w.busy = false
}
