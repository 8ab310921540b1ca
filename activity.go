package rehydrate

import "github.com/goliatone/go-rehydrate/pkg/activity"

func (s *Store) emit(event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(s.ctx, event); err != nil {
		s.cfg.logger.Warn("activity hook failed", Fields{"verb": event.Verb, "slice": event.Subject(), "error": err.Error()})
	}
}

func (s *Store) emitRehydrated(buffer *actionBuffer) {
	s.emit(activity.Rehydrated(buffer.slice, s.key(buffer.slice), buffer.found, len(buffer.actions)))
}

func (s *Store) emitReadFailed(name, key string, err error) {
	s.emit(activity.ReadFailed(name, key, err))
}

func (s *Store) emitWrite(name, key string, version int, err error) {
	if err != nil {
		s.emit(activity.WriteFailed(name, key, version, err))
		return
	}
	s.emit(activity.Persisted(name, key, version))
}
