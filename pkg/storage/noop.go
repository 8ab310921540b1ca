package storage

import "context"

// Noop is a Backend that stores nothing. Reads always miss.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error         { return nil }
func (Noop) Remove(context.Context, string) error              { return nil }

// OrNoop returns backend, or Noop when err is non-nil or backend is nil.
// onFallback, when set, receives the open error.
//
//	backend := storage.OrNoop(boltstore.Open(path, "slices"))
func OrNoop[B Backend](backend B, err error, onFallback ...func(error)) Backend {
	if err == nil && any(backend) != nil {
		return backend
	}
	for _, fn := range onFallback {
		if fn != nil {
			fn(err)
		}
	}
	return Noop{}
}
