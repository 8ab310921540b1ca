package rehydrate

import (
	"fmt"

	"github.com/goliatone/go-rehydrate/internal/hydrate"
)

// SliceAs decodes the current value of slice into T.
func SliceAs[T any](s *Store, name string) (T, error) {
	var zero T
	value, ok := sliceValue(s.GetState(), name)
	if !ok {
		return zero, fmt.Errorf("rehydrate: slice %q not in state", name)
	}
	return hydrate.NewDecoder[T]().Decode(hydrate.Context{Slice: name, Key: s.key(name)}, value)
}
