// Package transform applies ordered encode/decode steps to each top-level key
// of a state tree on its way to and from storage.
package transform

import (
	"fmt"

	"github.com/goliatone/go-rehydrate/pkg/tree"
)

// Transform converts one top-level value. Encode runs on write, Decode on
// read.
type Transform interface {
	Encode(value any, key string) (any, error)
	Decode(value any, key string) (any, error)
}

// Funcs adapts a pair of functions to Transform. A nil function is the
// identity.
type Funcs struct {
	EncodeFunc func(value any, key string) (any, error)
	DecodeFunc func(value any, key string) (any, error)
}

func (f Funcs) Encode(value any, key string) (any, error) {
	if f.EncodeFunc == nil {
		return value, nil
	}
	return f.EncodeFunc(value, key)
}

func (f Funcs) Decode(value any, key string) (any, error) {
	if f.DecodeFunc == nil {
		return value, nil
	}
	return f.DecodeFunc(value, key)
}

// Pipeline is an ordered list of transforms.
type Pipeline []Transform

// Encode applies every transform in registration order to every top-level
// key of state. Values that are not state trees pass through unchanged.
func (p Pipeline) Encode(state any) (any, error) {
	for _, t := range p {
		next, err := apply(state, t.Encode)
		if err != nil {
			return nil, err
		}
		state = next
	}
	return state, nil
}

// Decode is the inverse of Encode: transforms run in reverse registration
// order.
func (p Pipeline) Decode(state any) (any, error) {
	for i := len(p) - 1; i >= 0; i-- {
		next, err := apply(state, p[i].Decode)
		if err != nil {
			return nil, err
		}
		state = next
	}
	return state, nil
}

func apply(state any, fn func(any, string) (any, error)) (any, error) {
	agg, ok := tree.Of(state)
	if !ok || fn == nil {
		return state, nil
	}
	out := agg
	for _, key := range agg.Keys() {
		value, _ := agg.Get(key)
		next, err := fn(value, key)
		if err != nil {
			return nil, fmt.Errorf("transform: key %q: %w", key, err)
		}
		out = out.With(key, next)
	}
	return out.Value(), nil
}

// OnlyKeys restricts t to the listed keys; other keys pass through.
func OnlyKeys(t Transform, keys ...string) Transform {
	return filtered(t, keys, true)
}

// ExceptKeys applies t to every key but the listed ones.
func ExceptKeys(t Transform, keys ...string) Transform {
	return filtered(t, keys, false)
}

func filtered(t Transform, keys []string, include bool) Transform {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	match := func(key string) bool {
		_, ok := set[key]
		return ok == include
	}
	return Funcs{
		EncodeFunc: func(value any, key string) (any, error) {
			if !match(key) {
				return value, nil
			}
			return t.Encode(value, key)
		},
		DecodeFunc: func(value any, key string) (any, error) {
			if !match(key) {
				return value, nil
			}
			return t.Decode(value, key)
		},
	}
}
