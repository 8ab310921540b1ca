// Package tree models a state tree as a keyed aggregate whose top-level keys
// are slice names.
//
// Two representations are supported and selected once, at the boundary, by
// Of: a plain map[string]any and the persistent insertion-ordered Ordered
// map. Every operation the rehydration engine, the merge functions and the
// transform pipeline perform on a state tree goes through the Aggregate
// capability so the two representations never need separate code paths.
package tree

import "sort"

// Aggregate is the capability shared by every state tree representation.
// Implementations must be persistent: With and Without never mutate the
// receiver.
type Aggregate interface {
	Keys() []string
	Get(key string) (any, bool)
	With(key string, value any) Aggregate
	Without(key string) Aggregate
	Len() int
	// Value returns the native representation (the map itself for plain
	// maps, the receiver for Ordered).
	Value() any
}

// Of returns the aggregate view of value. It reports false when value is
// neither a plain map[string]any nor an Aggregate.
func Of(value any) (Aggregate, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case Aggregate:
		return v, true
	case map[string]any:
		return mapAggregate{m: v}, true
	default:
		return nil, false
	}
}

// Is reports whether value is a state tree.
func Is(value any) bool {
	_, ok := Of(value)
	return ok
}

// Pick returns an aggregate of the same representation containing only keys.
func Pick(agg Aggregate, keys ...string) Aggregate {
	if agg == nil {
		return nil
	}
	keep := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		keep[key] = struct{}{}
	}
	out := agg
	for _, key := range agg.Keys() {
		if _, ok := keep[key]; !ok {
			out = out.Without(key)
		}
	}
	return out
}

// Map returns a plain map copy of the aggregate's top-level entries.
func Map(agg Aggregate) map[string]any {
	if agg == nil {
		return nil
	}
	out := make(map[string]any, agg.Len())
	for _, key := range agg.Keys() {
		value, _ := agg.Get(key)
		out[key] = value
	}
	return out
}

type mapAggregate struct {
	m map[string]any
}

func (a mapAggregate) Keys() []string {
	keys := make([]string, 0, len(a.m))
	for key := range a.m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (a mapAggregate) Get(key string) (any, bool) {
	value, ok := a.m[key]
	return value, ok
}

func (a mapAggregate) With(key string, value any) Aggregate {
	next := make(map[string]any, len(a.m)+1)
	for k, v := range a.m {
		next[k] = v
	}
	next[key] = value
	return mapAggregate{m: next}
}

func (a mapAggregate) Without(key string) Aggregate {
	if _, ok := a.m[key]; !ok {
		return a
	}
	next := make(map[string]any, len(a.m))
	for k, v := range a.m {
		if k != key {
			next[k] = v
		}
	}
	return mapAggregate{m: next}
}

func (a mapAggregate) Len() int {
	return len(a.m)
}

func (a mapAggregate) Value() any {
	return a.m
}
