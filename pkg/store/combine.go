package store

import (
	"sort"

	"github.com/goliatone/go-rehydrate/pkg/tree"
)

// Combine builds a reducer whose state is a map[string]any with one key per
// child reducer. Keys of the incoming state without a reducer are dropped.
func Combine(reducers map[string]Reducer) Reducer {
	names := make([]string, 0, len(reducers))
	for name := range reducers {
		names = append(names, name)
	}
	sort.Strings(names)
	return combine(names, reducers, func() tree.Aggregate {
		agg, _ := tree.Of(map[string]any{})
		return agg
	})
}

// CombineOrdered is Combine producing a *tree.Ordered whose keys follow names.
func CombineOrdered(names []string, reducers map[string]Reducer) Reducer {
	return combine(names, reducers, func() tree.Aggregate {
		return tree.NewOrdered()
	})
}

func combine(names []string, reducers map[string]Reducer, empty func() tree.Aggregate) Reducer {
	return func(state any, action Action) any {
		current, _ := tree.Of(state)
		next := empty()
		for _, name := range names {
			reducer := reducers[name]
			if reducer == nil {
				continue
			}
			var child any
			if current != nil {
				child, _ = current.Get(name)
			}
			next = next.With(name, reducer(child, action))
		}
		return next.Value()
	}
}
