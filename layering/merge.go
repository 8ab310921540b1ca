// Package layering combines an in-memory state value with a persisted one.
//
// The default Deep merger folds a persisted value into the current value key
// by key; Shallow and Override are provided for deployments that want
// coarser semantics. All mergers treat a nil persisted value as "nothing was
// stored" and return the current value unchanged.
package layering

import (
	"reflect"

	"github.com/goliatone/go-rehydrate/pkg/tree"
)

// Merger combines the current value of a slice with its persisted value.
type Merger func(current, persisted any) any

// Deep merges persisted into current recursively. Keys only present in
// persisted are added, keys present in both are merged (persisted wins on
// scalars and sequences) and keys only present in current are preserved.
// When current is typed (a struct, a typed map, an int) and persisted is a
// decoded value, the result keeps the type of current; persisted entries are
// matched by key, JSON field name or field name. Inputs are never mutated.
func Deep(current, persisted any) any {
	if persisted == nil {
		return current
	}
	strong, weak := reflect.ValueOf(persisted), reflect.ValueOf(current)
	if weak.IsValid() && weak.Type() != strong.Type() {
		if _, custom := customAggregate(weak); !custom {
			if merged, ok := mergeInto(weak.Type(), weak, strong); ok {
				return merged.Interface()
			}
		}
	}
	merged := mergeValue(strong, weak)
	if !merged.IsValid() {
		return nil
	}
	return merged.Interface()
}

// Shallow merges the top-level keys of two aggregates, persisted winning per
// key. Non-aggregate persisted values replace current.
func Shallow(current, persisted any) any {
	if persisted == nil {
		return current
	}
	src, ok := tree.Of(persisted)
	if !ok {
		return persisted
	}
	dst, ok := tree.Of(current)
	if !ok {
		return persisted
	}
	for _, key := range src.Keys() {
		value, _ := src.Get(key)
		dst = dst.With(key, value)
	}
	return dst.Value()
}

// Override replaces current with persisted whenever persisted is present.
func Override(current, persisted any) any {
	if persisted == nil {
		return current
	}
	return persisted
}

// MergeLayers composes snapshots ordered from strongest to weakest, returning a
// new value that keeps explicit settings from stronger layers while filling any
// missing data from weaker ones. Each step is a Deep merge, so the weakest
// layer's type is kept where the stronger layers are decoded values.
func MergeLayers[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}

	merged := Clone(layers[len(layers)-1])
	for i := len(layers) - 2; i >= 0; i-- {
		merged = Deep(merged, any(layers[i]))
	}

	if out, ok := merged.(T); ok {
		return out
	}
	v := reflect.ValueOf(merged)
	t := reflect.TypeOf((*T)(nil)).Elem()
	if !v.IsValid() || !v.Type().ConvertibleTo(t) {
		return zero
	}
	return v.Convert(t).Interface().(T)
}

func mergeValue(strong, weak reflect.Value) reflect.Value {
	if !strong.IsValid() {
		return cloneValue(weak)
	}
	if merged, ok := mergeAggregate(strong, weak); ok {
		return merged
	}

	switch strong.Kind() {
	case reflect.Pointer:
		if strong.IsNil() {
			return cloneValue(weak)
		}
		var weakElem reflect.Value
		if weak.IsValid() && weak.Kind() == reflect.Pointer && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		merged := mergeValue(strong.Elem(), weakElem)
		result := reflect.New(strong.Type().Elem())
		result.Elem().Set(merged)
		return result
	case reflect.Interface:
		if strong.IsNil() {
			return cloneValue(weak)
		}
		var weakElem reflect.Value
		if weak.IsValid() && weak.Kind() == reflect.Interface && !weak.IsNil() {
			weakElem = weak.Elem()
		} else if weak.IsValid() && weak.Kind() != reflect.Interface {
			weakElem = weak
		}
		merged := mergeValue(strong.Elem(), weakElem)
		if !merged.IsValid() {
			return reflect.Zero(strong.Type())
		}
		return merged.Convert(strong.Type())
	case reflect.Struct:
		result := reflect.New(strong.Type()).Elem()
		var weakStruct reflect.Value
		if weak.IsValid() && weak.Type() == strong.Type() {
			weakStruct = weak
		}
		for i := 0; i < strong.NumField(); i++ {
			field := result.Field(i)
			if !field.CanSet() {
				continue
			}
			var weakField reflect.Value
			if weakStruct.IsValid() {
				weakField = weakStruct.Field(i)
			}
			field.Set(mergeValue(strong.Field(i), weakField))
		}
		return result
	case reflect.Map:
		if strong.IsNil() {
			return cloneValue(weak)
		}
		result := reflect.MakeMapWithSize(strong.Type(), strong.Len())
		if weak.IsValid() && weak.Kind() == reflect.Map && !weak.IsNil() &&
			weak.Type().Key() == strong.Type().Key() && weak.Type().Elem().AssignableTo(strong.Type().Elem()) {
			iter := weak.MapRange()
			for iter.Next() {
				result.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
			}
		}
		iter := strong.MapRange()
		for iter.Next() {
			key := iter.Key()
			existing := result.MapIndex(key)
			if existing.IsValid() {
				result.SetMapIndex(key, mergeValue(iter.Value(), existing))
				continue
			}
			result.SetMapIndex(key, cloneValue(iter.Value()))
		}
		return result
	case reflect.Slice:
		if strong.IsNil() {
			return cloneValue(weak)
		}
		return cloneValue(strong)
	case reflect.Array:
		result := reflect.New(strong.Type()).Elem()
		for i := 0; i < strong.Len(); i++ {
			var weakElem reflect.Value
			if weak.IsValid() && weak.Type() == strong.Type() {
				weakElem = weak.Index(i)
			}
			result.Index(i).Set(mergeValue(strong.Index(i), weakElem))
		}
		return result
	default:
		return cloneValue(strong)
	}
}

// mergeAggregate handles custom tree.Aggregate implementations (for example
// *tree.Ordered) whose internals reflection cannot rebuild. Plain maps are
// left to the reflect path.
func mergeAggregate(strong, weak reflect.Value) (reflect.Value, bool) {
	_, strongCustom := customAggregate(strong)
	_, weakCustom := customAggregate(weak)
	if !strongCustom && !weakCustom {
		return reflect.Value{}, false
	}
	strongAgg, strongOK := anyAggregate(strong)
	weakAgg, weakOK := anyAggregate(weak)
	if !strongOK {
		return reflect.Value{}, false
	}
	if !weakOK {
		return cloneValue(strong), true
	}
	// The result keeps the representation of the current (weak) side.
	out := weakAgg
	for _, key := range strongAgg.Keys() {
		value, _ := strongAgg.Get(key)
		if existing, found := weakAgg.Get(key); found {
			out = out.With(key, Deep(existing, value))
			continue
		}
		out = out.With(key, Clone(value))
	}
	return reflect.ValueOf(out.Value()), true
}

func customAggregate(v reflect.Value) (tree.Aggregate, bool) {
	if !v.IsValid() || !v.CanInterface() {
		return nil, false
	}
	if v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() == reflect.Map {
		return nil, false
	}
	agg, ok := v.Interface().(tree.Aggregate)
	return agg, ok
}

func anyAggregate(v reflect.Value) (tree.Aggregate, bool) {
	if !v.IsValid() || !v.CanInterface() {
		return nil, false
	}
	return tree.Of(v.Interface())
}
