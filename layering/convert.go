package layering

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/goliatone/go-rehydrate/pkg/tree"
)

var (
	unmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	aggregateType   = reflect.TypeOf((*tree.Aggregate)(nil)).Elem()
)

// mergeInto folds persisted into base and returns a value of type t. base is
// either invalid or of type t. Decoded values (map[string]any, []any,
// float64) are matched against t key by key and field by field, so typed
// current values keep their type and their current-only entries. It reports
// false when persisted cannot be expressed as t.
func mergeInto(t reflect.Type, base, persisted reflect.Value) (reflect.Value, bool) {
	raw := persisted
	for raw.IsValid() && raw.Kind() == reflect.Interface && !raw.IsNil() {
		raw = raw.Elem()
	}
	persisted = indirect(persisted)
	if !persisted.IsValid() {
		if base.IsValid() {
			return cloneValue(base), true
		}
		return reflect.Zero(t), true
	}
	if persisted.Type() == t {
		if base.IsValid() {
			return mergeValue(persisted, base), true
		}
		return cloneValue(persisted), true
	}

	if t.Kind() != reflect.Interface && t.Kind() != reflect.Map && t.Implements(aggregateType) {
		var current any
		if base.IsValid() && !(base.Kind() == reflect.Pointer && base.IsNil()) {
			current = base.Interface()
		}
		merged := reflect.ValueOf(Deep(current, persisted.Interface()))
		if !merged.IsValid() || !merged.Type().AssignableTo(t) {
			return reflect.Value{}, false
		}
		out := reflect.New(t).Elem()
		out.Set(merged)
		return out, true
	}
	if t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(unmarshalerType) {
		return decodeJSON(t, persisted)
	}

	switch t.Kind() {
	case reflect.Interface:
		var merged reflect.Value
		if base.IsValid() && !base.IsNil() {
			merged = mergeValue(raw, base.Elem())
		} else {
			merged = cloneValue(raw)
		}
		if !merged.IsValid() || !merged.Type().AssignableTo(t) {
			return reflect.Value{}, false
		}
		out := reflect.New(t).Elem()
		out.Set(merged)
		return out, true
	case reflect.Pointer:
		var elem reflect.Value
		if base.IsValid() && !base.IsNil() {
			elem = base.Elem()
		}
		merged, ok := mergeInto(t.Elem(), elem, persisted)
		if !ok {
			return reflect.Value{}, false
		}
		out := reflect.New(t.Elem())
		out.Elem().Set(merged)
		return out, true
	case reflect.Map:
		src := entries(persisted)
		if !src.IsValid() {
			return reflect.Value{}, false
		}
		var out reflect.Value
		if base.IsValid() && !base.IsNil() {
			out = cloneValue(base)
		} else {
			out = reflect.MakeMapWithSize(t, src.Len())
		}
		iter := src.MapRange()
		for iter.Next() {
			key, ok := convertScalar(t.Key(), indirect(iter.Key()))
			if !ok {
				return reflect.Value{}, false
			}
			value, ok := mergeInto(t.Elem(), out.MapIndex(key), iter.Value())
			if !ok {
				return reflect.Value{}, false
			}
			out.SetMapIndex(key, value)
		}
		return out, true
	case reflect.Struct:
		src := entries(persisted)
		if !src.IsValid() {
			return reflect.Value{}, false
		}
		fields, ok := stringKeyed(src)
		if !ok {
			return reflect.Value{}, false
		}
		out := reflect.New(t).Elem()
		if base.IsValid() {
			out.Set(cloneValue(base))
		}
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			name, skip := jsonName(field)
			if skip {
				continue
			}
			value, found := lookupField(fields, name)
			if !found {
				continue
			}
			var baseField reflect.Value
			if base.IsValid() {
				baseField = base.Field(i)
			}
			merged, ok := mergeInto(field.Type, baseField, value)
			if !ok {
				return reflect.Value{}, false
			}
			out.Field(i).Set(merged)
		}
		return out, true
	case reflect.Slice:
		if persisted.Kind() != reflect.Slice && persisted.Kind() != reflect.Array {
			return reflect.Value{}, false
		}
		if persisted.Kind() == reflect.Slice && persisted.IsNil() {
			if base.IsValid() {
				return cloneValue(base), true
			}
			return reflect.Zero(t), true
		}
		out := reflect.MakeSlice(t, persisted.Len(), persisted.Len())
		for i := 0; i < persisted.Len(); i++ {
			elem, ok := mergeInto(t.Elem(), reflect.Value{}, persisted.Index(i))
			if !ok {
				return reflect.Value{}, false
			}
			out.Index(i).Set(elem)
		}
		return out, true
	case reflect.Array:
		if persisted.Kind() != reflect.Slice && persisted.Kind() != reflect.Array {
			return reflect.Value{}, false
		}
		out := reflect.New(t).Elem()
		for i := 0; i < t.Len() && i < persisted.Len(); i++ {
			elem, ok := mergeInto(t.Elem(), reflect.Value{}, persisted.Index(i))
			if !ok {
				return reflect.Value{}, false
			}
			out.Index(i).Set(elem)
		}
		return out, true
	default:
		return convertScalar(t, persisted)
	}
}

// indirect strips interfaces and plain pointers. Pointers implementing a
// state tree are kept.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() {
		switch v.Kind() {
		case reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		case reflect.Pointer:
			if _, ok := customAggregate(v); ok {
				return v
			}
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		default:
			return v
		}
	}
	return v
}

// entries returns v as a map value, flattening custom state trees.
func entries(v reflect.Value) reflect.Value {
	if agg, ok := customAggregate(v); ok {
		out := make(map[string]any, agg.Len())
		for _, key := range agg.Keys() {
			out[key], _ = agg.Get(key)
		}
		return reflect.ValueOf(out)
	}
	if v.Kind() != reflect.Map || v.IsNil() {
		return reflect.Value{}
	}
	return v
}

func stringKeyed(m reflect.Value) (map[string]reflect.Value, bool) {
	out := make(map[string]reflect.Value, m.Len())
	iter := m.MapRange()
	for iter.Next() {
		key := indirect(iter.Key())
		if key.Kind() != reflect.String {
			return nil, false
		}
		out[key.String()] = iter.Value()
	}
	return out, true
}

func lookupField(fields map[string]reflect.Value, name string) (reflect.Value, bool) {
	if value, ok := fields[name]; ok {
		return value, true
	}
	for key, value := range fields {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return reflect.Value{}, false
}

func jsonName(field reflect.StructField) (string, bool) {
	if !field.IsExported() {
		return "", true
	}
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, false
}

// convertScalar converts between numeric kinds, string kinds and bool kinds.
// Integral strings convert to integer kinds for decoded map keys.
func convertScalar(t reflect.Type, v reflect.Value) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	if v.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(v)
		return out, true
	}
	switch {
	case isNumber(t.Kind()) && isNumber(v.Kind()):
		if isInteger(t.Kind()) && (v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64) {
			if f := v.Float(); f != math.Trunc(f) {
				return reflect.Value{}, false
			}
		}
		return v.Convert(t), true
	case t.Kind() == reflect.String && v.Kind() == reflect.String:
		return v.Convert(t), true
	case t.Kind() == reflect.Bool && v.Kind() == reflect.Bool:
		return v.Convert(t), true
	case isInteger(t.Kind()) && v.Kind() == reflect.String:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(n).Convert(t), true
	}
	return reflect.Value{}, false
}

func decodeJSON(t reflect.Type, v reflect.Value) (reflect.Value, bool) {
	if !v.CanInterface() {
		return reflect.Value{}, false
	}
	data, err := json.Marshal(v.Interface())
	if err != nil {
		return reflect.Value{}, false
	}
	out := reflect.New(t)
	if err := json.Unmarshal(data, out.Interface()); err != nil {
		return reflect.Value{}, false
	}
	return out.Elem(), true
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isNumber(k reflect.Kind) bool {
	return isInteger(k) || k == reflect.Float32 || k == reflect.Float64
}
