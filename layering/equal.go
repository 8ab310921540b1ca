package layering

import (
	"reflect"

	"github.com/goliatone/go-rehydrate/pkg/tree"
)

// Equal reports whether a and b are deeply, structurally equal.
//
// State trees compare by key set and per-key value regardless of their
// representation, so a plain map and a *tree.Ordered holding the same
// entries are equal. Numbers compare by value across numeric kinds (a
// decoded float64 5 equals an int 5). Slices compare element-wise with the
// same rules. Everything else falls back to reflect.DeepEqual.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	aggA, okA := tree.Of(a)
	aggB, okB := tree.Of(b)
	if okA || okB {
		if !okA || !okB || aggA.Len() != aggB.Len() {
			return false
		}
		for _, key := range aggA.Keys() {
			va, _ := aggA.Get(key)
			vb, found := aggB.Get(key)
			if !found || !Equal(va, vb) {
				return false
			}
		}
		return true
	}

	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}

	ra := reflect.ValueOf(a)
	rb := reflect.ValueOf(b)
	if ra.Kind() == reflect.Slice && rb.Kind() == reflect.Slice {
		if ra.Len() != rb.Len() {
			return false
		}
		for i := 0; i < ra.Len(); i++ {
			if !Equal(ra.Index(i).Interface(), rb.Index(i).Interface()) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

func toFloat(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
