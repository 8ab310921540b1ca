package layering

import (
	"reflect"
	"testing"

	"github.com/goliatone/go-rehydrate/pkg/tree"
)

func TestDeepReturnsCurrentWhenNothingPersisted(t *testing.T) {
	current := map[string]any{"count": 1}
	got := Deep(current, nil)
	if !reflect.DeepEqual(got, current) {
		t.Fatalf("expected current value unchanged, got %#v", got)
	}
	if Deep(0, nil) != 0 {
		t.Fatalf("expected scalar current value unchanged")
	}
}

func TestDeepMergesKeyByKey(t *testing.T) {
	current := map[string]any{
		"theme": "light",
		"prefs": map[string]any{"sound": true, "volume": 3},
		"local": "keep",
	}
	persisted := map[string]any{
		"theme": "dark",
		"prefs": map[string]any{"volume": 7},
		"extra": []any{"a", "b"},
	}

	got := Deep(current, persisted)
	want := map[string]any{
		"theme": "dark",
		"prefs": map[string]any{"sound": true, "volume": 7},
		"local": "keep",
		"extra": []any{"a", "b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merge mismatch:\nwant: %#v\n got: %#v", want, got)
	}

	prefs := current["prefs"].(map[string]any)
	if prefs["volume"] != 3 {
		t.Fatalf("expected current input untouched, got %#v", prefs)
	}
}

func TestDeepScalarConflictPersistedWins(t *testing.T) {
	if got := Deep(0, 5); got != 5 {
		t.Fatalf("expected persisted scalar to win, got %v", got)
	}
	if got := Deep(map[string]any{"count": 0}, map[string]any{"count": 2}); !reflect.DeepEqual(got, map[string]any{"count": 2}) {
		t.Fatalf("unexpected merge %#v", got)
	}
}

func TestDeepKeepsOrderedRepresentation(t *testing.T) {
	current := tree.NewOrdered("b", 1, "a", map[string]any{"x": 1})
	persisted := map[string]any{"a": map[string]any{"y": 2}, "c": 3}

	got := Deep(current, persisted)
	ordered, ok := got.(*tree.Ordered)
	if !ok {
		t.Fatalf("expected *tree.Ordered result, got %T", got)
	}
	if keys := ordered.Keys(); !reflect.DeepEqual(keys, []string{"b", "a", "c"}) {
		t.Fatalf("unexpected key order %v", keys)
	}
	a, _ := ordered.Get("a")
	if !reflect.DeepEqual(a, map[string]any{"x": 1, "y": 2}) {
		t.Fatalf("expected nested merge, got %#v", a)
	}
	if _, ok := current.Get("c"); ok {
		t.Fatalf("expected current ordered map untouched")
	}
}

func TestDeepMergesStructsFieldWise(t *testing.T) {
	type prefs struct {
		Theme  string
		Volume *int
	}
	seven := 7
	got := Deep(prefs{Theme: "light"}, prefs{Volume: &seven})
	merged, ok := got.(prefs)
	if !ok {
		t.Fatalf("expected prefs, got %T", got)
	}
	if merged.Volume == nil || *merged.Volume != 7 {
		t.Fatalf("expected persisted volume, got %+v", merged)
	}
}

func TestShallowAndOverride(t *testing.T) {
	current := map[string]any{"a": map[string]any{"x": 1}, "b": 1}
	persisted := map[string]any{"a": map[string]any{"y": 2}}

	shallow := Shallow(current, persisted)
	if !reflect.DeepEqual(shallow, map[string]any{"a": map[string]any{"y": 2}, "b": 1}) {
		t.Fatalf("unexpected shallow merge %#v", shallow)
	}
	if got := Override(current, persisted); !reflect.DeepEqual(got, persisted) {
		t.Fatalf("expected override to return persisted, got %#v", got)
	}
	if got := Override(current, nil); !reflect.DeepEqual(got, current) {
		t.Fatalf("expected override to keep current without persisted value")
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := map[string]any{
		"list": []any{map[string]any{"k": "v"}},
		"tree": tree.NewOrdered("inner", map[string]any{"n": 1}),
	}
	cloned := Clone(original).(map[string]any)

	cloned["list"].([]any)[0].(map[string]any)["k"] = "changed"
	if original["list"].([]any)[0].(map[string]any)["k"] != "v" {
		t.Fatalf("expected nested list map copied")
	}

	clonedTree := cloned["tree"].(*tree.Ordered)
	inner, _ := clonedTree.Get("inner")
	inner.(map[string]any)["n"] = 2
	originalInner, _ := original["tree"].(*tree.Ordered).Get("inner")
	if originalInner.(map[string]any)["n"] != 1 {
		t.Fatalf("expected ordered map values copied")
	}
}

func TestMergeLayersZeroInput(t *testing.T) {
	type sample struct {
		Value int
	}
	var zero sample
	if got := MergeLayers[sample](); got != zero {
		t.Fatalf("expected MergeLayers() to return zero value, got %+v", got)
	}
}

func TestMergeLayersStrongestFirst(t *testing.T) {
	got := MergeLayers(
		map[string]any{"a": 1},
		map[string]any{"a": 0, "b": 2},
	)
	if !reflect.DeepEqual(got, map[string]any{"a": 1, "b": 2}) {
		t.Fatalf("unexpected layered value %#v", got)
	}
}

func TestDeepKeepsTypedMapsAndStructs(t *testing.T) {
	got := Deep(map[string]int{"a": 1, "b": 2}, map[string]any{"a": float64(5)})
	limits, ok := got.(map[string]int)
	if !ok {
		t.Fatalf("expected map[string]int, got %T", got)
	}
	if !reflect.DeepEqual(limits, map[string]int{"a": 5, "b": 2}) {
		t.Fatalf("unexpected typed map merge %#v", limits)
	}

	type window struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	type prefs struct {
		Theme  string
		Size   int
		Window *window `json:"window"`
		Tags   []string
	}
	current := prefs{Theme: "dark", Size: 3, Window: &window{Width: 800, Height: 600}}
	persisted := map[string]any{
		"theme":  "light",
		"window": map[string]any{"width": float64(1024)},
		"Tags":   []any{"a", "b"},
	}
	merged, ok := Deep(current, persisted).(prefs)
	if !ok {
		t.Fatalf("expected prefs, got %T", Deep(current, persisted))
	}
	want := prefs{Theme: "light", Size: 3, Window: &window{Width: 1024, Height: 600}, Tags: []string{"a", "b"}}
	if !reflect.DeepEqual(merged, want) {
		t.Fatalf("struct merge mismatch:\nwant: %#v\n got: %#v", want, merged)
	}
	if current.Window.Width != 800 {
		t.Fatalf("expected current input untouched, got %+v", current.Window)
	}
}

func TestDeepConvertsDecodedScalars(t *testing.T) {
	if got := Deep(0, float64(5)); got != 5 {
		t.Fatalf("expected int 5, got %#v", got)
	}
	if got := Deep(0, 2.5); got != 2.5 {
		t.Fatalf("expected fractional persisted value to win as is, got %#v", got)
	}
	if got := Deep(map[int]string{1: "a"}, map[string]any{"2": "b"}); !reflect.DeepEqual(got, map[int]string{1: "a", 2: "b"}) {
		t.Fatalf("expected integer keys decoded, got %#v", got)
	}
	if got := Deep(map[string]int{"a": 1}, []any{"x"}); !reflect.DeepEqual(got, []any{"x"}) {
		t.Fatalf("expected incompatible persisted value to win, got %#v", got)
	}
}

func TestDeepTypedMapFromOrderedTree(t *testing.T) {
	got := Deep(map[string]int{"a": 1, "b": 2}, tree.NewOrdered("b", float64(7)))
	if !reflect.DeepEqual(got, map[string]int{"a": 1, "b": 7}) {
		t.Fatalf("unexpected merge %#v", got)
	}
}

func TestMergeLayersKeepsWeakestType(t *testing.T) {
	got := MergeLayers[any](
		map[string]any{"a": float64(3)},
		map[string]any{"a": float64(2)},
		map[string]int{"a": 0, "b": 1},
	)
	want := map[string]int{"a": 3, "b": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected layered value %#v", got)
	}

	// A value the typed layer cannot hold keeps the weaker entries.
	mixed := Deep(map[string]int{"b": 1}, map[string]any{"c": "x"})
	if !reflect.DeepEqual(mixed, map[string]any{"b": 1, "c": "x"}) {
		t.Fatalf("unexpected mixed merge %#v", mixed)
	}
}
