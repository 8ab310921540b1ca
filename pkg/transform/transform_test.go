package transform

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-rehydrate/pkg/tree"
)

func tagging(tag string, calls *[]string) Transform {
	return Funcs{
		EncodeFunc: func(value any, key string) (any, error) {
			*calls = append(*calls, "encode:"+tag+":"+key)
			return value.(string) + tag, nil
		},
		DecodeFunc: func(value any, key string) (any, error) {
			*calls = append(*calls, "decode:"+tag+":"+key)
			return strings.TrimSuffix(value.(string), tag), nil
		},
	}
}

func TestPipelineOrderAndRoundTrip(t *testing.T) {
	var calls []string
	pipeline := Pipeline{tagging("+a", &calls), tagging("+b", &calls)}
	state := map[string]any{"user": "ada"}

	encoded, err := pipeline.Encode(state)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !reflect.DeepEqual(encoded, map[string]any{"user": "ada+a+b"}) {
		t.Fatalf("unexpected encoded state %#v", encoded)
	}
	decoded, err := pipeline.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, state) {
		t.Fatalf("round trip mismatch %#v", decoded)
	}

	want := []string{"encode:+a:user", "encode:+b:user", "decode:+b:user", "decode:+a:user"}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("unexpected call order %v", calls)
	}
	if state["user"] != "ada" {
		t.Fatalf("encode must not mutate input")
	}
}

func TestPipelineKeepsOrderedTrees(t *testing.T) {
	var calls []string
	pipeline := Pipeline{tagging("!", &calls)}
	encoded, err := pipeline.Encode(tree.NewOrdered("b", "x", "a", "y"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ordered, ok := encoded.(*tree.Ordered)
	if !ok {
		t.Fatalf("expected ordered tree, got %T", encoded)
	}
	if keys := ordered.Keys(); !reflect.DeepEqual(keys, []string{"b", "a"}) {
		t.Fatalf("unexpected key order %v", keys)
	}
}

func TestPipelinePassesScalarsThrough(t *testing.T) {
	pipeline := Pipeline{Funcs{EncodeFunc: func(any, string) (any, error) {
		return nil, errors.New("should not run")
	}}}
	got, err := pipeline.Encode(42)
	if err != nil || got != 42 {
		t.Fatalf("expected scalar passthrough, got %v, %v", got, err)
	}
}

func TestPipelineWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	pipeline := Pipeline{Funcs{DecodeFunc: func(any, string) (any, error) { return nil, boom }}}
	if _, err := pipeline.Decode(map[string]any{"k": 1}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestOnlyAndExceptKeys(t *testing.T) {
	var calls []string
	state := map[string]any{"secret": "s", "public": "p"}

	only, err := Pipeline{OnlyKeys(tagging("*", &calls), "secret")}.Encode(state)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !reflect.DeepEqual(only, map[string]any{"secret": "s*", "public": "p"}) {
		t.Fatalf("unexpected OnlyKeys result %#v", only)
	}

	except, err := Pipeline{ExceptKeys(tagging("*", &calls), "secret")}.Encode(state)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !reflect.DeepEqual(except, map[string]any{"secret": "s", "public": "p*"}) {
		t.Fatalf("unexpected ExceptKeys result %#v", except)
	}
}

func TestScriptTransformRoundTrip(t *testing.T) {
	tr, err := Script(nil, `{"wrapped": value, "key": key}`, `value.wrapped`)
	if err != nil {
		t.Fatalf("script: %v", err)
	}
	pipeline := Pipeline{tr}
	state := map[string]any{"counter": 5}

	encoded, err := pipeline.Encode(state)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := map[string]any{"counter": map[string]any{"wrapped": 5, "key": "counter"}}
	if !reflect.DeepEqual(encoded, want) {
		t.Fatalf("unexpected encoded %#v", encoded)
	}
	decoded, err := pipeline.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, state) {
		t.Fatalf("round trip mismatch %#v", decoded)
	}
}
