package transform

import (
	"fmt"

	"github.com/goliatone/go-rehydrate/pkg/script"
)

// Script builds a Transform from two expressions evaluated with the value
// bound to value and the top-level key bound to key. An empty expression is
// the identity. A nil evaluator selects script.Default().
func Script(evaluator script.Evaluator, encodeExpr, decodeExpr string) (Transform, error) {
	if evaluator == nil {
		evaluator = script.Default()
	}
	encode, err := compile(evaluator, encodeExpr)
	if err != nil {
		return nil, fmt.Errorf("transform: encode: %w", err)
	}
	decode, err := compile(evaluator, decodeExpr)
	if err != nil {
		return nil, fmt.Errorf("transform: decode: %w", err)
	}
	return Funcs{EncodeFunc: encode, DecodeFunc: decode}, nil
}

func compile(evaluator script.Evaluator, expr string) (func(any, string) (any, error), error) {
	if expr == "" {
		return nil, nil
	}
	program, err := evaluator.Compile(expr)
	if err != nil {
		return nil, err
	}
	return func(value any, key string) (any, error) {
		return program.Evaluate(script.Env{Value: value, Key: key})
	}, nil
}
