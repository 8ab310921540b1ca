package script

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-rehydrate/pkg/tree"
)

// Function represents a callable registered against evaluators.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions keyed by name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Builtins returns a registry holding the state-tree helpers:
//
//	assoc(tree, key, value)  copy of tree with key set
//	dissoc(tree, key)        copy of tree without key
//	has(tree, key)           whether key is present
func Builtins() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("assoc", assoc)
	_ = registry.Register("dissoc", dissoc)
	_ = registry.Register("has", has)
	return registry
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("script: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("script: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("script: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("script: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("script: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func aggregateArg(fn string, args []any, want int) (tree.Aggregate, string, error) {
	if len(args) != want {
		return nil, "", fmt.Errorf("script: %s expects %d arguments, got %d", fn, want, len(args))
	}
	key, ok := args[1].(string)
	if !ok {
		return nil, "", fmt.Errorf("script: %s key must be string, got %T", fn, args[1])
	}
	if args[0] == nil {
		agg, _ := tree.Of(map[string]any{})
		return agg, key, nil
	}
	agg, ok := tree.Of(args[0])
	if !ok {
		return nil, "", fmt.Errorf("script: %s expects a map, got %T", fn, args[0])
	}
	return agg, key, nil
}

func assoc(args ...any) (any, error) {
	agg, key, err := aggregateArg("assoc", args, 3)
	if err != nil {
		return nil, err
	}
	return agg.With(key, args[2]).Value(), nil
}

func dissoc(args ...any) (any, error) {
	agg, key, err := aggregateArg("dissoc", args, 2)
	if err != nil {
		return nil, err
	}
	return agg.Without(key).Value(), nil
}

func has(args ...any) (any, error) {
	agg, key, err := aggregateArg("has", args, 2)
	if err != nil {
		return nil, err
	}
	_, ok := agg.Get(key)
	return ok, nil
}
