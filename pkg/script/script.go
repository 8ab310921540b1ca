// Package script evaluates the small expressions used by scripted transforms
// and migrations.
//
// Three engines share one Env vocabulary: expr-lang (the default), CEL and,
// when built with the js_eval tag, goja. Expressions see the variables
// value, key, state, version, args and now, plus any function registered in
// a FunctionRegistry.
package script

import (
	"sync"
	"time"
)

// Engine names reported in errors and log events.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Env carries the inputs bound to an expression.
type Env struct {
	// Value is the slice value a transform is applied to.
	Value any
	// Key is the top-level key (slice name) being transformed.
	Key string
	// State is the whole persisted state a migration upgrades.
	State   any
	Version int
	Args    map[string]any
	Now     *time.Time
}

func (env Env) withDefaults() Env {
	if env.Now == nil {
		now := time.Now()
		env.Now = &now
	}
	if env.Args == nil {
		env.Args = map[string]any{}
	}
	return env
}

func (env Env) bindings() map[string]any {
	return map[string]any{
		"value":   env.Value,
		"key":     env.Key,
		"state":   env.State,
		"version": env.Version,
		"args":    env.Args,
		"now":     *env.Now,
	}
}

// Evaluator executes expressions against an Env.
type Evaluator interface {
	Evaluate(env Env, expr string) (any, error)
	Compile(expr string) (Program, error)
}

// Program is a compiled, reusable expression.
type Program interface {
	Evaluate(env Env) (any, error)
}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

type mapCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMapCache returns an unbounded ProgramCache safe for concurrent use.
func NewMapCache() ProgramCache {
	return &mapCache{programs: make(map[string]any)}
}

func (c *mapCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

func (c *mapCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs[key] = value
}

// Default returns the default evaluator (expr-lang) wired with the builtin
// functions.
func Default() Evaluator {
	return NewExpr(ExprWithProgramCache(NewMapCache()), ExprWithFunctionRegistry(Builtins()))
}

// EngineName reports the engine behind e.
func EngineName(e Evaluator) string {
	switch v := e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	case *loggedEvaluator:
		return EngineName(v.next)
	default:
		if name := jsEngineName(e); name != "" {
			return name
		}
		return "custom"
	}
}
