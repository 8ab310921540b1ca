// Package migrate upgrades parsed persisted state to the current schema
// version before transforms run.
package migrate

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-rehydrate/pkg/script"
)

// NoVersion marks state persisted without a version marker.
const NoVersion = -1

// Func upgrades state persisted at version from. It returns the new state and
// the version it now conforms to.
type Func func(state any, from int) (any, int, error)

// Table maps a target version to the migration producing it.
type Table map[int]Func

// Versions returns the configured target versions in ascending order.
func (t Table) Versions() []int {
	versions := make([]int, 0, len(t))
	for version, fn := range t {
		if fn != nil {
			versions = append(versions, version)
		}
	}
	sort.Ints(versions)
	return versions
}

// Max returns the highest target version. It reports false for an empty
// table.
func (t Table) Max() (int, bool) {
	versions := t.Versions()
	if len(versions) == 0 {
		return 0, false
	}
	return versions[len(versions)-1], true
}

// Apply runs every migration whose target is above version, in ascending
// order, chaining each result into the next. Unversioned state (NoVersion)
// runs the whole table. Application stops once the reported version reaches
// the table's maximum.
func (t Table) Apply(state any, version int) (any, int, error) {
	versions := t.Versions()
	if len(versions) == 0 {
		return state, version, nil
	}
	max := versions[len(versions)-1]
	if version != NoVersion && version >= max {
		return state, version, nil
	}

	current := version
	for _, target := range versions {
		if current != NoVersion && target <= current {
			continue
		}
		next, nextVersion, err := t[target](state, current)
		if err != nil {
			return nil, current, fmt.Errorf("migrate: to version %d: %w", target, err)
		}
		state, current = next, nextVersion
		if current != NoVersion && current >= max {
			break
		}
	}
	return state, current, nil
}

// Script builds a migration from an expression. The expression sees the
// persisted state as state and the previous version as version; its result
// is the migrated state, tagged with target. A nil evaluator selects
// script.Default().
func Script(evaluator script.Evaluator, expr string, target int) (Func, error) {
	if evaluator == nil {
		evaluator = script.Default()
	}
	program, err := evaluator.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("migrate: version %d: %w", target, err)
	}
	return func(state any, from int) (any, int, error) {
		next, err := program.Evaluate(script.Env{State: state, Version: from})
		if err != nil {
			return nil, from, err
		}
		return next, target, nil
	}, nil
}
