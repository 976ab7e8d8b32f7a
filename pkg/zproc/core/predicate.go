package core

import (
	"sync"

	"github.com/gozproc/zproc/pkg/zproc/types"
)

// PredicateRegistry holds server-side named predicates referenced by
// condition watchers of kind CondNamed, an escape hatch for conditions too
// irregular for the comparison DSL. These are never client-supplied code:
// they must be registered by the embedding process ahead of time via
// Register.
type PredicateRegistry struct {
	mu    sync.RWMutex
	funcs map[string]func(state types.Snapshot, args []types.Value, kwargs map[string]types.Value) bool
}

func NewPredicateRegistry() *PredicateRegistry {
	return &PredicateRegistry{
		funcs: make(map[string]func(types.Snapshot, []types.Value, map[string]types.Value) bool),
	}
}

// Register installs a named predicate under name, overwriting any existing
// registration for the same name.
func (r *PredicateRegistry) Register(name string, fn func(state types.Snapshot, args []types.Value, kwargs map[string]types.Value) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

func (r *PredicateRegistry) lookup(name string) (func(types.Snapshot, []types.Value, map[string]types.Value) bool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Evaluate walks a Condition tree against state. A malformed or unresolved
// named predicate evaluates to false rather than panicking; the caller
// (Resolver) is responsible for treating evaluation panics as a
// PredicateError and dropping the offending watcher.
func (r *PredicateRegistry) Evaluate(cond types.Condition, state types.Snapshot) bool {
	switch cond.Kind {
	case types.CondCompare:
		current, ok := state[cond.Key]
		if !ok {
			current = types.Null()
		}
		return evalCompare(current, cond.Op, cond.Operand)

	case types.CondAnd:
		for _, child := range cond.Children {
			if !r.Evaluate(child, state) {
				return false
			}
		}
		return true

	case types.CondOr:
		for _, child := range cond.Children {
			if r.Evaluate(child, state) {
				return true
			}
		}
		return false

	case types.CondNot:
		if len(cond.Children) != 1 {
			return false
		}
		return !r.Evaluate(cond.Children[0], state)

	case types.CondNamed:
		fn, ok := r.lookup(cond.Name)
		if !ok {
			return false
		}
		return fn(state, cond.Args, cond.Kwargs)

	default:
		return false
	}
}

func evalCompare(current types.Value, op types.CompareOp, operand types.Value) bool {
	switch op {
	case types.OpEq:
		return current.Equal(operand)
	case types.OpNeq:
		return !current.Equal(operand)
	case types.OpLt, types.OpLte, types.OpGt, types.OpGte:
		cmp, ok := current.Compare(operand)
		if !ok {
			return false
		}
		switch op {
		case types.OpLt:
			return cmp < 0
		case types.OpLte:
			return cmp <= 0
		case types.OpGt:
			return cmp > 0
		case types.OpGte:
			return cmp >= 0
		}
	}
	return false
}
