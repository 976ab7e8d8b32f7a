package core

import (
	"fmt"

	"github.com/gozproc/zproc/pkg/zproc/types"
)

// Pusher delivers exactly one notification to a watcher's private endpoint.
type Pusher interface {
	Push(endpoint string, value types.Value) error
}

// Resolver re-evaluates every pending watcher after any mutation, pushing
// notifications to those whose predicate now holds and re-queuing the rest.
type Resolver struct {
	store      *Store
	registries *Registries
	predicates *PredicateRegistry
	pusher     Pusher
	log        types.Logger
}

func NewResolver(store *Store, registries *Registries, predicates *PredicateRegistry, pusher Pusher, log types.Logger) *Resolver {
	return &Resolver{store: store, registries: registries, predicates: predicates, pusher: pusher, log: log}
}

// ResolveAll sweeps all four registries in a fixed order: change,
// condition, value-change, equals. Running it repeatedly
// with no intervening mutation is a no-op — the re-queued set is stable.
func (r *Resolver) ResolveAll() {
	r.resolveChange()
	r.resolveCondition()
	r.resolveValChange()
	r.resolveEquals()
}

func (r *Resolver) resolveChange() {
	for _, entry := range r.registries.Change.Drain() {
		var changed bool
		if entry.isAny {
			current := r.store.Snapshot()
			changed = !current.Equal(entry.snapshot)
		} else {
			current := r.store.Project(entry.keys)
			changed = !types.ProjectionsEqual(current, entry.baseline)
		}

		if changed {
			r.pushOrLog(entry.endpoint, snapshotValue(r.store.Snapshot()))
		} else {
			r.registries.Change.Put(entry)
		}
	}
}

func (r *Resolver) resolveCondition() {
	for _, entry := range r.registries.Condition.Drain() {
		satisfied, err := r.evalCondition(entry)
		if err != nil {
			// A failing predicate drops the watcher instead of
			// re-raising on every subsequent mutation (explicit deviation
			// from the original, which leaves it queued forever).
			r.log.Errorf("condition watcher %s: predicate error: %v", entry.endpoint, err)
			continue
		}
		if satisfied {
			r.pushOrLog(entry.endpoint, snapshotValue(r.store.Snapshot()))
		} else {
			r.registries.Condition.Put(entry)
		}
	}
}

func (r *Resolver) evalCondition(entry conditionEntry) (satisfied bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic evaluating condition: %v", rec)
		}
	}()
	satisfied = r.predicates.Evaluate(entry.condition, r.store.Snapshot())
	return satisfied, nil
}

func (r *Resolver) resolveValChange() {
	for _, entry := range r.registries.ValChange.Drain() {
		current := types.Null()
		if v, ok := r.store.Get(entry.key); ok {
			current = v
		}
		if !current.Equal(entry.baseline) {
			r.pushOrLog(entry.endpoint, current)
		} else {
			r.registries.ValChange.Put(entry)
		}
	}
}

func (r *Resolver) resolveEquals() {
	for _, entry := range r.registries.Equals.Drain() {
		current := types.Null()
		if v, ok := r.store.Get(entry.key); ok {
			current = v
		}
		if current.Equal(entry.target) {
			r.pushOrLog(entry.endpoint, types.NewBool(true))
		} else {
			r.registries.Equals.Put(entry)
		}
	}
}

// pushOrLog swallows a TransportError pushing to a dead watcher endpoint:
// the watcher is simply discarded instead of retried.
func (r *Resolver) pushOrLog(endpoint string, value types.Value) {
	if err := r.pusher.Push(endpoint, value); err != nil {
		r.log.Warnf("push to %s failed, discarding watcher: %v", endpoint, err)
	}
}

func snapshotValue(s types.Snapshot) types.Value {
	return types.NewMap(map[string]types.Value(s))
}
