package core

import (
	"testing"

	"github.com/gozproc/zproc/pkg/zproc/types"
)

func newTestResolver() (*Store, *Registries, *PredicateRegistry, *fakeTransport, *Resolver) {
	store := NewStore()
	registries := NewRegistries()
	predicates := NewPredicateRegistry()
	transport := newFakeTransport()
	resolver := NewResolver(store, registries, predicates, transport, noopLogger{})
	return store, registries, predicates, transport, resolver
}

func TestResolveChangeFiresOnKeyedMutation(t *testing.T) {
	store, registries, _, transport, resolver := newTestResolver()
	store.Apply(types.OpAssign, []types.Value{types.NewString("a"), types.NewInt(1)}, nil)

	registries.Change.Put(changeEntry{
		endpoint: "ep1",
		keys:     []string{"a"},
		baseline: store.Project([]string{"a"}),
	})

	// No mutation yet: resolver sweep should be a no-op and re-queue the watcher.
	resolver.ResolveAll()
	if len(transport.pushesFor("ep1")) != 0 {
		t.Fatalf("expected no push before mutation")
	}
	if registries.Change.Len() != 1 {
		t.Fatalf("watcher should remain registered with no matching mutation")
	}

	store.Apply(types.OpAssign, []types.Value{types.NewString("a"), types.NewInt(2)}, nil)
	resolver.ResolveAll()

	if len(transport.pushesFor("ep1")) != 1 {
		t.Fatalf("expected exactly one push after the key changed")
	}
	if registries.Change.Len() != 0 {
		t.Fatalf("satisfied watcher should be removed, not re-queued")
	}
}

func TestResolveChangeAnySentinelWatchesWholeState(t *testing.T) {
	store, registries, _, transport, resolver := newTestResolver()
	registries.Change.Put(changeEntry{endpoint: "ep-any", isAny: true, snapshot: store.Snapshot()})

	store.Apply(types.OpAssign, []types.Value{types.NewString("unrelated"), types.NewInt(1)}, nil)
	resolver.ResolveAll()

	if len(transport.pushesFor("ep-any")) != 1 {
		t.Fatalf("expected any-key watcher to fire on any mutation")
	}
}

func TestResolveIsIdempotentWithNoMutation(t *testing.T) {
	store, registries, _, transport, resolver := newTestResolver()
	registries.Change.Put(changeEntry{endpoint: "ep1", keys: []string{"a"}, baseline: store.Project([]string{"a"})})

	resolver.ResolveAll()
	resolver.ResolveAll()
	resolver.ResolveAll()

	if len(transport.pushesFor("ep1")) != 0 {
		t.Fatalf("repeated sweeps with no mutation must never push")
	}
	if registries.Change.Len() != 1 {
		t.Fatalf("watcher should still be registered after repeated no-op sweeps")
	}
}

func TestResolveValChangeFiresOnValueMutation(t *testing.T) {
	store, registries, _, transport, resolver := newTestResolver()
	store.Apply(types.OpAssign, []types.Value{types.NewString("k"), types.NewInt(1)}, nil)
	registries.ValChange.Put(valChangeEntry{endpoint: "ep-v", key: "k", baseline: types.NewInt(1)})

	resolver.ResolveAll()
	if len(transport.pushesFor("ep-v")) != 0 {
		t.Fatalf("expected no push before value changes")
	}

	store.Apply(types.OpAssign, []types.Value{types.NewString("k"), types.NewInt(2)}, nil)
	resolver.ResolveAll()

	pushes := transport.pushesFor("ep-v")
	if len(pushes) != 1 || pushes[0].Int() != 2 {
		t.Fatalf("expected one push carrying the new value, got %v", pushes)
	}
}

func TestResolveEqualsFiresWhenTargetMatches(t *testing.T) {
	store, registries, _, transport, resolver := newTestResolver()
	registries.Equals.Put(equalsEntry{endpoint: "ep-eq", key: "k", target: types.NewInt(5)})

	resolver.ResolveAll()
	if len(transport.pushesFor("ep-eq")) != 0 {
		t.Fatalf("expected no push before the key matches the target")
	}

	store.Apply(types.OpAssign, []types.Value{types.NewString("k"), types.NewInt(5)}, nil)
	resolver.ResolveAll()

	if len(transport.pushesFor("ep-eq")) != 1 {
		t.Fatalf("expected push once the key equals the target")
	}
}

func TestResolveConditionFiresWhenPredicateHolds(t *testing.T) {
	store, registries, _, transport, resolver := newTestResolver()
	store.Apply(types.OpAssign, []types.Value{types.NewString("foo"), types.NewFloat(0.5)}, nil)

	cond := types.And(
		types.Compare("foo", types.OpGt, types.NewFloat(0.6)),
		types.Compare("foo", types.OpLt, types.NewFloat(0.601)),
	)
	registries.Condition.Put(conditionEntry{endpoint: "ep-cond", condition: cond})

	resolver.ResolveAll()
	if len(transport.pushesFor("ep-cond")) != 0 {
		t.Fatalf("expected no push while condition is unmet")
	}

	store.Apply(types.OpAssign, []types.Value{types.NewString("foo"), types.NewFloat(0.6005)}, nil)
	resolver.ResolveAll()

	if len(transport.pushesFor("ep-cond")) != 1 {
		t.Fatalf("expected push once the condition is satisfied")
	}
}

func TestResolveConditionDropsWatcherOnPredicatePanic(t *testing.T) {
	store, registries, predicates, transport, resolver := newTestResolver()
	predicates.Register("boom", func(state types.Snapshot, args []types.Value, kwargs map[string]types.Value) bool {
		panic("predicate exploded")
	})
	registries.Condition.Put(conditionEntry{endpoint: "ep-boom", condition: types.Named("boom", nil, nil)})

	resolver.ResolveAll()

	if len(transport.pushesFor("ep-boom")) != 0 {
		t.Fatalf("a panicking predicate must never be treated as satisfied")
	}
	if registries.Condition.Len() != 0 {
		t.Fatalf("a panicking predicate's watcher must be dropped, not re-queued forever")
	}
	_ = store
}

func TestResolveAllSweepsEveryRegistry(t *testing.T) {
	// A single mutation satisfies one watcher of each of the four kinds;
	// confirming each fires exactly once shows that one ResolveAll call
	// visits every registry. The order of the sweep is not observed here.
	store, registries, _, transport, resolver := newTestResolver()
	store.Apply(types.OpAssign, []types.Value{types.NewString("k"), types.NewInt(1)}, nil)

	registries.Change.Put(changeEntry{endpoint: "ep-change", keys: []string{"k"}, baseline: store.Project([]string{"k"})})
	registries.Condition.Put(conditionEntry{endpoint: "ep-cond", condition: types.Compare("k", types.OpEq, types.NewInt(2))})
	registries.ValChange.Put(valChangeEntry{endpoint: "ep-val", key: "k", baseline: types.NewInt(1)})
	registries.Equals.Put(equalsEntry{endpoint: "ep-eq", key: "k", target: types.NewInt(2)})

	store.Apply(types.OpAssign, []types.Value{types.NewString("k"), types.NewInt(2)}, nil)
	resolver.ResolveAll()

	for _, ep := range []string{"ep-change", "ep-cond", "ep-val", "ep-eq"} {
		if len(transport.pushesFor(ep)) != 1 {
			t.Errorf("expected exactly one push to %s, got %d", ep, len(transport.pushesFor(ep)))
		}
	}
}
