package core

import (
	"sync"

	"github.com/gozproc/zproc/pkg/zproc/types"
)

// Store is the authoritative state map. It is owned exclusively by the
// dispatcher's single-writer loop; the mutex exists only to let a caller
// add a concurrent read path later without having to retrofit
// synchronization.
type Store struct {
	mu   sync.RWMutex
	data map[string]types.Value
}

func NewStore() *Store {
	return &Store{data: make(map[string]types.Value)}
}

func (s *Store) Get(key string) (types.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Snapshot returns a deep copy of the current state, used as resolver
// baselines, lock-protocol checkouts, and send_state replies.
func (s *Store) Snapshot() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Snapshot(s.data).Clone()
}

// Project extracts the current values for a key set, Null standing in for
// an absent key.
func (s *Store) Project(keys []string) []types.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Snapshot(s.data).Project(keys)
}

// Install atomically replaces the entire state, used by the lock protocol
// once the client's modified state comes back.
func (s *Store) Install(next types.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string]types.Value(next.Clone())
}

// Apply dispatches a named state-map operation. name must be one
// of the fixed, statically dispatched operations — there is no reflective
// getattr(self.state, name) as in the original zproc_server.py; unsupported
// names are an OperationError rather than an accidental exposure of
// arbitrary map behavior.
func (s *Store) Apply(name types.OperationName, args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case types.OpAssign:
		if len(args) < 2 {
			return types.Null(), types.NewServerError(types.ErrMalformedRequest, "assign requires (key, value)")
		}
		key := args[0].String()
		s.data[key] = args[1]
		return args[1], nil

	case types.OpDelete:
		if len(args) < 1 {
			return types.Null(), types.NewServerError(types.ErrMalformedRequest, "delete requires (key)")
		}
		key := args[0].String()
		v, ok := s.data[key]
		if !ok {
			return types.Null(), types.NewServerError(types.ErrOperationError, "delete: key %q not found", key)
		}
		delete(s.data, key)
		return v, nil

	case types.OpSetDefault:
		if len(args) < 1 {
			return types.Null(), types.NewServerError(types.ErrMalformedRequest, "set-default-if-absent requires (key[, default])")
		}
		key := args[0].String()
		if v, ok := s.data[key]; ok {
			return v, nil
		}
		def := types.Null()
		if len(args) > 1 {
			def = args[1]
		}
		s.data[key] = def
		return def, nil

	case types.OpPopKey:
		if len(args) < 1 {
			return types.Null(), types.NewServerError(types.ErrMalformedRequest, "pop-by-key requires (key[, default])")
		}
		key := args[0].String()
		if v, ok := s.data[key]; ok {
			delete(s.data, key)
			return v, nil
		}
		if len(args) > 1 {
			return args[1], nil
		}
		return types.Null(), types.NewServerError(types.ErrOperationError, "pop-by-key: key %q not found", key)

	case types.OpPopAny:
		for k, v := range s.data {
			delete(s.data, k)
			return v, nil
		}
		return types.Null(), types.NewServerError(types.ErrOperationError, "pop-arbitrary: state is empty")

	case types.OpClear:
		s.data = make(map[string]types.Value)
		return types.Null(), nil

	case types.OpBulkUpdate:
		if len(args) < 1 || args[0].Kind != types.KindMap {
			return types.Null(), types.NewServerError(types.ErrMalformedRequest, "bulk-update requires a map argument")
		}
		for k, v := range args[0].Map() {
			s.data[k] = v
		}
		return args[0], nil

	case types.OpSize:
		return types.NewInt(int64(len(s.data))), nil

	case types.OpKeys:
		keys := types.SortedKeys(s.data)
		out := make([]types.Value, len(keys))
		for i, k := range keys {
			out[i] = types.NewString(k)
		}
		return types.NewList(out), nil

	case types.OpValues:
		keys := types.SortedKeys(s.data)
		out := make([]types.Value, len(keys))
		for i, k := range keys {
			out[i] = s.data[k]
		}
		return types.NewList(out), nil

	case types.OpItems:
		keys := types.SortedKeys(s.data)
		out := make([]types.Value, len(keys))
		for i, k := range keys {
			out[i] = types.NewList([]types.Value{types.NewString(k), s.data[k]})
		}
		return types.NewList(out), nil

	case types.OpHasKey:
		if len(args) < 1 {
			return types.Null(), types.NewServerError(types.ErrMalformedRequest, "has-key requires (key)")
		}
		_, ok := s.data[args[0].String()]
		return types.NewBool(ok), nil

	case types.OpEquals:
		if len(args) < 1 || args[0].Kind != types.KindMap {
			return types.Null(), types.NewServerError(types.ErrMalformedRequest, "equals requires a map argument")
		}
		return types.NewBool(types.Snapshot(s.data).Equal(types.Snapshot(args[0].Map()))), nil

	default:
		return types.Null(), types.NewServerError(types.ErrOperationError, "unsupported state operation %q", name)
	}
}
