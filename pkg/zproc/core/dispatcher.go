package core

import (
	"context"
	"sync"
	"time"

	"github.com/gozproc/zproc/pkg/zproc/definition"
	"github.com/gozproc/zproc/pkg/zproc/endpoint"
	"github.com/gozproc/zproc/pkg/zproc/types"
)

// Server is the request dispatcher: a strictly serial main loop
// that receives a request, routes it to the handler named by the action
// field, and returns exactly one reply per request. It is the Go-native
// counterpart of zproc_server.py's ZProcServer + state_server().
type Server struct {
	log        types.Logger
	transport  Transport
	store      *Store
	registries *Registries
	predicates *PredicateRegistry
	resolver   *Resolver
	endpoints  *endpoint.Allocator

	lockMu      sync.Mutex
	lockHolder  string // identity currently holding the lock lease, "" when free
	lockTimeout time.Duration
}

// NewServer wires the dispatcher's collaborators together. Transport,
// predicates, and endpoints may be supplied by the caller (e.g. a test
// fake); log defaults to definition.NewDefaultLogger if nil.
func NewServer(transport Transport, endpoints *endpoint.Allocator, predicates *PredicateRegistry, log types.Logger) *Server {
	if log == nil {
		log = definition.NewDefaultLogger(false)
	}
	store := NewStore()
	registries := NewRegistries()
	s := &Server{
		log:        log,
		transport:  transport,
		store:      store,
		registries: registries,
		predicates: predicates,
		endpoints:  endpoints,
	}
	s.resolver = NewResolver(store, registries, predicates, transport, log)
	return s
}

// Store exposes the underlying state store, mainly for embedding processes
// that want to seed initial state before Serve starts.
func (s *Server) Store() *Store { return s.store }

// Serve runs the main dispatcher loop until ctx is cancelled or Receive
// returns a fatal error. Exactly one request is fully handled — including
// any resolver sweep — before the next is accepted.
func (s *Server) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		identity, req, err := s.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Errorf("receive failed: %v", err)
			continue
		}
		s.handle(ctx, identity, req)
	}
}

// handle routes a single request to its handler and guarantees exactly one
// reply is sent, catching any handler panic as a structured ServerError
// instead of crashing the dispatch loop.
func (s *Server) handle(ctx context.Context, identity string, req types.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.replyErr(identity, types.NewServerError(types.ErrOperationError, "handler panic: %v", rec))
		}
	}()

	if !CompatibleVersion(req.ProtocolVersion) {
		s.replyErr(identity, types.NewServerError(types.ErrTransportError, "unsupported protocol version %q", req.ProtocolVersion))
		return
	}

	switch req.Action {
	case types.ActionSendState:
		s.handleSendState(identity)
	case types.ActionGetStateAttr:
		s.handleGetStateAttr(identity, req)
	case types.ActionGetStateCallable:
		s.handleGetStateCallable(identity, req)
	case types.ActionLockState:
		s.handleLockState(ctx, identity)
	case types.ActionAddChangeHandler:
		s.handleAddChangeHandler(identity, req)
	case types.ActionAddValChangeHandler:
		s.handleAddValChangeHandler(identity, req)
	case types.ActionAddEqualsHandler:
		s.handleAddEqualsHandler(identity, req)
	case types.ActionAddConditionHandler:
		s.handleAddConditionHandler(identity, req)
	default:
		s.replyErr(identity, types.NewServerError(types.ErrUnknownAction, "unknown action %q", req.Action))
	}
}

func (s *Server) replyErr(identity string, err *types.ServerError) {
	if sendErr := s.transport.Reply(identity, types.Reply{Error: err}); sendErr != nil {
		s.log.Errorf("failed to deliver error reply to %s: %v", identity, sendErr)
	}
}

func (s *Server) replyValue(identity string, value types.Value) {
	if err := s.transport.Reply(identity, types.Reply{Value: value}); err != nil {
		s.log.Errorf("failed to deliver reply to %s: %v", identity, err)
	}
}

// handleSendState implements the send_state action: no mutation,
// replies with the full state snapshot.
func (s *Server) handleSendState(identity string) {
	s.replyValue(identity, snapshotValue(s.store.Snapshot()))
}

// readOnlyAttrs is the fixed table backing get_state_attr's read-only
// forms: size, keys, values, items. Go-native replacement for the
// original's getattr(self.state, msg['item']).
var readOnlyAttrs = map[types.OperationName]bool{
	types.OpSize:   true,
	types.OpKeys:   true,
	types.OpValues: true,
	types.OpItems:  true,
}

// handleGetStateAttr implements get_state_attr: read a named
// attribute of the state object without invoking it.
func (s *Server) handleGetStateAttr(identity string, req types.Request) {
	if !readOnlyAttrs[req.Item] {
		s.replyErr(identity, types.NewServerError(types.ErrMalformedRequest, "unknown state attribute %q", req.Item))
		return
	}
	result, err := s.store.Apply(req.Item, nil, nil)
	if err != nil {
		s.replyErr(identity, asServerError(err))
		return
	}
	s.replyValue(identity, result)
}

// handleGetStateCallable implements get_state_callable: invoke
// the named state-map operation, triggering the resolver if it mutated
// state.
func (s *Server) handleGetStateCallable(identity string, req types.Request) {
	mutating := types.IsMutating(req.Item)
	var before types.Snapshot
	if mutating {
		before = s.store.Snapshot()
	}

	result, err := s.store.Apply(req.Item, req.Args, req.Kwargs)
	if err != nil {
		s.replyErr(identity, asServerError(err))
		return
	}
	s.replyValue(identity, result)

	if mutating {
		after := s.store.Snapshot()
		if !before.Equal(after) {
			s.resolver.ResolveAll()
		}
	}
}

func asServerError(err error) *types.ServerError {
	if se, ok := err.(*types.ServerError); ok {
		return se
	}
	return types.NewServerError(types.ErrOperationError, "%v", err)
}
