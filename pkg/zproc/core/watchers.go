package core

import "github.com/gozproc/zproc/pkg/zproc/types"

// This file implements the four watcher registration handlers.
// Each allocates a private endpoint, records the watcher with its baseline,
// replies with the endpoint, and invokes the resolver once to catch an
// already-satisfied predicate on registration.

// handleAddChangeHandler implements add_change_handler.
// An empty Keys list registers against the "_any_" sentinel: baseline is a
// full state snapshot rather than a per-key projection.
func (s *Server) handleAddChangeHandler(identity string, req types.Request) {
	ep, err := s.endpoints.Allocate()
	if err != nil {
		s.replyErr(identity, types.NewServerError(types.ErrTransportError, "allocate endpoint: %v", err))
		return
	}
	s.replyValue(identity, types.NewString(ep))

	var entry changeEntry
	entry.endpoint = ep
	if len(req.Keys) == 0 {
		entry.isAny = true
		entry.snapshot = s.store.Snapshot()
	} else {
		entry.keys = req.Keys
		entry.baseline = s.store.Project(req.Keys)
	}
	s.registries.Change.Put(entry)

	s.resolver.resolveChange()
}

// handleAddValChangeHandler implements add_val_change_handler. If the
// request carries an explicit baseline value, that is used; otherwise the
// baseline is the current value of the key at registration.
func (s *Server) handleAddValChangeHandler(identity string, req types.Request) {
	if req.Key == "" {
		s.replyErr(identity, types.NewServerError(types.ErrMalformedRequest, "add_val_change_handler requires key"))
		return
	}
	ep, err := s.endpoints.Allocate()
	if err != nil {
		s.replyErr(identity, types.NewServerError(types.ErrTransportError, "allocate endpoint: %v", err))
		return
	}
	s.replyValue(identity, types.NewString(ep))

	baseline := req.Value
	if baseline.IsNull() {
		if v, ok := s.store.Get(req.Key); ok {
			baseline = v
		}
	}
	s.registries.ValChange.Put(valChangeEntry{endpoint: ep, key: req.Key, baseline: baseline})

	s.resolver.resolveValChange()
}

// handleAddEqualsHandler implements add_equals_handler.
// Fires immediately on this resolver sweep if state[key] already equals
// target.
func (s *Server) handleAddEqualsHandler(identity string, req types.Request) {
	if req.Key == "" {
		s.replyErr(identity, types.NewServerError(types.ErrMalformedRequest, "add_equals_handler requires key"))
		return
	}
	ep, err := s.endpoints.Allocate()
	if err != nil {
		s.replyErr(identity, types.NewServerError(types.ErrTransportError, "allocate endpoint: %v", err))
		return
	}
	s.replyValue(identity, types.NewString(ep))

	s.registries.Equals.Put(equalsEntry{endpoint: ep, key: req.Key, target: req.Value})

	s.resolver.resolveEquals()
}

// handleAddConditionHandler implements add_condition_handler. The
// predicate is transported as data (types.Condition), never as
// client-supplied code.
func (s *Server) handleAddConditionHandler(identity string, req types.Request) {
	if req.Condition == nil {
		s.replyErr(identity, types.NewServerError(types.ErrMalformedRequest, "add_condition_handler requires condition"))
		return
	}
	ep, err := s.endpoints.Allocate()
	if err != nil {
		s.replyErr(identity, types.NewServerError(types.ErrTransportError, "allocate endpoint: %v", err))
		return
	}
	s.replyValue(identity, types.NewString(ep))

	s.registries.Condition.Put(conditionEntry{endpoint: ep, condition: *req.Condition})

	s.resolver.resolveCondition()
}
