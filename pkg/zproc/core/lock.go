package core

import (
	"context"
	"time"

	"github.com/gozproc/zproc/pkg/zproc/types"
)

// SetLockTimeout configures an optional lease timeout for the lock
// protocol: without one, a client that locks and never returns state
// wedges the server forever. Zero (the default) blocks forever, matching
// the original's unconditional sock.recv_pyobj().
func (s *Server) SetLockTimeout(d time.Duration) {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	s.lockTimeout = d
}

// handleLockState implements the lock protocol. It replies once
// with (endpoint, snapshot) and then blocks — within this same call, on the
// single dispatcher goroutine — until the client pushes back a (possibly
// modified) state on the private endpoint. No other requests are admitted
// while this call is in flight, since Serve() only calls Receive again
// after handle() returns.
func (s *Server) handleLockState(ctx context.Context, identity string) {
	ep, err := s.endpoints.Allocate()
	if err != nil {
		s.replyErr(identity, types.NewServerError(types.ErrTransportError, "allocate lock endpoint: %v", err))
		return
	}

	s.lockMu.Lock()
	s.lockHolder = identity
	timeout := s.lockTimeout
	s.lockMu.Unlock()

	before := s.store.Snapshot()
	s.replyValue(identity, types.NewMap(map[string]types.Value{
		"endpoint": types.NewString(ep),
		"state":    snapshotValue(before),
	}))

	waitCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	next, err := s.transport.OpenLockChannel(waitCtx, ep)

	s.lockMu.Lock()
	s.lockHolder = ""
	s.lockMu.Unlock()

	if err != nil {
		// No reply channel remains open for the lock exchange itself
		// (the original protocol never sends a second reply here either);
		// log and release the lease so the server isn't wedged forever.
		s.log.Warnf("lock_state: client %s never returned state: %v", identity, err)
		return
	}

	if !before.Equal(next) {
		s.store.Install(next)
		s.resolver.ResolveAll()
	}
}

// LockHolder reports the identity currently holding the lock lease, or ""
// if the lock is free.
func (s *Server) LockHolder() string {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	return s.lockHolder
}
