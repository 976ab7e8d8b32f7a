package core

import (
	"context"
	"errors"
	"sync"

	"github.com/gozproc/zproc/pkg/zproc/types"
)

// fakeTransport is an in-process stand-in for ZMQTransport: a deterministic
// substitute that lets tests drive the dispatcher without a real socket.
type fakeTransport struct {
	mu sync.Mutex

	requests chan fakeRequest
	replies  map[string]types.Reply
	pushed   map[string][]types.Value

	lockChannels map[string]chan types.Snapshot
}

type fakeRequest struct {
	identity string
	req      types.Request
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		requests:     make(chan fakeRequest, 64),
		replies:      make(map[string]types.Reply),
		pushed:       make(map[string][]types.Value),
		lockChannels: make(map[string]chan types.Snapshot),
	}
}

func (f *fakeTransport) send(identity string, req types.Request) {
	f.requests <- fakeRequest{identity: identity, req: req}
}

func (f *fakeTransport) Receive(ctx context.Context) (string, types.Request, error) {
	select {
	case r := <-f.requests:
		return r.identity, r.req, nil
	case <-ctx.Done():
		return "", types.Request{}, ctx.Err()
	}
}

func (f *fakeTransport) Reply(identity string, reply types.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[identity] = reply
	return nil
}

func (f *fakeTransport) replyFor(identity string) (types.Reply, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.replies[identity]
	return r, ok
}

func (f *fakeTransport) Push(endpoint string, value types.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed[endpoint] = append(f.pushed[endpoint], value)
	return nil
}

func (f *fakeTransport) pushesFor(endpoint string) []types.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Value(nil), f.pushed[endpoint]...)
}

// deliverLockState simulates a client returning modified state on a lock
// channel endpoint, unblocking handleLockState.
func (f *fakeTransport) deliverLockState(endpoint string, snap types.Snapshot) {
	f.mu.Lock()
	ch, ok := f.lockChannels[endpoint]
	if !ok {
		ch = make(chan types.Snapshot, 1)
		f.lockChannels[endpoint] = ch
	}
	f.mu.Unlock()
	ch <- snap
}

func (f *fakeTransport) OpenLockChannel(ctx context.Context, endpoint string) (types.Snapshot, error) {
	f.mu.Lock()
	ch, ok := f.lockChannels[endpoint]
	if !ok {
		ch = make(chan types.Snapshot, 1)
		f.lockChannels[endpoint] = ch
	}
	f.mu.Unlock()

	select {
	case snap := <-ch:
		return snap, nil
	case <-ctx.Done():
		return nil, errors.New("lock channel cancelled")
	}
}

func (f *fakeTransport) Close() error { return nil }

type noopLogger struct{}

func (noopLogger) Info(v ...interface{})                  {}
func (noopLogger) Infof(format string, v ...interface{})  {}
func (noopLogger) Warn(v ...interface{})                  {}
func (noopLogger) Warnf(format string, v ...interface{})  {}
func (noopLogger) Error(v ...interface{})                 {}
func (noopLogger) Errorf(format string, v ...interface{}) {}
func (noopLogger) Debug(v ...interface{})                 {}
func (noopLogger) Debugf(format string, v ...interface{}) {}
func (noopLogger) Fatal(v ...interface{})                 {}
func (noopLogger) Fatalf(format string, v ...interface{}) {}
func (noopLogger) Panic(v ...interface{})                 {}
func (noopLogger) Panicf(format string, v ...interface{}) {}

var _ types.Logger = noopLogger{}
