package core

import (
	"context"
	"fmt"

	"github.com/go-zeromq/zmq4"

	"github.com/gozproc/zproc/pkg/zproc/types"
)

// Transport exposes four primitives: a blocking receive, an asynchronous
// reply, a one-shot push to an arbitrary endpoint, and the one-shot inbound
// channel the lock protocol blocks on. Atomic multicast
// delivery to a replica group is a different problem with no notion of a
// single request/reply socket with per-client identities, so this is built
// on ROUTER/PULL/PUSH sockets instead, using the pure-Go
// github.com/go-zeromq/zmq4 (see DESIGN.md for the reasoning).
type Transport interface {
	// Receive blocks until a request arrives, returning the client's
	// opaque identity and the decoded request.
	Receive(ctx context.Context) (identity string, req types.Request, err error)

	// Reply sends a reply back to the client identified by identity.
	// Never blocks under normal operation.
	Reply(identity string, reply types.Reply) error

	// Push binds a fresh one-shot outbound channel at endpoint and
	// delivers exactly one message, then closes it.
	Push(endpoint string, value types.Value) error

	// OpenLockChannel binds a one-shot inbound PULL socket at endpoint and
	// blocks until the client returns a full state snapshot, or ctx is
	// cancelled.
	OpenLockChannel(ctx context.Context, endpoint string) (types.Snapshot, error)

	Close() error
}

// ZMQTransport implements Transport over ZeroMQ ROUTER/PULL/PUSH sockets,
// the Go-native equivalent of zproc_server.py's self.sock (a zmq.ROUTER)
// plus its per-call push()/lock_state() PUSH/PULL sockets.
type ZMQTransport struct {
	log types.Logger

	router zmq4.Socket
}

// NewZMQTransport binds the main ROUTER socket at bindEndpoint, the
// endpoint given by the caller (zprocd passes its --bind flag).
func NewZMQTransport(ctx context.Context, bindEndpoint string, log types.Logger) (*ZMQTransport, error) {
	router := zmq4.NewRouter(ctx)
	if err := router.Listen(bindEndpoint); err != nil {
		return nil, fmt.Errorf("zproc: bind router at %s: %w", bindEndpoint, err)
	}
	return &ZMQTransport{log: log, router: router}, nil
}

func (t *ZMQTransport) Receive(ctx context.Context) (string, types.Request, error) {
	msg, err := t.router.Recv()
	if err != nil {
		return "", types.Request{}, types.NewServerError(types.ErrTransportError, "receive failed: %v", err)
	}
	if len(msg.Frames) < 2 {
		return "", types.Request{}, types.NewServerError(types.ErrTransportError, "malformed envelope: expected identity + payload frames")
	}
	identity := string(msg.Frames[0])
	req, err := types.UnmarshalRequest(msg.Frames[len(msg.Frames)-1])
	if err != nil {
		return identity, types.Request{}, types.NewServerError(types.ErrMalformedRequest, "decode request: %v", err)
	}
	return identity, req, nil
}

func (t *ZMQTransport) Reply(identity string, reply types.Reply) error {
	payload, err := types.MarshalReply(reply)
	if err != nil {
		return types.NewServerError(types.ErrTransportError, "encode reply: %v", err)
	}
	msg := zmq4.NewMsgFrom([]byte(identity), payload)
	if err := t.router.Send(msg); err != nil {
		return types.NewServerError(types.ErrTransportError, "send reply: %v", err)
	}
	return nil
}

// Push mirrors the original's push(): bind a fresh PUSH socket at endpoint,
// send once, close. Since every watcher is allocated its own unique
// endpoint, binding fresh each time never collides.
func (t *ZMQTransport) Push(endpoint string, value types.Value) error {
	ctx := context.Background()
	sock := zmq4.NewPush(ctx)
	defer sock.Close()

	if err := sock.Listen(endpoint); err != nil {
		return types.NewServerError(types.ErrTransportError, "bind push at %s: %v", endpoint, err)
	}
	payload, err := value.MarshalJSON()
	if err != nil {
		return types.NewServerError(types.ErrTransportError, "encode push payload: %v", err)
	}
	if err := sock.Send(zmq4.NewMsg(payload)); err != nil {
		return types.NewServerError(types.ErrTransportError, "push to %s: %v", endpoint, err)
	}
	return nil
}

// OpenLockChannel implements the blocking half of the lock protocol: bind
// a PULL socket at endpoint, and wait for the client's single reply
// carrying the (possibly modified) full state.
func (t *ZMQTransport) OpenLockChannel(ctx context.Context, endpoint string) (types.Snapshot, error) {
	sock := zmq4.NewPull(ctx)
	defer sock.Close()

	if err := sock.Listen(endpoint); err != nil {
		return nil, types.NewServerError(types.ErrTransportError, "bind lock channel at %s: %v", endpoint, err)
	}
	msg, err := sock.Recv()
	if err != nil {
		return nil, types.NewServerError(types.ErrTransportError, "lock channel recv: %v", err)
	}
	snap, err := types.UnmarshalSnapshot(msg.Bytes())
	if err != nil {
		return nil, types.NewServerError(types.ErrMalformedRequest, "decode locked state: %v", err)
	}
	return snap, nil
}

func (t *ZMQTransport) Close() error {
	return t.router.Close()
}
