// Command zprocd runs the shared-state coordination server standalone.
// Process spawning/supervision, the client-side mapping wrapper, and
// payload serialization conveniences are out of scope for this repository
// — this binary only brings up the core server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gozproc/zproc/pkg/zproc/config"
	"github.com/gozproc/zproc/pkg/zproc/core"
	"github.com/gozproc/zproc/pkg/zproc/definition"
	"github.com/gozproc/zproc/pkg/zproc/endpoint"
)

func main() {
	cfg, err := config.Parse("zprocd", "Shared-state coordination server.", os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	log := definition.NewDefaultLogger(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, err := core.NewZMQTransport(ctx, cfg.BindEndpoint, log)
	if err != nil {
		log.Fatalf("bind transport: %v", err)
	}
	defer transport.Close()

	allocator := endpoint.NewAllocator(cfg.IPCDir)
	predicates := core.NewPredicateRegistry()

	server := core.NewServer(transport, allocator, predicates, log)
	server.SetLockTimeout(cfg.LockTimeout)

	log.Infof("zprocd listening on %s (protocol %s)", cfg.BindEndpoint, core.ProtocolVersion)

	invoker := core.InvokerInstance()
	invoker.Spawn(func() {
		if err := server.Serve(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("server loop exited: %v", err)
		}
	})

	<-ctx.Done()
	invoker.Stop()
	log.Infof("zprocd shutting down")
}
