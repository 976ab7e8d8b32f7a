// Package config parses zprocd's command-line configuration using
// kingpin.v2.
package config

import (
	"time"

	"github.com/prometheus/common/model"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

// Config holds the server's runtime configuration.
type Config struct {
	// BindEndpoint is the ipc:// (or other zmq4-supported) endpoint the
	// main ROUTER socket binds to.
	BindEndpoint string

	// IPCDir roots watcher/lock endpoints minted by the allocator. Empty
	// means the allocator's own default ($HOME/.zproc).
	IPCDir string

	// Debug toggles debug-level logging.
	Debug bool

	// LockTimeout is the optional lock-lease timeout. Zero means no
	// timeout — block forever.
	LockTimeout time.Duration
}

// durationValue adapts prometheus/common/model.Duration (which already
// knows how to parse "30s", "5m", etc.) to kingpin.Value, so the
// --lock-timeout flag gets Prometheus-style duration parsing instead of
// hand-rolling it.
type durationValue struct {
	target *time.Duration
}

func (d *durationValue) Set(raw string) error {
	parsed, err := model.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d.target = time.Duration(parsed)
	return nil
}

func (d *durationValue) String() string {
	if d.target == nil {
		return ""
	}
	return model.Duration(*d.target).String()
}

func durationFlag(target *time.Duration) kingpin.Value {
	return &durationValue{target: target}
}

// Parse builds a Config from command-line arguments (typically os.Args[1:]).
func Parse(appName, appHelp string, args []string) (*Config, error) {
	app := kingpin.New(appName, appHelp)

	cfg := &Config{}
	app.Flag("bind", "Endpoint the request/reply router binds to.").
		Default("ipc:///tmp/zprocd.sock").StringVar(&cfg.BindEndpoint)
	app.Flag("ipc-dir", "Base directory watcher/lock endpoints are minted under (default: $HOME/.zproc).").
		StringVar(&cfg.IPCDir)
	app.Flag("debug", "Enable debug-level logging.").
		BoolVar(&cfg.Debug)
	app.Flag("lock-timeout", "Optional lock-lease timeout (e.g. 30s). Zero disables the timeout.").
		SetValue(durationFlag(&cfg.LockTimeout))

	if _, err := app.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}
