// Package endpoint mints unique, single-use IPC endpoint names for watcher
// notifications. It is the Go-native equivalent of the
// original zproc_server.py's get_random_ipc()/get_ipc_path() pair.
package endpoint

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Allocator mints endpoint names under a per-user base directory, created
// lazily on first use.
type Allocator struct {
	once    sync.Once
	baseDir string
	initErr error
}

// NewAllocator returns an Allocator rooted at baseDir. If baseDir is empty,
// it defaults to $HOME/.zproc.
func NewAllocator(baseDir string) *Allocator {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			baseDir = filepath.Join(home, ".zproc")
		} else {
			baseDir = filepath.Join(os.TempDir(), "zproc")
		}
	}
	return &Allocator{baseDir: baseDir}
}

func (a *Allocator) ensureDir() error {
	a.once.Do(func() {
		a.initErr = os.MkdirAll(a.baseDir, 0o700)
	})
	return a.initErr
}

// Allocate mints a new globally unique endpoint. No collisions across the
// server's lifetime, no reuse.
func (a *Allocator) Allocate() (string, error) {
	if err := a.ensureDir(); err != nil {
		return "", err
	}
	return "ipc://" + filepath.Join(a.baseDir, uuid.New().String()), nil
}

// BaseDir reports the directory endpoints are minted under.
func (a *Allocator) BaseDir() string {
	return a.baseDir
}
