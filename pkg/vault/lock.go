package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/gofrs/flock"
)

// LockDirName is the directory under the storage root holding per-name lock files.
const LockDirName = ".locks"

// keyedMutex serializes goroutines working on the same vault name.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(name string) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[name]
	if !ok {
		m = &refMutex{}
		k.locks[name] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
}

func (k *keyedMutex) unlock(name string) {
	k.mu.Lock()
	m := k.locks[name]
	m.refs--
	if m.refs == 0 {
		delete(k.locks, name)
	}
	k.mu.Unlock()

	m.Unlock()
}

// lockNames acquires the in-process and cross-process locks for every name,
// in sorted order, and returns a function releasing them in reverse.
func (r *Registry) lockNames(names ...string) (func(), error) {
	names = slices.Clone(names)
	slices.Sort(names)
	names = slices.Compact(names)

	lockDir := filepath.Join(r.root, LockDirName)
	if err := os.MkdirAll(lockDir, DirMode); err != nil {
		return nil, fmt.Errorf("vault: failed to create lock directory: %w", err)
	}

	var held []func()
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}

	for _, name := range names {
		r.local.lock(name)
		fl := flock.New(filepath.Join(lockDir, name+".lock"))
		if err := fl.Lock(); err != nil {
			r.local.unlock(name)
			release()
			return nil, fmt.Errorf("vault: failed to lock %q: %w", name, err)
		}
		held = append(held, func() {
			if err := fl.Unlock(); err != nil {
				r.logger.Warn("failed to release vault lock", "vault", name, "error", err)
			}
			r.local.unlock(name)
		})
	}
	return release, nil
}
