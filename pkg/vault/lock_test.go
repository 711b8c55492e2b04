package vault

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLockNamesCreatesLockFiles(t *testing.T) {
	r := newTestRegistry(t)
	unlock, err := r.lockNames("b", "a", "b")
	if err != nil {
		t.Fatalf("lockNames failed: %v", err)
	}
	unlock()

	for _, name := range []string{"a", "b"} {
		assertExists(t, filepath.Join(r.Root(), LockDirName, name+".lock"), true)
	}
	info, err := os.Stat(filepath.Join(r.Root(), LockDirName))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != DirMode {
		t.Errorf("lock dir permissions = %o, want %o", perm, DirMode)
	}
}

func TestLockNamesSerializesSameName(t *testing.T) {
	r := newTestRegistry(t)

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := r.lockNames("v")
			if err != nil {
				t.Errorf("lockNames failed: %v", err)
				return
			}
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxActive)
	}
	if len(r.local.locks) != 0 {
		t.Errorf("keyed mutex leaked %d entries", len(r.local.locks))
	}
}

func TestLockNamesDifferentNamesDoNotBlock(t *testing.T) {
	r := newTestRegistry(t)
	unlockA, err := r.lockNames("a")
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := r.lockNames("b")
		if err == nil {
			unlockB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lock on a different name blocked")
	}
}
