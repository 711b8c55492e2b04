package vault

import (
	"bytes"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
)

const testKey = "masterkey123"

// fakeClock advances one second on every read.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func plentyOfDisk(string) (*DiskSpaceInfo, error) {
	return &DiskSpaceInfo{Total: 1 << 40, Free: 1 << 39, Available: 1 << 39, UsedPct: 50}, nil
}

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r := New(t.TempDir(), opts...)
	r.diskStat = plentyOfDisk
	return r
}

// logBuffer returns a logger option capturing output at debug level.
func logBuffer() (Option, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return WithLogger(logger), &buf
}

func mustCreate(t *testing.T, r *Registry, name string) *Vault {
	t.Helper()
	v, err := r.Create(name, testKey, testKey)
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", name, err)
	}
	return v
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}

func assertExists(t *testing.T, path string, want bool) {
	t.Helper()
	_, err := os.Stat(path)
	if got := err == nil; got != want {
		t.Errorf("exists(%s) = %v, want %v (err: %v)", path, got, want, err)
	}
}
