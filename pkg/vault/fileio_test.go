package vault

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank"+ContentExt)

	if err := writeFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := writeFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	if got := string(readFile(t, path)); got != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != FileMode {
		t.Errorf("permissions = %o, want %o", perm, FileMode)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, got %d entries", len(entries))
	}
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "bank"+ContentExt)
	if err := writeFileAtomic(path, []byte("x")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")

	exists, err := fileExists(path)
	if err != nil || exists {
		t.Fatalf("fileExists(missing) = %v, %v", exists, err)
	}
	if err := os.WriteFile(path, nil, FileMode); err != nil {
		t.Fatal(err)
	}
	exists, err = fileExists(path)
	if err != nil || !exists {
		t.Fatalf("fileExists(present) = %v, %v", exists, err)
	}
}

func TestIsTempFile(t *testing.T) {
	tests := map[string]bool{
		".bank.pwd.123456.tmp":  true,
		".bank.meta.987.tmp":    true,
		"bank.pwd":              false,
		"bank.tmp":              false,
		".bank.pwd":             false,
		".locks":                false,
		".report.pwd.1.tmp.bak": false,
	}
	for name, want := range tests {
		if got := isTempFile(name); got != want {
			t.Errorf("isTempFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestTempOwner(t *testing.T) {
	tests := []struct {
		file   string
		want   string
		wantOK bool
	}{
		{".bank.pwd.123456.tmp", "bank", true},
		{".my.vault.meta.42.tmp", "my.vault", true},
		{".bank.txt.42.tmp", "", false},
		{"..tmp", "", false},
		{".pwd.1.tmp", "", false},
	}
	for _, tt := range tests {
		got, ok := tempOwner(tt.file)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("tempOwner(%q) = %q, %v, want %q, %v", tt.file, got, ok, tt.want, tt.wantOK)
		}
	}
}
