package vault

import (
	"bytes"
	"errors"
	"testing"

	"github.com/forest6511/pawnvault/pkg/crypto"
)

func TestSnapshotRestore(t *testing.T) {
	src := newTestRegistry(t)
	created := mustCreate(t, src, "bank")
	if _, err := src.AddEntry("bank", testKey, "s1", "n1"); err != nil {
		t.Fatal(err)
	}

	snap, err := src.Snapshot("bank")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Name != "bank" || !bytes.Equal(snap.Content, readFile(t, src.contentPath("bank"))) {
		t.Fatalf("snapshot does not match stored content")
	}

	dst := newTestRegistry(t)
	v, err := dst.RestoreSnapshot("bank-copy", snap, testKey)
	if err != nil {
		t.Fatalf("RestoreSnapshot failed: %v", err)
	}
	if v.Name != "bank-copy" {
		t.Errorf("Name = %q", v.Name)
	}
	if !v.Metadata.CreatedAt.Equal(created.Metadata.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", v.Metadata.CreatedAt, created.Metadata.CreatedAt)
	}

	entries, err := dst.ListEntries("bank-copy", testKey)
	if err != nil {
		t.Fatalf("restored vault does not open: %v", err)
	}
	if len(entries) != 1 || entries[0].Secret != "s1" || entries[0].Notes != "n1" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestRestoreSnapshotErrors(t *testing.T) {
	r := newTestRegistry(t)
	mustCreate(t, r, "bank")
	snap, err := r.Snapshot("bank")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.RestoreSnapshot("bank", snap, testKey); !errors.Is(err, ErrVaultAlreadyExists) {
		t.Errorf("existing target error = %v, want ErrVaultAlreadyExists", err)
	}
	if _, err := r.RestoreSnapshot("other", snap, "wrongwrongwrong"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("wrong key error = %v, want ErrAuthenticationFailed", err)
	}
	assertExists(t, r.contentPath("other"), false)

	if _, err := r.RestoreSnapshot("", snap, testKey); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name error = %v, want ErrEmptyName", err)
	}
	if _, err := r.RestoreSnapshot("other", nil, testKey); err == nil {
		t.Error("expected error for nil snapshot")
	}
	oversize := &Snapshot{Content: make([]byte, crypto.MaxSealedSize+1), Metadata: snap.Metadata}
	if _, err := r.RestoreSnapshot("other", oversize, testKey); !errors.Is(err, ErrVaultTooLarge) {
		t.Errorf("oversize content error = %v, want ErrVaultTooLarge", err)
	}
	assertExists(t, r.contentPath("other"), false)
	if _, err := r.Snapshot("missing"); !errors.Is(err, ErrVaultNotFound) {
		t.Errorf("Snapshot(missing) error = %v, want ErrVaultNotFound", err)
	}
}

func TestRestoreSnapshotRegeneratesBadMetadata(t *testing.T) {
	clock := newFakeClock()
	r := newTestRegistry(t, WithClock(clock.Now))
	mustCreate(t, r, "bank")
	snap, err := r.Snapshot("bank")
	if err != nil {
		t.Fatal(err)
	}
	snap.Metadata = []byte("not: [valid")

	v, err := r.RestoreSnapshot("copy", snap, testKey)
	if err != nil {
		t.Fatalf("RestoreSnapshot failed: %v", err)
	}
	if v.Metadata.CreatedAt.IsZero() {
		t.Error("metadata not regenerated")
	}
	assertExists(t, r.metadataPath("copy"), true)
}
