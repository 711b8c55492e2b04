// Package vault stores named, passphrase-protected collections of secret
// entries as a pair of files per vault inside a storage root.
//
// Each vault consists of:
//   - <name>.pwd: the sealed entry store (see package crypto)
//   - <name>.meta: plaintext YAML metadata (creation and last access time)
//
// Entries are decrypted only for the duration of a single Registry call.
// Nothing decrypted is cached between calls.
package vault

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/forest6511/pawnvault/pkg/crypto"
	"github.com/forest6511/pawnvault/pkg/entry"
)

// File extensions
const (
	ContentExt  = ".pwd"
	MetadataExt = ".meta"
)

// Vault describes one stored vault. It never holds decrypted entries.
type Vault struct {
	Name        string
	ContentPath string
	Metadata    *Metadata
}

// readStore opens the content file at path with masterKey and decodes it.
// A store that authenticates but does not decode is reported as
// ErrAuthenticationFailed.
func readStore(path, masterKey string) (*entry.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrVaultNotFound
		}
		return nil, fmt.Errorf("vault: failed to open content file: %w", err)
	}
	defer f.Close()

	plaintext, err := crypto.Open(f, []byte(masterKey))
	if err != nil {
		return nil, err
	}
	defer crypto.SecureWipe(plaintext)

	store, err := entry.Decode(plaintext)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return store, nil
}

// sealStore encodes and seals store under masterKey.
func sealStore(store *entry.Store, masterKey string) ([]byte, error) {
	plaintext, err := entry.Encode(store)
	if err != nil {
		return nil, err
	}
	defer crypto.SecureWipe(plaintext)

	var buf bytes.Buffer
	if err := crypto.Seal(&buf, []byte(masterKey), plaintext); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeStore seals store and atomically replaces the content file at path.
func (r *Registry) writeStore(path, masterKey string, store *entry.Store) error {
	sealed, err := sealStore(store, masterKey)
	if err != nil {
		return err
	}
	if err := r.checkDiskSpaceForWrite(len(sealed)); err != nil {
		return err
	}
	return writeFileAtomic(path, sealed)
}
