package vault

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/forest6511/pawnvault/pkg/crypto"
	"github.com/forest6511/pawnvault/pkg/entry"
)

// Snapshot is the raw file pair of one vault. Content stays sealed.
type Snapshot struct {
	Name      string
	CreatedAt time.Time
	Content   []byte // sealed <name>.pwd bytes
	Metadata  []byte // YAML <name>.meta bytes
}

// Snapshot reads the file pair of a vault without decrypting it.
func (r *Registry) Snapshot(name string) (*Snapshot, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	unlock, err := r.lockNames(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	v, err := r.open(name)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(v.ContentPath)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to read content file: %w", err)
	}
	meta, err := v.Metadata.marshal()
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Name:      name,
		CreatedAt: v.Metadata.CreatedAt,
		Content:   content,
		Metadata:  meta,
	}, nil
}

// RestoreSnapshot writes snap as a new vault called name. The content must
// open under masterKey, and an existing vault with that name is never replaced.
// Unreadable snapshot metadata is regenerated.
func (r *Registry) RestoreSnapshot(name string, snap *Snapshot, masterKey string) (*Vault, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errors.New("vault: nil snapshot")
	}

	if len(snap.Content) > crypto.MaxSealedSize {
		return nil, ErrVaultTooLarge
	}

	plaintext, err := crypto.Open(bytes.NewReader(snap.Content), []byte(masterKey))
	if err != nil {
		return nil, err
	}
	_, decodeErr := entry.Decode(plaintext)
	crypto.SecureWipe(plaintext)
	if decodeErr != nil {
		return nil, ErrAuthenticationFailed
	}

	if err := r.ensureRoot(); err != nil {
		return nil, err
	}
	unlock, err := r.lockNames(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	contentPath := r.contentPath(name)
	exists, err := fileExists(contentPath)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrVaultAlreadyExists
	}

	metaPath := r.metadataPath(name)
	meta, err := parseMetadata(metaPath, snap.Metadata)
	if err != nil {
		r.logger.Warn("regenerating unreadable snapshot metadata", "vault", name, "error", err)
		meta = NewMetadata(metaPath, r.now())
	}

	if err := r.checkDiskSpaceForWrite(len(snap.Content) + len(snap.Metadata)); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(contentPath, snap.Content); err != nil {
		return nil, err
	}
	if err := meta.Save(); err != nil {
		if rmErr := removeIfExists(contentPath); rmErr != nil {
			r.logger.Warn("failed to remove content after metadata write failure", "vault", name, "error", rmErr)
		}
		return nil, err
	}

	r.logger.Debug("vault restored", "vault", name)
	return &Vault{Name: name, ContentPath: contentPath, Metadata: meta}, nil
}
