package vault

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/forest6511/pawnvault/pkg/entry"
	"github.com/forest6511/pawnvault/pkg/password"
)

// Generator produces a random secret for entries added without one.
type Generator interface {
	Generate() (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func() (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate() (string, error) { return f() }

// Registry manages the vaults stored in one directory.
// It is safe for concurrent use; operations on the same name are serialized.
type Registry struct {
	root      string
	logger    *slog.Logger
	generator Generator
	now       func() time.Time

	// replaceable in tests
	diskStat func(path string) (*DiskSpaceInfo, error)
	rename   func(oldpath, newpath string) error

	local keyedMutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for warnings and diagnostics. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithGenerator sets the secret generator used by AddEntry.
func WithGenerator(g Generator) Option {
	return func(r *Registry) {
		if g != nil {
			r.generator = g
		}
	}
}

// WithClock sets the time source for metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Registry rooted at root. The directory is created on the
// first write.
func New(root string, opts ...Option) *Registry {
	r := &Registry{
		root:   root,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		generator: GeneratorFunc(func() (string, error) {
			return password.Generate(password.DefaultOptions())
		}),
		now:      time.Now,
		diskStat: statDisk,
		rename:   os.Rename,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the storage root directory.
func (r *Registry) Root() string {
	return r.root
}

func (r *Registry) contentPath(name string) string {
	return filepath.Join(r.root, name+ContentExt)
}

func (r *Registry) metadataPath(name string) string {
	return filepath.Join(r.root, name+MetadataExt)
}

func (r *Registry) ensureRoot() error {
	if err := os.MkdirAll(r.root, DirMode); err != nil {
		return fmt.Errorf("vault: failed to create storage directory: %w", err)
	}
	return nil
}

// Create creates a new empty vault sealed under masterKey.
func (r *Registry) Create(name, masterKey, confirmMasterKey string) (*Vault, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	if err := ValidateMasterKey(masterKey, confirmMasterKey); err != nil {
		return nil, err
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

	if err := r.writeStore(contentPath, masterKey, entry.Empty()); err != nil {
		return nil, err
	}

	meta := NewMetadata(r.metadataPath(name), r.now())
	if err := meta.Save(); err != nil {
		if rmErr := removeIfExists(contentPath); rmErr != nil {
			r.logger.Warn("failed to remove content after metadata write failure", "vault", name, "error", rmErr)
		}
		return nil, err
	}

	r.logger.Debug("vault created", "vault", name)
	return &Vault{Name: name, ContentPath: contentPath, Metadata: meta}, nil
}

// Open resolves an existing vault and loads its metadata. It does not decrypt.
// Missing or unreadable metadata is regenerated under the vault's lock.
func (r *Registry) Open(name string) (*Vault, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	contentPath := r.contentPath(name)
	exists, err := fileExists(contentPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrVaultNotFound
	}
	if meta, err := ReadMetadata(r.metadataPath(name)); err == nil {
		return &Vault{Name: name, ContentPath: contentPath, Metadata: meta}, nil
	}

	unlock, err := r.lockNames(name)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.open(name)
}

// open requires the caller to hold the lock for name.
func (r *Registry) open(name string) (*Vault, error) {
	contentPath := r.contentPath(name)
	exists, err := fileExists(contentPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrVaultNotFound
	}

	meta, err := LoadOrInitMetadata(r.metadataPath(name), r.now(), r.logger)
	if err != nil {
		return nil, err
	}
	return &Vault{Name: name, ContentPath: contentPath, Metadata: meta}, nil
}

// List returns every vault in the storage root, newest first. Vaults that
// cannot be opened are skipped. A missing root yields an empty list.
func (r *Registry) List() ([]*Vault, error) {
	dirEntries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("vault: failed to read storage directory: %w", err)
	}

	var vaults []*Vault
	for _, de := range dirEntries {
		if de.IsDir() || isTempFile(de.Name()) || !strings.HasSuffix(de.Name(), ContentExt) {
			continue
		}
		name := strings.TrimSuffix(de.Name(), ContentExt)
		v, err := r.Open(name)
		if err != nil {
			r.logger.Debug("skipping vault", "file", de.Name(), "error", err)
			continue
		}
		vaults = append(vaults, v)
	}

	slices.SortStableFunc(vaults, func(a, b *Vault) int {
		return b.Metadata.CreatedAt.Compare(a.Metadata.CreatedAt)
	})
	return vaults, nil
}

// Delete removes a vault's content and metadata files. Deleting a vault that
// does not exist is not an error.
func (r *Registry) Delete(name string) error {
	name, err := ValidateName(name)
	if err != nil {
		return err
	}

	unlock, err := r.lockNames(name)
	if err != nil {
		return err
	}
	defer unlock()

	if err := removeIfExists(r.contentPath(name)); err != nil {
		return err
	}
	if err := removeIfExists(r.metadataPath(name)); err != nil {
		return err
	}
	r.logger.Debug("vault deleted", "vault", name)
	return nil
}

// Rename moves a vault to newName, content first and then metadata. A failed
// metadata move rolls the content move back.
func (r *Registry) Rename(name, newName string) (*Vault, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	newName, err = ValidateName(newName)
	if err != nil {
		return nil, err
	}

	unlock, err := r.lockNames(name, newName)
	if err != nil {
		return nil, err
	}
	defer unlock()

	oldContent, oldMeta := r.contentPath(name), r.metadataPath(name)
	newContent, newMeta := r.contentPath(newName), r.metadataPath(newName)

	exists, err := fileExists(oldContent)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrVaultNotFound
	}
	for _, p := range []string{newContent, newMeta} {
		exists, err := fileExists(p)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrRenameTargetExists
		}
	}

	metaExists, err := fileExists(oldMeta)
	if err != nil {
		return nil, err
	}

	if err := r.rename(oldContent, newContent); err != nil {
		return nil, fmt.Errorf("vault: failed to rename content file: %w", err)
	}
	if metaExists {
		if err := r.rename(oldMeta, newMeta); err != nil {
			err = fmt.Errorf("vault: failed to rename metadata file: %w", err)
			if rbErr := r.rename(newContent, oldContent); rbErr != nil {
				r.logger.Error("rename rollback failed", "vault", name, "new_name", newName, "error", rbErr)
				return nil, errors.Join(err, fmt.Errorf("vault: failed to roll back content rename: %w", rbErr))
			}
			r.logger.Warn("rename rolled back", "vault", name, "new_name", newName, "error", err)
			return nil, err
		}
	}
	syncDir(r.root)

	r.logger.Debug("vault renamed", "vault", name, "new_name", newName)
	return r.open(newName)
}

// UpdateMasterKey re-seals a vault's entries under newKey. The creation time
// is kept.
func (r *Registry) UpdateMasterKey(name, oldKey, newKey, confirmNewKey string) error {
	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	if err := ValidateNewMasterKey(oldKey, newKey, confirmNewKey); err != nil {
		return err
	}

	unlock, err := r.lockNames(name)
	if err != nil {
		return err
	}
	defer unlock()

	v, err := r.open(name)
	if err != nil {
		return err
	}
	store, err := readStore(v.ContentPath, oldKey)
	if err != nil {
		return err
	}
	if err := r.writeStore(v.ContentPath, newKey, store); err != nil {
		return err
	}

	r.touch(v)
	r.logger.Debug("master key updated", "vault", name)
	return nil
}

// touch refreshes LastAccessedAt. A failed save is only logged since the
// content change it follows has already been committed.
func (r *Registry) touch(v *Vault) {
	v.Metadata.Touch(r.now())
	if err := v.Metadata.Save(); err != nil {
		r.logger.Warn("failed to update vault metadata", "vault", v.Name, "error", err)
	}
}
