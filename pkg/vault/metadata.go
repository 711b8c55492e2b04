package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Metadata is the plaintext sidecar record stored as YAML next to a vault's
// content file.
type Metadata struct {
	CreatedAt      time.Time `yaml:"created_at" json:"created_at"`
	LastAccessedAt time.Time `yaml:"last_accessed_at" json:"last_accessed_at"`

	path string
}

// NewMetadata returns metadata for path with both timestamps set to now.
// Nothing is written until Save.
func NewMetadata(path string, now time.Time) *Metadata {
	now = now.UTC()
	return &Metadata{CreatedAt: now, LastAccessedAt: now, path: path}
}

// ReadMetadata parses the metadata file at path. A missing file is reported
// with fs.ErrNotExist; content that does not parse wraps ErrMetadataUnreadable.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("vault: failed to read metadata file: %w", err)
	}
	return parseMetadata(path, data)
}

func parseMetadata(path string, data []byte) (*Metadata, error) {
	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataUnreadable, err)
	}
	if m.CreatedAt.IsZero() {
		return nil, fmt.Errorf("%w: missing created_at", ErrMetadataUnreadable)
	}
	if m.LastAccessedAt.IsZero() {
		m.LastAccessedAt = m.CreatedAt
	}
	m.path = path
	return &m, nil
}

// LoadOrInitMetadata loads the metadata at path. When the file is missing or
// unreadable it is regenerated with both timestamps set to now and persisted
// immediately; the original creation time is lost in that case.
func LoadOrInitMetadata(path string, now time.Time, logger *slog.Logger) (*Metadata, error) {
	m, err := ReadMetadata(path)
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, ErrMetadataUnreadable):
		if logger != nil {
			logger.Warn("regenerating unreadable vault metadata", "file", filepath.Base(path), "error", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if logger != nil {
			logger.Debug("initializing missing vault metadata", "file", filepath.Base(path))
		}
	default:
		return nil, err
	}

	m = NewMetadata(path, now)
	if err := m.Save(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the metadata file path.
func (m *Metadata) Path() string {
	return m.path
}

// Touch records an access at now.
func (m *Metadata) Touch(now time.Time) {
	m.LastAccessedAt = now.UTC()
}

// Save overwrites the metadata file atomically.
func (m *Metadata) Save() error {
	data, err := m.marshal()
	if err != nil {
		return err
	}
	return writeFileAtomic(m.path, data)
}

// DeleteFile removes the metadata file. A missing file is not an error.
func (m *Metadata) DeleteFile() error {
	return removeIfExists(m.path)
}

func (m *Metadata) marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to marshal metadata: %w", err)
	}
	return data, nil
}
