package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// RecoveryReport lists the repairs made by Recover. Entries are file base names.
type RecoveryReport struct {
	RemovedTempFiles      []string `json:"removed_temp_files"`
	RemovedOrphanMetadata []string `json:"removed_orphan_metadata"`
	RegeneratedMetadata   []string `json:"regenerated_metadata"`
}

// Empty reports whether nothing needed repair.
func (rep *RecoveryReport) Empty() bool {
	return len(rep.RemovedTempFiles) == 0 &&
		len(rep.RemovedOrphanMetadata) == 0 &&
		len(rep.RegeneratedMetadata) == 0
}

// Recover repairs leftovers of interrupted operations in the storage root:
// stale temp files are removed, metadata without content is removed, and
// content without metadata gets fresh metadata. It is meant to run at startup.
func (r *Registry) Recover() (*RecoveryReport, error) {
	report := &RecoveryReport{}

	dirEntries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report, nil
		}
		return nil, fmt.Errorf("vault: failed to read storage directory: %w", err)
	}

	contents := make(map[string]bool)
	metas := make(map[string]bool)
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		fileName := de.Name()
		switch {
		case isTempFile(fileName):
			if err := r.removeTempFile(fileName); err != nil {
				return report, err
			}
			report.RemovedTempFiles = append(report.RemovedTempFiles, fileName)
		case strings.HasSuffix(fileName, ContentExt):
			contents[strings.TrimSuffix(fileName, ContentExt)] = true
		case strings.HasSuffix(fileName, MetadataExt):
			metas[strings.TrimSuffix(fileName, MetadataExt)] = true
		}
	}

	for _, de := range dirEntries {
		fileName := de.Name()
		if de.IsDir() || isTempFile(fileName) {
			continue
		}
		switch {
		case strings.HasSuffix(fileName, MetadataExt):
			name := strings.TrimSuffix(fileName, MetadataExt)
			if contents[name] || !isStoredName(name) {
				continue
			}
			removed, err := r.removeOrphanMetadata(name)
			if err != nil {
				return report, err
			}
			if removed {
				report.RemovedOrphanMetadata = append(report.RemovedOrphanMetadata, fileName)
			}
		case strings.HasSuffix(fileName, ContentExt):
			name := strings.TrimSuffix(fileName, ContentExt)
			if metas[name] || !isStoredName(name) {
				continue
			}
			created, err := r.regenerateMetadata(name)
			if err != nil {
				return report, err
			}
			if created {
				report.RegeneratedMetadata = append(report.RegeneratedMetadata, name+MetadataExt)
			}
		}
	}

	if !report.Empty() {
		r.logger.Info("storage recovered",
			"temp_files", len(report.RemovedTempFiles),
			"orphan_metadata", len(report.RemovedOrphanMetadata),
			"regenerated_metadata", len(report.RegeneratedMetadata))
	}
	return report, nil
}

func (r *Registry) removeTempFile(fileName string) error {
	if name, ok := tempOwner(fileName); ok {
		if unlock, err := r.lockNames(name); err == nil {
			defer unlock()
		}
	}
	return removeIfExists(filepath.Join(r.root, fileName))
}

// removeOrphanMetadata deletes the metadata of name if its content file is
// still absent once the name is locked.
func (r *Registry) removeOrphanMetadata(name string) (bool, error) {
	unlock, err := r.lockNames(name)
	if err != nil {
		return false, err
	}
	defer unlock()

	exists, err := fileExists(r.contentPath(name))
	if err != nil || exists {
		return false, err
	}
	if err := removeIfExists(r.metadataPath(name)); err != nil {
		return false, err
	}
	return true, nil
}

// regenerateMetadata writes fresh metadata for name if it is still missing
// once the name is locked.
func (r *Registry) regenerateMetadata(name string) (bool, error) {
	unlock, err := r.lockNames(name)
	if err != nil {
		return false, err
	}
	defer unlock()

	path := r.metadataPath(name)
	exists, err := fileExists(path)
	if err != nil || exists {
		return false, err
	}
	if err := NewMetadata(path, r.now()).Save(); err != nil {
		return false, err
	}
	return true, nil
}

// isStoredName reports whether a file base name is one Registry would write.
func isStoredName(name string) bool {
	canonical, err := ValidateName(name)
	return err == nil && canonical == name
}

// tempOwner returns the vault name a temp file was written for.
// Temp files are named "." + base + "." + random + tempSuffix.
func tempOwner(fileName string) (string, bool) {
	base := strings.TrimSuffix(strings.TrimPrefix(fileName, "."), tempSuffix)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return "", false
	}
	base = base[:i]
	for _, ext := range []string{ContentExt, MetadataExt} {
		if name, ok := strings.CutSuffix(base, ext); ok && name != "" {
			return name, true
		}
	}
	return "", false
}
