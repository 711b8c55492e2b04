//go:build !windows

package vault

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// statDisk returns disk space information for the volume holding path.
func statDisk(path string) (*DiskSpaceInfo, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		// Storage root may not exist yet, check parent
		if err := unix.Statfs(filepath.Dir(path), &stat); err != nil {
			return nil, fmt.Errorf("vault: failed to get disk stats: %w", err)
		}
	}

	bsize := uint64(stat.Bsize)
	total := uint64(stat.Blocks) * bsize
	free := uint64(stat.Bfree) * bsize

	return &DiskSpaceInfo{
		Total:     total,
		Free:      free,
		Available: uint64(stat.Bavail) * bsize,
		UsedPct:   usedPercent(total, free),
	}, nil
}
