package vault

import (
	"fmt"
)

// Disk space limits
const (
	MinDiskSpaceBytes  = 10 * 1024 * 1024 // 10 MB minimum free space
	DiskWarningPercent = 90               // Warn when disk is 90% full
)

// DiskSpaceInfo contains disk usage information
type DiskSpaceInfo struct {
	Total     uint64 `json:"total"`     // Total disk space in bytes
	Free      uint64 `json:"free"`      // Free disk space in bytes
	Available uint64 `json:"available"` // Available to non-root users
	UsedPct   int    `json:"used_pct"`  // Percentage of disk used
}

// CheckDiskSpace returns disk space information for the storage root.
func (r *Registry) CheckDiskSpace() (*DiskSpaceInfo, error) {
	return r.diskStat(r.root)
}

// checkDiskSpaceForWrite refuses a write of dataSize bytes when the volume
// is nearly full. A failed stat is logged and does not block the write.
func (r *Registry) checkDiskSpaceForWrite(dataSize int) error {
	info, err := r.CheckDiskSpace()
	if err != nil {
		r.logger.Warn("failed to check disk space", "error", err)
		return nil
	}

	// Need at least MinDiskSpaceBytes or 2x the data size, whichever is larger
	required := uint64(MinDiskSpaceBytes)
	if uint64(dataSize)*2 > required {
		required = uint64(dataSize) * 2
	}

	if info.Available < required {
		return fmt.Errorf("%w: only %d MB available, need at least %d MB",
			ErrInsufficientDisk,
			info.Available/(1024*1024),
			required/(1024*1024))
	}

	if info.UsedPct >= DiskWarningPercent {
		r.logger.Warn("disk is nearly full, consider freeing space", "used_pct", info.UsedPct)
	}
	return nil
}

func usedPercent(total, free uint64) int {
	if total == 0 {
		return 0
	}
	return int(100 * (total - free) / total)
}
