package backup

import "errors"

// Backup/Restore errors
var (
	// ErrInvalidMagic indicates the backup file has an invalid magic number.
	ErrInvalidMagic = errors.New("invalid backup file: magic number mismatch")

	// ErrUnsupportedVersion indicates the backup format version is not supported.
	ErrUnsupportedVersion = errors.New("unsupported backup format version")

	// ErrIntegrityFailed indicates the payload does not match the recorded checksum.
	ErrIntegrityFailed = errors.New("backup integrity check failed: checksum mismatch")

	// ErrTruncated indicates the backup ended before its header or payload did.
	ErrTruncated = errors.New("backup file truncated")
)
