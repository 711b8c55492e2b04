package backup

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// ChecksumAlgorithm is the only supported payload digest.
const ChecksumAlgorithm = "sha256"

// ComputeChecksum returns the hex-encoded SHA-256 digest of data.
func ComputeChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum checks data against the digest recorded in header.
func VerifyChecksum(header *Header, data []byte) error {
	if header.ChecksumAlgo != ChecksumAlgorithm {
		return fmt.Errorf("%w: unsupported checksum algorithm %q", ErrIntegrityFailed, header.ChecksumAlgo)
	}
	actual := ComputeChecksum(data)
	if subtle.ConstantTimeCompare([]byte(actual), []byte(header.Checksum)) != 1 {
		return ErrIntegrityFailed
	}
	return nil
}
