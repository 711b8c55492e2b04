// Package backup provides single-file backup and restore of one vault.
//
// A backup file is laid out as:
//
//	magic "PWNV_BKP" (8) | header length (4, big-endian) | header JSON | payload JSON
//
// The payload carries the vault's sealed content and its metadata unchanged,
// so a backup is no more readable than the vault itself. The header records
// a SHA-256 checksum of the payload for tamper and truncation detection.
package backup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/forest6511/pawnvault/pkg/vault"
)

// VerifyResult contains the result of a verify operation.
type VerifyResult struct {
	// Valid indicates the backup passed all integrity checks.
	Valid bool
	// Header is set when the header could be read.
	Header *Header
	// Error is set if verification failed.
	Error string
}

// Export writes a backup of the named vault to w.
func Export(reg *vault.Registry, name string, w io.Writer) (*Header, error) {
	if w == nil {
		return nil, errors.New("output writer is required")
	}

	snap, err := reg.Snapshot(name)
	if err != nil {
		return nil, err
	}

	payloadBytes, err := EncodePayload(&Payload{Content: snap.Content, Metadata: snap.Metadata})
	if err != nil {
		return nil, err
	}

	header := &Header{
		Version:        FormatVersion,
		CreatedAt:      time.Now().UTC(),
		VaultName:      snap.Name,
		VaultCreatedAt: snap.CreatedAt,
		ChecksumAlgo:   ChecksumAlgorithm,
		Checksum:       ComputeChecksum(payloadBytes),
	}

	// Write to buffer first so a failed write never leaves half a header
	var buf bytes.Buffer
	if err := WriteHeader(&buf, header); err != nil {
		return nil, err
	}
	buf.Write(payloadBytes)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}
	return header, nil
}

// Read parses a backup from r and verifies its checksum.
func Read(r io.Reader) (*Header, *Payload, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxPayloadSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if len(data) > MaxPayloadSize {
		return nil, nil, fmt.Errorf("payload too large: more than %d bytes", MaxPayloadSize)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: missing payload", ErrTruncated)
	}

	if err := VerifyChecksum(header, data); err != nil {
		return nil, nil, err
	}

	payload, err := DecodePayload(data)
	if err != nil {
		return nil, nil, err
	}
	return header, payload, nil
}

// Restore recreates a vault from the backup in r. An empty name restores
// under the name recorded in the backup. The sealed content must open under
// masterKey, and an existing vault is never replaced.
func Restore(reg *vault.Registry, r io.Reader, name, masterKey string) (*vault.Vault, error) {
	header, payload, err := Read(r)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = header.VaultName
	}

	return reg.RestoreSnapshot(name, &vault.Snapshot{
		Name:      header.VaultName,
		CreatedAt: header.VaultCreatedAt,
		Content:   payload.Content,
		Metadata:  payload.Metadata,
	}, masterKey)
}

// Verify checks backup integrity without restoring or decrypting.
func Verify(r io.Reader) *VerifyResult {
	header, _, err := Read(r)
	if err != nil {
		return &VerifyResult{Valid: false, Error: err.Error()}
	}
	return &VerifyResult{Valid: true, Header: header}
}
