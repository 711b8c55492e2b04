package backup

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Magic number for backup files: "PWNV_BKP"
var MagicNumber = [8]byte{'P', 'W', 'N', 'V', '_', 'B', 'K', 'P'}

// Current backup format version.
const FormatVersion = 1

// Size limits
const (
	MaxHeaderSize  = 1024 * 1024       // 1 MB
	MaxPayloadSize = 128 * 1024 * 1024 // 128 MB
)

// Header contains backup file metadata. It is stored as plaintext JSON.
type Header struct {
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	VaultName      string    `json:"vault_name"`
	VaultCreatedAt time.Time `json:"vault_created_at"`
	ChecksumAlgo   string    `json:"checksum_algorithm"`
	Checksum       string    `json:"checksum"` // hex-encoded digest of the payload
}

// Payload contains the vault's file pair. Content is still sealed under the
// vault's master key.
type Payload struct {
	Content  []byte `json:"content"`  // <name>.pwd
	Metadata []byte `json:"metadata"` // <name>.meta YAML
}

// WriteHeader writes the magic number and header to the writer.
func WriteHeader(w io.Writer, header *Header) error {
	// Write magic number
	if _, err := w.Write(MagicNumber[:]); err != nil {
		return fmt.Errorf("failed to write magic number: %w", err)
	}

	// Encode header to JSON
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	// Write header length (4 bytes, big-endian)
	if err := binary.Write(w, binary.BigEndian, uint32(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header length: %w", err)
	}

	// Write header JSON
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return nil
}

// ReadHeader reads and validates the magic number and header from the reader.
func ReadHeader(r io.Reader) (*Header, error) {
	// Read and verify magic number
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidMagic
		}
		return nil, fmt.Errorf("failed to read magic number: %w", err)
	}
	if magic != MagicNumber {
		return nil, ErrInvalidMagic
	}

	// Read header length
	var headerLen uint32
	if err := binary.Read(r, binary.BigEndian, &headerLen); err != nil {
		return nil, fmt.Errorf("%w: header length: %v", ErrTruncated, err)
	}
	if headerLen > MaxHeaderSize {
		return nil, fmt.Errorf("header too large: %d bytes", headerLen)
	}

	// Read header JSON
	headerJSON := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}

	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("failed to unmarshal header: %w", err)
	}

	if header.Version > FormatVersion || header.Version < 1 {
		return nil, fmt.Errorf("%w: got %d, max supported %d",
			ErrUnsupportedVersion, header.Version, FormatVersion)
	}

	return &header, nil
}

// EncodePayload encodes the payload to JSON bytes.
func EncodePayload(payload *Payload) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}

// DecodePayload decodes JSON bytes to a payload.
func DecodePayload(data []byte) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return &payload, nil
}
