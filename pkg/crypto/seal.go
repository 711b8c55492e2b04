package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Sealed container layout:
//
//	magic "PWNV" (4) | salt (16) | nonce (12) | ciphertext + GCM tag
//
// magic and salt are authenticated as additional data.
const (
	SaltLength = 16

	// MaxSealedSize bounds how much Open will read from its source.
	MaxSealedSize = 64 * 1024 * 1024

	hkdfInfoContent = "pawnvault-content-v1"
)

// Magic identifies a sealed pawnvault container.
var Magic = [4]byte{'P', 'W', 'N', 'V'}

const (
	headerLength = len(Magic) + SaltLength
	tagLength    = 16

	// MaxPlaintextSize is the largest plaintext whose container fits in MaxSealedSize.
	MaxPlaintextSize = MaxSealedSize - headerLength - NonceLength - tagLength
)

var (
	// ErrAuthenticationFailed is the single failure reported by Open for a wrong
	// passphrase, a tampered or truncated container, or an unrecognised format.
	ErrAuthenticationFailed = errors.New("crypto: authentication failed")

	// ErrTooLarge indicates plaintext that Seal refuses because Open could not read it back.
	ErrTooLarge = errors.New("crypto: data too large to seal")
)

// Seal encrypts plaintext under passphrase and writes the container to w.
// Every call draws a fresh salt and nonce. Plaintext above MaxPlaintextSize
// is rejected with ErrTooLarge and nothing is written.
func Seal(w io.Writer, passphrase, plaintext []byte) error {
	if len(plaintext) > MaxPlaintextSize {
		return ErrTooLarge
	}

	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("crypto: failed to generate salt: %w", err)
	}

	key, err := contentKey(passphrase, salt)
	if err != nil {
		return err
	}
	defer SecureWipe(key)

	header := make([]byte, 0, headerLength)
	header = append(header, Magic[:]...)
	header = append(header, salt...)

	ciphertext, nonce, err := EncryptWithAD(key, plaintext, header)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Grow(len(header) + len(nonce) + len(ciphertext))
	buf.Write(header)
	buf.Write(nonce)
	buf.Write(ciphertext)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("crypto: failed to write sealed data: %w", err)
	}
	return nil
}

// Open reads a container produced by Seal from r and returns the plaintext.
// Any cryptographic or format failure is reported as ErrAuthenticationFailed.
func Open(r io.Reader, passphrase []byte) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSealedSize+1))
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to read sealed data: %w", err)
	}
	if len(data) > MaxSealedSize || len(data) < headerLength+NonceLength {
		return nil, ErrAuthenticationFailed
	}
	if !bytes.Equal(data[:len(Magic)], Magic[:]) {
		return nil, ErrAuthenticationFailed
	}

	header := data[:headerLength]
	salt := header[len(Magic):]
	nonce := data[headerLength : headerLength+NonceLength]
	ciphertext := data[headerLength+NonceLength:]

	key, err := contentKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer SecureWipe(key)

	plaintext, err := DecryptWithAD(key, ciphertext, nonce, header)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// contentKey stretches the passphrase with Argon2id and expands it with HKDF.
func contentKey(passphrase, salt []byte) ([]byte, error) {
	master := DeriveKey(passphrase, salt)
	defer SecureWipe(master)

	key := make([]byte, KeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(hkdfInfoContent)), key); err != nil {
		return nil, fmt.Errorf("crypto: failed to derive content key: %w", err)
	}
	return key, nil
}
