package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

// TestDeriveKey tests the Argon2id key derivation function
func TestDeriveKey(t *testing.T) {
	password := []byte("test-password-123")
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		t.Fatalf("failed to generate salt: %v", err)
	}

	key := DeriveKey(password, salt)
	if len(key) != KeyLength {
		t.Errorf("DeriveKey() returned key of length %d, want %d", len(key), KeyLength)
	}
	if !bytes.Equal(key, DeriveKey(password, salt)) {
		t.Error("DeriveKey() with same inputs should produce identical keys")
	}
	if bytes.Equal(key, DeriveKey([]byte("different-password"), salt)) {
		t.Error("DeriveKey() with different password should produce different key")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := randomKey(t)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("a")},
		{"text", []byte("checking account")},
		{"binary", []byte{0x00, 0xff, 0x10, 0x80}},
		{"large", bytes.Repeat([]byte("x"), 1<<16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, nonce, err := EncryptWithAD(key, tt.plaintext, nil)
			if err != nil {
				t.Fatalf("EncryptWithAD() error = %v", err)
			}
			if len(nonce) != NonceLength {
				t.Errorf("nonce length = %d, want %d", len(nonce), NonceLength)
			}
			got, err := DecryptWithAD(key, ciphertext, nonce, nil)
			if err != nil {
				t.Fatalf("DecryptWithAD() error = %v", err)
			}
			if !bytes.Equal(got, tt.plaintext) {
				t.Errorf("DecryptWithAD() = %q, want %q", got, tt.plaintext)
			}
		})
	}
}

func TestEncryptInvalidKeyLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		if _, _, err := EncryptWithAD(make([]byte, n), []byte("data"), nil); err != ErrInvalidKeyLength {
			t.Errorf("EncryptWithAD() with %d-byte key error = %v, want ErrInvalidKeyLength", n, err)
		}
	}
}

func TestDecryptErrors(t *testing.T) {
	key := randomKey(t)
	ciphertext, nonce, err := EncryptWithAD(key, []byte("secret"), nil)
	if err != nil {
		t.Fatalf("EncryptWithAD() error = %v", err)
	}

	tampered := append([]byte(nil), ciphertext...)
	tampered[0] ^= 0x01

	tests := []struct {
		name       string
		key        []byte
		ciphertext []byte
		nonce      []byte
		want       error
	}{
		{"wrong key", randomKey(t), ciphertext, nonce, ErrDecryptionFailed},
		{"tampered", key, tampered, nonce, ErrDecryptionFailed},
		{"short nonce", key, ciphertext, nonce[:8], ErrInvalidNonceLength},
		{"short key", key[:16], ciphertext, nonce, ErrInvalidKeyLength},
		{"short ciphertext", key, []byte("short"), nonce, ErrCiphertextTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecryptWithAD(tt.key, tt.ciphertext, tt.nonce, nil); err != tt.want {
				t.Errorf("DecryptWithAD() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecryptWithADMismatch(t *testing.T) {
	key := randomKey(t)
	ciphertext, nonce, err := EncryptWithAD(key, []byte("secret"), []byte("header-a"))
	if err != nil {
		t.Fatalf("EncryptWithAD() error = %v", err)
	}
	if _, err := DecryptWithAD(key, ciphertext, nonce, []byte("header-b")); err != ErrDecryptionFailed {
		t.Errorf("DecryptWithAD() error = %v, want ErrDecryptionFailed", err)
	}
}

func TestSecureWipe(t *testing.T) {
	data := []byte("sensitive data here")
	SecureWipe(data)
	for i, b := range data {
		if b != 0 {
			t.Fatalf("SecureWipe() byte %d = %d, want 0", i, b)
		}
	}
	SecureWipe(nil)
}

func TestConstants(t *testing.T) {
	if Argon2Memory != 64*1024 || Argon2Time != 3 || Argon2Threads != 4 {
		t.Errorf("unexpected Argon2id parameters: m=%d t=%d p=%d", Argon2Memory, Argon2Time, Argon2Threads)
	}
	if KeyLength != 32 || NonceLength != 12 || SaltLength != 16 {
		t.Errorf("unexpected lengths: key=%d nonce=%d salt=%d", KeyLength, NonceLength, SaltLength)
	}
	if !errors.Is(ErrAuthenticationFailed, ErrAuthenticationFailed) {
		t.Error("ErrAuthenticationFailed must match itself")
	}
}
