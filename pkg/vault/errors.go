package vault

import (
	"errors"

	"github.com/forest6511/pawnvault/pkg/crypto"
)

// Validation errors are returned before any file is touched.
var (
	// ErrEmptyName indicates a vault name that is empty after trimming.
	ErrEmptyName = errors.New("vault: vault name cannot be empty")

	// ErrInvalidName indicates a vault name that cannot be used as a file base name.
	ErrInvalidName = errors.New("vault: invalid vault name")

	// ErrMasterKeyTooShort indicates a master key below MinMasterKeyLength characters.
	ErrMasterKeyTooShort = errors.New("vault: master key must be at least 12 characters long")

	// ErrMasterKeyHasBoundaryWhitespace indicates leading or trailing whitespace in a master key.
	ErrMasterKeyHasBoundaryWhitespace = errors.New("vault: master key must not begin or end with whitespace")

	// ErrConfirmKeyMismatch indicates the confirmation does not match the master key.
	ErrConfirmKeyMismatch = errors.New("vault: confirm master key does not match")

	// ErrNewKeySameAsOld indicates a key rotation to the current key.
	ErrNewKeySameAsOld = errors.New("vault: new master key is the same as the current master key")
)

// Existence errors are checked before any mutation.
var (
	// ErrVaultAlreadyExists indicates the content file for the name already exists.
	ErrVaultAlreadyExists = errors.New("vault: vault already exists")

	// ErrVaultNotFound indicates there is no content file for the name.
	ErrVaultNotFound = errors.New("vault: vault not found")

	// ErrRenameTargetExists indicates a content or metadata file already uses the new name.
	ErrRenameTargetExists = errors.New("vault: cannot rename, target vault already exists")
)

// ErrAuthenticationFailed covers both a wrong master key and damaged content.
// The two are deliberately indistinguishable.
var ErrAuthenticationFailed = crypto.ErrAuthenticationFailed

// Storage errors.
var (
	// ErrInsufficientDisk indicates a write was refused for lack of free space.
	ErrInsufficientDisk = errors.New("vault: insufficient disk space")

	// ErrVaultTooLarge indicates content that would exceed crypto.MaxSealedSize.
	// The write is refused and the stored vault is left unchanged.
	ErrVaultTooLarge = crypto.ErrTooLarge

	// ErrMetadataUnreadable indicates a metadata file that could not be parsed.
	// It is recovered by regenerating the metadata and never returned by Registry operations.
	ErrMetadataUnreadable = errors.New("vault: metadata file is unreadable")
)

// Kind classifies errors returned by this package.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindExistence
	KindCrypto
	KindIO
	KindMetadata
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindExistence:
		return "existence"
	case KindCrypto:
		return "crypto"
	case KindIO:
		return "io"
	case KindMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrEmptyName, KindValidation},
	{ErrInvalidName, KindValidation},
	{ErrMasterKeyTooShort, KindValidation},
	{ErrMasterKeyHasBoundaryWhitespace, KindValidation},
	{ErrConfirmKeyMismatch, KindValidation},
	{ErrNewKeySameAsOld, KindValidation},
	{ErrVaultAlreadyExists, KindExistence},
	{ErrVaultNotFound, KindExistence},
	{ErrRenameTargetExists, KindExistence},
	{ErrAuthenticationFailed, KindCrypto},
	{ErrMetadataUnreadable, KindMetadata},
}

// KindOf returns the class of err. Errors outside the closed set, including
// ErrInsufficientDisk, ErrVaultTooLarge and filesystem errors, are KindIO.
// A nil error is KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindIO
}
