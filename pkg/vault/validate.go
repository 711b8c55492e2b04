package vault

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Validation limits
const (
	MinMasterKeyLength = 12  // characters, not bytes
	MaxNameLength      = 200 // bytes, leaves room for extensions and temp suffixes
)

// ValidateName trims and NFC-normalizes a vault name and checks that it is
// usable as a file base name. It returns the canonical name.
func ValidateName(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidName)
	}
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, MaxNameLength)
	}
	if name[0] == '.' {
		return "", fmt.Errorf("%w: cannot start with '.'", ErrInvalidName)
	}
	for _, r := range name {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return "", fmt.Errorf("%w: %q is not allowed", ErrInvalidName, r)
		}
	}
	return name, nil
}

// ValidateMasterKey checks a new master key against its confirmation and the
// strength rule: equal to confirm, no leading or trailing whitespace, and at
// least MinMasterKeyLength characters.
func ValidateMasterKey(masterKey, confirmMasterKey string) error {
	if masterKey != confirmMasterKey {
		return ErrConfirmKeyMismatch
	}
	if strings.TrimSpace(masterKey) != masterKey {
		return ErrMasterKeyHasBoundaryWhitespace
	}
	if utf8.RuneCountInString(masterKey) < MinMasterKeyLength {
		return ErrMasterKeyTooShort
	}
	return nil
}

// ValidateNewMasterKey checks a key rotation before any file is read.
func ValidateNewMasterKey(oldKey, newKey, confirmNewKey string) error {
	if oldKey == newKey {
		return ErrNewKeySameAsOld
	}
	return ValidateMasterKey(newKey, confirmNewKey)
}

// KeyStrength represents the estimated strength of a master key
type KeyStrength int

const (
	KeyWeak KeyStrength = iota
	KeyFair
	KeyGood
	KeyStrong
)

// String returns a human-readable representation of key strength
func (s KeyStrength) String() string {
	switch s {
	case KeyWeak:
		return "weak"
	case KeyFair:
		return "fair"
	case KeyGood:
		return "good"
	case KeyStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// KeyAssessment is advisory output for adapters; it never blocks an operation.
type KeyAssessment struct {
	Strength KeyStrength
	Warnings []string
}

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[^A-Za-z0-9\s]`)
)

// AssessMasterKey estimates the strength of a master key from its length and
// character variety.
func AssessMasterKey(masterKey string) *KeyAssessment {
	result := &KeyAssessment{}
	length := utf8.RuneCountInString(masterKey)

	complexity := 0
	for _, re := range []*regexp.Regexp{upperRe, lowerRe, digitRe, specialRe} {
		if re.MatchString(masterKey) {
			complexity++
		}
	}

	if complexity < 2 {
		result.Warnings = append(result.Warnings,
			"Consider using a mix of uppercase, lowercase, numbers, and symbols")
	}
	if length < 16 {
		result.Warnings = append(result.Warnings,
			"Longer master keys (16+ characters) are more secure")
	}

	switch {
	case length < MinMasterKeyLength:
		result.Strength = KeyWeak
	case complexity >= 3 && length >= 16:
		result.Strength = KeyStrong
	case complexity >= 2 && length >= 14:
		result.Strength = KeyGood
	case complexity >= 2 || length >= 16:
		result.Strength = KeyFair
	default:
		result.Strength = KeyWeak
	}

	return result
}
