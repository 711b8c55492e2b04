// Package security analyzes the entries of an opened vault for weak and
// reused secrets.
package security

import "unicode/utf8"

// PasswordStrength represents the strength level of a secret.
type PasswordStrength int

const (
	// PasswordWeak indicates an insecure secret (less than 8 characters).
	PasswordWeak PasswordStrength = iota
	// PasswordFair indicates a minimally acceptable secret.
	PasswordFair
	// PasswordGood indicates a good secret.
	PasswordGood
	// PasswordStrong indicates a strong secret.
	PasswordStrong
)

// String returns a human-readable representation of the password strength.
func (s PasswordStrength) String() string {
	switch s {
	case PasswordWeak:
		return "Weak"
	case PasswordFair:
		return "Fair"
	case PasswordGood:
		return "Good"
	case PasswordStrong:
		return "Strong"
	default:
		return "Unknown"
	}
}

// Points returns the score points for this strength level.
// Used in the strength component: Weak=0, Fair=16, Good=34, Strong=50.
func (s PasswordStrength) Points() int {
	switch s {
	case PasswordWeak:
		return 0
	case PasswordFair:
		return 16
	case PasswordGood:
		return 34
	case PasswordStrong:
		return 50
	default:
		return 0
	}
}

// SecretStrength rates a secret by length, following NIST SP 800-63B:
// length is the primary factor and composition rules are not applied.
func SecretStrength(value string) PasswordStrength {
	length := utf8.RuneCountInString(value)

	switch {
	case length >= 20:
		return PasswordStrong
	case length >= 14:
		return PasswordGood
	case length >= 8:
		return PasswordFair
	default:
		return PasswordWeak
	}
}
