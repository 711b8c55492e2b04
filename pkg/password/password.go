// Package password generates random secrets for new vault entries.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Character set constants
const (
	CharsetLowercase = "abcdefghijklmnopqrstuvwxyz"
	CharsetUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	CharsetDigits    = "0123456789"
	CharsetSymbols   = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

// Length limits
const (
	MinLength = 8
	MaxLength = 256

	DefaultMinLength = 12
	DefaultMaxLength = 20
)

var (
	ErrInvalidLength = errors.New("password: invalid length")
	ErrEmptyCharset  = errors.New("password: character set is empty")
)

// Options controls what Generate produces. The zero value yields nothing;
// use DefaultOptions as a starting point.
type Options struct {
	MinLength int // inclusive
	MaxLength int // inclusive; equal to MinLength for a fixed length

	NoLowercase bool
	NoUppercase bool
	NoDigits    bool
	NoSymbols   bool
	Exclude     string // characters removed from every class

	// Strict requires at least one character from every enabled class.
	Strict bool
}

// DefaultOptions returns 12 to 20 character passwords drawn from all classes.
func DefaultOptions() Options {
	return Options{
		MinLength: DefaultMinLength,
		MaxLength: DefaultMaxLength,
		Strict:    true,
	}
}

// Generator produces secrets with fixed options.
type Generator struct {
	opts Options
}

// NewGenerator returns a Generator after validating opts.
func NewGenerator(opts Options) (*Generator, error) {
	if _, err := opts.classes(); err != nil {
		return nil, err
	}
	if err := opts.validateLength(); err != nil {
		return nil, err
	}
	return &Generator{opts: opts}, nil
}

// Generate returns a new secret.
func (g *Generator) Generate() (string, error) {
	return Generate(g.opts)
}

// Generate returns a random password built according to opts.
func Generate(opts Options) (string, error) {
	if err := opts.validateLength(); err != nil {
		return "", err
	}
	classes, err := opts.classes()
	if err != nil {
		return "", err
	}

	length := opts.MinLength
	if span := opts.MaxLength - opts.MinLength; span > 0 {
		n, err := randomInt(span + 1)
		if err != nil {
			return "", err
		}
		length += n
	}

	charset := strings.Join(classes, "")
	out := make([]byte, length)

	// Seed one character per class, then fill and shuffle.
	pos := 0
	if opts.Strict {
		for _, class := range classes {
			c, err := pick(class)
			if err != nil {
				return "", err
			}
			out[pos] = c
			pos++
		}
	}
	for ; pos < length; pos++ {
		c, err := pick(charset)
		if err != nil {
			return "", err
		}
		out[pos] = c
	}
	if opts.Strict {
		if err := shuffle(out); err != nil {
			return "", err
		}
	}

	return string(out), nil
}

func (o Options) validateLength() error {
	if o.MinLength < MinLength || o.MaxLength > MaxLength || o.MinLength > o.MaxLength {
		return fmt.Errorf("%w: %d-%d (allowed %d-%d)", ErrInvalidLength, o.MinLength, o.MaxLength, MinLength, MaxLength)
	}
	return nil
}

// classes returns the enabled character classes with exclusions applied.
func (o Options) classes() ([]string, error) {
	var classes []string
	add := func(disabled bool, set string) {
		if disabled {
			return
		}
		if set = removeChars(set, o.Exclude); set != "" {
			classes = append(classes, set)
		}
	}
	add(o.NoLowercase, CharsetLowercase)
	add(o.NoUppercase, CharsetUppercase)
	add(o.NoDigits, CharsetDigits)
	add(o.NoSymbols, CharsetSymbols)

	if len(classes) == 0 {
		return nil, ErrEmptyCharset
	}
	if o.Strict && len(classes) > o.MinLength {
		return nil, fmt.Errorf("%w: %d classes do not fit in %d characters", ErrInvalidLength, len(classes), o.MinLength)
	}
	return classes, nil
}

// removeChars removes specified characters from a string
func removeChars(s, chars string) string {
	if chars == "" {
		return s
	}
	var result strings.Builder
	for _, c := range s {
		if !strings.ContainsRune(chars, c) {
			result.WriteRune(c)
		}
	}
	return result.String()
}

func pick(charset string) (byte, error) {
	idx, err := randomInt(len(charset))
	if err != nil {
		return 0, err
	}
	return charset[idx], nil
}

// shuffle is a Fisher-Yates shuffle driven by crypto/rand.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return err
		}
		b[i], b[j] = b[j], b[i]
	}
	return nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("password: failed to generate random number: %w", err)
	}
	return int(v.Int64()), nil
}
