// Package cli provides shared utilities for CLI commands.
package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/forest6511/pawnvault/pkg/vault"
)

// ErrNoMatch indicates a pattern that selected no vault.
var ErrNoMatch = errors.New("no vault matches")

// hasGlob reports whether pattern contains glob characters (*?[).
func hasGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// Match expands a glob pattern against vault names. A pattern without glob
// characters is normalized like a vault name and must match exactly.
func Match(pattern string, names []string) ([]string, error) {
	if !hasGlob(pattern) {
		name, err := vault.ValidateName(pattern)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			if n == name {
				return []string{name}, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, pattern)
	}

	// Validate pattern syntax
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}

	var matches []string
	for _, n := range names {
		if ok, _ := filepath.Match(pattern, n); ok {
			matches = append(matches, n)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: pattern '%s'", ErrNoMatch, pattern)
	}
	return matches, nil
}

// Expand expands every pattern and returns the unique names in order of
// first match. Any pattern that selects nothing is an error.
func Expand(patterns []string, names []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		matches, err := Match(pattern, names)
		if err != nil {
			return nil, err
		}
		for _, n := range matches {
			if !seen[n] {
				seen[n] = true
				result = append(result, n)
			}
		}
	}
	return result, nil
}

// Filter keeps the vaults whose names match any pattern, preserving order.
// With no patterns every vault is kept. Invalid patterns match nothing.
func Filter(patterns []string, vaults []*vault.Vault) []*vault.Vault {
	if len(patterns) == 0 {
		return vaults
	}
	var kept []*vault.Vault
	for _, v := range vaults {
		for _, pattern := range patterns {
			if ok, _ := filepath.Match(pattern, v.Name); ok {
				kept = append(kept, v)
				break
			}
		}
	}
	return kept
}

// Names returns the names of vaults in order.
func Names(vaults []*vault.Vault) []string {
	names := make([]string, len(vaults))
	for i, v := range vaults {
		names[i] = v.Name
	}
	return names
}
