package main

import (
	"strings"
	"testing"

	"github.com/forest6511/pawnvault/pkg/password"
)

func setGenerateFlags(length, count int, exclude string) {
	generateLength = length
	generateCount = count
	generateExclude = exclude
	generateNoSymbols = false
	generateNoNumbers = false
	generateNoUppercase = false
	generateNoLowercase = false
}

func TestValidateGenerateFlags(t *testing.T) {
	tests := []struct {
		name        string
		length      int
		count       int
		exclude     string
		expectError bool
	}{
		{"configured range", 0, defaultPasswordCount, "", false},
		{"minimum length", password.MinLength, 1, "", false},
		{"maximum length", password.MaxLength, 1, "", false},
		{"length too short", password.MinLength - 1, 1, "", true},
		{"length too long", password.MaxLength + 1, 1, "", true},
		{"count zero", 24, 0, "", true},
		{"count too high", 24, maxPasswordCount + 1, "", true},
		{"maximum count", 24, maxPasswordCount, "", false},
		{"exclude too long", 24, 1, strings.Repeat("a", maxExcludeLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setGenerateFlags(tt.length, tt.count, tt.exclude)
			t.Cleanup(func() { setGenerateFlags(0, defaultPasswordCount, "") })

			err := validateGenerateFlags()
			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGenerateOptions(t *testing.T) {
	t.Cleanup(func() { setGenerateFlags(0, defaultPasswordCount, "") })
	base := password.DefaultOptions()

	setGenerateFlags(0, 1, "")
	opts := generateOptions(base)
	if opts.MinLength != base.MinLength || opts.MaxLength != base.MaxLength {
		t.Errorf("without --length the configured range should be kept, got %d-%d", opts.MinLength, opts.MaxLength)
	}

	setGenerateFlags(32, 1, "0O1lI")
	generateNoSymbols = true
	opts = generateOptions(base)
	if opts.MinLength != 32 || opts.MaxLength != 32 {
		t.Errorf("--length should fix the length, got %d-%d", opts.MinLength, opts.MaxLength)
	}
	if !opts.NoSymbols || opts.NoDigits || opts.Exclude != "0O1lI" {
		t.Errorf("flags not applied: %+v", opts)
	}
	if !opts.Strict {
		t.Error("base options should be preserved")
	}
}

func TestGenerateCommand(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.run("", "generate", "-l", "16", "-n", "3", "--no-symbols")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d passwords, want 3", len(lines))
	}
	for _, line := range lines {
		if len(line) != 16 {
			t.Errorf("password %q has length %d, want 16", line, len(line))
		}
		if strings.ContainsAny(line, password.CharsetSymbols) {
			t.Errorf("password %q contains symbols", line)
		}
	}

	if _, _, err := env.run("", "generate", "-l", "4"); err == nil {
		t.Error("expected error for too short length")
	}
}
