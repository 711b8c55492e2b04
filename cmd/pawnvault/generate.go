package main

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/forest6511/pawnvault/pkg/password"

	"github.com/spf13/cobra"
)

const (
	defaultPasswordCount = 1
	maxPasswordCount     = 100
	maxExcludeLength     = 256
)

// Generate command flags
var (
	generateLength      int
	generateCount       int
	generateNoSymbols   bool
	generateNoNumbers   bool
	generateNoUppercase bool
	generateNoLowercase bool
	generateExclude     string
	generateCopy        bool
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().IntVarP(&generateLength, "length", "l", 0, "Password length (8-256, default: the configured range)")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", defaultPasswordCount, "Number of passwords to generate (1-100)")
	generateCmd.Flags().BoolVar(&generateNoSymbols, "no-symbols", false, "Exclude symbols")
	generateCmd.Flags().BoolVar(&generateNoNumbers, "no-numbers", false, "Exclude numbers")
	generateCmd.Flags().BoolVar(&generateNoUppercase, "no-uppercase", false, "Exclude uppercase letters")
	generateCmd.Flags().BoolVar(&generateNoLowercase, "no-lowercase", false, "Exclude lowercase letters")
	generateCmd.Flags().StringVar(&generateExclude, "exclude", "", "Characters to exclude")
	generateCmd.Flags().BoolVarP(&generateCopy, "copy", "c", false, "Copy first password to clipboard (accessible to all processes)")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate secure random passwords",
	Long: `Generate cryptographically secure random passwords, the same way
entries added without a secret get one.

Examples:
  # Generate a password within the configured length range
  pawnvault generate

  # Generate a 32-character password without symbols
  pawnvault generate -l 32 --no-symbols

  # Generate 5 passwords
  pawnvault generate -n 5

  # Generate password excluding ambiguous characters
  pawnvault generate --exclude "0O1lI"`,
	Annotations: map[string]string{skipRecovery: "true"},
	RunE:        executeGenerate,
}

func executeGenerate(cmd *cobra.Command, args []string) error {
	if err := validateGenerateFlags(); err != nil {
		return err
	}

	gen, err := password.NewGenerator(generateOptions(cfg.PasswordOptions()))
	if err != nil {
		return err
	}

	passwords := make([]string, generateCount)
	for i := range passwords {
		if passwords[i], err = gen.Generate(); err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
	}

	for _, p := range passwords {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}

	if generateCopy && len(passwords) > 0 {
		if err := copyToClipboard(passwords[0]); err != nil {
			warnf(cmd.ErrOrStderr(), "failed to copy to clipboard: %v", err)
		} else {
			infof(cmd.ErrOrStderr(), "password copied to clipboard")
		}
	}
	return nil
}

// validateGenerateFlags validates the generate command flags
func validateGenerateFlags() error {
	if generateLength != 0 && generateLength < password.MinLength {
		return fmt.Errorf("password length must be at least %d characters", password.MinLength)
	}
	if generateLength > password.MaxLength {
		return fmt.Errorf("password length must be at most %d characters", password.MaxLength)
	}
	if generateCount < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	if generateCount > maxPasswordCount {
		return fmt.Errorf("count must be at most %d", maxPasswordCount)
	}
	if len(generateExclude) > maxExcludeLength {
		return fmt.Errorf("exclude string must be at most %d characters", maxExcludeLength)
	}
	return nil
}

// generateOptions applies the generate flags on top of base.
func generateOptions(base password.Options) password.Options {
	opts := base
	if generateLength != 0 {
		opts.MinLength = generateLength
		opts.MaxLength = generateLength
	}
	opts.NoSymbols = generateNoSymbols
	opts.NoDigits = generateNoNumbers
	opts.NoUppercase = generateNoUppercase
	opts.NoLowercase = generateNoLowercase
	opts.Exclude = generateExclude
	return opts
}

// generateWithConfig returns one secret using the configured settings.
func generateWithConfig() (string, error) {
	secret, err := password.Generate(cfg.PasswordOptions())
	if err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return secret, nil
}

// copyToClipboard copies text to the system clipboard
func copyToClipboard(text string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "linux":
		// Try xclip first, then xsel
		if _, err := exec.LookPath("xclip"); err == nil {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		} else if _, err := exec.LookPath("xsel"); err == nil {
			cmd = exec.Command("xsel", "--clipboard", "--input")
		} else {
			return fmt.Errorf("clipboard tool not found: install xclip or xsel")
		}
	case "windows":
		cmd = exec.Command("clip")
	default:
		return fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}

	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
