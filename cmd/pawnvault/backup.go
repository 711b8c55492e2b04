package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/forest6511/pawnvault/pkg/backup"

	"github.com/spf13/cobra"
)

var (
	backupOutput string
	backupStdout bool
	backupForce  bool
)

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "Output file path")
	backupCmd.Flags().BoolVar(&backupStdout, "stdout", false, "Output to stdout (for piping)")
	backupCmd.Flags().BoolVarP(&backupForce, "force", "f", false, "Overwrite existing file")
}

var backupCmd = &cobra.Command{
	Use:   "backup <vault>",
	Short: "Write a backup file of one vault",
	Long: `Write a single-file backup of one vault.

The backup carries the vault's encrypted content unchanged, so it is protected
by the same master key. No key is needed to create it.

Examples:
  # Backup to a file
  pawnvault backup bank -o bank.pwnvbak

  # Backup to stdout (for piping)
  pawnvault backup bank --stdout | gpg --encrypt > bank.gpg

  # Overwrite existing file
  pawnvault backup bank -o bank.pwnvbak --force`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeVaultNames,
	RunE:              executeBackup,
}

func executeBackup(cmd *cobra.Command, args []string) error {
	if err := validateBackupFlags(); err != nil {
		return err
	}

	if backupStdout {
		if _, err := backup.Export(registry, args[0], cmd.OutOrStdout()); err != nil {
			return failed("backup", err)
		}
		return nil
	}

	output, err := openBackupOutput(backupOutput, backupForce)
	if err != nil {
		return err
	}

	header, err := backup.Export(registry, args[0], output)
	if closeErr := output.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close output file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(backupOutput)
		return failed("backup", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Backup of vault '%s' written to %s\n", header.VaultName, backupOutput)
	return nil
}

func validateBackupFlags() error {
	if !backupStdout && backupOutput == "" {
		return fmt.Errorf("either --output or --stdout is required")
	}
	if backupStdout && backupOutput != "" {
		return fmt.Errorf("--output and --stdout are mutually exclusive")
	}
	return nil
}

// openBackupOutput creates the backup file with owner-only permissions.
// Without force an existing file is never truncated.
func openBackupOutput(path string, force bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("output file already exists: %s (use --force to overwrite)", path)
		}
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// openBackupInput opens a backup file, or stdin for "-".
func openBackupInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	return f, nil
}
