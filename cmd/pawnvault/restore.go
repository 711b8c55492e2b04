package main

import (
	"fmt"
	"io"
	"time"

	"github.com/forest6511/pawnvault/pkg/backup"

	"github.com/spf13/cobra"
)

var (
	restoreName       string
	restoreDryRun     bool
	restoreVerifyOnly bool
)

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVar(&restoreName, "name", "", "Restore under this name instead of the recorded one")
	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "Show what would be restored without making changes")
	restoreCmd.Flags().BoolVar(&restoreVerifyOnly, "verify-only", false, "Only verify backup integrity")
	restoreCmd.MarkFlagsMutuallyExclusive("dry-run", "verify-only")
}

var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore a vault from a backup file",
	Long: `Restore a vault from a backup file ("-" reads standard input).

An existing vault is never replaced; use --name to restore next to it.
The master key is checked against the backup before anything is written.

Examples:
  # Verify backup integrity without restoring
  pawnvault restore bank.pwnvbak --verify-only

  # Preview
  pawnvault restore bank.pwnvbak --dry-run

  # Restore as a new vault
  pawnvault restore bank.pwnvbak --name bank-restored`,
	Args: cobra.ExactArgs(1),
	RunE: executeRestore,
}

func executeRestore(cmd *cobra.Command, args []string) error {
	input, err := openBackupInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer input.Close()

	out := cmd.OutOrStdout()

	if restoreVerifyOnly {
		result := backup.Verify(input)
		if !result.Valid {
			return fmt.Errorf("backup verification failed: %s", result.Error)
		}
		fmt.Fprintln(out, "Backup verified")
		printBackupHeader(out, result.Header)
		return nil
	}

	if restoreDryRun {
		header, _, err := backup.Read(input)
		if err != nil {
			return failed("restore", err)
		}
		name := restoreName
		if name == "" {
			name = header.VaultName
		}
		printBackupHeader(out, header)
		fmt.Fprintf(out, "Would restore as vault '%s'\n", name)
		return nil
	}

	key, err := newPrompter(cmd).masterKey()
	if err != nil {
		return err
	}

	v, err := backup.Restore(registry, input, restoreName, key)
	if err != nil {
		return failed("restore", err)
	}
	fmt.Fprintf(out, "Vault '%s' restored\n", v.Name)
	return nil
}

func printBackupHeader(w io.Writer, h *backup.Header) {
	fmt.Fprintf(w, "  Vault:      %s\n", h.VaultName)
	fmt.Fprintf(w, "  Created:    %s\n", h.VaultCreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "  Backed up:  %s\n", h.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "  Version:    %d\n", h.Version)
}
