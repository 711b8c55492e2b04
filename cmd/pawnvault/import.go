package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forest6511/pawnvault/pkg/importer"

	"github.com/spf13/cobra"
)

// Import flags
var (
	importFrom   string
	importTag    string
	importDryRun bool
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFrom, "from", "", "Import source: "+strings.Join(importer.ValidSources(), ", "))
	importCmd.Flags().StringVar(&importTag, "tag", "", "Add tag to all imported entries")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show what would be imported without making changes")
	_ = importCmd.MarkFlagRequired("from")
}

var importCmd = &cobra.Command{
	Use:   "import <vault> <file>",
	Short: "Import logins from another password manager",
	Long: `Import logins from a password manager export into an existing vault.

Each login becomes one entry. Its password is the entry secret; title,
username, URL, tags and notes become the entry notes. Items without a
password (secure notes, cards, identities) are skipped, and TOTP seeds
and hidden fields are not imported.

Examples:
  pawnvault import personal export.json --from bitwarden
  pawnvault import work lastpass.csv --from lastpass --tag lastpass
  pawnvault import personal 1password.csv --from 1password --dry-run`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeVaultNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, file := args[0], args[1]

		parser, err := importer.GetParser(importer.Source(strings.ToLower(importFrom)))
		if err != nil {
			return fmt.Errorf("invalid --from value '%s': must be one of %v", importFrom, importer.ValidSources())
		}

		data, err := readImportFile(file)
		if err != nil {
			return err
		}
		result, err := parser.Parse(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s file: %w", parser.Source(), err)
		}

		stderr := cmd.ErrOrStderr()
		for _, w := range result.Warnings {
			warnf(stderr, "%s", w)
		}
		for _, s := range result.Skipped {
			warnf(stderr, "skipped %q: %s", s.OriginalName, s.Reason)
		}

		if len(result.Items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No logins found in file")
			return nil
		}
		if importTag != "" {
			for _, it := range result.Items {
				it.Tags = append(it.Tags, importTag)
			}
		}

		if importDryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "Would import %d entries into vault '%s':\n", len(result.Items), name)
			for _, it := range result.Items {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", it.Title)
			}
			return nil
		}

		key, err := newPrompter(cmd).masterKey()
		if err != nil {
			return err
		}
		entries, err := registry.AddEntries(name, key, result.Entries())
		if err != nil {
			return failed("import", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries into vault '%s' (%d total)\n", len(result.Items), name, len(entries))
		return nil
	},
}

// readImportFile reads an export file, refusing symlinks.
func readImportFile(path string) ([]byte, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to access file: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("refusing to read symlink: %s", absPath)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
