package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/forest6511/pawnvault/pkg/security"

	"github.com/spf13/cobra"
)

var checkJSON bool

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Output the report as JSON")
}

// checkCmd reports weak and reused secrets in a vault
var checkCmd = &cobra.Command{
	Use:   "check <vault>",
	Short: "Report weak and reused secrets in a vault",
	Long: `Score the entries of a vault (0-100) by secret strength and uniqueness.
Issues refer to entry ids only; secrets are never printed.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeVaultNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := newPrompter(cmd).masterKey()
		if err != nil {
			return err
		}

		entries, err := registry.ListEntries(args[0], key)
		if err != nil {
			return failed("check", err)
		}
		report, err := security.NewAnalyzer().Analyze(entries)
		if err != nil {
			return fmt.Errorf("failed to analyze vault: %w", err)
		}

		if checkJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(cmd.OutOrStdout(), args[0], len(entries), report)
		return nil
	},
}

func printReport(w io.Writer, name string, count int, report *security.Report) {
	fmt.Fprintf(w, "Vault '%s': %d entries, score %d/100\n", name, count, report.Overall)
	fmt.Fprintf(w, "  Strength:   %d/50\n", report.Components.StrengthScore)
	fmt.Fprintf(w, "  Uniqueness: %d/50\n", report.Components.UniquenessScore)

	if len(report.Issues) == 0 {
		fmt.Fprintln(w, "No issues found")
		return
	}
	fmt.Fprintln(w, "Issues:")
	for _, issue := range report.Issues {
		fmt.Fprintf(w, "  [%s] %s (entries %v)\n", issue.Severity, issue.Description, issue.EntryIDs)
	}
	fmt.Fprintln(w, "Suggestions:")
	for _, s := range report.Suggestions {
		fmt.Fprintf(w, "  - %s\n", s)
	}
}
