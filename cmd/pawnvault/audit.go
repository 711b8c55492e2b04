package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/forest6511/pawnvault/pkg/audit"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// Audit flags
var (
	auditLimit int
	auditSince string
	auditJSON  bool
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditVerifyCmd)

	auditListCmd.Flags().IntVarP(&auditLimit, "limit", "n", 50, "Show at most this many recent events (0 for all)")
	auditListCmd.Flags().StringVar(&auditSince, "since", "", "Only show events newer than this duration (e.g. 24h)")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "Output events as JSON")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the MCP audit log",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent MCP audit events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var since time.Time
		if auditSince != "" {
			d, err := time.ParseDuration(auditSince)
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid --since value '%s': use a positive duration like 24h", auditSince)
			}
			since = time.Now().Add(-d)
		}

		events, err := auditLogger().ListEvents(auditLimit, since)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if auditJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(events)
		}
		if len(events) == 0 {
			fmt.Fprintln(out, "No audit events")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SEQ\tWHEN\tOPERATION\tVAULT\tRESULT\tDETAIL")
		for _, e := range events {
			when := e.Timestamp
			if ts, err := e.Time(); err == nil {
				when = humanize.Time(ts)
			}
			vaultName := e.Vault
			if vaultName == "" {
				vaultName = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", e.Chain.Sequence, when, e.Operation, vaultName, e.Result, e.Detail)
		}
		return w.Flush()
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the MCP audit log",
	Long: `Verify the HMAC chain of the MCP audit log. The master key must be the one
the MCP server ran with.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := newPrompter(cmd).masterKey()
		if err != nil {
			return err
		}

		log := auditLogger()
		if err := log.SetHMACKey([]byte(key)); err != nil {
			return err
		}
		result, err := log.Verify()
		if err != nil {
			return err
		}

		if !result.Valid {
			for _, e := range result.Errors {
				warnf(cmd.ErrOrStderr(), "%s", e)
			}
			return fmt.Errorf("audit log verification failed: %d problem(s) in %d records", len(result.Errors), result.RecordsTotal)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Audit log OK: %d records verified\n", result.RecordsTotal)
		return nil
	},
}

func auditLogger() *audit.Logger {
	return audit.NewLogger(filepath.Join(registry.Root(), audit.DirName))
}
