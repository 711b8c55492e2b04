package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(recoverCmd)
}

// recoverCmd repairs the storage root explicitly and reports every change
var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Repair leftovers of interrupted operations",
	Long: `Remove stale temp files and metadata without content, and regenerate
missing metadata. This also runs before every command; recover reports each
file it touches.`,
	Annotations: map[string]string{skipRecovery: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := registry.Recover()
		if err != nil {
			return failed("recover", err)
		}

		out := cmd.OutOrStdout()
		if report.Empty() {
			fmt.Fprintln(out, "Nothing to repair")
			return nil
		}
		printFiles(out, "Removed temp file", report.RemovedTempFiles)
		printFiles(out, "Removed orphan metadata", report.RemovedOrphanMetadata)
		printFiles(out, "Regenerated metadata", report.RegeneratedMetadata)
		return nil
	},
}

func printFiles(w io.Writer, label string, files []string) {
	for _, f := range files {
		fmt.Fprintf(w, "%s: %s\n", label, f)
	}
}
