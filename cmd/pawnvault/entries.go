package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/forest6511/pawnvault/internal/cli"
	"github.com/forest6511/pawnvault/pkg/entry"

	"github.com/spf13/cobra"
)

// Entry command flags
var (
	entriesShow bool

	addNotes string
	addInput bool
	addShow  bool

	updateNotes    string
	updateInput    bool
	updateGenerate bool
)

func init() {
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(removeCmd)

	entriesCmd.Flags().BoolVar(&entriesShow, "show", false, "Show secret values instead of masking them")

	addCmd.Flags().StringVar(&addNotes, "notes", "", "Notes for the entry")
	addCmd.Flags().BoolVar(&addInput, "input", false, "Read the secret from input instead of generating one")
	addCmd.Flags().BoolVar(&addShow, "show", false, "Print the stored secret")

	updateCmd.Flags().StringVar(&updateNotes, "notes", "", "New notes")
	updateCmd.Flags().BoolVar(&updateInput, "input", false, "Read a new secret from input")
	updateCmd.Flags().BoolVar(&updateGenerate, "generate", false, "Replace the secret with a generated one")
	updateCmd.MarkFlagsMutuallyExclusive("input", "generate")
}

// entriesCmd lists the entries of a vault
var entriesCmd = &cobra.Command{
	Use:               "entries <vault>",
	Short:             "List the entries of a vault",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeVaultNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := newPrompter(cmd).masterKey()
		if err != nil {
			return err
		}

		entries, err := registry.ListEntries(args[0], key)
		if err != nil {
			return failed("entries", err)
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No entries")
			return nil
		}
		return printEntries(cmd.OutOrStdout(), entries, entriesShow)
	},
}

func printEntries(w io.Writer, entries []entry.Entry, show bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSECRET\tNOTES")
	for _, e := range entries {
		secret := e.Secret
		if !show {
			secret = cli.Mask(secret)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.ID, secret, e.Notes)
	}
	return tw.Flush()
}

// addCmd adds an entry to a vault
var addCmd = &cobra.Command{
	Use:   "add <vault>",
	Short: "Add an entry to a vault",
	Long: `Add an entry to a vault. Unless --input is given the secret is generated
with the configured generator settings.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeVaultNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)
		key, err := p.masterKey()
		if err != nil {
			return err
		}

		var secret string
		if addInput {
			if secret, err = p.secret("Enter secret"); err != nil {
				return err
			}
			if secret == "" {
				return errors.New("secret cannot be empty with --input")
			}
		}

		entries, err := registry.AddEntry(args[0], key, secret, addNotes)
		if err != nil {
			return failed("add", err)
		}

		added := entries[len(entries)-1]
		fmt.Fprintf(cmd.OutOrStdout(), "Entry %d added to vault '%s'\n", added.ID, args[0])
		if addShow {
			fmt.Fprintln(cmd.OutOrStdout(), added.Secret)
		}
		return nil
	},
}

// updateCmd replaces the secret and/or notes of an entry
var updateCmd = &cobra.Command{
	Use:   "update <vault> <id>",
	Short: "Update an entry",
	Long: `Update the secret and/or notes of an entry. Values not given are kept.

  pawnvault update bank 2 --notes "savings"
  pawnvault update bank 2 --generate
  pawnvault update bank 2 --input`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeVaultNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEntryID(args[1])
		if err != nil {
			return err
		}
		notesChanged := cmd.Flags().Changed("notes")
		if !notesChanged && !updateInput && !updateGenerate {
			return errors.New("nothing to update: use --notes, --input or --generate")
		}

		p := newPrompter(cmd)
		key, err := p.masterKey()
		if err != nil {
			return err
		}

		current, ok, err := registry.GetEntry(args[0], key, id)
		if err != nil {
			return failed("update", err)
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "No entry %d in vault '%s'\n", id, args[0])
			return nil
		}

		secret, notes := current.Secret, current.Notes
		if notesChanged {
			notes = updateNotes
		}
		switch {
		case updateInput:
			if secret, err = p.secret("Enter new secret"); err != nil {
				return err
			}
			if secret == "" {
				return errors.New("secret cannot be empty with --input")
			}
		case updateGenerate:
			if secret, err = generateWithConfig(); err != nil {
				return err
			}
		}

		if _, err := registry.UpdateEntry(args[0], key, id, secret, notes); err != nil {
			return failed("update", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Entry %d of vault '%s' updated\n", id, args[0])
		return nil
	},
}

// removeCmd deletes an entry
var removeCmd = &cobra.Command{
	Use:               "remove <vault> <id>",
	Short:             "Remove an entry from a vault",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeVaultNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEntryID(args[1])
		if err != nil {
			return err
		}
		key, err := newPrompter(cmd).masterKey()
		if err != nil {
			return err
		}

		entries, err := registry.DeleteEntry(args[0], key, id)
		if err != nil {
			return failed("remove", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Entry %d removed from vault '%s' (%d left)\n", id, args[0], len(entries))
		return nil
	},
}

func parseEntryID(s string) (int32, error) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return int32(id), nil
}
