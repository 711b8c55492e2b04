package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/forest6511/pawnvault/internal/cli"
	"github.com/forest6511/pawnvault/pkg/vault"

	"github.com/spf13/cobra"
)

var deleteForce bool

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(passwdCmd)

	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

// createCmd creates a new empty vault
var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new empty vault",
	Long: `Create a new empty vault protected by a master key.

The master key is prompted for twice, or taken from PAWNVAULT_MASTER_KEY.
It must be at least 12 characters and must not begin or end with whitespace.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)
		key, confirmKey, err := p.newMasterKey()
		if err != nil {
			return err
		}

		v, err := registry.Create(args[0], key, confirmKey)
		if err != nil {
			return failed("create", err)
		}

		printKeyAssessment(cmd.ErrOrStderr(), key)
		fmt.Fprintf(cmd.OutOrStdout(), "Vault '%s' created\n", v.Name)
		return nil
	},
}

// listCmd lists vaults, newest first
var listCmd = &cobra.Command{
	Use:               "list [pattern...]",
	Short:             "List vaults, newest first",
	Long:              `List vaults with their creation and last access time. Patterns use glob syntax (e.g. "work-*").`,
	ValidArgsFunction: completeVaultNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		vaults, err := registry.List()
		if err != nil {
			return failed("list", err)
		}
		if len(args) > 0 {
			vaults = cli.Filter(args, vaults)
		}

		if len(vaults) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No vaults found")
			return nil
		}
		return printVaults(cmd.OutOrStdout(), vaults)
	},
}

func printVaults(w io.Writer, vaults []*vault.Vault) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCREATED\tLAST ACCESSED")
	for _, v := range vaults {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Name,
			v.Metadata.CreatedAt.Local().Format(time.DateTime),
			v.Metadata.LastAccessedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// deleteCmd deletes vaults matching the given names or patterns
var deleteCmd = &cobra.Command{
	Use:               "delete <pattern...>",
	Short:             "Delete vaults",
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeVaultNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		vaults, err := registry.List()
		if err != nil {
			return failed("delete", err)
		}
		names, err := cli.Expand(args, cli.Names(vaults))
		if err != nil {
			if vault.KindOf(err) == vault.KindValidation {
				return failed("delete", err)
			}
			return err // unmatched or malformed pattern
		}

		if !deleteForce {
			p := newPrompter(cmd)
			if !p.confirm(fmt.Sprintf("Delete %d vault(s): %v?", len(names), names)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
		}

		for _, name := range names {
			if err := registry.Delete(name); err != nil {
				return failed("delete", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Vault '%s' deleted\n", name)
		}
		return nil
	},
}

// renameCmd renames a vault
var renameCmd = &cobra.Command{
	Use:               "rename <name> <new-name>",
	Short:             "Rename a vault",
	Long:              `Rename a vault. Creation and last access time are kept; no master key is needed.`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeVaultNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := registry.Rename(args[0], args[1])
		if err != nil {
			return failed("rename", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Vault '%s' renamed to '%s'\n", args[0], v.Name)
		return nil
	},
}

// passwdCmd changes the master key of a vault
var passwdCmd = &cobra.Command{
	Use:   "passwd <name>",
	Short: "Change the master key of a vault",
	Long: `Change the master key of a vault.

The current key is taken from PAWNVAULT_MASTER_KEY or prompted for; the new
key is always prompted for twice. The vault is re-encrypted in one atomic
replace: either the new key works or the old one still does.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeVaultNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)
		oldKey, err := p.masterKey()
		if err != nil {
			return err
		}
		newKey, confirmKey, err := p.newKeyPair("Enter new master key", "Confirm new master key")
		if err != nil {
			return err
		}

		if err := registry.UpdateMasterKey(args[0], oldKey, newKey, confirmKey); err != nil {
			return failed("passwd", err)
		}

		printKeyAssessment(cmd.ErrOrStderr(), newKey)
		fmt.Fprintf(cmd.OutOrStdout(), "Master key of vault '%s' changed\n", args[0])
		return nil
	},
}

// printKeyAssessment shows advisory strength output for an accepted key.
func printKeyAssessment(w io.Writer, key string) {
	assessment := vault.AssessMasterKey(key)
	infof(w, "master key strength: %s", assessment.Strength)
	for _, warning := range assessment.Warnings {
		warnf(w, "%s", warning)
	}
}
