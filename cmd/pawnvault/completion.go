package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate completion script for your shell",
	Long: `To load completions:

Bash:
  $ source <(pawnvault completion bash)

  # To load for each session (Linux):
  $ pawnvault completion bash > ~/.local/share/bash-completion/completions/pawnvault

Zsh:
  # Ensure completion is enabled:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  $ pawnvault completion zsh > ~/.zsh/completions/_pawnvault

Fish:
  $ pawnvault completion fish > ~/.config/fish/completions/pawnvault.fish

PowerShell:
  PS> pawnvault completion powershell >> $PROFILE

Vault names are completed from the storage root; no master key is needed.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Annotations:           map[string]string{skipRecovery: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// completeVaultNames completes the first argument with stored vault names.
// Listing reads only file names and metadata, so it never prompts.
func completeVaultNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 && !acceptsManyVaults(cmd) {
		if cmd.Name() == "import" {
			// The second argument is the export file
			return nil, cobra.ShellCompDirectiveDefault
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if registry == nil {
		if err := setup(cmd.ErrOrStderr()); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
	}

	vaults, err := registry.List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, v := range vaults {
		if strings.HasPrefix(v.Name, toComplete) {
			names = append(names, v.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// acceptsManyVaults reports whether every argument of cmd is a vault name.
func acceptsManyVaults(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "list", "delete":
		return true
	}
	return false
}
