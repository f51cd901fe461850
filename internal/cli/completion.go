package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand prints shell completion scripts, including flag value
// completions registered by addOptionFlags.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Print a shell completion script for textart.

Besides subcommands and flag names, the scripts complete flag values that
textart knows up front: preset names for --palette, output formats for
--format, and the --filter, --luma and --alpha choices.`,
		Example: `  # Current bash session
  source <(textart completion bash)

  # Install for zsh, fish or PowerShell
  textart completion zsh > "${fpath[1]}/_textart"
  textart completion fish > ~/.config/fish/completions/textart.fish
  textart completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}
