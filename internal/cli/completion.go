package cli

import (
	"github.com/spf13/cobra"
)

// completionCmd prints a completion script for the named shell.
//
//nolint:gochecknoglobals // cobra commands are package globals
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Print a completion script for your shell",
	Long: `Print a keyfold completion script for the named shell to stdout.

To try it out in the current shell:

  bash:        source <(keyfold completion bash)
  zsh:         source <(keyfold completion zsh)
  fish:        keyfold completion fish | source
  powershell:  keyfold completion powershell | Out-String | Invoke-Expression

To install it permanently:

  bash:        keyfold completion bash > /etc/bash_completion.d/keyfold
  zsh:         keyfold completion zsh > "${fpath[1]}/_keyfold"
  fish:        keyfold completion fish > ~/.config/fish/completions/keyfold.fish
  powershell:  append the script to your PowerShell profile

Zsh needs compinit loaded before the script runs; add
"autoload -U compinit; compinit" to ~/.zshrc once if it is not.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		root := cmd.Root()
		switch args[0] {
		case "zsh":
			return root.GenZshCompletion(w)
		case "fish":
			return root.GenFishCompletion(w, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(w)
		default:
			return root.GenBashCompletion(w)
		}
	},
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	rootCmd.AddCommand(completionCmd)
}
