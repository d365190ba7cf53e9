package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/log"
	"github.com/keyfold/keyfold/internal/output"
)

//nolint:gochecknoglobals // cobra flags bind to package globals
var deleteForce bool

// walletDeleteCmd removes a wallet file.
//
//nolint:gochecknoglobals // cobra commands are package globals
var walletDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a wallet",
	Long: `Delete a wallet file from the keyfold home directory.

The encrypted seed is deleted with it. Unless you have the recovery
phrase written down, the keys are gone for good.`,
	Example: `  keyfold wallet delete old-wallet
  keyfold wallet delete old-wallet --force`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletDelete,
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	walletCmd.AddCommand(walletDeleteCmd)

	walletDeleteCmd.Flags().BoolVar(&deleteForce, "force", false, "delete without confirmation")
}

func runWalletDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	storage := walletStore()

	if err := requireWalletExists(storage, name); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if !deleteForce {
		out(w, "This permanently deletes wallet '%s' and its encrypted seed.\n", name)
		outln(w, "Without the recovery phrase, the keys cannot be recovered.")
		if !askYesNoFn("Delete this wallet?") {
			outln(w, "Deletion canceled.")
			return nil
		}
	}

	if err := storage.Delete(name); err != nil {
		return err
	}

	log.Wallet.Info().Str("wallet", name).Msg("wallet deleted")

	return output.FormatSuccess(w, fmt.Sprintf("Wallet '%s' deleted.", name), formatter.Format())
}
