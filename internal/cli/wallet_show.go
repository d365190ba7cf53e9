package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/output"
	"github.com/keyfold/keyfold/internal/wallet"
)

// walletShowCmd shows one wallet's metadata.
//
//nolint:gochecknoglobals // cobra commands are package globals
var walletShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one wallet in detail",
	Long: `Show a wallet's metadata: fingerprint, enabled chains, derivation
settings, and derived addresses.

Only plain metadata is read; no password is required and no key
material is displayed.`,
	Example: `  keyfold wallet show savings
  keyfold wallet show savings -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletShow,
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	walletCmd.AddCommand(walletShowCmd)
}

func runWalletShow(cmd *cobra.Command, args []string) error {
	name := args[0]
	storage := walletStore()

	if err := requireWalletExists(storage, name); err != nil {
		return err
	}

	meta, err := storage.LoadMetadata(name)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), meta)
	}

	displayWalletDetails(meta, cmd)
	return nil
}

// displayWalletDetails renders full wallet metadata as text.
func displayWalletDetails(wlt *wallet.Wallet, cmd *cobra.Command) {
	w := cmd.OutOrStdout()

	out(w, "Name:         %s\n", wlt.Name)
	out(w, "Created:      %s\n", wlt.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	out(w, "Fingerprint:  %s\n", wlt.Fingerprint)
	out(w, "Chains:       %s\n", strings.Join(chainNames(wlt.EnabledChains), ", "))
	out(w, "Account:      %d\n", wlt.Derivation.DefaultAccount)

	for _, id := range wlt.EnabledChains {
		addrs := wlt.Addresses[id]
		if len(addrs) == 0 {
			continue
		}
		outln(w)
		out(w, "%s addresses:\n", strings.ToUpper(id.String()))
		table := output.NewTable("INDEX", "PATH", "ADDRESS")
		for _, a := range addrs {
			table.AddRow(formatIndex(a.Index), a.Path, a.Address)
		}
		outln(w, table.String())
	}

	if changeCount := totalChangeAddresses(wlt); changeCount > 0 {
		outln(w)
		out(w, "Change addresses derived: %d (see 'keyfold wallet addresses --change')\n", changeCount)
	}
}

// totalChangeAddresses counts derived change addresses across chains.
func totalChangeAddresses(wlt *wallet.Wallet) int {
	n := 0
	for _, addrs := range wlt.ChangeAddresses {
		n += len(addrs)
	}
	return n
}
