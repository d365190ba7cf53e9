package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/output"
	"github.com/keyfold/keyfold/internal/wallet"
)

// walletListCmd lists stored wallets.
//
//nolint:gochecknoglobals // cobra commands are package globals
var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored wallets",
	Long: `List the wallets stored under the keyfold home directory.

Only plain metadata is read; no password is required.`,
	Example: `  keyfold wallet list
  keyfold wallet list -o json`,
	Args: cobra.NoArgs,
	RunE: runWalletList,
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	walletCmd.AddCommand(walletListCmd)
}

func runWalletList(cmd *cobra.Command, _ []string) error {
	storage := walletStore()

	names, err := storage.List()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(names) == 0 {
		writeEmptyWalletList(w, jsonOutput())
		return nil
	}

	summaries := make([]wallet.Overview, 0, len(names))
	for _, name := range names {
		meta, err := storage.LoadMetadata(name)
		if err != nil {
			return err
		}
		summaries = append(summaries, meta.Overview())
	}

	if jsonOutput() {
		return writeJSON(w, summaries)
	}

	table := output.NewTable("NAME", "FINGERPRINT", "CHAINS", "CREATED")
	for _, s := range summaries {
		table.AddRow(s.Name, s.Fingerprint,
			strings.Join(chainNames(s.EnabledChains), ","),
			s.CreatedAt.Format("2006-01-02"))
	}
	outln(w, table.String())
	return nil
}

// writeEmptyWalletList renders the no-wallets case.
func writeEmptyWalletList(w io.Writer, asJSON bool) {
	if asJSON {
		outln(w, "[]")
		return
	}
	outln(w, "No wallets yet.")
	outln(w, "Create one with 'keyfold wallet create <name>'.")
}

// chainNames converts chain IDs to their display strings.
func chainNames(ids []chain.ID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return names
}
