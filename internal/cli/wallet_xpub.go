package cli

import (
	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/wallet"
)

//nolint:gochecknoglobals // cobra flags bind to package globals
var (
	// xpubChain selects the chain to export for.
	xpubChain string
	// xpubAccount is the BIP44 account index.
	xpubAccount uint32
)

// walletXpubCmd exports an account extended public key.
//
//nolint:gochecknoglobals // cobra commands are package globals
var walletXpubCmd = &cobra.Command{
	Use:   "xpub <name>",
	Short: "Export an account extended public key",
	Long: `Export the extended public key for a BIP44 account.

An xpub derives receiving and change addresses without any private
material, so watch-only tools can track the account. It cannot spend,
but it does reveal every address in the account; share accordingly.

Deriving the account key needs the seed, so the wallet password is
required. Solana uses hardened-only ed25519 derivation and has no
xpub.`,
	Example: `  keyfold wallet xpub savings --chain btc
  keyfold wallet xpub savings --chain eth --account 1`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletXpub,
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	walletCmd.AddCommand(walletXpubCmd)

	walletXpubCmd.Flags().StringVarP(&xpubChain, "chain", "c", "", "chain: eth, btc, or zec (required)")
	walletXpubCmd.Flags().Uint32Var(&xpubAccount, "account", 0, "BIP44 account index")
	_ = walletXpubCmd.MarkFlagRequired("chain")
}

func runWalletXpub(cmd *cobra.Command, args []string) error {
	name := args[0]

	id, err := chain.ParseID(xpubChain)
	if err != nil {
		return err
	}

	meta, seed, err := loadWalletSeed(name)
	if err != nil {
		return err
	}
	defer seed.Destroy()

	if err := requireChainEnabled(meta, id); err != nil {
		return err
	}

	xpub, err := wallet.DeriveAccountXpub(seed.Bytes(), id, xpubAccount)
	if err != nil {
		return err
	}

	path, err := id.AccountPath(xpubAccount)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(w, struct {
			Wallet  string `json:"wallet"`
			Chain   string `json:"chain"`
			Account uint32 `json:"account"`
			Path    string `json:"path"`
			Xpub    string `json:"xpub"`
		}{name, id.String(), xpubAccount, path.String(), xpub})
	}

	out(w, "Account:  %s\n", path)
	out(w, "Xpub:     %s\n", xpub)
	outln(w)
	outln(w, "This key sees every address in the account but cannot spend.")
	return nil
}
