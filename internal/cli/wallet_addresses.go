package cli

import (
	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/hdkey"
	"github.com/keyfold/keyfold/internal/output"
	"github.com/keyfold/keyfold/internal/wallet"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

//nolint:gochecknoglobals // cobra flags bind to package globals
var (
	// addressesChain selects which chain to list.
	addressesChain string
	// addressesCount asks for a specific number of addresses.
	addressesCount int
	// addressesChange lists internal (change) addresses instead.
	addressesChange bool
	// addressesQR renders the first listed address as a QR code.
	addressesQR bool
)

// walletAddressesCmd lists a wallet's derived addresses.
//
//nolint:gochecknoglobals // cobra commands are package globals
var walletAddressesCmd = &cobra.Command{
	Use:   "addresses <name>",
	Short: "List a wallet's addresses",
	Long: `List derived addresses for one chain of a wallet.

Addresses stored in the wallet file are listed without a password.
Asking for more addresses than are on file derives the extra ones on
demand, which needs the password to unlock the seed; the wallet file
itself is not modified.`,
	Example: `  # Stored Ethereum addresses
  keyfold wallet addresses savings --chain eth

  # First 20 Bitcoin change addresses
  keyfold wallet addresses savings --chain btc --count 20 --change

  # First address with a QR code
  keyfold wallet addresses savings --chain eth --count 1 --qr`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletAddresses,
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	walletCmd.AddCommand(walletAddressesCmd)

	walletAddressesCmd.Flags().StringVarP(&addressesChain, "chain", "c", "", "chain: eth, btc, zec, or sol (required)")
	walletAddressesCmd.Flags().IntVarP(&addressesCount, "count", "n", 0, "number of addresses (0 = all stored)")
	walletAddressesCmd.Flags().BoolVar(&addressesChange, "change", false, "list internal (change) addresses")
	walletAddressesCmd.Flags().BoolVar(&addressesQR, "qr", false, "render the first address as a QR code")
	_ = walletAddressesCmd.MarkFlagRequired("chain")
}

func runWalletAddresses(cmd *cobra.Command, args []string) error {
	name := args[0]
	storage := walletStore()

	id, err := chain.ParseID(addressesChain)
	if err != nil {
		return err
	}
	if addressesCount < 0 || addressesCount > wallet.MaxAddressDerivation {
		return kferr.WithSuggestion(kferr.ErrInvalidInput, "--count out of range")
	}

	if err := requireWalletExists(storage, name); err != nil {
		return err
	}
	meta, err := storage.LoadMetadata(name)
	if err != nil {
		return err
	}
	if err := requireChainEnabled(meta, id); err != nil {
		return err
	}

	addrs, err := walletAddressRange(name, meta, id)
	if err != nil {
		return err
	}

	if len(addrs) == 0 {
		outln(cmd.OutOrStdout(), "No addresses on file. Use --count to derive some.")
		return nil
	}

	return displayAddressList(cmd, addrs)
}

// requireChainEnabled rejects chains the wallet was not created for.
func requireChainEnabled(wlt *wallet.Wallet, id chain.ID) error {
	for _, enabled := range wlt.EnabledChains {
		if enabled == id {
			return nil
		}
	}
	err := kferr.WithDetails(kferr.ErrUnsupportedChain,
		map[string]string{"wallet": wlt.Name, "chain": id.String()})
	return kferr.WithSuggestion(err, "this wallet does not enable that chain")
}

// walletAddressRange returns the requested addresses, pulling from
// stored metadata when possible and deriving on demand otherwise.
func walletAddressRange(name string, meta *wallet.Wallet, id chain.ID) ([]wallet.Address, error) {
	stored := meta.StoredAddresses(id, addressesChange)

	count := addressesCount
	if count == 0 {
		return stored, nil
	}
	if count <= len(stored) {
		return stored[:count], nil
	}

	// More than is on file: unlock the seed and derive the full range.
	_, seed, err := loadWalletSeed(name)
	if err != nil {
		return nil, err
	}
	defer seed.Destroy()

	change := hdkey.ExternalChain
	if addressesChange {
		change = hdkey.InternalChain
	}

	return wallet.DeriveAddressRange(seed.Bytes(), id,
		meta.Derivation.DefaultAccount, change, 0, count)
}

// displayAddressList renders addresses as a table, JSON, or QR code.
func displayAddressList(cmd *cobra.Command, addrs []wallet.Address) error {
	w := cmd.OutOrStdout()

	if jsonOutput() {
		return writeJSON(w, addrs)
	}

	table := output.NewTable("INDEX", "PATH", "ADDRESS")
	for _, a := range addrs {
		table.AddRow(formatIndex(a.Index), a.Path, a.Address)
	}
	outln(w, table.String())

	if addressesQR {
		outln(w)
		out(w, "%s:\n", addrs[0].Address)
		return output.RenderQR(w, addrs[0].Address)
	}
	return nil
}
