package cli

import (
	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/log"
	"github.com/keyfold/keyfold/internal/securemem"
	"github.com/keyfold/keyfold/internal/wallet"
)

//nolint:gochecknoglobals // cobra flags bind to package globals
var (
	// createWords is the generated mnemonic length.
	createWords int
	// createPassphrase adds a BIP39 passphrase prompt.
	createPassphrase bool
	// createChains overrides the configured chain list.
	createChains string
)

// walletCreateCmd generates a mnemonic and saves an encrypted wallet.
//
//nolint:gochecknoglobals // cobra commands are package globals
var walletCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new wallet",
	Long: `Create a new wallet with a freshly generated recovery phrase.

The phrase is displayed exactly once; write it down before the
terminal scrolls. The seed is encrypted with the password you choose
and stored under the keyfold home directory. Addresses are derived
for the enabled chains and kept as plain metadata so listing them
later needs no password.`,
	Example: `  # Wallet with the configured default chains
  keyfold wallet create savings

  # 24-word phrase, Bitcoin only, with a BIP39 passphrase
  keyfold wallet create cold --words 24 --chains btc --passphrase`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletCreate,
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	walletCmd.AddCommand(walletCreateCmd)

	walletCreateCmd.Flags().IntVar(&createWords, "words", 12, "mnemonic word count (12, 15, 18, 21, or 24)")
	walletCreateCmd.Flags().BoolVar(&createPassphrase, "passphrase", false, "protect the seed with a BIP39 passphrase")
	walletCreateCmd.Flags().StringVar(&createChains, "chains", "", "comma-separated chains to enable (default from config)")
}

func runWalletCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	storage := walletStore()

	if err := validateNewWalletName(name); err != nil {
		return err
	}
	if err := requireWalletFree(storage, name); err != nil {
		return err
	}

	chains, err := createChainList()
	if err != nil {
		return err
	}

	mnemonic, err := wallet.GenerateMnemonic(createWords)
	if err != nil {
		return err
	}

	passphrase := ""
	if createPassphrase {
		passphrase, err = askPassphraseFn()
		if err != nil {
			return err
		}
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return err
	}
	defer securemem.ZeroBytes(seed)

	wlt, err := buildWallet(name, chains, seed)
	if err != nil {
		return err
	}

	password, err := askNewPasswordFn()
	if err != nil {
		return err
	}
	defer securemem.ZeroBytes(password)

	if err := storage.Save(wlt, seed, password); err != nil {
		return err
	}

	log.Wallet.Info().
		Str("wallet", name).
		Str("fingerprint", wlt.Fingerprint).
		Msg("wallet created")

	return displayCreatedWallet(cmd, wlt, mnemonic)
}

// createChainList resolves the chains for a new wallet from the flag
// or the config file.
func createChainList() ([]chain.ID, error) {
	if createChains != "" {
		return parseChainList(createChains)
	}
	return configuredChains()
}

// buildWallet assembles a wallet with config-driven derivation
// settings and its first address per chain.
func buildWallet(name string, chains []chain.ID, seed []byte) (*wallet.Wallet, error) {
	wlt, err := wallet.NewWallet(name, chains)
	if err != nil {
		return nil, err
	}

	wlt.Derivation.DefaultAccount = cfg.Derivation.DefaultAccount
	if cfg.Derivation.AddressGap > 0 {
		wlt.Derivation.AddressGap = cfg.Derivation.AddressGap
	}

	if err := wlt.DeriveAddresses(seed, 1); err != nil {
		return nil, err
	}
	return wlt, nil
}

func displayCreatedWallet(cmd *cobra.Command, wlt *wallet.Wallet, mnemonic string) error {
	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), struct {
			Name        string            `json:"name"`
			Fingerprint string            `json:"fingerprint"`
			Mnemonic    string            `json:"mnemonic"`
			Addresses   map[string]string `json:"addresses"`
			File        string            `json:"file"`
		}{
			Name:        wlt.Name,
			Fingerprint: wlt.Fingerprint,
			Mnemonic:    mnemonic,
			Addresses:   primaryAddressMap(wlt),
			File:        walletFilePath(wlt.Name),
		})
	}

	w := cmd.OutOrStdout()
	displayMnemonic(w, mnemonic)
	displayWalletAddresses(w, wlt)

	outln(w)
	out(w, "Wallet '%s' created successfully.\n", wlt.Name)
	outln(w, "Wallet file: "+walletFilePath(wlt.Name))
	return nil
}
