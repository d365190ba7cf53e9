package cli

import (
	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/log"
	"github.com/keyfold/keyfold/internal/securemem"
	"github.com/keyfold/keyfold/internal/wallet"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

//nolint:gochecknoglobals // cobra flags bind to package globals
var (
	// restoreInput supplies the seed material on the command line.
	restoreInput string
	// restorePassphrase adds a BIP39 passphrase prompt.
	restorePassphrase bool
	// restoreChains overrides the configured chain list.
	restoreChains string
)

// walletRestoreCmd rebuilds a wallet from existing seed material.
//
//nolint:gochecknoglobals // cobra commands are package globals
var walletRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Restore a wallet from a recovery phrase or seed",
	Long: `Restore a wallet from a BIP39 recovery phrase or a hex-encoded
seed.

The input format is detected automatically. Derived addresses are
shown for verification before anything is written, so a mistyped
phrase is caught by comparing addresses rather than discovered later.

Without --input the seed material is read from a hidden prompt, which
keeps it out of shell history.`,
	Example: `  # Interactive restore
  keyfold wallet restore savings

  # Restore with a passphrase-protected phrase
  keyfold wallet restore savings --passphrase

  # Restore from a hex seed, Bitcoin only
  keyfold wallet restore cold --input 000102...0f --chains btc`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletRestore,
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	walletCmd.AddCommand(walletRestoreCmd)

	walletRestoreCmd.Flags().StringVar(&restoreInput, "input", "", "recovery phrase or seed hex (omit for hidden prompt)")
	walletRestoreCmd.Flags().BoolVar(&restorePassphrase, "passphrase", false, "the phrase is protected by a BIP39 passphrase")
	walletRestoreCmd.Flags().StringVar(&restoreChains, "chains", "", "comma-separated chains to enable (default from config)")
}

func runWalletRestore(cmd *cobra.Command, args []string) error {
	name := args[0]
	storage := walletStore()

	if err := validateNewWalletName(name); err != nil {
		return err
	}
	if err := requireWalletFree(storage, name); err != nil {
		return err
	}

	seed, err := seedForRestore(cmd)
	if err != nil {
		return err
	}
	defer securemem.ZeroBytes(seed)

	chains, err := restoreChainList()
	if err != nil {
		return err
	}

	wlt, err := wallet.NewWallet(name, chains)
	if err != nil {
		return err
	}
	wlt.Derivation.DefaultAccount = cfg.Derivation.DefaultAccount
	if cfg.Derivation.AddressGap > 0 {
		wlt.Derivation.AddressGap = cfg.Derivation.AddressGap
	}

	// Pre-derive the gap window so previously used addresses are on
	// file immediately after a restore. Chains with an internal chain
	// get their change window too.
	if err := wlt.DeriveAddresses(seed, wlt.Derivation.AddressGap); err != nil {
		return err
	}
	if err := wlt.DeriveChangeAddresses(seed, wlt.Derivation.AddressGap); err != nil {
		return err
	}

	displayAddressVerification(cmd.OutOrStdout(), wlt)

	if !askYesNoFn("Do these addresses match your expected addresses?") {
		outln(cmd.OutOrStdout(), "Restore canceled.")
		return nil
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
		Msg("wallet restored")

	w := cmd.OutOrStdout()
	outln(w)
	out(w, "Wallet '%s' restored successfully.\n", wlt.Name)
	outln(w, "Wallet file: "+walletFilePath(wlt.Name))
	return nil
}

// seedForRestore obtains seed material from the flag or a hidden
// prompt and converts it to seed bytes.
func seedForRestore(cmd *cobra.Command) ([]byte, error) {
	raw := restoreInput
	if raw == "" {
		var err error
		raw, err = readSecretLineFn("Enter recovery phrase or seed hex")
		if err != nil {
			return nil, err
		}
	}
	return seedFromInput(raw, restorePassphrase, cmd)
}

// restoreChainList resolves the chains for the restored wallet.
func restoreChainList() ([]chain.ID, error) {
	if restoreChains != "" {
		return parseChainList(restoreChains)
	}
	return configuredChains()
}

// seedFromInput converts detected seed material to seed bytes.
func seedFromInput(input string, usePassphrase bool, cmd *cobra.Command) ([]byte, error) {
	switch wallet.DetectInputFormat(input) {
	case wallet.InputMnemonic:
		return seedFromMnemonicInput(input, usePassphrase, cmd)
	case wallet.InputSeedHex:
		return wallet.ParseSeedHex(input)
	default:
		return nil, kferr.WithSuggestion(
			kferr.ErrInvalidInput,
			"unrecognized input format. Expected a mnemonic (12-24 words) or a hex seed (32-128 hex characters)",
		)
	}
}

// seedFromMnemonicInput validates a phrase, surfaces typos, and
// stretches it into a seed.
func seedFromMnemonicInput(mnemonic string, usePassphrase bool, cmd *cobra.Command) ([]byte, error) {
	displayDetectedTypos(cmd.OutOrStdout(), mnemonic)

	if err := wallet.ValidateMnemonic(mnemonic); err != nil {
		return nil, kferr.WithSuggestion(err,
			"the recovery phrase is not valid. Check for typos or missing words.")
	}

	passphrase := ""
	if usePassphrase {
		var err error
		passphrase, err = askPassphraseFn()
		if err != nil {
			return nil, err
		}
	}

	return wallet.SeedFromMnemonic(mnemonic, passphrase)
}
