package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/securemem"
	"github.com/keyfold/keyfold/internal/wallet"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// walletCmd groups the wallet subcommands.
//
//nolint:gochecknoglobals // cobra commands are package globals
var walletCmd = &cobra.Command{
	Use:     "wallet",
	Short:   "Create and manage wallet files",
	GroupID: "wallet",
	Long: `Manage encrypted wallet files under the keyfold home directory.

A wallet file stores derived addresses as plain metadata and the seed
encrypted with age. Reading addresses never asks for the password;
anything that needs the seed does.`,
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	rootCmd.AddCommand(walletCmd)
}

// walletStore returns the wallet store rooted at the configured
// wallets directory.
func walletStore() *wallet.FileStore {
	return wallet.NewFileStore(cfg.WalletsDir())
}

// walletFilePath is the on-disk location of a named wallet.
func walletFilePath(name string) string {
	return filepath.Join(cfg.WalletsDir(), name+".wallet")
}

// primaryAddressMap maps each enabled chain to its first address.
func primaryAddressMap(wlt *wallet.Wallet) map[string]string {
	addresses := make(map[string]string)
	for _, id := range wlt.EnabledChains {
		if addr, ok := wlt.GetPrimaryAddress(id); ok {
			addresses[id.String()] = addr
		}
	}
	return addresses
}

// formatIndex renders an address index for table cells.
func formatIndex(i uint32) string {
	return strconv.FormatUint(uint64(i), 10)
}

// requireWalletExists fails with WALLET_NOT_FOUND before any password
// prompt when the named wallet is missing.
func requireWalletExists(store *wallet.FileStore, name string) error {
	stored, err := store.Exists(name)
	if err != nil {
		return err
	}
	if !stored {
		err := kferr.WithDetails(kferr.ErrWalletNotFound,
			map[string]string{"wallet": name})
		return kferr.WithSuggestion(err, "run 'keyfold wallet list' to see available wallets")
	}
	return nil
}

// requireWalletFree fails with WALLET_EXISTS when the name is taken.
func requireWalletFree(store *wallet.FileStore, name string) error {
	stored, err := store.Exists(name)
	if err != nil {
		return err
	}
	if stored {
		err := kferr.WithDetails(kferr.ErrWalletExists,
			map[string]string{"wallet": name})
		return kferr.WithSuggestion(err, "choose a different name or delete the existing wallet first")
	}
	return nil
}

// validateNewWalletName validates a wallet name, suggesting a cleaned
// variant when the input can be salvaged.
func validateNewWalletName(name string) error {
	err := wallet.ValidateName(name)
	if err == nil {
		return nil
	}
	if suggested := wallet.SuggestName(name); suggested != "" && suggested != name {
		return kferr.WithSuggestion(err, fmt.Sprintf("try '%s' instead", suggested))
	}
	return err
}

// loadWalletSeed prompts for the password and decrypts the named
// wallet into a locked buffer. The caller must Destroy it.
func loadWalletSeed(name string) (*wallet.Wallet, *securemem.Buffer, error) {
	store := walletStore()
	if err := requireWalletExists(store, name); err != nil {
		return nil, nil, err
	}

	password, err := readPasswordFn("Enter encryption password: ")
	if err != nil {
		return nil, nil, err
	}
	defer securemem.ZeroBytes(password)

	return store.Load(name, password)
}

// parseChainList turns a comma-separated chain list into IDs.
func parseChainList(csv string) ([]chain.ID, error) {
	var ids []chain.ID
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := chain.ParseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, kferr.WithSuggestion(kferr.ErrInvalidInput,
			"chain list must name at least one of: "+strings.Join(chain.SupportedNames(), ", "))
	}
	return ids, nil
}

// configuredChains resolves the chains enabled in the config file.
func configuredChains() ([]chain.ID, error) {
	if len(cfg.Chains) == 0 {
		return chain.Supported(), nil
	}
	return parseChainList(strings.Join(cfg.Chains, ","))
}

// printPrimaryAddresses writes one line per enabled chain with its
// first derived address.
func printPrimaryAddresses(w io.Writer, wlt *wallet.Wallet) {
	for _, id := range wlt.EnabledChains {
		if addr, ok := wlt.GetPrimaryAddress(id); ok {
			out(w, "  %s: %s\n", strings.ToUpper(id.String()), addr)
		}
	}
}

// displayWalletAddresses prints each chain's primary address.
func displayWalletAddresses(w io.Writer, wlt *wallet.Wallet) {
	outln(w)
	outln(w, "Derived addresses:")
	printPrimaryAddresses(w, wlt)
}

// displayAddressVerification shows derived addresses for the user to
// check against an external source before a restore is committed.
func displayAddressVerification(w io.Writer, wlt *wallet.Wallet) {
	banner := strings.Repeat("=", 67)

	outln(w)
	outln(w, banner)
	outln(w, "                     VERIFY YOUR ADDRESSES")
	outln(w, banner)
	outln(w)
	outln(w, "Check that these match the addresses you expect:")
	outln(w)
	printPrimaryAddresses(w, wlt)
	outln(w)
	outln(w, banner)
}

// displayDetectedTypos shows any typos found in a mnemonic.
func displayDetectedTypos(w io.Writer, mnemonic string) {
	found := wallet.DetectTypos(mnemonic)
	if len(found) == 0 {
		return
	}

	outln(w, "\nPossible typos:")
	for _, typo := range found {
		pos := typo.Index + 1
		if typo.Suggestion == "" {
			out(w, "  Word %d: '%s' is not a valid BIP39 word\n", pos, typo.Word)
			continue
		}
		out(w, "  Word %d: '%s' - did you mean '%s'?\n", pos, typo.Word, typo.Suggestion)
	}
	outln(w)
}
