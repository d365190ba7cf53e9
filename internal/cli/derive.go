package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/hdkey"
	"github.com/keyfold/keyfold/internal/log"
	"github.com/keyfold/keyfold/internal/output"
	"github.com/keyfold/keyfold/internal/session"
	"github.com/keyfold/keyfold/internal/wallet"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// maxAddressIndex is the highest non-hardened BIP32 child index.
const maxAddressIndex = 0x7FFFFFFF

//nolint:gochecknoglobals // cobra flags bind to package globals
var (
	// deriveChain selects the target chain.
	deriveChain string
	// deriveIndex is the first address index.
	deriveIndex int64
	// deriveCount is how many consecutive addresses to derive.
	deriveCount int
	// deriveAccount is the BIP44 account index.
	deriveAccount uint32
	// deriveChange derives on the internal (change) chain.
	deriveChange bool
	// deriveQR renders each address as a terminal QR code.
	deriveQR bool
	// deriveShowPrivate includes private keys in the output.
	deriveShowPrivate bool
)

// deriveCmd derives addresses from an interactively entered phrase
// without touching the filesystem.
//
//nolint:gochecknoglobals // cobra commands are package globals
var deriveCmd = &cobra.Command{
	Use:     "derive",
	Short:   "Derive addresses from a recovery phrase",
	GroupID: "derive",
	Long: `Derive addresses directly from a recovery phrase without creating
a wallet file.

The phrase and optional BIP39 passphrase are read from hidden prompts,
held in locked memory for the duration of the command, and wiped
before exit. Nothing is written to disk.`,
	Example: `  # First receiving address on Ethereum
  keyfold derive --chain eth --index 0

  # Five Bitcoin change addresses starting at index 10
  keyfold derive --chain btc --index 10 --count 5 --change

  # Address with QR code for scanning
  keyfold derive --chain sol --index 0 --qr

  # Reveal the private key (handle with care)
  keyfold derive --chain eth --index 0 --show-private`,
	Args: cobra.NoArgs,
	RunE: runDerive,
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	rootCmd.AddCommand(deriveCmd)

	deriveCmd.Flags().StringVarP(&deriveChain, "chain", "c", "", "chain: eth, btc, zec, or sol (required)")
	deriveCmd.Flags().Int64VarP(&deriveIndex, "index", "i", 0, "first address index")
	deriveCmd.Flags().IntVarP(&deriveCount, "count", "n", 1, "number of consecutive addresses")
	deriveCmd.Flags().Uint32Var(&deriveAccount, "account", 0, "BIP44 account index")
	deriveCmd.Flags().BoolVar(&deriveChange, "change", false, "derive on the internal (change) chain")
	deriveCmd.Flags().BoolVar(&deriveQR, "qr", false, "render each address as a QR code")
	deriveCmd.Flags().BoolVar(&deriveShowPrivate, "show-private", false, "include private keys in the output")
	_ = deriveCmd.MarkFlagRequired("chain")
}

func runDerive(cmd *cobra.Command, _ []string) error {
	id, err := chain.ParseID(deriveChain)
	if err != nil {
		return err
	}

	if err := validateIndexRange(deriveIndex, deriveCount); err != nil {
		return err
	}

	if !cmd.Flags().Changed("account") {
		deriveAccount = cfg.Derivation.DefaultAccount
	}

	mnemonic, err := readSecretLineFn("Enter recovery phrase")
	if err != nil {
		return err
	}
	if err := wallet.ValidateMnemonic(mnemonic); err != nil {
		if typos := wallet.DetectTypos(mnemonic); len(typos) > 0 {
			return kferr.WithSuggestion(err, wallet.FormatTypoSuggestions(typos))
		}
		return err
	}

	passphrase, err := askPassphraseFn()
	if err != nil {
		return err
	}

	sess := session.New()
	if err := sess.Initialize(mnemonic, passphrase); err != nil {
		return err
	}
	defer sess.Destroy()

	change := hdkey.ExternalChain
	if deriveChange {
		change = hdkey.InternalChain
	}

	keys := make([]*session.DerivedKey, 0, deriveCount)
	for i := 0; i < deriveCount; i++ {
		key, err := sess.DeriveAddressWithChange(id, deriveAccount, change, uint32(deriveIndex)+uint32(i))
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	log.CLI.Debug().
		Str("chain", id.String()).
		Int("count", len(keys)).
		Bool("change", deriveChange).
		Msg("derived addresses")

	return displayDerivedKeys(cmd, keys)
}

// validateIndexRange checks the index window fits in the non-hardened
// BIP32 index space.
func validateIndexRange(index int64, count int) error {
	if index < 0 || index > maxAddressIndex {
		err := kferr.WithDetails(kferr.ErrInvalidIndex,
			map[string]string{"index": strconv.FormatInt(index, 10)})
		return kferr.WithSuggestion(err, "address index must be between 0 and 2147483647")
	}
	if count < 1 {
		return kferr.WithSuggestion(kferr.ErrInvalidInput, "--count must be at least 1")
	}
	if index+int64(count)-1 > maxAddressIndex {
		err := kferr.WithDetails(kferr.ErrInvalidIndex, map[string]string{
			"index": strconv.FormatInt(index, 10),
			"count": strconv.Itoa(count),
		})
		return kferr.WithSuggestion(err, "index plus count exceeds the BIP32 index space")
	}
	return nil
}

// derivedKeyJSON shapes a derived key for output. The private key is
// only present when explicitly requested.
type derivedKeyJSON struct {
	Chain      string `json:"chain"`
	Path       string `json:"path"`
	Index      uint32 `json:"index"`
	Address    string `json:"address"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key,omitempty"`
}

func displayDerivedKeys(cmd *cobra.Command, keys []*session.DerivedKey) error {
	w := cmd.OutOrStdout()

	if jsonOutput() {
		entries := make([]derivedKeyJSON, len(keys))
		for i, k := range keys {
			entries[i] = derivedKeyJSON{
				Chain:     k.Chain.String(),
				Path:      k.Path,
				Index:     k.Index,
				Address:   k.Address,
				PublicKey: k.PublicKey,
			}
			if deriveShowPrivate {
				entries[i].PrivateKey = k.PrivateKeyHex
			}
		}
		return writeJSON(w, entries)
	}

	table := output.NewTable("INDEX", "PATH", "ADDRESS")
	for _, k := range keys {
		table.AddRow(formatIndex(k.Index), k.Path, k.Address)
	}
	outln(w, table.String())

	if deriveShowPrivate {
		outln(w)
		outln(w, "Private keys (never share these):")
		for _, k := range keys {
			out(w, "  %d: %s\n", k.Index, k.PrivateKeyHex)
		}
	}

	if deriveQR {
		for _, k := range keys {
			outln(w)
			out(w, "%s (%s):\n", k.Address, k.Path)
			if err := output.RenderQR(w, k.Address); err != nil {
				return err
			}
		}
	}

	return nil
}
