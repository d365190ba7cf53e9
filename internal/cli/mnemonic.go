package cli

import (
	"encoding/hex"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/internal/securemem"
	"github.com/keyfold/keyfold/internal/wallet"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

//nolint:gochecknoglobals // cobra flags bind to package globals
var (
	// mnemonicWords is the generated phrase length.
	mnemonicWords int
	// mnemonicInput supplies the phrase on the command line instead of a prompt.
	mnemonicInput string
	// mnemonicShowEntropy reveals the entropy hex on inspect.
	mnemonicShowEntropy bool
)

// mnemonicCmd is the parent command for mnemonic operations.
//
//nolint:gochecknoglobals // cobra commands are package globals
var mnemonicCmd = &cobra.Command{
	Use:     "mnemonic",
	Short:   "Generate and check recovery phrases",
	GroupID: "mnemonic",
	Long: `Work with BIP39 recovery phrases: generate new ones, validate
existing ones with typo suggestions, and inspect their structure.

Phrases entered interactively are read with hidden input so they do
not echo to the terminal or end up in shell history.`,
}

// mnemonicGenerateCmd creates a new recovery phrase.
//
//nolint:gochecknoglobals // cobra commands are package globals
var mnemonicGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new recovery phrase",
	Long: `Generate a new BIP39 recovery phrase from fresh system entropy.

The phrase is printed to stdout and nowhere else. Write it down and
store it safely; anyone who has it controls the derived keys.`,
	Example: `  # 12-word phrase (128 bits of entropy)
  keyfold mnemonic generate

  # 24-word phrase (256 bits of entropy)
  keyfold mnemonic generate --words 24`,
	Args: cobra.NoArgs,
	RunE: runMnemonicGenerate,
}

// mnemonicValidateCmd checks a recovery phrase.
//
//nolint:gochecknoglobals // cobra commands are package globals
var mnemonicValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a recovery phrase",
	Long: `Check a BIP39 recovery phrase for word count, unknown words, and
checksum correctness. Misspelled words get closest-match suggestions.

Without --input the phrase is read from an interactive hidden prompt.
Passing the phrase with --input leaves it in shell history; prefer the
prompt for phrases that guard real keys.`,
	Example: `  keyfold mnemonic validate
  keyfold mnemonic validate --input "abandon abandon ... about"`,
	Args: cobra.NoArgs,
	RunE: runMnemonicValidate,
}

// mnemonicInspectCmd reports the structure of a recovery phrase.
//
//nolint:gochecknoglobals // cobra commands are package globals
var mnemonicInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the structure of a recovery phrase",
	Long: `Report a phrase's word count, entropy size, and checksum status
without failing on invalid input.

The entropy a valid phrase encodes is secret material; it is only
printed when --show-entropy is given.`,
	Example: `  keyfold mnemonic inspect
  keyfold mnemonic inspect --show-entropy`,
	Args: cobra.NoArgs,
	RunE: runMnemonicInspect,
}

//nolint:gochecknoinits // cobra subcommands attach at init
func init() {
	rootCmd.AddCommand(mnemonicCmd)
	mnemonicCmd.AddCommand(mnemonicGenerateCmd)
	mnemonicCmd.AddCommand(mnemonicValidateCmd)
	mnemonicCmd.AddCommand(mnemonicInspectCmd)

	mnemonicGenerateCmd.Flags().IntVar(&mnemonicWords, "words", 12, "word count (12, 15, 18, 21, or 24)")
	mnemonicValidateCmd.Flags().StringVar(&mnemonicInput, "input", "", "phrase to validate (omit for hidden prompt)")
	mnemonicInspectCmd.Flags().StringVar(&mnemonicInput, "input", "", "phrase to inspect (omit for hidden prompt)")
	mnemonicInspectCmd.Flags().BoolVar(&mnemonicShowEntropy, "show-entropy", false, "print the entropy hex the phrase encodes")
}

func runMnemonicGenerate(cmd *cobra.Command, _ []string) error {
	mnemonic, err := wallet.GenerateMnemonic(mnemonicWords)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), struct {
			Mnemonic  string `json:"mnemonic"`
			WordCount int    `json:"word_count"`
		}{mnemonic, mnemonicWords})
	}

	displayMnemonic(cmd.OutOrStdout(), mnemonic)
	return nil
}

func runMnemonicValidate(cmd *cobra.Command, _ []string) error {
	mnemonic, err := mnemonicFromFlagOrPrompt("Enter recovery phrase")
	if err != nil {
		return err
	}

	if err := wallet.ValidateMnemonic(mnemonic); err != nil {
		if typos := wallet.DetectTypos(mnemonic); len(typos) > 0 {
			return kferr.WithSuggestion(err, wallet.FormatTypoSuggestions(typos))
		}
		return err
	}

	wordCount := len(strings.Fields(wallet.NormalizeMnemonic(mnemonic)))

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), struct {
			Valid     bool `json:"valid"`
			WordCount int  `json:"word_count"`
		}{true, wordCount})
	}

	out(cmd.OutOrStdout(), "Mnemonic is valid (%d words).\n", wordCount)
	return nil
}

// mnemonicReport is the inspect result. Entropy stays empty unless
// explicitly requested.
type mnemonicReport struct {
	WordCount   int    `json:"word_count"`
	EntropyBits int    `json:"entropy_bits,omitempty"`
	Checksum    string `json:"checksum"`
	Valid       bool   `json:"valid"`
	Problems    string `json:"problems,omitempty"`
	Entropy     string `json:"entropy,omitempty"`
}

func runMnemonicInspect(cmd *cobra.Command, _ []string) error {
	mnemonic, err := mnemonicFromFlagOrPrompt("Enter recovery phrase")
	if err != nil {
		return err
	}

	report := inspectMnemonic(mnemonic, mnemonicShowEntropy)

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), report)
	}

	w := cmd.OutOrStdout()
	out(w, "Words:    %d\n", report.WordCount)
	if report.EntropyBits > 0 {
		out(w, "Entropy:  %d bits\n", report.EntropyBits)
	}
	out(w, "Checksum: %s\n", report.Checksum)
	if report.Problems != "" {
		outln(w, "Problems:")
		for _, line := range strings.Split(report.Problems, "\n") {
			outln(w, "  "+line)
		}
	}
	if report.Entropy != "" {
		out(w, "Entropy hex: %s\n", report.Entropy)
	}
	return nil
}

// inspectMnemonic classifies a phrase without rejecting it. Inspect is
// a diagnostic, so an invalid phrase is a finding, not an error.
func inspectMnemonic(mnemonic string, showEntropy bool) mnemonicReport {
	normalized := wallet.NormalizeMnemonic(mnemonic)
	words := strings.Fields(normalized)

	report := mnemonicReport{WordCount: len(words)}

	if n, err := wallet.EntropyBytesForWordCount(len(words)); err == nil {
		report.EntropyBits = n * 8
	}

	typos := wallet.DetectTypos(normalized)
	if len(typos) > 0 {
		report.Checksum = "n/a"
		report.Problems = wallet.FormatTypoSuggestions(typos)
		return report
	}

	entropy, err := wallet.EntropyFromMnemonic(normalized)
	if err != nil {
		if report.EntropyBits == 0 {
			report.Checksum = "n/a"
			report.Problems = "word count must be 12, 15, 18, 21, or 24"
		} else {
			report.Checksum = "mismatch"
			report.Problems = "the words do not match their checksum"
		}
		return report
	}
	defer securemem.ZeroBytes(entropy)

	report.Checksum = "ok"
	report.Valid = true
	if showEntropy {
		report.Entropy = hex.EncodeToString(entropy)
	}
	return report
}

// mnemonicFromFlagOrPrompt returns the --input value or reads the
// phrase interactively with hidden input.
func mnemonicFromFlagOrPrompt(label string) (string, error) {
	if mnemonicInput != "" {
		return mnemonicInput, nil
	}
	return readSecretLineFn(label)
}

// displayMnemonic renders a recovery phrase as a numbered grid with
// handling instructions.
func displayMnemonic(w io.Writer, mnemonic string) {
	words := strings.Fields(mnemonic)
	rule := strings.Repeat("=", 66)

	outln(w)
	outln(w, rule)
	outln(w, "                       RECOVERY PHRASE")
	outln(w, rule)
	outln(w)
	outln(w, "Write down these words in order and store them safely:")
	outln(w)

	for i, word := range words {
		out(w, "  %2d. %-12s", i+1, word)
		if (i+1)%4 == 0 {
			outln(w)
		}
	}
	if len(words)%4 != 0 {
		outln(w)
	}

	outln(w)
	outln(w, "WARNING: Anyone with these words can take your funds.")
	outln(w, "         Never store them digitally or share them.")
	outln(w, rule)
}
