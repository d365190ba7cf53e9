// Package wallet implements BIP-39 mnemonic handling, seed
// derivation, and multi-chain address derivation from a hierarchical
// deterministic key tree.
package wallet

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	"github.com/keyfold/keyfold/internal/securemem"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// Entropy length bounds in bytes (128 to 256 bits).
const (
	MinEntropyBytes = 16
	MaxEntropyBytes = 32
)

// mnemonicLengths are the phrase sizes BIP-39 defines.
var mnemonicLengths = []int{12, 15, 18, 21, 24}

// Pasted phrases arrive with list decorations and uneven spacing, so
// normalization strips "1." / "2)" / "-" style line prefixes and
// collapses whitespace runs.
var (
	listPrefixRe = regexp.MustCompile(`(?m)^\s*(\d+[.):]|[-*•])\s*`)
	spacingRe    = regexp.MustCompile(`\s+`)
)

func validWordCount(n int) bool {
	return slices.Contains(mnemonicLengths, n)
}

// EntropyBytesForWordCount maps a mnemonic word count to the entropy
// length that produces it.
func EntropyBytesForWordCount(wordCount int) (int, error) {
	if !validWordCount(wordCount) {
		err := kferr.WithDetails(kferr.ErrInvalidInput,
			map[string]string{"word_count": strconv.Itoa(wordCount)})
		return 0, kferr.WithSuggestion(err, "mnemonic length must be 12, 15, 18, 21, or 24 words")
	}
	// Every three words carry four bytes of entropy; the remaining
	// bits are checksum.
	return wordCount * 4 / 3, nil
}

// GenerateMnemonic creates a new BIP-39 mnemonic phrase with entropy
// drawn from the process entropy source.
func GenerateMnemonic(wordCount int) (string, error) {
	size, err := EntropyBytesForWordCount(wordCount)
	if err != nil {
		return "", err
	}

	entropy, err := securemem.RandomBytes(size)
	if err != nil {
		return "", err
	}
	defer securemem.ZeroBytes(entropy)

	return MnemonicFromEntropy(entropy)
}

// MnemonicFromEntropy encodes entropy as a BIP-39 mnemonic phrase.
// The entropy must be 16, 20, 24, 28, or 32 bytes.
func MnemonicFromEntropy(entropy []byte) (string, error) {
	if len(entropy) < MinEntropyBytes || len(entropy) > MaxEntropyBytes || len(entropy)%4 != 0 {
		return "", kferr.WithDetails(kferr.ErrInvalidEntropy,
			map[string]string{"length": strconv.Itoa(len(entropy))})
	}

	words, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", kferr.Wrap(kferr.ErrInvalidEntropy, "encoding entropy")
	}
	return words, nil
}

// EntropyFromMnemonic recovers the entropy bytes a mnemonic encodes,
// verifying the embedded checksum. The mnemonic is normalized first.
func EntropyFromMnemonic(mnemonic string) ([]byte, error) {
	phrase := NormalizeMnemonic(mnemonic)
	if err := checkMnemonicShape(phrase); err != nil {
		return nil, err
	}

	entropy, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		// Shape and word membership already passed, so the words do
		// not agree with their checksum bits.
		return nil, kferr.WithDetails(kferr.ErrInvalidMnemonic,
			map[string]string{"reason": "checksum mismatch"})
	}
	return entropy, nil
}

// ValidateMnemonic checks word count, word membership, and checksum.
func ValidateMnemonic(mnemonic string) error {
	entropy, err := EntropyFromMnemonic(mnemonic)
	if err != nil {
		return err
	}
	securemem.ZeroBytes(entropy)
	return nil
}

// checkMnemonicShape validates word count and word membership so
// failures carry a precise reason before the checksum is attempted.
func checkMnemonicShape(phrase string) error {
	count := len(strings.Fields(phrase))

	if !validWordCount(count) {
		err := kferr.WithDetails(kferr.ErrInvalidMnemonic, map[string]string{
			"reason":     "word count",
			"word_count": strconv.Itoa(count),
		})
		return kferr.WithSuggestion(err, "mnemonic length must be 12, 15, 18, 21, or 24 words")
	}

	if typos := DetectTypos(phrase); len(typos) > 0 {
		err := kferr.WithDetails(kferr.ErrInvalidMnemonic, map[string]string{
			"reason": "unknown word",
			"word":   typos[0].Word,
		})
		return kferr.WithSuggestion(err, FormatTypoSuggestions(typos))
	}

	return nil
}

// NormalizeMnemonic cleans pasted mnemonic input: lowercases,
// strips numbered-list and bullet prefixes, converts commas to
// spaces, and collapses whitespace runs.
func NormalizeMnemonic(input string) string {
	s := strings.ToLower(input)
	s = listPrefixRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, ",", " ")
	s = spacingRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsValidWord reports whether word is in the BIP-39 word list.
func IsValidWord(word string) bool {
	_, ok := bip39.GetWordIndex(strings.ToLower(word))
	return ok
}

// maxTypoDistance bounds how far a suggested correction may be from
// the typed word.
const maxTypoDistance = 2

// Typo reports one phrase word that is not in the BIP-39 list.
type Typo struct {
	// Index is the zero-based position of the word in the phrase.
	Index int
	// Word is the unrecognized word after normalization.
	Word string
	// Suggestion is the nearest list word, empty when none is close.
	Suggestion string
	// Distance is the edit distance between Word and Suggestion.
	Distance int
}

// suggestWord returns the list word closest to input, or the empty
// string when nothing is within maxTypoDistance edits.
func suggestWord(input string) string {
	input = strings.ToLower(input)

	best, bestDist := "", maxTypoDistance+1
	for _, word := range bip39.GetWordList() {
		switch d := levenshtein.ComputeDistance(input, word); {
		case d == 0:
			return word
		case d < bestDist:
			best, bestDist = word, d
		}
	}
	return best
}

// DetectTypos scans a mnemonic phrase for words outside the BIP-39
// list and suggests corrections.
func DetectTypos(mnemonic string) []Typo {
	if mnemonic == "" {
		return nil
	}

	var typos []Typo
	for i, word := range strings.Fields(NormalizeMnemonic(mnemonic)) {
		if IsValidWord(word) {
			continue
		}
		info := Typo{Index: i, Word: word, Suggestion: suggestWord(word)}
		if info.Suggestion != "" {
			info.Distance = levenshtein.ComputeDistance(word, info.Suggestion)
		}
		typos = append(typos, info)
	}
	return typos
}

// FormatTypoSuggestions renders typos one per line for suggestion
// text. Word positions print 1-indexed.
func FormatTypoSuggestions(typos []Typo) string {
	lines := make([]string, len(typos))
	for i, typo := range typos {
		head := fmt.Sprintf("word %d: '%s'", typo.Index+1, typo.Word)
		if typo.Suggestion == "" {
			lines[i] = head + " is not in the word list"
			continue
		}
		lines[i] = fmt.Sprintf("%s - did you mean '%s'?", head, typo.Suggestion)
	}
	return strings.Join(lines, "\n")
}
