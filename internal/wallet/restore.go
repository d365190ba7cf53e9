package wallet

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/keyfold/keyfold/internal/hdkey"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// InputFormat classifies what kind of secret material restore input
// holds.
type InputFormat int

const (
	// InputUnknown means the input matched no known shape.
	InputUnknown InputFormat = iota
	// InputMnemonic means the input reads as a BIP-39 phrase.
	InputMnemonic
	// InputSeedHex means the input reads as a hex-encoded seed.
	InputSeedHex
)

// String names the format for display.
func (f InputFormat) String() string {
	switch f {
	case InputMnemonic:
		return "mnemonic"
	case InputSeedHex:
		return "seed-hex"
	default:
		return "unknown"
	}
}

// DetectInputFormat decides whether restore input is a mnemonic phrase
// or a hex-encoded seed. Input matching neither maps to InputUnknown.
func DetectInputFormat(input string) InputFormat {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return InputUnknown
	case isMnemonicFormat(input):
		return InputMnemonic
	case isSeedHexFormat(input):
		return InputSeedHex
	default:
		return InputUnknown
	}
}

// isMnemonicFormat reports whether input reads as a mnemonic attempt.
// Typos are tolerated so that a misspelled phrase still routes to the
// mnemonic path, where the error can name the bad word.
func isMnemonicFormat(input string) bool {
	words := strings.Fields(NormalizeMnemonic(input))
	if !validWordCount(len(words)) {
		return false
	}

	known := 0
	for _, w := range words {
		if IsValidWord(w) {
			known++
		}
	}
	return known >= len(words)/2
}

// isSeedHexFormat reports whether input could decode to a seed within
// the BIP-32 length bounds.
func isSeedHexFormat(input string) bool {
	h := cutHexPrefix(input)
	if len(h)%2 != 0 || len(h) < 2*hdkey.MinSeedBytes || len(h) > 2*hdkey.MaxSeedBytes {
		return false
	}
	for i := range len(h) {
		if !isHexDigit(h[i]) {
			return false
		}
	}
	return true
}

// ParseSeedHex parses a hex-encoded BIP32 seed. The seed must decode
// to between 16 and 64 bytes. The caller owns the result and must
// zero it when done.
func ParseSeedHex(input string) ([]byte, error) {
	cleaned := cutHexPrefix(strings.TrimSpace(input))

	seed, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, kferr.Wrap(kferr.ErrInvalidSeed, "seed is not valid hex")
	}
	if len(seed) < hdkey.MinSeedBytes || len(seed) > hdkey.MaxSeedBytes {
		return nil, kferr.WithDetails(kferr.ErrInvalidSeed,
			map[string]string{"length": strconv.Itoa(len(seed))})
	}
	return seed, nil
}

// cutHexPrefix strips one leading 0x or 0X marker.
func cutHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// isHexDigit reports whether c is an ASCII hex character.
func isHexDigit(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	}
	return false
}
