package wallet

import (
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/text/unicode/norm"

	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// SeedBytes is the length of a derived seed in bytes (512 bits).
const SeedBytes = 64

// SeedFromMnemonic derives a 512-bit seed from a mnemonic and
// optional passphrase using PBKDF2-HMAC-SHA512 with 2048 iterations
// and the salt "mnemonic" + passphrase, as BIP-39 specifies. Both
// strings are NFKD-normalized first, so the same phrase typed with
// composed or decomposed Unicode yields the same seed.
//
// An empty passphrase and an omitted passphrase are the same input.
// The caller owns the returned bytes and must zero them when done.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	normalized := NormalizeMnemonic(mnemonic)
	if err := checkMnemonicShape(normalized); err != nil {
		return nil, err
	}

	seed, err := bip39.NewSeedWithErrorChecking(norm.NFKD.String(normalized), norm.NFKD.String(passphrase))
	if err != nil {
		return nil, kferr.WithDetails(kferr.ErrInvalidMnemonic,
			map[string]string{"reason": "checksum mismatch"})
	}
	return seed, nil
}
