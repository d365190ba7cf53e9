// Package evm derives Ethereum-style addresses from secp256k1 public
// keys without pulling in go-ethereum.
package evm

import (
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"

	kferr "github.com/keyfold/keyfold/pkg/errors"
)

const addressLen = 20

// Address derives the EIP-55 checksummed address for a secp256k1
// public key. Both compressed (33-byte) and uncompressed (65-byte)
// serializations are accepted; the address hashes the uncompressed
// X || Y coordinates.
func Address(publicKey []byte) (string, error) {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return "", kferr.Wrap(kferr.ErrInvalidInput, "invalid secp256k1 public key")
	}

	uncompressed := pub.SerializeUncompressed()
	digest := keccak256(uncompressed[1:])
	return checksumAddress(hex.EncodeToString(digest[32-addressLen:])), nil
}

// checksumAddress renders a 20-byte hex address in EIP-55 mixed-case
// form, 0x prefix included. Inputs of any other length come back
// unchanged.
func checksumAddress(address string) string {
	bare := strings.ToLower(strings.TrimPrefix(address, "0x"))
	if len(bare) != addressLen*2 {
		return address
	}

	digest := hex.EncodeToString(keccak256([]byte(bare)))

	out := make([]byte, 2+addressLen*2)
	out[0], out[1] = '0', 'x'
	for i := range addressLen * 2 {
		c := bare[i]
		// Uppercase the hex letter when the hash nibble is >= 8.
		if digest[i] >= '8' && c >= 'a' && c <= 'f' {
			c -= 32
		}
		out[i+2] = c
	}

	return string(out)
}

// keccak256 is Ethereum's hash, distinct from the finalized SHA3-256.
func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
