// Package solana encodes Solana addresses from ed25519 public keys.
package solana

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// Address encodes an ed25519 public key as a Solana address: the raw
// 32 key bytes in Base58, with no version prefix or checksum.
func Address(publicKey ed25519.PublicKey) (string, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return "", kferr.Wrap(kferr.ErrInvalidInput, "ed25519 public key must be %d bytes", ed25519.PublicKeySize)
	}
	return base58.Encode(publicKey), nil
}

// ParseAddress decodes a Solana address back into public key bytes.
func ParseAddress(address string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(address)
	if err != nil {
		return nil, kferr.Wrap(kferr.ErrInvalidInput, "invalid solana address encoding")
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, kferr.Wrap(kferr.ErrInvalidInput, "solana address must decode to %d bytes", ed25519.PublicKeySize)
	}
	return decoded, nil
}
