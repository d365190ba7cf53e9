package chain

import (
	"github.com/keyfold/keyfold/internal/chain/evm"
	"github.com/keyfold/keyfold/internal/chain/solana"
	"github.com/keyfold/keyfold/internal/chain/utxo"
)

// EncodeAddress renders a derived public key as the chain's canonical
// address string. Secp256k1 chains expect the 33-byte compressed
// public key; Solana expects the 32-byte ed25519 public key.
func EncodeAddress(id ID, publicKey []byte) (string, error) {
	switch id {
	case ETH:
		return evm.Address(publicKey)
	case BTC:
		return utxo.P2PKHAddress(publicKey, utxo.BitcoinP2PKH)
	case ZEC:
		return utxo.P2PKHAddress(publicKey, utxo.ZcashP2PKH)
	case SOL:
		return solana.Address(publicKey)
	default:
		return "", unsupported(id.String())
	}
}
