// Package utxo encodes pay-to-pubkey-hash addresses for Bitcoin-style
// chains.
package utxo

import (
	"bytes"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"

	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// Address version prefixes. Zcash transparent addresses use a
// two-byte prefix that renders as "t1".
var (
	BitcoinP2PKH = []byte{0x00}
	ZcashP2PKH   = []byte{0x1C, 0xB8}
)

// P2PKHAddress encodes the HASH160 of a compressed secp256k1 public
// key with the given version prefix in Base58Check.
func P2PKHAddress(publicKey, version []byte) (string, error) {
	if len(publicKey) != 33 || (publicKey[0] != 0x02 && publicKey[0] != 0x03) {
		return "", kferr.Wrap(kferr.ErrInvalidInput, "compressed secp256k1 public key required")
	}
	return CheckEncode(version, btcutil.Hash160(publicKey)), nil
}

// CheckEncode Base58Check-encodes a payload behind a version prefix,
// appending the 4-byte double-SHA256 checksum. Unlike the btcutil
// helper this accepts multi-byte versions.
func CheckEncode(version, payload []byte) string {
	buf := make([]byte, 0, len(version)+len(payload)+4)
	buf = append(buf, version...)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return base58.Encode(buf)
}

// CheckDecode reverses CheckEncode. The caller states how many leading
// bytes are the version prefix.
func CheckDecode(address string, versionLen int) (version, payload []byte, err error) {
	decoded := base58.Decode(address)
	if len(decoded) < versionLen+4 {
		return nil, nil, kferr.Wrap(kferr.ErrInvalidInput, "address too short")
	}

	body, sum := decoded[:len(decoded)-4], decoded[len(decoded)-4:]
	if !bytes.Equal(checksum(body), sum) {
		return nil, nil, kferr.Wrap(kferr.ErrInvalidInput, "address checksum mismatch")
	}

	return body[:versionLen], body[versionLen:], nil
}

func checksum(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:4]
}
