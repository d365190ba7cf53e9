package utxo

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compressed public key of private key 1 (the secp256k1 generator).
const compressedG = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

func generatorPubKey(t *testing.T) []byte {
	t.Helper()

	pub, err := hex.DecodeString(compressedG)
	require.NoError(t, err)
	return pub
}

func TestP2PKHAddress(t *testing.T) {
	t.Run("bitcoin known public key", func(t *testing.T) {
		addr, err := P2PKHAddress(generatorPubKey(t), BitcoinP2PKH)
		require.NoError(t, err)
		assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", addr)
	})

	t.Run("zcash transparent prefix", func(t *testing.T) {
		addr, err := P2PKHAddress(generatorPubKey(t), ZcashP2PKH)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(addr, "t1"), "got %q", addr)

		version, payload, err := CheckDecode(addr, len(ZcashP2PKH))
		require.NoError(t, err)
		assert.Equal(t, ZcashP2PKH, version)
		assert.Equal(t, btcutil.Hash160(generatorPubKey(t)), payload)
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := P2PKHAddress(generatorPubKey(t), BitcoinP2PKH)
		require.NoError(t, err)
		second, err := P2PKHAddress(generatorPubKey(t), BitcoinP2PKH)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("invalid public keys", func(t *testing.T) {
		tests := []struct {
			name string
			pub  []byte
		}{
			{name: "nil", pub: nil},
			{name: "too short", pub: make([]byte, 32)},
			{name: "too long", pub: make([]byte, 65)},
			{name: "uncompressed prefix", pub: append([]byte{0x04}, make([]byte, 32)...)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				addr, err := P2PKHAddress(tt.pub, BitcoinP2PKH)
				require.Error(t, err)
				assert.Empty(t, addr)
			})
		}
	})
}

func TestCheckEncode(t *testing.T) {
	t.Run("zero hash burn address", func(t *testing.T) {
		addr := CheckEncode(BitcoinP2PKH, make([]byte, 20))
		assert.Equal(t, "1111111111111111111114oLvT2", addr)
	})

	t.Run("round trip", func(t *testing.T) {
		payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03}
		addr := CheckEncode(ZcashP2PKH, payload)

		version, decoded, err := CheckDecode(addr, len(ZcashP2PKH))
		require.NoError(t, err)
		assert.Equal(t, ZcashP2PKH, version)
		assert.Equal(t, payload, decoded)
	})
}

func TestCheckDecode(t *testing.T) {
	valid := CheckEncode(BitcoinP2PKH, make([]byte, 20))

	t.Run("corrupted character", func(t *testing.T) {
		corrupted := valid[:len(valid)-1] + "X"
		_, _, err := CheckDecode(corrupted, 1)
		require.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		_, _, err := CheckDecode(valid[:4], 1)
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := CheckDecode("", 1)
		require.Error(t, err)
	})
}
