package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/hdkey"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

func TestDeriveAccountXpub(t *testing.T) {
	t.Parallel()
	seed := testSeed(t)

	xpub, err := DeriveAccountXpub(seed, chain.BTC, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(xpub, "xpub"), "got %s", xpub)

	// Deterministic
	again, err := DeriveAccountXpub(seed, chain.BTC, 0)
	require.NoError(t, err)
	assert.Equal(t, xpub, again)

	// Different coin types yield different keys
	ethXpub, err := DeriveAccountXpub(seed, chain.ETH, 0)
	require.NoError(t, err)
	assert.NotEqual(t, xpub, ethXpub)

	// Different accounts yield different keys
	acct1, err := DeriveAccountXpub(seed, chain.BTC, 1)
	require.NoError(t, err)
	assert.NotEqual(t, xpub, acct1)
}

func TestDeriveAccountXpub_InvalidSeed(t *testing.T) {
	t.Parallel()

	_, err := DeriveAccountXpub(make([]byte, 8), chain.BTC, 0)
	assert.True(t, kferr.Is(err, kferr.ErrInvalidSeed))
}

// Watch-only derivation from an account xpub must produce the same
// addresses as full derivation from the seed.
func TestDeriveAddressFromXpub_MatchesSeedDerivation(t *testing.T) {
	t.Parallel()
	seed := testSeed(t)

	for _, id := range []chain.ID{chain.BTC, chain.ETH, chain.ZEC} {
		xpub, err := DeriveAccountXpub(seed, id, 7)
		require.NoError(t, err)

		for _, change := range []uint32{hdkey.ExternalChain, hdkey.InternalChain} {
			for _, index := range []uint32{0, 1, 5} {
				watch, err := DeriveAddressFromXpub(xpub, id, change, index)
				require.NoError(t, err)

				direct, err := DeriveAddressWithChange(seed, id, 7, change, index)
				require.NoError(t, err)

				assert.Equal(t, direct.Address, watch.Address, "%s change=%d index=%d", id, change, index)
				assert.Equal(t, direct.PublicKey, watch.PublicKey)
				assert.Equal(t, direct.Path, watch.Path)
				assert.Equal(t, direct.IsChange, watch.IsChange)
			}
		}
	}
}

func TestDeriveAddressFromXpub_RejectsPrivateKey(t *testing.T) {
	t.Parallel()
	seed := testSeed(t)

	path, err := chain.BTC.AccountPath(0)
	require.NoError(t, err)
	key, err := deriveSecpKey(seed, path)
	require.NoError(t, err)
	xprv := key.String()
	key.Zero()

	_, err = DeriveAddressFromXpub(xprv, chain.BTC, 0, 0)
	require.Error(t, err)
	assert.True(t, kferr.Is(err, kferr.ErrInvalidInput))
	assert.Contains(t, err.Error(), "private key")
}

func TestDeriveAddressFromXpub_RejectsNonAccountKey(t *testing.T) {
	t.Parallel()
	seed := testSeed(t)

	// Master-level xpub (depth 0)
	master, err := hdkey.NewMaster(seed)
	require.NoError(t, err)
	masterXpub := master.Neuter().String()
	master.Zero()

	_, err = DeriveAddressFromXpub(masterXpub, chain.BTC, 0, 0)
	require.Error(t, err)
	assert.True(t, kferr.Is(err, kferr.ErrInvalidInput))

	// Chain-level xpub (depth 4, non-hardened)
	accountXpub, err := DeriveAccountXpub(seed, chain.BTC, 0)
	require.NoError(t, err)
	accountKey, err := hdkey.ParseExtendedKey(accountXpub)
	require.NoError(t, err)
	chainKey, err := accountKey.Child(hdkey.ExternalChain)
	require.NoError(t, err)

	_, err = DeriveAddressFromXpub(chainKey.String(), chain.BTC, 0, 0)
	require.Error(t, err)
	assert.True(t, kferr.Is(err, kferr.ErrInvalidInput))
}

func TestDeriveAddressFromXpub_SolanaNotSupported(t *testing.T) {
	t.Parallel()
	seed := testSeed(t)

	// Any well-formed xpub; the chain check comes first
	xpub, err := DeriveAccountXpub(seed, chain.BTC, 0)
	require.NoError(t, err)

	_, err = DeriveAddressFromXpub(xpub, chain.SOL, 0, 0)
	assert.True(t, kferr.Is(err, kferr.ErrNotSupported))
}

func TestDeriveAddressFromXpub_Garbage(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "notanxpub", "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8!"} {
		_, err := DeriveAddressFromXpub(input, chain.BTC, 0, 0)
		require.Error(t, err, "input %q", input)
		assert.True(t, kferr.Is(err, kferr.ErrInvalidExtendedKey), "input %q", input)
	}
}
