package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/wallet"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// resetAddressesFlags restores the wallet addresses flag globals.
func resetAddressesFlags(t *testing.T) {
	t.Helper()
	origChain := addressesChain
	origCount := addressesCount
	origChange := addressesChange
	origQR := addressesQR
	t.Cleanup(func() {
		addressesChain = origChain
		addressesCount = origCount
		addressesChange = origChange
		addressesQR = origQR
	})
	addressesChain = ""
	addressesCount = 0
	addressesChange = false
	addressesQR = false
}

func TestRunWalletAddresses_StoredNoPassword(t *testing.T) {
	setupTestEnv(t)
	stubPrompts(t, []byte("testpassword1"), true)
	resetAddressesFlags(t)

	saveTestWallet(t, "listing", []chain.ID{chain.ETH})

	// Listing stored addresses must never unlock the seed.
	readPasswordFn = func(_ string) ([]byte, error) {
		t.Fatal("password prompt must not run for stored addresses")
		return nil, nil
	}

	addressesChain = "eth"

	cmd, buf := newTestCmd()

	require.NoError(t, runWalletAddresses(cmd, []string{"listing"}))

	out := buf.String()
	assert.Contains(t, out, testEthAddress)
	assert.Contains(t, out, "m/44'/60'/0'/0/1")
}

func TestRunWalletAddresses_CountSubset(t *testing.T) {
	setupTestEnv(t)
	stubPrompts(t, []byte("testpassword1"), true)
	resetAddressesFlags(t)

	saveTestWallet(t, "subset", []chain.ID{chain.ETH})

	addressesChain = "eth"
	addressesCount = 1

	cmd, buf := newTestCmd()

	require.NoError(t, runWalletAddresses(cmd, []string{"subset"}))

	out := buf.String()
	assert.Contains(t, out, "m/44'/60'/0'/0/0")
	assert.NotContains(t, out, "m/44'/60'/0'/0/1")
}

func TestRunWalletAddresses_DerivesBeyondStored(t *testing.T) {
	setupTestEnv(t)
	stubPrompts(t, []byte("testpassword1"), true)
	resetAddressesFlags(t)

	saveTestWallet(t, "extend", []chain.ID{chain.ETH})

	addressesChain = "eth"
	addressesCount = 5

	cmd, buf := newTestCmd()

	require.NoError(t, runWalletAddresses(cmd, []string{"extend"}))

	out := buf.String()
	assert.Contains(t, out, testEthAddress)
	assert.Contains(t, out, "m/44'/60'/0'/0/4")

	// Deriving on demand does not grow the wallet file.
	meta, err := walletStore().LoadMetadata("extend")
	require.NoError(t, err)
	assert.Len(t, meta.Addresses[chain.ETH], 2)
}

func TestRunWalletAddresses_ChangeChain(t *testing.T) {
	setupTestEnv(t)
	stubPrompts(t, []byte("testpassword1"), true)
	resetAddressesFlags(t)

	saveTestWallet(t, "internal", []chain.ID{chain.ETH})

	addressesChain = "eth"
	addressesChange = true
	addressesCount = 2

	cmd, buf := newTestCmd()

	require.NoError(t, runWalletAddresses(cmd, []string{"internal"}))

	out := buf.String()
	assert.Contains(t, out, "m/44'/60'/0'/1/0")
	assert.Contains(t, out, "m/44'/60'/0'/1/1")
	assert.NotContains(t, out, testEthAddress)
}

func TestRunWalletAddresses_NoneStored(t *testing.T) {
	setupTestEnv(t)
	stubPrompts(t, []byte("testpassword1"), true)
	resetAddressesFlags(t)

	saveTestWallet(t, "bare", []chain.ID{chain.ETH})

	// No change addresses are derived at creation time.
	addressesChain = "eth"
	addressesChange = true

	cmd, buf := newTestCmd()

	require.NoError(t, runWalletAddresses(cmd, []string{"bare"}))
	assert.Contains(t, buf.String(), "No addresses on file. Use --count to derive some.")
}

func TestRunWalletAddresses_JSON(t *testing.T) {
	setupTestEnv(t)
	useJSONOutput()
	stubPrompts(t, []byte("testpassword1"), true)
	resetAddressesFlags(t)

	saveTestWallet(t, "jsonaddrs", []chain.ID{chain.BTC})

	addressesChain = "btc"

	cmd, buf := newTestCmd()

	require.NoError(t, runWalletAddresses(cmd, []string{"jsonaddrs"}))

	var addrs []wallet.Address
	require.NoError(t, json.Unmarshal(buf.Bytes(), &addrs))
	require.Len(t, addrs, 2)
	assert.Equal(t, testBtcAddress, addrs[0].Address)
	assert.Equal(t, "m/44'/0'/0'/0/0", addrs[0].Path)
	assert.False(t, addrs[0].IsChange)
}

func TestRunWalletAddresses_ChainNotEnabled(t *testing.T) {
	setupTestEnv(t)
	stubPrompts(t, []byte("testpassword1"), true)
	resetAddressesFlags(t)

	saveTestWallet(t, "ethonly", []chain.ID{chain.ETH})

	addressesChain = "btc"

	cmd, _ := newTestCmd()

	err := runWalletAddresses(cmd, []string{"ethonly"})
	require.ErrorIs(t, err, kferr.ErrUnsupportedChain)

	var ke *kferr.KeyfoldError
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, "ethonly", ke.Details["wallet"])
	assert.Equal(t, "btc", ke.Details["chain"])
}

func TestRunWalletAddresses_CountOutOfRange(t *testing.T) {
	setupTestEnv(t)
	resetAddressesFlags(t)

	addressesChain = "eth"
	addressesCount = wallet.MaxAddressDerivation + 1

	cmd, _ := newTestCmd()

	err := runWalletAddresses(cmd, []string{"whatever"})
	require.ErrorIs(t, err, kferr.ErrInvalidInput)
}

func TestRunWalletAddresses_QR(t *testing.T) {
	setupTestEnv(t)
	stubPrompts(t, []byte("testpassword1"), true)
	resetAddressesFlags(t)

	saveTestWallet(t, "scanme", []chain.ID{chain.ETH})

	addressesChain = "eth"
	addressesQR = true

	cmd, buf := newTestCmd()

	require.NoError(t, runWalletAddresses(cmd, []string{"scanme"}))

	out := buf.String()
	assert.Contains(t, out, testEthAddress+":")
	assert.Contains(t, out, "█")
}

func TestRequireChainEnabled(t *testing.T) {
	t.Parallel()

	wlt := &wallet.Wallet{Name: "picky", EnabledChains: []chain.ID{chain.ETH, chain.SOL}}
	require.NoError(t, requireChainEnabled(wlt, chain.ETH))
	require.NoError(t, requireChainEnabled(wlt, chain.SOL))
	require.ErrorIs(t, requireChainEnabled(wlt, chain.ZEC), kferr.ErrUnsupportedChain)
}
