// Package chain defines the closed set of supported blockchains and
// their derivation parameters.
package chain

import (
	"strings"

	"github.com/keyfold/keyfold/internal/hdkey"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// ID names one of the chains keyfold derives addresses for.
type ID string

// Chain identifiers in their command-line spelling.
const (
	ETH ID = "eth"
	BTC ID = "btc"
	ZEC ID = "zec"
	SOL ID = "sol"
)

// SLIP-44 registered coin types.
const (
	coinTypeETH uint32 = 60
	coinTypeBTC uint32 = 0
	coinTypeZEC uint32 = 133
	coinTypeSOL uint32 = 501
)

// Curve identifies the signature curve a chain derives keys on.
type Curve string

// Supported curves.
const (
	CurveSecp256k1 Curve = "secp256k1"
	CurveEd25519   Curve = "ed25519"
)

// aliases maps long-form chain names onto identifiers.
var aliases = map[string]ID{
	"ethereum": ETH,
	"bitcoin":  BTC,
	"zcash":    ZEC,
	"solana":   SOL,
}

// Supported returns all chain identifiers in display order.
func Supported() []ID {
	return []ID{ETH, BTC, ZEC, SOL}
}

// SupportedNames returns the identifier strings in display order.
func SupportedNames() []string {
	ids := Supported()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return names
}

// String returns the short identifier, e.g. "eth".
func (id ID) String() string {
	return string(id)
}

// IsValid reports whether id is one of the supported chains.
func (id ID) IsValid() bool {
	switch id {
	case ETH, BTC, ZEC, SOL:
		return true
	default:
		return false
	}
}

// DisplayName returns the human-readable chain name.
func (id ID) DisplayName() string {
	switch id {
	case ETH:
		return "Ethereum"
	case BTC:
		return "Bitcoin"
	case ZEC:
		return "Zcash"
	case SOL:
		return "Solana"
	default:
		return ""
	}
}

// CoinType returns the SLIP-44 coin type used in derivation paths.
func (id ID) CoinType() uint32 {
	switch id {
	case ETH:
		return coinTypeETH
	case BTC:
		return coinTypeBTC
	case ZEC:
		return coinTypeZEC
	case SOL:
		return coinTypeSOL
	default:
		return 0
	}
}

// Curve returns the signature curve the chain derives keys on.
func (id ID) Curve() Curve {
	if id == SOL {
		return CurveEd25519
	}
	return CurveSecp256k1
}

// HasChangeChain reports whether the chain keeps separate external and
// internal address chains. Only the UTXO chains spend through change
// addresses; the account-based chains reuse one address.
func (id ID) HasChangeChain() bool {
	return id == BTC || id == ZEC
}

// AddressPath builds the derivation path for an address on this chain.
//
// The secp256k1 chains use the five-level BIP-44 shape
// m/44'/coin'/account'/change/index. Solana follows the SLIP-10
// convention m/44'/501'/index'/0' where the address index sits in the
// hardened account slot; the account and change arguments must be
// zero there.
func (id ID) AddressPath(account, change, index uint32) (hdkey.Path, error) {
	if !id.IsValid() {
		return nil, unsupported(id.String())
	}

	if id == SOL {
		if account != 0 {
			return nil, kferr.Wrap(kferr.ErrNotSupported, "solana derivation does not use accounts")
		}
		if change != hdkey.ExternalChain {
			return nil, kferr.Wrap(kferr.ErrNotSupported, "solana derivation has no change chain")
		}
		addr, err := hdkey.Hardened(index)
		if err != nil {
			return nil, err
		}
		return hdkey.Path{
			hdkey.HardenedKeyStart + 44,
			hdkey.HardenedKeyStart + coinTypeSOL,
			addr,
			hdkey.HardenedKeyStart,
		}, nil
	}

	return hdkey.BIP44(id.CoinType(), account, change, index)
}

// AccountPath builds the hardened account-level prefix
// m/44'/coin'/account' used for extended public key export. Solana has
// no meaningful account-level public derivation.
func (id ID) AccountPath(account uint32) (hdkey.Path, error) {
	if !id.IsValid() {
		return nil, unsupported(id.String())
	}
	if id == SOL {
		return nil, kferr.Wrap(kferr.ErrNotSupported, "solana keys cannot be exported as xpub")
	}

	purpose, err := hdkey.Hardened(44)
	if err != nil {
		return nil, err
	}
	coin, err := hdkey.Hardened(id.CoinType())
	if err != nil {
		return nil, err
	}
	acct, err := hdkey.Hardened(account)
	if err != nil {
		return nil, err
	}
	return hdkey.Path{purpose, coin, acct}, nil
}

// ParseID parses a chain identifier or long-form name. Matching is
// case-insensitive.
func ParseID(s string) (ID, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))

	id := ID(normalized)
	if id.IsValid() {
		return id, nil
	}
	if alias, ok := aliases[normalized]; ok {
		return alias, nil
	}
	return "", unsupported(s)
}

func unsupported(name string) error {
	err := kferr.WithDetails(kferr.ErrUnsupportedChain,
		map[string]string{"chain": name})
	return kferr.WithSuggestion(err,
		"supported chains: "+strings.Join(SupportedNames(), ", "))
}
