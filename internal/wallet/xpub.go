package wallet

import (
	"encoding/hex"
	"strconv"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/hdkey"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// accountKeyDepth is the tree depth of a BIP44 account node
// (m / purpose' / coin' / account').
const accountKeyDepth = 3

// DeriveAccountXpub derives the extended public key for a BIP44
// account (m/44'/coin'/account', neutered). The xpub supports
// watch-only address derivation without exposing the seed or any
// private key. Ed25519 chains have no meaningful xpub because their
// derivation is hardened-only.
func DeriveAccountXpub(seed []byte, id chain.ID, account uint32) (string, error) {
	path, err := id.AccountPath(account)
	if err != nil {
		return "", err
	}

	key, err := deriveSecpKey(seed, path)
	if err != nil {
		return "", err
	}
	xpub := key.Neuter().String()
	key.Zero()
	return xpub, nil
}

// DeriveAddressFromXpub derives an address from an account-level
// xpub. Only the non-hardened change and index levels remain below
// an account node, so this covers exactly the watch-only cases.
func DeriveAddressFromXpub(xpub string, id chain.ID, change, index uint32) (*Address, error) {
	if id.Curve() == chain.CurveEd25519 {
		return nil, kferr.Wrap(kferr.ErrNotSupported, "watch-only derivation needs a secp256k1 xpub")
	}

	key, err := hdkey.ParseExtendedKey(xpub)
	if err != nil {
		return nil, err
	}
	if key.IsPrivate() {
		key.Zero()
		return nil, kferr.Wrap(kferr.ErrInvalidInput, "expected an extended public key, got a private key")
	}
	if key.Depth() != accountKeyDepth || key.ChildIndex() < hdkey.HardenedKeyStart {
		return nil, kferr.WithDetails(
			kferr.Wrap(kferr.ErrInvalidInput, "not an account-level extended key"),
			map[string]string{"depth": strconv.Itoa(int(key.Depth()))})
	}

	account := key.ChildIndex() - hdkey.HardenedKeyStart
	path, err := id.AddressPath(account, change, index)
	if err != nil {
		return nil, err
	}

	chainKey, err := key.Child(change)
	if err != nil {
		return nil, err
	}
	child, err := chainKey.Child(index)
	if err != nil {
		return nil, err
	}

	pub := child.PublicKeyBytes()
	addr, err := chain.EncodeAddress(id, pub)
	if err != nil {
		return nil, err
	}

	return &Address{
		Chain:     id,
		Path:      path.String(),
		Index:     index,
		Address:   addr,
		PublicKey: hex.EncodeToString(pub),
		IsChange:  change == hdkey.InternalChain,
	}, nil
}
