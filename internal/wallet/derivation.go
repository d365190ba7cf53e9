package wallet

import (
	"encoding/hex"
	"strconv"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/hdkey"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// MaxAddressDerivation caps how many addresses a single range request
// may derive.
const MaxAddressDerivation = 100000

// Address is a derived address with its derivation metadata. It never
// carries private key material.
type Address struct {
	// Chain identifies which chain the address belongs to.
	Chain chain.ID `json:"chain"`

	// Path is the full BIP44 path, hardened markers included.
	Path string `json:"path"`

	// Index is the address position on its chain.
	Index uint32 `json:"index"`

	// Address is the chain-encoded address.
	Address string `json:"address"`

	// PublicKey is the hex of the public key behind the address.
	PublicKey string `json:"public_key"`

	// IsChange marks addresses on the internal (change) chain.
	IsChange bool `json:"is_change,omitempty"`
}

// DeriveAddress derives the receive address at the given account and
// index for a chain. The seed is read but never retained.
func DeriveAddress(seed []byte, id chain.ID, account, index uint32) (*Address, error) {
	return DeriveAddressWithChange(seed, id, account, hdkey.ExternalChain, index)
}

// DeriveAddressWithChange derives an address on either the external
// (change = 0) or internal (change = 1) chain.
func DeriveAddressWithChange(seed []byte, id chain.ID, account, change, index uint32) (*Address, error) {
	path, err := id.AddressPath(account, change, index)
	if err != nil {
		return nil, err
	}

	var pub []byte
	switch id.Curve() {
	case chain.CurveEd25519:
		key, err := hdkey.DeriveSLIP10Ed25519(seed, path)
		if err != nil {
			return nil, err
		}
		pub = key.PublicKey()
		key.Zero()
	default:
		key, err := deriveSecpKey(seed, path)
		if err != nil {
			return nil, err
		}
		pub = key.PublicKeyBytes()
		key.Zero()
	}

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

// DerivePrivateKey derives the raw private key for an address slot.
// Secp256k1 chains return the 32-byte scalar; ed25519 chains return
// the 64-byte expanded key whose first 32 bytes are the seed. The
// caller owns the result and must zero it when done.
func DerivePrivateKey(seed []byte, id chain.ID, account, change, index uint32) ([]byte, error) {
	path, err := id.AddressPath(account, change, index)
	if err != nil {
		return nil, err
	}

	if id.Curve() == chain.CurveEd25519 {
		key, err := hdkey.DeriveSLIP10Ed25519(seed, path)
		if err != nil {
			return nil, err
		}
		priv := key.PrivateKey()
		key.Zero()
		return priv, nil
	}

	key, err := deriveSecpKey(seed, path)
	if err != nil {
		return nil, err
	}
	priv, err := key.PrivateKeyBytes()
	key.Zero()
	if err != nil {
		return nil, err
	}
	return priv, nil
}

// DeriveAddressRange derives count consecutive addresses starting at
// index start. Indices where child derivation is impossible are
// skipped, so the result can in principle hold fewer than count
// entries.
func DeriveAddressRange(seed []byte, id chain.ID, account, change, start uint32, count int) ([]Address, error) {
	if count < 0 || count > MaxAddressDerivation {
		err := kferr.WithDetails(kferr.ErrInvalidInput,
			map[string]string{"count": strconv.Itoa(count)})
		return nil, kferr.WithSuggestion(err, "address count must be between 0 and "+strconv.Itoa(MaxAddressDerivation))
	}
	if count == 0 {
		return nil, nil
	}
	if start > hdkey.HardenedKeyStart-uint32(count) {
		return nil, kferr.WithDetails(kferr.ErrInvalidIndex,
			map[string]string{"index": strconv.FormatUint(uint64(start)+uint64(count)-1, 10)})
	}

	// Ed25519 chains place the index in a hardened slot, so every
	// address needs its own derivation from the seed.
	if id.Curve() == chain.CurveEd25519 {
		addrs := make([]Address, 0, count)
		for i := start; i < start+uint32(count); i++ {
			addr, err := DeriveAddressWithChange(seed, id, account, change, i)
			if err != nil {
				return nil, err
			}
			addrs = append(addrs, *addr)
		}
		return addrs, nil
	}

	// For secp256k1 chains the chain-level node is shared, so derive
	// it once and walk children from there.
	parent, err := id.AddressPath(account, change, start)
	if err != nil {
		return nil, err
	}
	parent = parent[:len(parent)-1]

	node, err := deriveSecpKey(seed, parent)
	if err != nil {
		return nil, err
	}
	defer node.Zero()

	addrs := make([]Address, 0, count)
	for i := start; i < start+uint32(count); i++ {
		child, err := node.Child(i)
		if err != nil {
			if kferr.Is(err, kferr.ErrInvalidChildKey) {
				continue
			}
			return nil, err
		}

		pub := child.PublicKeyBytes()
		child.Zero()

		addr, err := chain.EncodeAddress(id, pub)
		if err != nil {
			return nil, err
		}
		childPath := append(parent[:len(parent):len(parent)], i)
		addrs = append(addrs, Address{
			Chain:     id,
			Path:      childPath.String(),
			Index:     i,
			Address:   addr,
			PublicKey: hex.EncodeToString(pub),
			IsChange:  change == hdkey.InternalChain,
		})
	}
	return addrs, nil
}

// MasterFingerprint returns the hex fingerprint of the master key for
// a seed. It identifies a wallet without exposing key material.
func MasterFingerprint(seed []byte) (string, error) {
	master, err := hdkey.NewMaster(seed)
	if err != nil {
		return "", err
	}
	fp := hex.EncodeToString(master.Fingerprint())
	master.Zero()
	return fp, nil
}

// deriveSecpKey derives the extended key at path, zeroing the master
// and every intermediate before returning.
func deriveSecpKey(seed []byte, path hdkey.Path) (*hdkey.ExtendedKey, error) {
	master, err := hdkey.NewMaster(seed)
	if err != nil {
		return nil, err
	}
	key, err := master.Derive(path)
	master.Zero()
	if err != nil {
		return nil, err
	}
	return key, nil
}
