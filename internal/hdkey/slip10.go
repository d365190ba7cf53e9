package hdkey

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"

	"github.com/keyfold/keyfold/internal/securemem"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// slip10MasterKey is the fixed HMAC key for ed25519 master key
// generation.
var slip10MasterKey = []byte("ed25519 seed")

// SLIP10Key is an ed25519 extended key derived per SLIP-10. The key
// field is the 32-byte ed25519 seed, not the expanded private key.
type SLIP10Key struct {
	key       []byte // 32 bytes
	chainCode []byte // 32 bytes
}

// NewSLIP10Master derives the ed25519 master key from a seed.
func NewSLIP10Master(seed []byte) (*SLIP10Key, error) {
	if len(seed) < MinSeedBytes || len(seed) > MaxSeedBytes {
		return nil, kferr.Wrap(kferr.ErrInvalidSeed, "slip10 master")
	}

	mac := hmac.New(sha512.New, slip10MasterKey)
	mac.Write(seed)
	sum := mac.Sum(nil)
	defer securemem.ZeroBytes(sum)

	key := make([]byte, 32)
	copy(key, sum[:32])
	chainCode := make([]byte, 32)
	copy(chainCode, sum[32:])

	return &SLIP10Key{key: key, chainCode: chainCode}, nil
}

// Child derives the hardened child at index i. SLIP-10 defines only
// hardened derivation for ed25519, so i must carry the hardened bit.
func (k *SLIP10Key) Child(i uint32) (*SLIP10Key, error) {
	if i < HardenedKeyStart {
		return nil, kferr.Wrap(kferr.ErrInvalidPath, "ed25519 derivation requires hardened indices")
	}

	// data = 0x00 || parent key || ser32(i)
	data := make([]byte, 0, 37)
	data = append(data, 0x00)
	data = append(data, k.key...)
	data = binary.BigEndian.AppendUint32(data, i)
	defer securemem.ZeroBytes(data)

	mac := hmac.New(sha512.New, k.chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	defer securemem.ZeroBytes(sum)

	key := make([]byte, 32)
	copy(key, sum[:32])
	chainCode := make([]byte, 32)
	copy(chainCode, sum[32:])

	return &SLIP10Key{key: key, chainCode: chainCode}, nil
}

// Derive folds Child over every segment of the path.
func (k *SLIP10Key) Derive(path Path) (*SLIP10Key, error) {
	current := k
	for _, index := range path {
		child, err := current.Child(index)
		if err != nil {
			if current != k {
				current.Zero()
			}
			return nil, err
		}
		if current != k {
			current.Zero()
		}
		current = child
	}
	return current, nil
}

// DeriveSLIP10Ed25519 derives the ed25519 key at path from a seed.
func DeriveSLIP10Ed25519(seed []byte, path Path) (*SLIP10Key, error) {
	master, err := NewSLIP10Master(seed)
	if err != nil {
		return nil, err
	}

	key, err := master.Derive(path)
	if err != nil {
		master.Zero()
		return nil, err
	}
	if key != master {
		master.Zero()
	}
	return key, nil
}

// PublicKey returns the 32-byte ed25519 public key.
func (k *SLIP10Key) PublicKey() ed25519.PublicKey {
	priv := ed25519.NewKeyFromSeed(k.key)
	pub := make([]byte, ed25519.PublicKeySize)
	copy(pub, priv[32:])
	securemem.ZeroBytes(priv)
	return pub
}

// PrivateKey returns the 64-byte expanded ed25519 private key. The
// caller owns the copy and must zero it after use.
func (k *SLIP10Key) PrivateKey() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(k.key)
}

// Zero overwrites the key material. The key is unusable afterwards.
func (k *SLIP10Key) Zero() {
	securemem.ZeroBytes(k.key)
	securemem.ZeroBytes(k.chainCode)
	k.key = nil
	k.chainCode = nil
}
