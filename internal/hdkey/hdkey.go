// Package hdkey implements BIP-32 hierarchical deterministic key trees
// over secp256k1, plus SLIP-10 derivation for ed25519 chains. Extended
// keys are immutable after creation and safe for concurrent use; Zero
// must only be called by the final owner once no other goroutine can
// reach the key.
package hdkey

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/keyfold/keyfold/internal/securemem"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

const (
	// HardenedKeyStart is the first hardened child index (2^31).
	HardenedKeyStart uint32 = 0x80000000

	// MinSeedBytes and MaxSeedBytes bound the master seed length
	// (128 to 512 bits).
	MinSeedBytes = 16
	MaxSeedBytes = 64

	// maxDepth is the deepest level the one-byte depth field can hold.
	maxDepth = 255

	// serializedKeyLen is the length of a serialized extended key:
	// version(4) + depth(1) + parent fingerprint(4) + child index(4) +
	// chain code(32) + key data(33).
	serializedKeyLen = 78
)

// masterHMACKey is the fixed HMAC key for master key generation.
var masterHMACKey = []byte("Bitcoin seed")

// Mainnet serialization version prefixes (xprv / xpub).
var (
	versionPrivate = []byte{0x04, 0x88, 0xAD, 0xE4}
	versionPublic  = []byte{0x04, 0x88, 0xB2, 0x1E}
)

// ExtendedKey is a BIP-32 extended key: key material plus the chain
// code and positional metadata needed to derive children.
type ExtendedKey struct {
	key       []byte // 32-byte private scalar; nil for public-only keys
	pubKey    []byte // 33-byte compressed public key, always populated
	chainCode []byte // 32 bytes
	depth     uint8
	parentFP  []byte // 4 bytes
	childNum  uint32
	isPrivate bool
}

// NewMaster derives the master extended key from a seed.
// The seed must be between MinSeedBytes and MaxSeedBytes long.
func NewMaster(seed []byte) (*ExtendedKey, error) {
	if len(seed) < MinSeedBytes || len(seed) > MaxSeedBytes {
		return nil, kferr.WithDetails(kferr.ErrInvalidSeed,
			map[string]string{"length": strconv.Itoa(len(seed))})
	}

	mac := hmac.New(sha512.New, masterHMACKey)
	mac.Write(seed)
	sum := mac.Sum(nil)
	defer securemem.ZeroBytes(sum)

	il, ir := sum[:32], sum[32:]

	// A master key whose left half is zero or not below the curve
	// order cannot be used; the seed itself is unusable.
	var scalar secp256k1.ModNScalar
	overflow := scalar.SetByteSlice(il)
	zero := scalar.IsZero()
	scalar.Zero()
	if overflow || zero {
		return nil, kferr.Wrap(kferr.ErrInvalidSeed, "unusable master key")
	}

	key := make([]byte, 32)
	copy(key, il)
	chainCode := make([]byte, 32)
	copy(chainCode, ir)

	return &ExtendedKey{
		key:       key,
		pubKey:    compressedPubKey(key),
		chainCode: chainCode,
		depth:     0,
		parentFP:  []byte{0, 0, 0, 0},
		childNum:  0,
		isPrivate: true,
	}, nil
}

// IsPrivate reports whether the key carries private material.
func (k *ExtendedKey) IsPrivate() bool {
	return k.isPrivate
}

// Depth returns the key's level below the master key.
func (k *ExtendedKey) Depth() uint8 {
	return k.depth
}

// ChildIndex returns the index this key was derived at, including the
// hardened bit.
func (k *ExtendedKey) ChildIndex() uint32 {
	return k.childNum
}

// ParentFingerprint returns a copy of the 4-byte parent fingerprint.
func (k *ExtendedKey) ParentFingerprint() []byte {
	fp := make([]byte, 4)
	copy(fp, k.parentFP)
	return fp
}

// Fingerprint returns the first four bytes of HASH160 of the
// compressed public key, identifying this key as a parent.
func (k *ExtendedKey) Fingerprint() []byte {
	return btcutil.Hash160(k.pubKey)[:4]
}

// PublicKeyBytes returns a copy of the 33-byte compressed public key.
func (k *ExtendedKey) PublicKeyBytes() []byte {
	pub := make([]byte, len(k.pubKey))
	copy(pub, k.pubKey)
	return pub
}

// PrivateKeyBytes returns a copy of the 32-byte private scalar.
// The caller owns the copy and must zero it after use.
func (k *ExtendedKey) PrivateKeyBytes() ([]byte, error) {
	if !k.isPrivate {
		return nil, kferr.ErrPublicOnlyKey
	}
	key := make([]byte, 32)
	copy(key, k.key)
	return key, nil
}

// Child derives the child extended key at index i. Indices at or above
// HardenedKeyStart use hardened derivation, which requires private
// material. The degenerate cases defined by BIP-32 (left HMAC half not
// below the curve order, or a zero child key) fail with an
// INVALID_CHILD_KEY error; the caller may retry with the next index.
func (k *ExtendedKey) Child(i uint32) (*ExtendedKey, error) {
	if k.depth == maxDepth {
		return nil, kferr.Wrap(kferr.ErrInvalidPath, "key depth exceeds %d", maxDepth)
	}

	hardened := i >= HardenedKeyStart
	if hardened && !k.isPrivate {
		return nil, kferr.ErrHardenedFromPublic
	}

	// Hardened: 0x00 || parent key || ser32(i)
	// Normal:   parent compressed public key || ser32(i)
	data := make([]byte, 0, 37)
	if hardened {
		data = append(data, 0x00)
		data = append(data, k.key...)
	} else {
		data = append(data, k.pubKey...)
	}
	data = binary.BigEndian.AppendUint32(data, i)
	defer securemem.ZeroBytes(data)

	mac := hmac.New(sha512.New, k.chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	defer securemem.ZeroBytes(sum)

	il, ir := sum[:32], sum[32:]

	var ilScalar secp256k1.ModNScalar
	if overflow := ilScalar.SetByteSlice(il); overflow {
		return nil, kferr.WithDetails(kferr.ErrInvalidChildKey,
			map[string]string{"index": strconv.FormatUint(uint64(i), 10)})
	}
	defer ilScalar.Zero()

	chainCode := make([]byte, 32)
	copy(chainCode, ir)

	child := &ExtendedKey{
		chainCode: chainCode,
		depth:     k.depth + 1,
		parentFP:  k.Fingerprint(),
		childNum:  i,
	}

	if k.isPrivate {
		// child = (IL + parent) mod N
		var parentScalar secp256k1.ModNScalar
		parentScalar.SetByteSlice(k.key)
		ilScalar.Add(&parentScalar)
		parentScalar.Zero()

		if ilScalar.IsZero() {
			securemem.ZeroBytes(chainCode)
			return nil, kferr.WithDetails(kferr.ErrInvalidChildKey,
				map[string]string{"index": strconv.FormatUint(uint64(i), 10)})
		}

		keyBytes := ilScalar.Bytes()
		child.key = make([]byte, 32)
		copy(child.key, keyBytes[:])
		securemem.ZeroBytes(keyBytes[:])
		child.pubKey = compressedPubKey(child.key)
		child.isPrivate = true
		return child, nil
	}

	// Public parent: child point = IL*G + parent point.
	parentPub, err := secp256k1.ParsePubKey(k.pubKey)
	if err != nil {
		return nil, kferr.Wrap(kferr.ErrInvalidExtendedKey, "parent public key")
	}

	var ilPoint, parentPoint, childPoint secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&ilScalar, &ilPoint)
	parentPub.AsJacobian(&parentPoint)
	secp256k1.AddNonConst(&ilPoint, &parentPoint, &childPoint)

	if childPoint.Z.IsZero() {
		// Point at infinity.
		securemem.ZeroBytes(chainCode)
		return nil, kferr.WithDetails(kferr.ErrInvalidChildKey,
			map[string]string{"index": strconv.FormatUint(uint64(i), 10)})
	}

	childPoint.ToAffine()
	child.pubKey = secp256k1.NewPublicKey(&childPoint.X, &childPoint.Y).SerializeCompressed()
	return child, nil
}

// Derive folds Child over each segment of the path in order.
func (k *ExtendedKey) Derive(path Path) (*ExtendedKey, error) {
	if int(k.depth)+len(path) > maxDepth {
		return nil, kferr.Wrap(kferr.ErrInvalidPath, "path depth exceeds %d", maxDepth)
	}

	current := k
	for _, index := range path {
		child, err := current.Child(index)
		if err != nil {
			// Intermediate keys are discarded; zero any private
			// material before surfacing the error.
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

// Neuter returns the public-only counterpart of this key. The result
// shares no buffers with the receiver.
func (k *ExtendedKey) Neuter() *ExtendedKey {
	chainCode := make([]byte, 32)
	copy(chainCode, k.chainCode)

	return &ExtendedKey{
		key:       nil,
		pubKey:    k.PublicKeyBytes(),
		chainCode: chainCode,
		depth:     k.depth,
		parentFP:  k.ParentFingerprint(),
		childNum:  k.childNum,
		isPrivate: false,
	}
}

// String serializes the key in the Base58Check xprv/xpub format.
func (k *ExtendedKey) String() string {
	payload := make([]byte, 0, serializedKeyLen)
	if k.isPrivate {
		payload = append(payload, versionPrivate...)
	} else {
		payload = append(payload, versionPublic...)
	}
	payload = append(payload, k.depth)
	payload = append(payload, k.parentFP...)
	payload = binary.BigEndian.AppendUint32(payload, k.childNum)
	payload = append(payload, k.chainCode...)
	if k.isPrivate {
		payload = append(payload, 0x00)
		payload = append(payload, k.key...)
	} else {
		payload = append(payload, k.pubKey...)
	}

	checksum := doubleSHA256(payload)[:4]
	encoded := base58.Encode(append(payload, checksum...))
	securemem.ZeroBytes(payload)
	return encoded
}

// ParseExtendedKey decodes a Base58Check xprv/xpub string.
func ParseExtendedKey(s string) (*ExtendedKey, error) {
	decoded := base58.Decode(s)
	if len(decoded) != serializedKeyLen+4 {
		return nil, kferr.Wrap(kferr.ErrInvalidExtendedKey, "wrong length")
	}

	payload, checksum := decoded[:serializedKeyLen], decoded[serializedKeyLen:]
	if !bytes.Equal(doubleSHA256(payload)[:4], checksum) {
		return nil, kferr.Wrap(kferr.ErrInvalidExtendedKey, "bad checksum")
	}

	version := payload[:4]
	depth := payload[4]
	parentFP := make([]byte, 4)
	copy(parentFP, payload[5:9])
	childNum := binary.BigEndian.Uint32(payload[9:13])
	chainCode := make([]byte, 32)
	copy(chainCode, payload[13:45])
	keyData := payload[45:78]

	key := &ExtendedKey{
		chainCode: chainCode,
		depth:     depth,
		parentFP:  parentFP,
		childNum:  childNum,
	}

	switch {
	case bytes.Equal(version, versionPrivate):
		if keyData[0] != 0x00 {
			return nil, kferr.Wrap(kferr.ErrInvalidExtendedKey, "bad private key padding")
		}
		var scalar secp256k1.ModNScalar
		overflow := scalar.SetByteSlice(keyData[1:])
		zero := scalar.IsZero()
		scalar.Zero()
		if overflow || zero {
			return nil, kferr.Wrap(kferr.ErrInvalidExtendedKey, "private key out of range")
		}
		key.key = make([]byte, 32)
		copy(key.key, keyData[1:])
		key.pubKey = compressedPubKey(key.key)
		key.isPrivate = true
	case bytes.Equal(version, versionPublic):
		if _, err := secp256k1.ParsePubKey(keyData); err != nil {
			return nil, kferr.Wrap(kferr.ErrInvalidExtendedKey, "bad public key")
		}
		key.pubKey = make([]byte, 33)
		copy(key.pubKey, keyData)
	default:
		return nil, kferr.Wrap(kferr.ErrInvalidExtendedKey, "unknown version")
	}

	return key, nil
}

// Zero overwrites all key material. The key is unusable afterwards.
func (k *ExtendedKey) Zero() {
	securemem.ZeroBytes(k.key)
	securemem.ZeroBytes(k.chainCode)
	securemem.ZeroBytes(k.pubKey)
	k.key = nil
	k.chainCode = nil
	k.pubKey = nil
	k.parentFP = nil
	k.depth = 0
	k.childNum = 0
	k.isPrivate = false
}

// compressedPubKey computes the 33-byte compressed public key for a
// 32-byte private scalar.
func compressedPubKey(key []byte) []byte {
	priv := secp256k1.PrivKeyFromBytes(key)
	pub := priv.PubKey().SerializeCompressed()
	priv.Zero()
	return pub
}

func doubleSHA256(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}
