package hdkey

import (
	"strconv"
	"strings"

	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// Purpose is the BIP-44 purpose level.
const Purpose uint32 = 44

// Change-level constants for BIP-44 paths.
const (
	ExternalChain uint32 = 0 // receiving addresses
	InternalChain uint32 = 1 // change addresses
)

// Path is an ordered sequence of child indices below the master key.
// Hardened segments carry the HardenedKeyStart bit.
type Path []uint32

// Hardened returns index | HardenedKeyStart. The index must fit in 31
// bits before the hardened bit is applied.
func Hardened(index uint32) (uint32, error) {
	if index >= HardenedKeyStart {
		return 0, kferr.WithDetails(kferr.ErrInvalidIndex,
			map[string]string{"index": strconv.FormatUint(uint64(index), 10)})
	}
	return index | HardenedKeyStart, nil
}

// BIP44 builds the path purpose'/coin'/account'/change/index.
// Account and index must fit in 31 bits; change selects the external
// or internal chain.
func BIP44(coinType, account, change, index uint32) (Path, error) {
	if change != ExternalChain && change != InternalChain {
		return nil, kferr.Wrap(kferr.ErrInvalidPath, "change level must be 0 or 1")
	}

	purpose, err := Hardened(Purpose)
	if err != nil {
		return nil, err
	}
	coin, err := Hardened(coinType)
	if err != nil {
		return nil, err
	}
	acct, err := Hardened(account)
	if err != nil {
		return nil, err
	}
	if index >= HardenedKeyStart {
		return nil, kferr.WithDetails(kferr.ErrInvalidIndex,
			map[string]string{"index": strconv.FormatUint(uint64(index), 10)})
	}

	return Path{purpose, coin, acct, change, index}, nil
}

// String renders the path in the conventional m/44'/60'/0'/0/0 form.
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, segment := range p {
		sb.WriteString("/")
		if segment >= HardenedKeyStart {
			sb.WriteString(strconv.FormatUint(uint64(segment-HardenedKeyStart), 10))
			sb.WriteString("'")
		} else {
			sb.WriteString(strconv.FormatUint(uint64(segment), 10))
		}
	}
	return sb.String()
}

// ParsePath parses the m/44'/60'/0'/0/0 form. The leading "m/" is
// optional; hardened segments may use ', h, or H. Each index must fit
// in 31 bits before the hardened marker is applied.
func ParsePath(s string) (Path, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "m/")
	trimmed = strings.TrimPrefix(trimmed, "M/")
	if trimmed == "" || trimmed == "m" || trimmed == "M" {
		return Path{}, nil
	}

	segments := strings.Split(trimmed, "/")
	path := make(Path, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			return nil, kferr.Wrap(kferr.ErrInvalidPath, "empty segment")
		}

		hardened := false
		switch segment[len(segment)-1] {
		case '\'', 'h', 'H':
			hardened = true
			segment = segment[:len(segment)-1]
		}

		value, err := strconv.ParseUint(segment, 10, 32)
		if err != nil {
			return nil, kferr.Wrap(kferr.ErrInvalidPath, "segment %q", segment)
		}
		index := uint32(value)
		if index >= HardenedKeyStart {
			return nil, kferr.WithDetails(kferr.ErrInvalidIndex,
				map[string]string{"index": segment})
		}
		if hardened {
			index |= HardenedKeyStart
		}
		path = append(path, index)
	}

	return path, nil
}
