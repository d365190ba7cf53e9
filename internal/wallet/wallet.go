package wallet

import (
	"regexp"
	"time"

	"github.com/mrz1836/go-sanitize"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/hdkey"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

var (
	// ErrInvalidName rejects names outside the allowed character set.
	ErrInvalidName = kferr.WithSuggestion(kferr.ErrInvalidInput, "wallet name must be 1-64 alphanumeric characters, underscores, or hyphens")

	// ErrInvalidAddressCount rejects derivation counts outside the allowed range.
	ErrInvalidAddressCount = kferr.WithSuggestion(kferr.ErrInvalidInput, "invalid address count")

	// Wallet names double as file names, so only [a-zA-Z0-9_-] is allowed.
	nameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// Wallet is the persisted metadata of one named wallet. It carries only
// public data derived from the seed; the seed itself travels separately
// and is encrypted at rest.
type Wallet struct {
	// Name identifies the wallet and names its file on disk.
	Name string `json:"name"`

	// CreatedAt records when the wallet was first created, in UTC.
	CreatedAt time.Time `json:"created_at"`

	// Fingerprint is the master key fingerprint in hex. It ties the
	// metadata to a seed without revealing anything about it.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Addresses holds the receiving addresses derived so far, per chain.
	Addresses map[chain.ID][]Address `json:"addresses"`

	// ChangeAddresses holds internal-chain addresses for the chains
	// that use them.
	ChangeAddresses map[chain.ID][]Address `json:"change_addresses,omitempty"`

	// EnabledChains lists the chains this wallet derives for.
	EnabledChains []chain.ID `json:"enabled_chains"`

	// Derivation fixes where in the BIP-44 tree addresses come from.
	Derivation DerivationParams `json:"derivation_config"`

	// Version numbers the on-disk format.
	Version int `json:"version"`
}

// DerivationParams pins the derivation choices a wallet was created with.
type DerivationParams struct {
	// DefaultAccount is the BIP-44 account index used for all derivation.
	DefaultAccount uint32 `json:"default_account"`

	// AddressGap is how many addresses restore pre-derives per chain.
	AddressGap int `json:"address_gap"`
}

// Overview condenses a wallet to the fields the list view shows.
type Overview struct {
	Name          string              `json:"name"`
	CreatedAt     time.Time           `json:"created_at"`
	Fingerprint   string              `json:"fingerprint,omitempty"`
	EnabledChains []chain.ID          `json:"enabled_chains"`
	Addresses     map[chain.ID]string `json:"addresses"`
}

// ValidateName rejects names that cannot safely become file names.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

// SuggestName strips an invalid name down to a form that passes
// validation, or returns "" when nothing usable remains.
func SuggestName(name string) string {
	s := sanitize.PathName(name)
	if len(s) > 64 {
		s = s[:64]
	}
	if ValidateName(s) != nil {
		return ""
	}
	return s
}

// NewWallet creates wallet metadata with no derived addresses yet. An
// empty enabledChains enables every supported chain.
func NewWallet(name string, enabledChains []chain.ID) (*Wallet, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	if len(enabledChains) == 0 {
		enabledChains = chain.Supported()
	}
	for _, id := range enabledChains {
		if !id.IsValid() {
			return nil, kferr.WithDetails(kferr.ErrUnsupportedChain,
				map[string]string{"chain": id.String()})
		}
	}

	w := &Wallet{
		Name:            name,
		CreatedAt:       time.Now().UTC(),
		Addresses:       make(map[chain.ID][]Address),
		ChangeAddresses: make(map[chain.ID][]Address),
		EnabledChains:   enabledChains,
		Derivation:      DerivationParams{DefaultAccount: 0, AddressGap: 20},
		Version:         1,
	}
	return w, nil
}

// DeriveAddresses fills in the first n receiving addresses for every
// enabled chain, replacing whatever was derived before. The wallet
// fingerprint is recorded on the first call.
func (w *Wallet) DeriveAddresses(seed []byte, n int) error {
	if err := checkAddressCount(n); err != nil {
		return err
	}

	if w.Fingerprint == "" {
		fp, err := MasterFingerprint(seed)
		if err != nil {
			return err
		}
		w.Fingerprint = fp
	}

	for _, id := range w.EnabledChains {
		addrs, err := DeriveAddressRange(seed, id,
			w.Derivation.DefaultAccount, hdkey.ExternalChain, 0, n)
		if err != nil {
			return kferr.Wrap(err, "deriving addresses for chain %s", id)
		}
		w.Addresses[id] = addrs
	}
	return nil
}

// DeriveChangeAddresses fills in the first n internal-chain addresses
// for every enabled chain that uses change addresses. Chains without
// an internal chain are skipped.
func (w *Wallet) DeriveChangeAddresses(seed []byte, n int) error {
	if err := checkAddressCount(n); err != nil {
		return err
	}
	// Wallet files written before change-address support have a nil map.
	if w.ChangeAddresses == nil {
		w.ChangeAddresses = make(map[chain.ID][]Address)
	}

	for _, id := range w.EnabledChains {
		if !id.HasChangeChain() {
			continue
		}
		addrs, err := DeriveAddressRange(seed, id,
			w.Derivation.DefaultAccount, hdkey.InternalChain, 0, n)
		if err != nil {
			return kferr.Wrap(err, "deriving change addresses for chain %s", id)
		}
		w.ChangeAddresses[id] = addrs
	}
	return nil
}

func checkAddressCount(n int) error {
	if n < 0 || n > MaxAddressDerivation {
		return kferr.Wrap(ErrInvalidAddressCount, "count %d out of range", n)
	}
	return nil
}

// StoredAddresses returns the addresses already on file for a chain,
// either the receiving set or the change set.
func (w *Wallet) StoredAddresses(id chain.ID, change bool) []Address {
	if change {
		return w.ChangeAddresses[id]
	}
	return w.Addresses[id]
}

// GetPrimaryAddress returns the first receiving address for a chain,
// or false when none has been derived.
func (w *Wallet) GetPrimaryAddress(id chain.ID) (string, bool) {
	addrs := w.Addresses[id]
	if len(addrs) == 0 {
		return "", false
	}
	return addrs[0].Address, true
}

// Overview reduces the wallet to its listing form, keeping one primary
// address per chain.
func (w *Wallet) Overview() Overview {
	primary := make(map[chain.ID]string)
	for id := range w.Addresses {
		if addr, ok := w.GetPrimaryAddress(id); ok {
			primary[id] = addr
		}
	}

	return Overview{
		Name:          w.Name,
		CreatedAt:     w.CreatedAt,
		Fingerprint:   w.Fingerprint,
		EnabledChains: w.EnabledChains,
		Addresses:     primary,
	}
}
