// Package session holds an unlocked wallet seed in memory for
// interactive derivation. A session moves through three states:
// uninitialized, ready, destroyed. Destroy zeroizes the seed and is
// permanent; a destroyed session cannot be re-initialized. Nothing is
// ever written to disk.
package session

import (
	"encoding/hex"
	"sync"

	"github.com/keyfold/keyfold/internal/chain"
	"github.com/keyfold/keyfold/internal/hdkey"
	"github.com/keyfold/keyfold/internal/securemem"
	"github.com/keyfold/keyfold/internal/wallet"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// State is the lifecycle state of a session.
type State int

const (
	// StateUninitialized is a new session with no seed loaded.
	StateUninitialized State = iota

	// StateReady is an initialized session holding a seed.
	StateReady

	// StateDestroyed is a destroyed session. Terminal.
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	default:
		return "uninitialized"
	}
}

// DerivedKey is the result of a session derivation.
type DerivedKey struct {
	// Chain is the chain identifier.
	Chain chain.ID `json:"chain"`

	// Path is the BIP44 derivation path.
	Path string `json:"path"`

	// Index is the address index within the path.
	Index uint32 `json:"index"`

	// Address is the chain-encoded address.
	Address string `json:"address"`

	// PublicKey is the hex-encoded public key.
	PublicKey string `json:"public_key"`

	// PrivateKeyHex is the hex-encoded private key.
	// SECURITY: This is the spending secret. Never log or persist it.
	PrivateKeyHex string `json:"private_key_hex"`
}

// Session is a mutex-guarded holder for an unlocked seed. All methods
// are safe for concurrent use. Derivations on a ready session run
// concurrently; each works on a private copy of the seed so an
// in-flight derivation is unaffected by a concurrent Destroy.
type Session struct {
	mu          sync.Mutex
	state       State
	seed        *securemem.Buffer
	fingerprint string
}

// New creates an uninitialized session.
func New() *Session {
	return &Session{state: StateUninitialized}
}

// Initialize validates the mnemonic, derives the seed, and moves the
// session to ready. Re-initializing a ready session replaces the seed
// and resets derived state; initializing a destroyed session fails.
func (s *Session) Initialize(mnemonic, passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDestroyed {
		return kferr.Wrap(kferr.ErrSessionDestroyed, "cannot initialize a destroyed session")
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return err
	}

	fingerprint, err := wallet.MasterFingerprint(seed)
	if err != nil {
		securemem.ZeroBytes(seed)
		return err
	}

	secure, err := securemem.FromSlice(seed)
	securemem.ZeroBytes(seed)
	if err != nil {
		return err
	}

	if s.seed != nil {
		s.seed.Destroy()
	}
	s.seed = secure
	s.fingerprint = fingerprint
	s.state = StateReady
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fingerprint returns the master key fingerprint of the loaded seed.
func (s *Session) Fingerprint() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return "", notReadyError(s.state)
	}
	return s.fingerprint, nil
}

// DeriveAddress derives the receiving address at the given index for
// account 0, including the private key.
func (s *Session) DeriveAddress(id chain.ID, index uint32) (*DerivedKey, error) {
	return s.DeriveAddressWithChange(id, 0, hdkey.ExternalChain, index)
}

// DeriveAddressWithChange derives an address with explicit account and
// change values, including the private key.
func (s *Session) DeriveAddressWithChange(id chain.ID, account, change, index uint32) (*DerivedKey, error) {
	seed, err := s.seedCopy()
	if err != nil {
		return nil, err
	}
	defer securemem.ZeroBytes(seed)

	addr, err := wallet.DeriveAddressWithChange(seed, id, account, change, index)
	if err != nil {
		return nil, err
	}

	priv, err := wallet.DerivePrivateKey(seed, id, account, change, index)
	if err != nil {
		return nil, err
	}
	privHex := hex.EncodeToString(priv)
	securemem.ZeroBytes(priv)

	return &DerivedKey{
		Chain:         addr.Chain,
		Path:          addr.Path,
		Index:         addr.Index,
		Address:       addr.Address,
		PublicKey:     addr.PublicKey,
		PrivateKeyHex: privHex,
	}, nil
}

// DeriveAccountXpub derives the watch-only extended public key for a
// BIP44 account on the loaded seed.
func (s *Session) DeriveAccountXpub(id chain.ID, account uint32) (string, error) {
	seed, err := s.seedCopy()
	if err != nil {
		return "", err
	}
	defer securemem.ZeroBytes(seed)

	return wallet.DeriveAccountXpub(seed, id, account)
}

// Destroy zeroizes the seed and moves the session to destroyed.
// Idempotent and safe to call concurrently with derivations; calls
// observing the destroyed state fail with SESSION_DESTROYED.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seed != nil {
		s.seed.Destroy()
		s.seed = nil
	}
	s.fingerprint = ""
	s.state = StateDestroyed
}

// seedCopy returns a private copy of the seed. The caller must zero it.
func (s *Session) seedCopy() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return nil, notReadyError(s.state)
	}

	seed := make([]byte, s.seed.Len())
	copy(seed, s.seed.Bytes())
	return seed, nil
}

func notReadyError(state State) error {
	if state == StateUninitialized {
		return kferr.Wrap(kferr.ErrSessionDestroyed, "session not initialized")
	}
	return kferr.Wrap(kferr.ErrSessionDestroyed, "session destroyed")
}
