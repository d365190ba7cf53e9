package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/keyfold/keyfold/internal/fileutil"
	"github.com/keyfold/keyfold/internal/keycrypt"
	"github.com/keyfold/keyfold/internal/securemem"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

const (
	// walletExt is the file extension for stored wallets.
	walletExt = ".wallet"

	// walletFileMode keeps wallet files readable by the owner only.
	walletFileMode = 0o600

	// walletDirMode keeps the wallets directory private to the owner.
	walletDirMode = 0o750
)

// envelope is the on-disk wallet representation: plaintext metadata
// next to the age-encrypted seed.
type envelope struct {
	Wallet        *Wallet `json:"wallet"`
	EncryptedSeed []byte  `json:"encrypted_seed"`
}

// FileStore keeps one JSON file per wallet under a base directory,
// seeds encrypted at rest.
type FileStore struct {
	dir string
}

// NewFileStore returns wallet storage rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Save encrypts the seed with the password and writes the wallet file.
// The caller still owns seed and password and must zero them. An
// existing wallet with the same name is never overwritten.
func (s *FileStore) Save(w *Wallet, seed, password []byte) error {
	if err := ValidateName(w.Name); err != nil {
		return err
	}

	taken, err := s.Exists(w.Name)
	if err != nil {
		return kferr.Wrap(err, "checking wallet existence")
	}
	if taken {
		return kferr.WithDetails(kferr.ErrWalletExists,
			map[string]string{"wallet": w.Name})
	}

	if err := os.MkdirAll(s.dir, walletDirMode); err != nil {
		return kferr.Wrap(err, "creating wallet directory")
	}

	sealed, err := keycrypt.Encrypt(seed, string(password))
	if err != nil {
		return kferr.Wrap(err, "encrypting seed")
	}

	raw, err := json.MarshalIndent(envelope{Wallet: w, EncryptedSeed: sealed}, "", "  ")
	if err != nil {
		return kferr.Wrap(err, "marshaling wallet")
	}

	if err := fileutil.WriteAtomic(s.pathFor(w.Name), raw, walletFileMode); err != nil {
		return kferr.Wrap(err, "writing wallet file")
	}

	return nil
}

// Load reads a wallet and decrypts its seed into a locked buffer.
// The caller must Destroy the returned seed when done.
func (s *FileStore) Load(name string, password []byte) (*Wallet, *securemem.Buffer, error) {
	if err := ValidateName(name); err != nil {
		return nil, nil, err
	}

	env, err := s.readEnvelope(name)
	if err != nil {
		return nil, nil, err
	}

	seed, err := keycrypt.DecryptSecure(env.EncryptedSeed, string(password))
	if err != nil {
		return nil, nil, kferr.WithDetails(kferr.ErrDecryptionFailed,
			map[string]string{"wallet": name})
	}

	return env.Wallet, seed, nil
}

// LoadMetadata reads a wallet's plaintext metadata without touching the
// encrypted seed, so no password is needed.
func (s *FileStore) LoadMetadata(name string) (*Wallet, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	env, err := s.readEnvelope(name)
	if err != nil {
		return nil, err
	}

	return env.Wallet, nil
}

// readEnvelope loads and parses the on-disk representation.
func (s *FileStore) readEnvelope(name string) (*envelope, error) {
	p := s.pathFor(name)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return nil, kferr.WithDetails(kferr.ErrWalletNotFound,
			map[string]string{"wallet": name})
	}

	// pathFor only produces paths inside the wallets directory.
	raw, err := os.ReadFile(p) //nolint:gosec // G304: name passed ValidateName
	if err != nil {
		return nil, kferr.Wrap(err, "reading wallet file")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, kferr.Wrap(err, "parsing wallet file")
	}

	return &env, nil
}

// Exists reports whether a wallet with this name is stored.
func (s *FileStore) Exists(name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}

	_, err := os.Stat(s.pathFor(name))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

// List returns the names of all stored wallets.
func (s *FileStore) List() ([]string, error) {
	if err := os.MkdirAll(s.dir, walletDirMode); err != nil {
		return nil, kferr.Wrap(err, "creating wallet directory")
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, kferr.Wrap(err, "reading wallet directory")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name, found := strings.CutSuffix(entry.Name(), walletExt)
		if !found || entry.IsDir() {
			continue
		}
		names = append(names, name)
	}

	return names, nil
}

// Delete removes a stored wallet. Deleting a wallet that does not
// exist reports WALLET_NOT_FOUND.
func (s *FileStore) Delete(name string) error {
	stored, err := s.Exists(name)
	if err != nil {
		return err
	}
	if !stored {
		return kferr.WithDetails(kferr.ErrWalletNotFound,
			map[string]string{"wallet": name})
	}

	if err := os.Remove(s.pathFor(name)); err != nil {
		return kferr.Wrap(err, "removing wallet file")
	}

	return nil
}

// pathFor maps a validated wallet name to its file path. A name that
// would resolve outside the wallets directory maps to the empty
// string, which fails at open time.
func (s *FileStore) pathFor(name string) string {
	p := filepath.Clean(filepath.Join(s.dir, name+walletExt))
	if !strings.HasSuffix(p, string(filepath.Separator)+name+walletExt) {
		return ""
	}
	return p
}
