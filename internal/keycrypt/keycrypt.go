// Package keycrypt encrypts stored key material with a passphrase.
// It wraps age's scrypt-based recipients so wallet files carry
// standard age ciphertext.
package keycrypt

import (
	"bytes"
	"io"

	"filippo.io/age"

	"github.com/keyfold/keyfold/internal/securemem"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// workFactor is the scrypt cost (log2 N) for new ciphertexts. age
// accepts any cost on decrypt, so lowering it never strands a file.
var workFactor = 18

// SetScryptWorkFactor overrides the scrypt cost for subsequently
// created ciphertexts. Tests lower it to keep encryption fast.
func SetScryptWorkFactor(logN int) {
	workFactor = logN
}

// Encrypt seals plaintext under a passphrase-derived key and returns
// age ciphertext.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, kferr.Wrap(err, "deriving encryption key")
	}
	recipient.SetWorkFactor(workFactor)

	var sealed bytes.Buffer
	wr, err := age.Encrypt(&sealed, recipient)
	if err != nil {
		return nil, kferr.Wrap(err, "opening age stream")
	}
	if _, err := wr.Write(plaintext); err != nil {
		return nil, kferr.Wrap(err, "encrypting payload")
	}
	if err := wr.Close(); err != nil {
		return nil, kferr.Wrap(err, "sealing age stream")
	}

	return sealed.Bytes(), nil
}

// Decrypt opens age ciphertext with the passphrase. A wrong password
// and a corrupted payload are indistinguishable; both report
// ErrDecryptionFailed.
func Decrypt(ciphertext []byte, password string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, kferr.Wrap(err, "deriving decryption key")
	}

	rd, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, kferr.ErrDecryptionFailed
	}
	plain, err := io.ReadAll(rd)
	if err != nil {
		return nil, kferr.ErrDecryptionFailed
	}

	return plain, nil
}

// DecryptSecure decrypts ciphertext into a locked buffer, zeroing the
// intermediate plaintext on every path.
func DecryptSecure(ciphertext []byte, password string) (*securemem.Buffer, error) {
	plain, err := Decrypt(ciphertext, password)
	if err != nil {
		return nil, err
	}
	defer securemem.ZeroBytes(plain)

	return securemem.FromSlice(plain)
}
