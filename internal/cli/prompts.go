package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/keyfold/keyfold/internal/securemem"
	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// minPasswordLen is the shortest accepted encryption password.
const minPasswordLen = 8

// Prompt functions are indirected through package variables so tests
// can inject canned responses.
//
//nolint:gochecknoglobals // test injection points
var (
	readPasswordFn   = readPassword
	askNewPasswordFn = askNewPassword
	askPassphraseFn  = askPassphrase
	askYesNoFn       = askYesNo
	readSecretLineFn = readSecretLine
)

// readPassword reads a password without echo. The caller zeroes the
// returned bytes when done.
func readPassword(label string) ([]byte, error) {
	out(os.Stderr, "%s", label)

	pw, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr)

	if err != nil {
		return nil, kferr.Wrap(err, "reading password")
	}
	return pw, nil
}

// askNewPassword reads a fresh encryption password plus a
// confirmation entry. The caller zeroes the returned bytes when done.
func askNewPassword() ([]byte, error) {
	password, err := readPasswordFn("Enter encryption password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < minPasswordLen {
		securemem.ZeroBytes(password)
		return nil, kferr.WithSuggestion(kferr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	return confirmSecret(password, "Confirm password: ", "passwords do not match")
}

// askPassphrase reads an optional BIP-39 passphrase. An empty entry
// means no passphrase and skips the confirmation round.
func askPassphrase() (string, error) {
	outln(os.Stderr, "\nAn optional BIP-39 passphrase layers a second secret over the phrase.")
	outln(os.Stderr, "WARNING: keys derived with a passphrase are unrecoverable without it.")

	entry, err := readPasswordFn("Enter passphrase: ")
	if err != nil {
		return "", err
	}
	if len(entry) == 0 {
		return "", nil
	}

	confirmed, err := confirmSecret(entry, "Confirm passphrase: ", "passphrases do not match")
	if err != nil {
		return "", err
	}
	defer securemem.ZeroBytes(confirmed)
	return string(confirmed), nil
}

// confirmSecret prompts for value a second time and rejects entries
// that disagree. On any failure value is zeroed before returning.
func confirmSecret(value []byte, prompt, mismatch string) ([]byte, error) {
	confirm, err := readPasswordFn(prompt)
	if err != nil {
		securemem.ZeroBytes(value)
		return nil, err
	}
	defer securemem.ZeroBytes(confirm)

	if !bytes.Equal(value, confirm) {
		securemem.ZeroBytes(value)
		return nil, kferr.WithSuggestion(kferr.ErrInvalidInput, mismatch)
	}
	return value, nil
}

// askYesNo asks a yes/no question on stderr. Anything but an
// explicit yes counts as no.
func askYesNo(prompt string) bool {
	out(os.Stderr, "%s [y/N]: ", prompt)

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(response))
	return answer == "y" || answer == "yes"
}

// readSecretLine reads one full line without echo. Mnemonics and
// seed hex are secrets like passwords and must not echo or reach
// shell history.
func readSecretLine(label string) (string, error) {
	out(os.Stderr, "%s (input hidden): ", label)

	line, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr)

	if err != nil {
		return "", kferr.Wrap(err, "reading input")
	}
	defer securemem.ZeroBytes(line)

	if len(strings.TrimSpace(string(line))) == 0 {
		return "", kferr.WithSuggestion(kferr.ErrInvalidInput, "no input provided")
	}
	return string(line), nil
}
