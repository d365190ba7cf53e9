// Package errors defines the structured error carrier shared by the
// keyfold libraries and CLI: stable machine-readable codes, process
// exit codes, and helpers that layer context, details, and suggestions
// onto a cause chain.
//
//nolint:revive // deliberately named like the stdlib package it fronts
package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Exit codes the keyfold binary terminates with.
const (
	ExitSuccess  = 0 // no error
	ExitGeneral  = 1 // internal or unclassified failure
	ExitInput    = 2 // rejected input
	ExitAuth     = 3 // wrong password or undecryptable file
	ExitNotFound = 4 // named resource does not exist
	ExitState    = 5 // operation illegal in the current state
)

// KeyfoldError carries everything needed to render a failure: a stable
// code for machines, a message and optional suggestion for people,
// detail pairs for context, and the exit code the process should use.
// Details never contain secret material, only lengths, indices, and
// names.
type KeyfoldError struct {
	Code       string
	Message    string
	Details    map[string]string
	Suggestion string
	Cause      error
	ExitCode   int
}

func (e *KeyfoldError) Error() string {
	var msg strings.Builder
	msg.WriteString(e.Message)

	// Detail pairs render in key order so the same failure always
	// produces the same text.
	for _, k := range slices.Sorted(maps.Keys(e.Details)) {
		msg.WriteString(" (" + k + ": " + e.Details[k] + ")")
	}

	if e.Cause != nil {
		msg.WriteString(": " + e.Cause.Error())
	}
	return msg.String()
}

func (e *KeyfoldError) Unwrap() error {
	return e.Cause
}

// Is matches keyfold errors by code, so augmented copies of a sentinel
// still compare equal to it under errors.Is.
func (e *KeyfoldError) Is(target error) bool {
	var t *KeyfoldError
	return errors.As(target, &t) && e.Code == t.Code
}

// sentinel builds one of the package-level error values below.
func sentinel(code, message string, exitCode int) *KeyfoldError {
	return &KeyfoldError{Code: code, Message: message, ExitCode: exitCode}
}

// Sentinel errors. Codes are a stable contract for scripts consuming
// JSON output; augmentation helpers always copy before writing, so
// these values themselves never change.
var (
	ErrGeneral      = sentinel("GENERAL_ERROR", "an error occurred", ExitGeneral)
	ErrInvalidInput = sentinel("INVALID_INPUT", "invalid input", ExitInput)

	// Mnemonic and seed handling.
	ErrInvalidMnemonic = sentinel("INVALID_MNEMONIC", "invalid mnemonic phrase", ExitInput)
	ErrInvalidEntropy  = sentinel("INVALID_ENTROPY", "entropy length must be 16, 20, 24, 28, or 32 bytes", ExitInput)
	ErrInvalidSeed     = sentinel("INVALID_SEED", "seed length must be between 16 and 64 bytes", ExitInput)

	// Key tree.
	ErrInvalidPath  = sentinel("INVALID_PATH", "invalid derivation path", ExitInput)
	ErrInvalidIndex = sentinel("INVALID_INDEX", "derivation index out of range", ExitInput)

	// ErrInvalidChildKey reports a degenerate scalar during child
	// derivation. The caller may retry with the next index.
	ErrInvalidChildKey    = sentinel("INVALID_CHILD_KEY", "derived child key is invalid", ExitGeneral)
	ErrHardenedFromPublic = sentinel("HARDENED_FROM_PUBLIC", "cannot derive a hardened child from a public key", ExitInput)
	ErrPublicOnlyKey      = sentinel("PUBLIC_ONLY_KEY", "extended key holds no private material", ExitInput)
	ErrInvalidExtendedKey = sentinel("INVALID_EXTENDED_KEY", "malformed extended key", ExitInput)

	// Chains.
	ErrUnsupportedChain = sentinel("UNSUPPORTED_CHAIN", "unsupported chain", ExitInput)
	ErrNotSupported     = sentinel("NOT_SUPPORTED", "operation not supported for this chain", ExitInput)

	// Session lifecycle.
	ErrSessionDestroyed = sentinel("SESSION_DESTROYED", "session is not ready for derivation", ExitState)

	// Wallet storage.
	ErrWalletNotFound   = sentinel("WALLET_NOT_FOUND", "wallet not found", ExitNotFound)
	ErrWalletExists     = sentinel("WALLET_EXISTS", "wallet already exists", ExitInput)
	ErrDecryptionFailed = sentinel("DECRYPTION_FAILED", "decryption failed - wrong password or corrupted file", ExitAuth)

	// Configuration.
	ErrConfigNotFound = sentinel("CONFIG_NOT_FOUND", "configuration file not found", ExitNotFound)
	ErrConfigInvalid  = sentinel("CONFIG_INVALID", "configuration file is invalid", ExitInput)
)

// promote returns a writable copy of the KeyfoldError in err's chain.
// Foreign errors are adopted under the general code with err as cause.
func promote(err error) *KeyfoldError {
	var ke *KeyfoldError
	if errors.As(err, &ke) {
		c := *ke
		return &c
	}
	return &KeyfoldError{
		Code:     ErrGeneral.Code,
		Message:  err.Error(),
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// Wrap prefixes err's message with printf-style context. A keyfold
// error keeps its code, details, suggestion, and exit code; any other
// error is adopted under the general code.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	prefix := fmt.Sprintf(format, args...)

	var ke *KeyfoldError
	if !errors.As(err, &ke) {
		return &KeyfoldError{
			Code:     ErrGeneral.Code,
			Message:  prefix,
			Cause:    err,
			ExitCode: ExitGeneral,
		}
	}

	c := *ke
	c.Message = prefix + ": " + ke.Message
	c.Cause = err
	return &c
}

// WithDetails attaches key/value context to a copy of err.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}
	c := promote(err)
	c.Details = details
	return c
}

// WithSuggestion attaches an actionable hint to a copy of err.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	c := promote(err)
	c.Suggestion = suggestion
	return c
}

// ExitCode maps an error to the code the process should exit with.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ke *KeyfoldError
	if !errors.As(err, &ke) {
		return ExitGeneral
	}
	return ke.ExitCode
}

// Is re-exports errors.Is so callers need only one errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
