package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	kferr "github.com/keyfold/keyfold/pkg/errors"
)

// ErrorPayload wraps a rendered error for JSON output.
type ErrorPayload struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo is the JSON shape of a rendered error.
type ErrorInfo struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// FormatError renders err on w in the given mode. A nil err renders
// nothing.
func FormatError(w io.Writer, err error, mode Format) error {
	if err == nil {
		return nil
	}
	if mode == FormatJSON {
		return encodeIndented(w, ErrorPayload{Error: errorInfo(err)})
	}
	return writeErrorText(w, err)
}

// errorInfo extracts the structured fields from err, falling back to a
// generic payload for errors that carry no keyfold error code.
func errorInfo(err error) ErrorInfo {
	var ke *kferr.KeyfoldError
	if errors.As(err, &ke) {
		return ErrorInfo{
			Code:       ke.Code,
			Message:    ke.Message,
			Details:    ke.Details,
			Suggestion: ke.Suggestion,
			ExitCode:   ke.ExitCode,
		}
	}
	return ErrorInfo{
		Code:     kferr.ErrGeneral.Code,
		Message:  err.Error(),
		ExitCode: kferr.ExitGeneral,
	}
}

// writeErrorText renders the message, then any details in sorted key
// order, then the suggestion.
func writeErrorText(w io.Writer, err error) error {
	var ke *kferr.KeyfoldError
	if !errors.As(err, &ke) {
		_, werr := fmt.Fprintf(w, "Error: %s\n", err.Error())
		return werr
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("Error: %s\n", ke.Message))

	if len(ke.Details) > 0 {
		out.WriteString("\nDetails:\n")
		for _, k := range slices.Sorted(maps.Keys(ke.Details)) {
			out.WriteString(fmt.Sprintf("  %s: %s\n", k, ke.Details[k]))
		}
	}

	if ke.Suggestion != "" {
		out.WriteString(fmt.Sprintf("\nSuggestion: %s\n", ke.Suggestion))
	}

	_, werr := io.WriteString(w, out.String())
	return werr
}

// FormatSuccess renders a confirmation line, or a status object in JSON
// mode.
func FormatSuccess(w io.Writer, msg string, mode Format) error {
	if mode == FormatJSON {
		return encodeIndented(w, map[string]string{
			"status":  "success",
			"message": msg,
		})
	}
	_, err := fmt.Fprintln(w, msg)
	return err
}

// encodeIndented writes v as two-space indented JSON.
func encodeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
