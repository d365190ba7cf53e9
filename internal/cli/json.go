package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// writeJSON renders v as two-space indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
