package securemem

import (
	"crypto/rand"
	"io"
)

// Reader is the process entropy source. Tests may swap it to exercise
// failure paths; production code always reads crypto/rand.
//
//nolint:gochecknoglobals // test seam for the entropy source
var Reader io.Reader = rand.Reader

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}
