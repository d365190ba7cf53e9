package output

import (
	"io"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// RenderQR draws data as a QR code on w using compact half-height
// terminal blocks. Low error correction keeps the code small, which
// helps when scanning long addresses and xpubs from a screen. The
// block characters survive being piped to a file, so rendering is
// unconditional and the caller decides when a QR code is wanted.
func RenderQR(w io.Writer, data string) error {
	qrterminal.GenerateWithConfig(data, qrterminal.Config{
		Level:          qr.L,
		Writer:         w,
		QuietZone:      1,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return nil
}
