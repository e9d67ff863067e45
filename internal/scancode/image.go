package scancode

import (
	"fmt"
	"image/png"
	"io"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

// WritePNG renders code as a CODE128 barcode image. The width grows to fit
// the symbol when the requested width is too narrow.
func WritePNG(w io.Writer, code string, width, height int) error {
	bc, err := code128.Encode(code)
	if err != nil {
		return fmt.Errorf("encode barcode: %w", err)
	}
	width = max(width, bc.Bounds().Dx())
	scaled, err := barcode.Scale(bc, width, height)
	if err != nil {
		return fmt.Errorf("scale barcode: %w", err)
	}
	if err := png.Encode(w, scaled); err != nil {
		return fmt.Errorf("write barcode png: %w", err)
	}
	return nil
}
