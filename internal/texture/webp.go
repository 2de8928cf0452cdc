package texture

import (
	"fmt"
	"io"

	"github.com/HugoSmits86/nativewebp"
)

// EncodeWebP decodes an image payload and writes it as lossless WebP.
func EncodeWebP(w io.Writer, data []byte) error {
	img, _, err := Decode(data)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("texture: WebP encode: %w", err)
	}
	return nil
}
