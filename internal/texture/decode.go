package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// Sniff names the format of an encoded payload from its leading bytes.
// TGA has no signature, so anything unrecognised is treated as TGA.
func Sniff(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png"
	case bytes.HasPrefix(data, []byte("\xff\xd8")):
		return "jpeg"
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp"
	default:
		return "tga"
	}
}

// Decode decodes an encoded image payload (PNG, JPEG, TGA, BMP or WebP)
// into NRGBA. It also returns the detected format name.
func Decode(data []byte) (*image.NRGBA, string, error) {
	format := Sniff(data)
	r := bytes.NewReader(data)

	var img image.Image
	var err error
	switch format {
	case "png":
		img, err = png.Decode(r)
	case "jpeg":
		img, err = jpeg.Decode(r)
	case "bmp":
		img, err = bmp.Decode(r)
	case "webp":
		img, err = webp.Decode(r)
	default:
		img, err = tga.Decode(r)
	}
	if err != nil {
		return nil, "", fmt.Errorf("texture: decode %s (%d bytes): %w", format, len(data), err)
	}
	return toNRGBA(img), format, nil
}

// toNRGBA converts any image to NRGBA with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src.(type) {
	case *image.YCbCr, *image.Gray:
		// No alpha; Src draws them fully opaque.
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				dst.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
			}
		}
	}
	return dst
}
