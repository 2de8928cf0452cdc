package texture

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

// Filter names a resampling kernel.
type Filter string

const (
	FilterCatmullRom Filter = "catmullrom"
	FilterBiLinear   Filter = "bilinear"
	FilterNearest    Filter = "nearest"
)

// ParseFilter accepts a kernel name, case-insensitively.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(s)); f {
	case FilterCatmullRom, FilterBiLinear, FilterNearest:
		return f, nil
	default:
		return "", fmt.Errorf("texture: unknown filter %q", s)
	}
}

func (f Filter) scaler() draw.Scaler {
	switch f {
	case FilterBiLinear:
		return draw.BiLinear
	case FilterNearest:
		return draw.NearestNeighbor
	default:
		return draw.CatmullRom
	}
}

// Scale resizes img to width x height with premultiplied alpha, so fully
// transparent texels do not bleed their color into neighbours.
func Scale(img *image.NRGBA, width, height int, f Filter) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		out := image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.Copy(out, image.Point{}, img, b, draw.Src, nil)
		return out
	}

	// Premultiply alpha
	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := img.PixOffset(x, y)
			di := premul.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255.0
			premul.Pix[di] = uint8(float64(img.Pix[si])*a + 0.5)
			premul.Pix[di+1] = uint8(float64(img.Pix[si+1])*a + 0.5)
			premul.Pix[di+2] = uint8(float64(img.Pix[si+2])*a + 0.5)
			premul.Pix[di+3] = img.Pix[si+3]
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	f.scaler().Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	// Unpremultiply alpha
	result := image.NewNRGBA(dst.Bounds())
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			si := dst.PixOffset(x, y)
			di := result.PixOffset(x, y)
			a := float64(dst.Pix[si+3])
			if a > 1 {
				inv := 255.0 / a
				result.Pix[di] = clamp8(float64(dst.Pix[si]) * inv)
				result.Pix[di+1] = clamp8(float64(dst.Pix[si+1]) * inv)
				result.Pix[di+2] = clamp8(float64(dst.Pix[si+2]) * inv)
			}
			result.Pix[di+3] = dst.Pix[si+3]
		}
	}

	return result
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
