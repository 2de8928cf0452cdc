package mipmap

import (
	"fmt"

	"p3d-mipgen/internal/p3d"
)

// Reason says why a texture was left alone. OK means it was not skipped.
type Reason int

const (
	OK Reason = iota
	WidthNotPow2
	HeightNotPow2
	LevelCountMismatch
	NoImages
	ImageDataCount
	DimensionMismatch
	BelowMinimum
	AlreadySatisfied
	TooManyLevels
	ResampleFailed
)

func (r Reason) String() string {
	switch r {
	case OK:
		return "ok"
	case WidthNotPow2:
		return "width is not a power of 2"
	case HeightNotPow2:
		return "height is not a power of 2"
	case LevelCountMismatch:
		return "number of image children does not match current number of mipmaps"
	case NoImages:
		return "no image children"
	case ImageDataCount:
		return "first image does not have exactly one image data chunk"
	case DimensionMismatch:
		return "image dimensions do not match texture dimensions"
	case BelowMinimum:
		return "already smaller than minimum size"
	case AlreadySatisfied:
		return "already has the target number of mipmaps"
	case TooManyLevels:
		return "too small for the requested number of mipmaps"
	case ResampleFailed:
		return "could not generate a mip level"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Validate checks that a texture can have its chain regenerated. It stops at
// the first failing check and never modifies the texture.
func Validate(t *p3d.Texture) Reason {
	if !isPow2(t.Width) {
		return WidthNotPow2
	}
	if !isPow2(t.Height) {
		return HeightNotPow2
	}

	images := t.Images()
	if len(images) != int(t.NumMipMaps) {
		return LevelCountMismatch
	}
	if t.NumMipMaps == 0 {
		return NoImages
	}

	first := images[0]
	if len(p3d.Children[*p3d.ImageData](first.Node())) != 1 {
		return ImageDataCount
	}
	if first.Width != t.Width || first.Height != t.Height {
		return DimensionMismatch
	}
	return OK
}

// Target validates t and applies the policy. It returns the level count to
// build, after truncation, or the reason the texture should be skipped.
func Target(t *p3d.Texture, p Policy, truncateAtTwo bool) (int, Reason) {
	if r := Validate(t); r != OK {
		return 0, r
	}
	levels, r := p.Levels(t.Width, t.Height)
	if r != OK {
		return 0, r
	}
	sizes := ChainSizes(t.Width, t.Height, levels, truncateAtTwo)
	levels = len(sizes)
	if int(t.NumMipMaps) == levels {
		return levels, AlreadySatisfied
	}
	for _, s := range sizes {
		if s.Width == 0 || s.Height == 0 {
			return levels, TooManyLevels
		}
	}
	return levels, OK
}
