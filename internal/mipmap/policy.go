package mipmap

import (
	"errors"
	"math/bits"
)

// Minimum-size bounds accepted by NewPolicy.
const (
	MinSizeLower = 2
	MinSizeUpper = 2048
)

var (
	// ErrMinSize rejects a minimum size that is not a power of two in [2, 2048].
	ErrMinSize = errors.New("mipmap: minimum size must be a power of 2 between 2 and 2048")
	// ErrMipCount rejects a requested level count of 1 or less.
	ErrMipCount = errors.New("mipmap: number of mipmaps must be greater than 1")
	// ErrNoTarget is returned when neither a minimum size nor a count is given.
	ErrNoTarget = errors.New("mipmap: a minimum size and/or a number of mipmaps is required")
)

// Policy decides how many mip levels a texture of the given size should have.
// A Reason other than OK means the texture is skipped.
type Policy interface {
	Levels(width, height uint32) (int, Reason)
}

// CountPolicy always asks for Count levels.
type CountPolicy struct {
	Count int
}

func (p CountPolicy) Levels(width, height uint32) (int, Reason) {
	return p.Count, OK
}

// MinSizePolicy generates levels down to MinSize on the shorter side.
// A non-zero MaxLevels caps the result.
type MinSizePolicy struct {
	MinSize   int
	MaxLevels int
}

func (p MinSizePolicy) Levels(width, height uint32) (int, Reason) {
	ms := uint32(p.MinSize)
	if width < ms || height < ms {
		return 0, BelowMinimum
	}
	// floor(log2(min/ms)) + 1
	levels := bits.Len32(min(width, height) / ms)
	if p.MaxLevels > 0 {
		levels = min(levels, p.MaxLevels)
	}
	return levels, OK
}

// NewPolicy builds the policy for a minimum size and/or a level count.
// Zero means "not given". With both, the minimum size caps the count.
func NewPolicy(minSize, count int) (Policy, error) {
	if minSize != 0 && !ValidMinSize(minSize) {
		return nil, ErrMinSize
	}
	if count != 0 && count <= 1 {
		return nil, ErrMipCount
	}
	switch {
	case minSize != 0:
		return MinSizePolicy{MinSize: minSize, MaxLevels: count}, nil
	case count != 0:
		return CountPolicy{Count: count}, nil
	default:
		return nil, ErrNoTarget
	}
}

// ValidMinSize reports whether v is a power of two in [2, 2048].
func ValidMinSize(v int) bool {
	return v >= MinSizeLower && v <= MinSizeUpper && isPow2(uint32(v))
}

func isPow2(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// Size is the pixel size of one mip level.
type Size struct {
	Width, Height uint32
}

// LevelSize returns the size of level i of a width x height image.
func LevelSize(width, height uint32, i int) Size {
	return Size{Width: width >> i, Height: height >> i}
}

// ChainSizes lists the level sizes for a chain of the given length, level 0
// first. With truncateAtTwo the chain ends at the first level that has a
// side of exactly 2.
func ChainSizes(width, height uint32, levels int, truncateAtTwo bool) []Size {
	sizes := make([]Size, 0, levels)
	for i := 0; i < levels; i++ {
		s := LevelSize(width, height, i)
		sizes = append(sizes, s)
		if truncateAtTwo && (s.Width == 2 || s.Height == 2) {
			break
		}
	}
	return sizes
}
