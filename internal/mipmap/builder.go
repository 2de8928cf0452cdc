package mipmap

import (
	"context"
	"errors"
	"fmt"

	"p3d-mipgen/internal/p3d"
)

// OutputBpp is the bit depth declared for regenerated levels.
const OutputBpp = 32

// ErrResample wraps a failure to produce one level of a chain.
var ErrResample = errors.New("mipmap: resample failed")

// Resampler produces an encoded copy of an encoded image at a new size.
type Resampler interface {
	Resample(ctx context.Context, src []byte, width, height int) ([]byte, error)
	// Format is the encoding tag of the bytes Resample returns.
	Format() p3d.ImageFormat
}

// Builder regenerates texture chains.
type Builder struct {
	Resampler     Resampler
	Shaders       *ShaderIndex // optional; shaders of rebuilt textures get their filter mode updated
	TruncateAtTwo bool
}

// Chain is a fully generated replacement chain that has not been applied yet.
type Chain struct {
	Texture *p3d.Texture
	Levels  []*p3d.Node
}

// Sizes returns the dimensions of each generated level.
func (c *Chain) Sizes() []Size {
	sizes := make([]Size, len(c.Levels))
	for i, n := range c.Levels {
		img := n.Payload().(*p3d.Image)
		sizes[i] = Size{Width: img.Width, Height: img.Height}
	}
	return sizes
}

// Generate resamples the texture's first image into a chain of the given
// length. The texture is only read; any failed level fails the whole chain.
func (b *Builder) Generate(ctx context.Context, t *p3d.Texture, levels int) (*Chain, error) {
	src, ok := p3d.First[*p3d.Image](t.Node())
	if !ok {
		return nil, fmt.Errorf("mipmap: texture %q has no image", t.Name)
	}
	data, ok := p3d.First[*p3d.ImageData](src.Node())
	if !ok {
		return nil, fmt.Errorf("mipmap: texture %q image has no data", t.Name)
	}

	sizes := ChainSizes(src.Width, src.Height, levels, b.TruncateAtTwo)
	chain := &Chain{Texture: t, Levels: make([]*p3d.Node, 0, len(sizes))}
	for i, s := range sizes {
		encoded, err := b.Resampler.Resample(ctx, data.Data, int(s.Width), int(s.Height))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %s level %d (%dx%d): %v", ErrResample, t.Name, i, s.Width, s.Height, err)
		}
		img := &p3d.Image{
			Name:       levelName(src.Name, i),
			Version:    src.Version,
			Width:      s.Width,
			Height:     s.Height,
			Bpp:        OutputBpp,
			Palettized: src.Palettized,
			HasAlpha:   src.HasAlpha,
			Format:     b.Resampler.Format(),
		}
		chain.Levels = append(chain.Levels, p3d.NewNode(img, p3d.NewNode(&p3d.ImageData{Data: encoded})))
	}
	return chain, nil
}

// levelName suffixes the source image name with the level index, trimming
// the base so the result still fits in a chunk string.
func levelName(base string, level int) string {
	suffix := fmt.Sprintf("_%d", level)
	r := []rune(p3d.Encodable(base))
	if limit := p3d.MaxStringLen - len(suffix); len(r) > limit {
		r = r[:limit]
	}
	return string(r) + suffix
}

// Commit swaps the chain into its texture, updates the texture's declared
// level count and bit depth, then updates the filter mode of the shaders
// that sample the texture.
func (b *Builder) Commit(c *Chain) error {
	t := c.Texture
	if err := t.Node().ReplaceChildren(c.Levels); err != nil {
		return fmt.Errorf("mipmap: replace %q chain: %w", t.Name, err)
	}
	t.NumMipMaps = uint32(len(c.Levels))
	t.Bpp = OutputBpp

	if b.Shaders != nil {
		UpdateFilterMode(b.Shaders.Lookup(t.Name))
	}
	return nil
}

// Rebuild generates and commits a new chain for t. It reports whether the
// tree was changed; on error the texture is untouched.
func (b *Builder) Rebuild(ctx context.Context, t *p3d.Texture, levels int) (bool, error) {
	chain, err := b.Generate(ctx, t, levels)
	if err != nil {
		return false, err
	}
	if err := b.Commit(chain); err != nil {
		return false, err
	}
	return true, nil
}
