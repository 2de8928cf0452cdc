package mipmap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"p3d-mipgen/internal/p3d"
)

// fakeResampler encodes the requested size as the payload so tests can see
// which level produced which bytes.
type fakeResampler struct {
	mu     sync.Mutex
	failAt map[Size]bool
	calls  []Size
}

func (f *fakeResampler) Resample(ctx context.Context, src []byte, width, height int) ([]byte, error) {
	s := Size{Width: uint32(width), Height: uint32(height)}
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
	if f.failAt[s] {
		return nil, errors.New("boom")
	}
	return []byte(fmt.Sprintf("%s@%dx%d", src, width, height)), nil
}

func (f *fakeResampler) Format() p3d.ImageFormat { return p3d.FormatPNG }

// newTexture builds a texture with a well-formed chain of the given length.
func newTexture(name string, width, height uint32, levels int) *p3d.Texture {
	tex := &p3d.Texture{Name: name, Width: width, Height: height, Bpp: 24, NumMipMaps: uint32(levels)}
	n := p3d.NewNode(tex)
	for i := 0; i < levels; i++ {
		s := LevelSize(width, height, i)
		img := p3d.NewNode(&p3d.Image{
			Name: fmt.Sprintf("%s_src%d", name, i), Version: 14000,
			Width: s.Width, Height: s.Height, Bpp: 24, Format: p3d.FormatPNG,
		}, p3d.NewNode(&p3d.ImageData{Data: []byte(name)}))
		if err := n.Append(img); err != nil {
			panic(err)
		}
	}
	return tex
}

func newShader(name, texture string, fimd ...uint32) *p3d.Shader {
	s := &p3d.Shader{Name: name}
	n := p3d.NewNode(s)
	if texture != "" {
		_ = n.Append(p3d.NewNode(&p3d.TextureParam{Param: TagTexture, Value: texture}))
	}
	for _, v := range fimd {
		_ = n.Append(p3d.NewNode(&p3d.IntParam{Param: TagFilterMode, Value: v}))
	}
	return s
}

func filterMode(s *p3d.Shader) uint32 {
	p, ok := p3d.LastParam[*p3d.IntParam](s, TagFilterMode)
	if !ok {
		return 0xFFFFFFFF
	}
	return p.Value
}
