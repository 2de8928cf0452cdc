package mipmap

import "p3d-mipgen/internal/p3d"

// Shader parameter tags this package interprets.
const (
	TagTexture    = "TEX"
	TagFilterMode = "FIMD"
)

// Filter modes stored in the FIMD parameter.
const (
	FilterNone            uint32 = 0
	FilterLinear          uint32 = 1
	FilterNoneMipmapped   uint32 = 2
	FilterLinearMipmapped uint32 = 3
	FilterTrilinear       uint32 = 4
)

// ShaderIndex maps a texture name to the shaders sampling it, in scan order.
// It is a snapshot: renaming a texture afterwards is not reflected, and
// textures sharing a name share one entry.
type ShaderIndex struct {
	byTexture map[string][]*p3d.Shader
}

// IndexShaders builds the index from each shader's last TEX parameter.
// Shaders without one are left out.
func IndexShaders(shaders []*p3d.Shader) *ShaderIndex {
	idx := &ShaderIndex{byTexture: make(map[string][]*p3d.Shader)}
	for _, s := range shaders {
		tex, ok := p3d.LastParam[*p3d.TextureParam](s, TagTexture)
		if !ok {
			continue
		}
		idx.byTexture[tex.Value] = append(idx.byTexture[tex.Value], s)
	}
	return idx
}

// Lookup returns the shaders that sample the named texture.
func (x *ShaderIndex) Lookup(texture string) []*p3d.Shader {
	return x.byTexture[texture]
}

// Len returns the number of distinct texture names referenced.
func (x *ShaderIndex) Len() int {
	return len(x.byTexture)
}

// RemapFilterMode returns the mipmapped equivalent of a non-mipmapped
// filter mode. Any other value is returned unchanged with ok=false.
func RemapFilterMode(mode uint32) (uint32, bool) {
	switch mode {
	case FilterNone:
		return FilterNoneMipmapped, true
	case FilterLinear:
		return FilterTrilinear, true
	default:
		return mode, false
	}
}

// UpdateFilterMode switches each shader's last FIMD parameter to its
// mipmapped mode. Shaders without FIMD are skipped. It reports whether any
// value changed.
func UpdateFilterMode(shaders []*p3d.Shader) bool {
	changed := false
	for _, s := range shaders {
		fimd, ok := p3d.LastParam[*p3d.IntParam](s, TagFilterMode)
		if !ok {
			continue
		}
		if mode, ok := RemapFilterMode(fimd.Value); ok {
			fimd.Value = mode
			changed = true
		}
	}
	return changed
}
