package mipmap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p3d-mipgen/internal/p3d"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		build func() *p3d.Texture
		want  Reason
	}{
		{
			name:  "valid",
			build: func() *p3d.Texture { return newTexture("ok", 64, 32, 2) },
			want:  OK,
		},
		{
			name:  "width not power of two",
			build: func() *p3d.Texture { return newTexture("w", 48, 32, 1) },
			want:  WidthNotPow2,
		},
		{
			name:  "zero width",
			build: func() *p3d.Texture { return newTexture("w0", 0, 32, 1) },
			want:  WidthNotPow2,
		},
		{
			name:  "height not power of two",
			build: func() *p3d.Texture { return newTexture("h", 32, 20, 1) },
			want:  HeightNotPow2,
		},
		{
			name: "declared count disagrees",
			build: func() *p3d.Texture {
				tex := newTexture("n", 32, 32, 2)
				tex.NumMipMaps = 3
				return tex
			},
			want: LevelCountMismatch,
		},
		{
			name:  "no images",
			build: func() *p3d.Texture { return newTexture("empty", 32, 32, 0) },
			want:  NoImages,
		},
		{
			name: "two data chunks",
			build: func() *p3d.Texture {
				tex := newTexture("d", 32, 32, 1)
				_ = tex.Images()[0].Node().Append(p3d.NewNode(&p3d.ImageData{}))
				return tex
			},
			want: ImageDataCount,
		},
		{
			name: "first image size differs",
			build: func() *p3d.Texture {
				tex := newTexture("dim", 32, 32, 1)
				tex.Images()[0].Width = 16
				return tex
			},
			want: DimensionMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex := tt.build()
			before := tex.Node().Len()
			assert.Equal(t, tt.want, Validate(tex))
			assert.Equal(t, before, tex.Node().Len())
		})
	}
}

func TestTarget(t *testing.T) {
	minSize8 := MinSizePolicy{MinSize: 8}

	levels, r := Target(newTexture("a", 64, 64, 1), minSize8, false)
	assert.Equal(t, OK, r)
	assert.Equal(t, 4, levels)

	_, r = Target(newTexture("b", 64, 64, 4), minSize8, false)
	assert.Equal(t, AlreadySatisfied, r)

	_, r = Target(newTexture("c", 4, 4, 1), minSize8, false)
	assert.Equal(t, BelowMinimum, r)

	_, r = Target(newTexture("d", 48, 64, 1), minSize8, false)
	assert.Equal(t, WidthNotPow2, r)

	_, r = Target(newTexture("e", 8, 8, 1), CountPolicy{Count: 5}, false)
	assert.Equal(t, TooManyLevels, r)

	// The legacy truncation stops the chain before it reaches zero.
	levels, r = Target(newTexture("f", 8, 8, 1), CountPolicy{Count: 5}, true)
	assert.Equal(t, OK, r)
	assert.Equal(t, 3, levels)
}

func TestTargetTruncatedChainIsSatisfied(t *testing.T) {
	tex := newTexture("t", 8, 8, 1)
	b := &Builder{Resampler: &fakeResampler{}, TruncateAtTwo: true}

	levels, r := Target(tex, CountPolicy{Count: 5}, true)
	require.Equal(t, OK, r)
	changed, err := b.Rebuild(context.Background(), tex, levels)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, uint32(3), tex.NumMipMaps)

	levels, r = Target(tex, CountPolicy{Count: 5}, true)
	assert.Equal(t, AlreadySatisfied, r)
	assert.Equal(t, 3, levels)
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "width is not a power of 2", WidthNotPow2.String())
	assert.Equal(t, "Reason(99)", Reason(99).String())
}
