package texture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p3d-mipgen/internal/p3d"
)

func checker(t *testing.T, size int, alpha uint8) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBA{R: 255, A: alpha}
			if (x/4+y/4)%2 == 1 {
				c = color.NRGBA{B: 255, A: alpha}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	assert.Equal(t, "png", Sniff([]byte("\x89PNG\r\n\x1a\nrest")))
	assert.Equal(t, "jpeg", Sniff([]byte{0xff, 0xd8, 0xff, 0xe0}))
	assert.Equal(t, "bmp", Sniff([]byte("BM....")))
	assert.Equal(t, "webp", Sniff([]byte("RIFF\x00\x00\x00\x00WEBPVP8L")))
	assert.Equal(t, "tga", Sniff([]byte{0, 0, 2, 0}))
}

func TestResamplePNG(t *testing.T) {
	src := checker(t, 32, 255)
	r := NewResampler(FilterCatmullRom, EncodingPNG, 2)
	assert.Equal(t, p3d.FormatPNG, r.Format())

	for _, size := range []int{32, 16, 8, 4, 2, 1} {
		out, err := r.Resample(context.Background(), src, size, size/2+1)
		require.NoError(t, err)

		img, format, err := Decode(out)
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, size, img.Bounds().Dx())
		assert.Equal(t, size/2+1, img.Bounds().Dy())
	}
	assert.Equal(t, 1, r.sources.Len(), "source decoded once")
}

func TestResampleTGA(t *testing.T) {
	r := NewResampler(FilterNearest, EncodingTGA, 1)
	assert.Equal(t, p3d.FormatTGA, r.Format())

	out, err := r.Resample(context.Background(), checker(t, 16, 128), 8, 8)
	require.NoError(t, err)

	img, format, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "tga", format)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
}

func TestResampleErrors(t *testing.T) {
	r := NewResampler("", "", 1)

	_, err := r.Resample(context.Background(), checker(t, 8, 255), 0, 4)
	assert.ErrorIs(t, err, ErrSize)

	_, err = r.Resample(context.Background(), []byte("\x89PNG\r\n\x1a\ngarbage"), 4, 4)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Resample(ctx, checker(t, 8, 255), 4, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScaleKeepsTransparentEdgesClean(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x < 4 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				// Transparent black must not darken the white half.
				img.SetNRGBA(x, y, color.NRGBA{})
			}
		}
	}

	out := Scale(img, 4, 4, FilterBiLinear)
	c := out.NRGBAAt(1, 1)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(255), c.A)

	same := Scale(img, 8, 8, FilterCatmullRom)
	assert.Equal(t, img.Pix, same.Pix)
	assert.NotSame(t, img, same)
}

func TestSourceCacheEvicts(t *testing.T) {
	c := newSourceCache(2)
	a, b, d := checker(t, 4, 255), checker(t, 8, 255), checker(t, 16, 255)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.decode(a)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())

	_, err := c.decode(b)
	require.NoError(t, err)
	_, err = c.decode(d)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, ok := c.items[keyOf(a)]
	assert.False(t, ok, "oldest entry evicted")
}

func TestParse(t *testing.T) {
	f, err := ParseFilter("BiLinear")
	require.NoError(t, err)
	assert.Equal(t, FilterBiLinear, f)
	_, err = ParseFilter("lanczos")
	assert.Error(t, err)

	e, err := ParseEncoding("TGA")
	require.NoError(t, err)
	assert.Equal(t, EncodingTGA, e)
	_, err = ParseEncoding("dds")
	assert.Error(t, err)
}

func TestEncodeWebP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeWebP(&buf, checker(t, 8, 255)))
	assert.Equal(t, "webp", Sniff(buf.Bytes()))

	img, _, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
}
