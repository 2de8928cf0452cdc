package texture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/ftrvxmtrx/tga"

	"p3d-mipgen/internal/p3d"
)

// ErrSize is returned for a non-positive target size.
var ErrSize = errors.New("texture: target size must be positive")

// Encoding is the output image format of a Resampler.
type Encoding string

const (
	EncodingPNG Encoding = "png"
	EncodingTGA Encoding = "tga"
)

// ParseEncoding accepts an encoding name, case-insensitively.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(s)); e {
	case EncodingPNG, EncodingTGA:
		return e, nil
	default:
		return "", fmt.Errorf("texture: unknown encoding %q", s)
	}
}

// Format returns the P3D image format tag for the encoding.
func (e Encoding) Format() p3d.ImageFormat {
	if e == EncodingTGA {
		return p3d.FormatTGA
	}
	return p3d.FormatPNG
}

// Resampler decodes an image payload, resizes it and re-encodes it.
// It is safe for concurrent use.
type Resampler struct {
	filter   Filter
	encoding Encoding
	sources  *sourceCache
}

// NewResampler returns a Resampler. cacheSize bounds how many decoded
// sources are kept; one per concurrent worker is enough.
func NewResampler(f Filter, e Encoding, cacheSize int) *Resampler {
	if f == "" {
		f = FilterCatmullRom
	}
	if e == "" {
		e = EncodingPNG
	}
	return &Resampler{filter: f, encoding: e, sources: newSourceCache(cacheSize)}
}

// Format is the image format tag of the payloads Resample returns.
func (r *Resampler) Format() p3d.ImageFormat {
	return r.encoding.Format()
}

// Resample returns src resized to width x height in the configured encoding.
func (r *Resampler) Resample(ctx context.Context, src []byte, width, height int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrSize, width, height)
	}

	img, err := r.sources.decode(src)
	if err != nil {
		return nil, err
	}
	scaled := Scale(img, width, height, r.filter)

	var buf bytes.Buffer
	switch r.encoding {
	case EncodingTGA:
		err = tga.Encode(&buf, scaled)
	default:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, scaled)
	}
	if err != nil {
		return nil, fmt.Errorf("texture: encode %s %dx%d: %w", r.encoding, width, height, err)
	}
	return buf.Bytes(), nil
}
