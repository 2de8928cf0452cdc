package p3d

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const (
	chunkHeaderSize = 12
	signatureZ      = 0x5A443350 // "P3DZ", LZR-compressed container
)

// MaxStringLen is the longest string, in encoded bytes, a chunk can hold.
const MaxStringLen = 252

var (
	// ErrSignature is returned when the data does not start with a P3D header.
	ErrSignature = errors.New("p3d: not a P3D file")
	// ErrCompressed is returned for compressed (P3DZ) containers.
	ErrCompressed = errors.New("p3d: compressed P3D files are not supported")
)

// Decode reads a whole P3D container.
func Decode(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("p3d: read: %w", err)
	}
	return parse(data)
}

// ReadFile decodes the P3D file at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("p3d: read %s: %w", path, err)
	}
	f, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return f, nil
}

func parse(data []byte) (*File, error) {
	if len(data) < chunkHeaderSize {
		return nil, ErrSignature
	}
	switch binary.LittleEndian.Uint32(data) {
	case uint32(KindRoot):
	case signatureZ:
		return nil, ErrCompressed
	default:
		return nil, ErrSignature
	}

	root, end, err := parseChunk(data, 0)
	if err != nil {
		return nil, err
	}
	if _, ok := root.payload.(*Root); !ok {
		return nil, ErrSignature
	}
	if end != len(data) {
		return nil, fmt.Errorf("p3d: %d trailing bytes after root chunk", len(data)-end)
	}
	return &File{Root: root}, nil
}

func parseChunk(data []byte, off int) (*Node, int, error) {
	if off+chunkHeaderSize > len(data) {
		return nil, 0, fmt.Errorf("p3d: truncated chunk header at 0x%X", off)
	}
	id := Kind(binary.LittleEndian.Uint32(data[off:]))
	headerSize := int(binary.LittleEndian.Uint32(data[off+4:]))
	totalSize := int(binary.LittleEndian.Uint32(data[off+8:]))
	if headerSize < chunkHeaderSize || totalSize < headerSize || off+totalSize > len(data) {
		return nil, 0, fmt.Errorf("p3d: bad %s chunk sizes at 0x%X (header %d, total %d)", id, off, headerSize, totalSize)
	}

	r := &reader{data: data[off+chunkHeaderSize : off+headerSize]}
	p := decodePayload(id, r)
	if r.err != nil {
		return nil, 0, fmt.Errorf("p3d: %s chunk at 0x%X: %w", id, off, r.err)
	}
	if r.off < len(r.data) {
		p.setTrailer(r.readBytes(len(r.data) - r.off))
	}

	n := NewNode(p)
	pos := off + headerSize
	end := off + totalSize
	for pos < end {
		child, next, err := parseChunk(data[:end], pos)
		if err != nil {
			return nil, 0, err
		}
		n.children = append(n.children, child)
		child.parent = n
		pos = next
	}
	return n, end, nil
}

func decodePayload(id Kind, r *reader) Payload {
	switch id {
	case KindRoot:
		return &Root{}
	case KindTexture:
		return &Texture{
			Name:        r.readString(),
			Version:     r.readU32(),
			Width:       r.readU32(),
			Height:      r.readU32(),
			Bpp:         r.readU32(),
			AlphaDepth:  r.readU32(),
			NumMipMaps:  r.readU32(),
			TextureType: r.readU32(),
			Usage:       r.readU32(),
			Priority:    r.readU32(),
		}
	case KindImage:
		return &Image{
			Name:       r.readString(),
			Version:    r.readU32(),
			Width:      r.readU32(),
			Height:     r.readU32(),
			Bpp:        r.readU32(),
			Palettized: r.readU32() != 0,
			HasAlpha:   r.readU32() != 0,
			Format:     ImageFormat(r.readU32()),
		}
	case KindImageData:
		size := int(r.readU32())
		return &ImageData{Data: r.readBytes(size)}
	case KindSet:
		s := &Set{Name: r.readString(), Version: r.readU32()}
		_ = r.readU32() // texture count, recomputed on write
		return s
	case KindShader:
		s := &Shader{
			Name:            r.readString(),
			Version:         r.readU32(),
			PddiShaderName:  r.readString(),
			HasTranslucency: r.readU32(),
			VertexNeeds:     r.readU32(),
			VertexMask:      r.readU32(),
		}
		_ = r.readU32() // parameter count, recomputed on write
		return s
	case KindTextureParam:
		return &TextureParam{Param: r.readFourCC(), Value: r.readString()}
	case KindIntParam:
		return &IntParam{Param: r.readFourCC(), Value: r.readU32()}
	case KindHistory:
		count := int(r.readU16())
		h := &History{Lines: make([]string, 0, count)}
		for i := 0; i < count && r.err == nil; i++ {
			h.Lines = append(h.Lines, r.readString())
		}
		return h
	default:
		return &Raw{ID: id, Data: r.readBytes(len(r.data))}
	}
}

type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("field at +%d needs %d bytes, %d left", r.off, n, len(r.data)-r.off)
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) readU16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) readU32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) readBytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (r *reader) readString() string {
	lb := r.take(1)
	if lb == nil {
		return ""
	}
	s := r.take(int(lb[0]))
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(s)
	if err != nil {
		return string(s)
	}
	return string(decoded)
}

func (r *reader) readFourCC() string {
	return strings.TrimRight(string(r.take(4)), "\x00")
}

// Encode writes f as a P3D container.
func Encode(w io.Writer, f *File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal returns the serialized form of f.
func Marshal(f *File) ([]byte, error) {
	if f == nil || f.Root == nil || f.Root.Kind() != KindRoot {
		return nil, errors.New("p3d: file has no root chunk")
	}
	var buf bytes.Buffer
	if err := encodeChunk(&buf, f.Root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile serializes f to path. The data goes to a temporary file in the
// same directory first, so an existing file is only replaced on success.
func WriteFile(path string, f *File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".p3d-*")
	if err != nil {
		return fmt.Errorf("p3d: write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("p3d: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("p3d: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("p3d: write %s: %w", path, err)
	}
	return nil
}

func encodeChunk(buf *bytes.Buffer, n *Node) error {
	w := &writer{}
	encodePayload(w, n)
	w.buf.Write(n.payload.trailer())
	if w.err != nil {
		return fmt.Errorf("p3d: encode %s: %w", n.Kind(), w.err)
	}

	var kids bytes.Buffer
	for _, c := range n.children {
		if err := encodeChunk(&kids, c); err != nil {
			return err
		}
	}

	headerSize := chunkHeaderSize + w.buf.Len()
	var hdr [chunkHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(n.Kind()))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(headerSize))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(headerSize+kids.Len()))
	buf.Write(hdr[:])
	buf.Write(w.buf.Bytes())
	buf.Write(kids.Bytes())
	return nil
}

func encodePayload(w *writer, n *Node) {
	switch p := n.payload.(type) {
	case *Root:
	case *Texture:
		w.writeString(p.Name)
		w.writeU32(p.Version, p.Width, p.Height, p.Bpp, p.AlphaDepth, p.NumMipMaps, p.TextureType, p.Usage, p.Priority)
	case *Image:
		w.writeString(p.Name)
		w.writeU32(p.Version, p.Width, p.Height, p.Bpp, boolU32(p.Palettized), boolU32(p.HasAlpha), uint32(p.Format))
	case *ImageData:
		w.writeU32(uint32(len(p.Data)))
		w.buf.Write(p.Data)
	case *Set:
		w.writeString(p.Name)
		w.writeU32(p.Version, uint32(len(Children[*Texture](n))))
	case *Shader:
		w.writeString(p.Name)
		w.writeU32(p.Version)
		w.writeString(p.PddiShaderName)
		w.writeU32(p.HasTranslucency, p.VertexNeeds, p.VertexMask, uint32(len(Children[Param](n))))
	case *TextureParam:
		w.writeFourCC(p.Param)
		w.writeString(p.Value)
	case *IntParam:
		w.writeFourCC(p.Param)
		w.writeU32(p.Value)
	case *History:
		if len(p.Lines) > 0xFFFF {
			w.err = fmt.Errorf("%d history lines", len(p.Lines))
			return
		}
		var count [2]byte
		binary.LittleEndian.PutUint16(count[:], uint16(len(p.Lines)))
		w.buf.Write(count[:])
		for _, line := range p.Lines {
			w.writeString(line)
		}
	case *Raw:
		w.buf.Write(p.Data)
	default:
		w.err = fmt.Errorf("unknown payload %T", p)
	}
}

type writer struct {
	buf bytes.Buffer
	err error
}

func (w *writer) writeU32(vs ...uint32) {
	var b [4]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint32(b[:], v)
		w.buf.Write(b[:])
	}
}

func (w *writer) writeString(s string) {
	if w.err != nil {
		return
	}
	enc, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		w.err = fmt.Errorf("string %q: %w", s, err)
		return
	}
	// Pure3D pads strings to a 4-byte boundary inside the length.
	padded := (len(enc) + 3) &^ 3
	if padded > MaxStringLen {
		w.err = fmt.Errorf("string %q longer than %d bytes", s, MaxStringLen)
		return
	}
	w.buf.WriteByte(byte(padded))
	w.buf.Write(enc)
	for i := len(enc); i < padded; i++ {
		w.buf.WriteByte(0)
	}
}

// Encodable returns s with every rune that Windows-1252 cannot represent
// replaced by '?', so it can always be written as a chunk string.
func Encodable(s string) string {
	return strings.Map(func(r rune) rune {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return '?'
		}
		return r
	}, s)
}

func (w *writer) writeFourCC(tag string) {
	var b [4]byte
	if len(tag) > len(b) {
		w.err = fmt.Errorf("parameter tag %q longer than 4 bytes", tag)
		return
	}
	copy(b[:], tag)
	w.buf.Write(b[:])
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
