package p3d

import "fmt"

// Kind is a P3D chunk id.
type Kind uint32

const (
	KindRoot         Kind = 0xFF443350 // "P3D\xff"
	KindHistory      Kind = 0x00007000
	KindShader       Kind = 0x00011000
	KindTextureParam Kind = 0x00011002
	KindIntParam     Kind = 0x00011003
	KindTexture      Kind = 0x00019000
	KindImage        Kind = 0x00019001
	KindImageData    Kind = 0x00019002
	KindSet          Kind = 0x00019005
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "Root"
	case KindHistory:
		return "History"
	case KindShader:
		return "Shader"
	case KindTextureParam:
		return "ShaderTextureParameter"
	case KindIntParam:
		return "ShaderIntegerParameter"
	case KindTexture:
		return "Texture"
	case KindImage:
		return "Image"
	case KindImageData:
		return "ImageData"
	case KindSet:
		return "Set"
	default:
		return fmt.Sprintf("0x%05X", uint32(k))
	}
}

// ImageFormat is the encoding tag stored on an Image chunk.
type ImageFormat uint32

const (
	FormatRaw ImageFormat = iota
	FormatPNG
	FormatTGA
	FormatBMP
	FormatIPU
	FormatDXT
	FormatDXT1
	FormatDXT2
	FormatDXT3
	FormatDXT4
	FormatDXT5
)

func (f ImageFormat) String() string {
	names := [...]string{"RAW", "PNG", "TGA", "BMP", "IPU", "DXT", "DXT1", "DXT2", "DXT3", "DXT4", "DXT5"}
	if int(f) < len(names) {
		return names[f]
	}
	return fmt.Sprintf("Format(%d)", uint32(f))
}

// Payload is the typed data of one chunk variant. The set of variants is
// closed; consumers switch on Kind or on the concrete type.
type Payload interface {
	Kind() Kind
	// Node returns the node carrying this payload.
	Node() *Node
	bind(*Node)
	trailer() []byte
	setTrailer([]byte)
}

// link ties a payload to its node. tail holds header bytes past the fields
// the codec knows about; they are written back after those fields.
type link struct {
	n    *Node
	tail []byte
}

func (l *link) Node() *Node            { return l.n }
func (l *link) bind(n *Node)           { l.n = n }
func (l *link) trailer() []byte        { return l.tail }
func (l *link) setTrailer(tail []byte) { l.tail = tail }

// Root is the file header chunk; its children are the top-level chunks.
type Root struct{ link }

func (*Root) Kind() Kind { return KindRoot }

// Texture owns a mipmap chain of Image children, level 0 first.
type Texture struct {
	link
	Name        string
	Version     uint32
	Width       uint32
	Height      uint32
	Bpp         uint32
	AlphaDepth  uint32
	NumMipMaps  uint32
	TextureType uint32
	Usage       uint32
	Priority    uint32
}

func (*Texture) Kind() Kind { return KindTexture }

// HasAlpha reports whether the texture declares an alpha channel.
func (t *Texture) HasAlpha() bool { return t.AlphaDepth > 0 }

// Palettized reports whether the texture uses an indexed palette.
func (t *Texture) Palettized() bool { return t.Bpp <= 8 }

// Images returns the direct Image children, level 0 first.
func (t *Texture) Images() []*Image { return Children[*Image](t.Node()) }

// Image is one mip level. It carries exactly one ImageData child.
type Image struct {
	link
	Name       string
	Version    uint32
	Width      uint32
	Height     uint32
	Bpp        uint32
	Palettized bool
	HasAlpha   bool
	Format     ImageFormat
}

func (*Image) Kind() Kind { return KindImage }

// ImageData is the encoded pixel payload of an Image.
type ImageData struct {
	link
	Data []byte
}

func (*ImageData) Kind() Kind { return KindImageData }

// Set groups textures under one name.
type Set struct {
	link
	Name    string
	Version uint32
}

func (*Set) Kind() Kind { return KindSet }

// Shader holds an ordered list of parameter children.
type Shader struct {
	link
	Name            string
	Version         uint32
	PddiShaderName  string
	HasTranslucency uint32
	VertexNeeds     uint32
	VertexMask      uint32
}

func (*Shader) Kind() Kind { return KindShader }

// Param is implemented by shader parameter chunks.
type Param interface {
	Payload
	Tag() string
}

// TextureParam names the texture a shader samples for a tag such as "TEX".
type TextureParam struct {
	link
	Param string
	Value string
}

func (*TextureParam) Kind() Kind { return KindTextureParam }
func (p *TextureParam) Tag() string { return p.Param }

// IntParam is an integer shader setting such as the "FIMD" filter mode.
type IntParam struct {
	link
	Param string
	Value uint32
}

func (*IntParam) Kind() Kind { return KindIntParam }
func (p *IntParam) Tag() string { return p.Param }

// History is a list of free-text provenance lines.
type History struct {
	link
	Lines []string
}

func (*History) Kind() Kind { return KindHistory }

// Raw carries a chunk this package does not interpret. Its bytes are
// written back unchanged.
type Raw struct {
	link
	ID   Kind
	Data []byte
}

func (r *Raw) Kind() Kind { return r.ID }

// File is a parsed P3D container.
type File struct {
	Root *Node
}

// NewFile returns a file whose root holds the given top-level chunks.
func NewFile(chunks ...*Node) *File {
	return &File{Root: NewNode(&Root{}, chunks...)}
}

// Textures returns the top-level textures followed by the textures
// directly inside each top-level set.
func (f *File) Textures() []*Texture {
	textures := Children[*Texture](f.Root)
	for _, set := range Children[*Set](f.Root) {
		textures = append(textures, Children[*Texture](set.Node())...)
	}
	return textures
}

// Shaders returns the top-level shaders.
func (f *File) Shaders() []*Shader {
	return Children[*Shader](f.Root)
}
