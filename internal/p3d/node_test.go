package p3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func image(name string) *Node {
	return NewNode(&Image{Name: name}, NewNode(&ImageData{Data: []byte(name)}))
}

func names(n *Node) []string {
	var out []string
	for _, img := range Children[*Image](n) {
		out = append(out, img.Name)
	}
	return out
}

func TestInsertAndRemove(t *testing.T) {
	tex := NewNode(&Texture{Name: "t"}, image("a"), image("c"))
	b := image("b")

	require.NoError(t, tex.Insert(1, b))
	assert.Equal(t, []string{"a", "b", "c"}, names(tex))
	assert.Same(t, tex, b.Parent())
	assert.Equal(t, 1, tex.Index(b))

	assert.ErrorIs(t, tex.Insert(0, b), ErrHasParent)
	assert.Error(t, tex.Insert(9, image("x")))

	require.NoError(t, tex.Remove(b))
	assert.Nil(t, b.Parent())
	assert.Equal(t, []string{"a", "c"}, names(tex))
	assert.ErrorIs(t, tex.Remove(b), ErrNotChild)
}

func TestReplaceChildren(t *testing.T) {
	t.Run("detaches old and attaches new", func(t *testing.T) {
		tex := NewNode(&Texture{Name: "t"}, image("old0"), image("old1"))
		old := append([]*Node(nil), tex.Children()...)

		fresh := []*Node{image("new0"), image("new1"), image("new2")}
		require.NoError(t, tex.ReplaceChildren(fresh))

		assert.Equal(t, []string{"new0", "new1", "new2"}, names(tex))
		for _, n := range old {
			assert.Nil(t, n.Parent())
		}
		for _, n := range fresh {
			assert.Same(t, tex, n.Parent())
		}
		assert.NoError(t, Check(tex))
	})

	t.Run("rejects attached child without mutating", func(t *testing.T) {
		other := NewNode(&Texture{Name: "other"}, image("owned"))
		tex := NewNode(&Texture{Name: "t"}, image("keep"))
		before := append([]*Node(nil), tex.Children()...)

		err := tex.ReplaceChildren([]*Node{image("new"), other.Children()[0]})
		assert.ErrorIs(t, err, ErrHasParent)
		assert.Equal(t, before, tex.Children())
		assert.Same(t, tex, before[0].Parent())
		assert.Same(t, other, other.Children()[0].Parent())
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		tex := NewNode(&Texture{Name: "t"})
		img := image("dup")
		assert.ErrorIs(t, tex.ReplaceChildren([]*Node{img, img}), ErrHasParent)
		assert.Nil(t, img.Parent())
	})
}

func TestCheck(t *testing.T) {
	f := NewFile(NewNode(&Texture{Name: "t"}, image("a")))
	require.NoError(t, Check(f.Root))

	// Corrupt the tree by hand: the same node under two parents.
	shared := image("shared")
	a := NewNode(&Texture{Name: "a"}, shared)
	b := NewNode(&Texture{Name: "b"})
	b.children = append(b.children, shared)
	root := NewNode(&Root{}, a, b)
	assert.Error(t, Check(root))
}

func TestDescendantsOrder(t *testing.T) {
	f := NewFile(
		NewNode(&Texture{Name: "t0"}, image("t0_0"), image("t0_1")),
		NewNode(&Set{Name: "s"},
			NewNode(&Texture{Name: "t1"}, image("t1_0")),
		),
		NewNode(&Texture{Name: "t2"}, image("t2_0")),
	)

	var got []string
	for _, img := range Descendants[*Image](f.Root) {
		got = append(got, img.Name)
	}
	assert.Equal(t, []string{"t0_0", "t0_1", "t1_0", "t2_0"}, got)

	assert.Len(t, Children[*Texture](f.Root), 2)
	assert.Len(t, Descendants[*Texture](f.Root), 3)
	assert.Len(t, Descendants[*ImageData](f.Root), 4)

	var texNames []string
	for _, tex := range f.Textures() {
		texNames = append(texNames, tex.Name)
	}
	assert.Equal(t, []string{"t0", "t2", "t1"}, texNames)
}

func TestFirstLast(t *testing.T) {
	tex := NewNode(&Texture{Name: "t"}, image("a"), image("b"))

	first, ok := First[*Image](tex)
	require.True(t, ok)
	assert.Equal(t, "a", first.Name)

	last, ok := Last[*Image](tex)
	require.True(t, ok)
	assert.Equal(t, "b", last.Name)

	_, ok = First[*Shader](tex)
	assert.False(t, ok)
}

func TestLastParam(t *testing.T) {
	shader := NewNode(&Shader{Name: "s"},
		NewNode(&TextureParam{Param: "TEX", Value: "first"}),
		NewNode(&IntParam{Param: "FIMD", Value: 0}),
		NewNode(&TextureParam{Param: "TEX", Value: "second"}),
		NewNode(&IntParam{Param: "BLMD", Value: 7}),
	).Payload().(*Shader)

	tex, ok := LastParam[*TextureParam](shader, "TEX")
	require.True(t, ok)
	assert.Equal(t, "second", tex.Value)

	fimd, ok := LastParam[*IntParam](shader, "FIMD")
	require.True(t, ok)
	assert.Equal(t, uint32(0), fimd.Value)

	_, ok = LastParam[*IntParam](shader, "TEX")
	assert.False(t, ok)
	_, ok = LastParam[*TextureParam](shader, "NONE")
	assert.False(t, ok)
}

func TestTextureFlags(t *testing.T) {
	tex := &Texture{Bpp: 8, AlphaDepth: 0}
	assert.True(t, tex.Palettized())
	assert.False(t, tex.HasAlpha())

	tex = &Texture{Bpp: 32, AlphaDepth: 8}
	assert.False(t, tex.Palettized())
	assert.True(t, tex.HasAlpha())
}
