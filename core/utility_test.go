package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/packd"

	"github.com/Godric2010/resa/core"
)

func TestShaderTypeOf(t *testing.T) {
	c := qt.New(t)
	c.Assert(core.ShaderTypeOf("resa.vert.spv"), qt.Equals, core.VertexShaderType)
	c.Assert(core.ShaderTypeOf("shaders/resa.frag.spv"), qt.Equals, core.FragmentShaderType)
	c.Assert(core.ShaderTypeOf("resa.vert"), qt.Equals, core.UnknownShaderType)
	c.Assert(core.ShaderTypeOf("resa.geom.spv"), qt.Equals, core.UnknownShaderType)
	c.Assert(core.ShaderTypeOf("a.b.vert.spv"), qt.Equals, core.UnknownShaderType)
}

func TestLoadShaders(t *testing.T) {
	c := qt.New(t)
	box := packd.NewMemoryBox()
	c.Assert(box.AddBytes(core.VertexShaderName, []byte{0x03, 0x02, 0x23, 0x07}), qt.IsNil)
	c.Assert(box.AddBytes(core.FragmentShaderName, []byte{0x03, 0x02, 0x23, 0x07, 1, 0, 0, 0}), qt.IsNil)

	shaders, err := core.LoadShaders(box, core.VertexShaderName, core.FragmentShaderName)
	c.Assert(err, qt.IsNil)
	c.Assert(shaders, qt.HasLen, 2)
	c.Assert(shaders[0].Type, qt.Equals, core.VertexShaderType)
	c.Assert(shaders[1].Type, qt.Equals, core.FragmentShaderType)
	c.Assert(shaders[1].Code, qt.HasLen, 8)
}

func TestLoadShadersErrors(t *testing.T) {
	c := qt.New(t)
	box := packd.NewMemoryBox()
	c.Assert(box.AddBytes("odd.vert.spv", []byte{1, 2, 3}), qt.IsNil)

	_, err := core.LoadShaders(box, "missing.frag.spv")
	c.Assert(err, qt.ErrorMatches, "find shader missing.frag.spv: .*")

	_, err = core.LoadShaders(box, "odd.vert.spv")
	c.Assert(err, qt.ErrorMatches, "odd.vert.spv: shader size 3 is not a multiple of 4")

	_, err = core.LoadShaders(box, "notes.txt")
	c.Assert(err, qt.ErrorMatches, "notes.txt: not a compiled vertex or fragment shader")
}

func TestSliceUint32(t *testing.T) {
	c := qt.New(t)
	words := core.SliceUint32([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	c.Assert(words, qt.DeepEquals, []uint32{0x07230203, 0x00010000})
}

func TestSafeStrings(t *testing.T) {
	c := qt.New(t)
	c.Assert(core.SafeString("main"), qt.Equals, "main\x00")
	c.Assert(core.SafeString("main\x00"), qt.Equals, "main\x00")
	c.Assert(core.SafeStrings([]string{"a", "b\x00"}), qt.DeepEquals, []string{"a\x00", "b\x00"})
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func TestEventTypeString(t *testing.T) {
	c := qt.New(t)
	c.Assert(core.CloseEvent.String(), qt.Equals, "close")
	c.Assert(core.ResizeEvent.String(), qt.Equals, "resize")
}
