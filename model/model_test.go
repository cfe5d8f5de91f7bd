package model_test

import (
	"encoding/binary"
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/model"
)

func TestVertexLayout(t *testing.T) {
	c := qt.New(t)
	c.Assert(model.VertexSize, qt.Equals, uint32(20))

	bindings := model.VertexBindingDescriptions()
	c.Assert(bindings, qt.HasLen, 1)
	c.Assert(bindings[0].Stride, qt.Equals, model.VertexSize)
	c.Assert(bindings[0].InputRate, qt.Equals, vk.VertexInputRateVertex)

	attrs := model.VertexAttributeDescriptions()
	c.Assert(attrs, qt.HasLen, 2)
	c.Assert(attrs[0].Format, qt.Equals, vk.FormatR32g32b32Sfloat)
	c.Assert(attrs[0].Offset, qt.Equals, uint32(0))
	c.Assert(attrs[1].Format, qt.Equals, vk.FormatR32g32Sfloat)
	c.Assert(attrs[1].Offset, qt.Equals, uint32(12))
}

func TestQuadBytes(t *testing.T) {
	c := qt.New(t)
	quad := model.Quad(0.5)
	c.Assert(quad.Len(), qt.Equals, uint32(6))

	data := quad.Bytes()
	c.Assert(data, qt.HasLen, 6*int(model.VertexSize))

	float := func(offset int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
	}
	// second vertex is the bottom left corner
	second := int(model.VertexSize)
	c.Assert(float(second), qt.Equals, float32(-0.5))
	c.Assert(float(second+4), qt.Equals, float32(0.5))
	c.Assert(float(second+8), qt.Equals, float32(0))
	c.Assert(float(second+12), qt.Equals, float32(0))
	c.Assert(float(second+16), qt.Equals, float32(1))
}
