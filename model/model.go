// Package model holds the vertex layout the pipeline consumes and the
// built-in meshes the renderer draws.
package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Vertex is a model vertex
type Vertex struct {
	Position glm.Vec3
	UV       glm.Vec2
}

// VertexSize is the stride between two vertices in a vertex buffer
const VertexSize = uint32(unsafe.Sizeof(Vertex{}))

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    VertexSize,
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.UV)),
		},
	}
}

// Mesh is a non-indexed triangle list
type Mesh struct {
	Vertices []Vertex
}

// Len returns the vertex count
func (m Mesh) Len() uint32 {
	return uint32(len(m.Vertices))
}

// Bytes lays the vertices out the way VertexAttributeDescriptions
// describes them.
func (m Mesh) Bytes() []byte {
	out := make([]byte, 0, len(m.Vertices)*int(VertexSize))
	var word [4]byte
	for _, v := range m.Vertices {
		for _, f := range []float32{v.Position[0], v.Position[1], v.Position[2], v.UV[0], v.UV[1]} {
			binary.LittleEndian.PutUint32(word[:], math.Float32bits(f))
			out = append(out, word[:]...)
		}
	}
	return out
}

// Quad returns a square of the given half size centered at the origin,
// facing the viewer, wound counter-clockwise.
func Quad(half float32) Mesh {
	tl := Vertex{Position: glm.Vec3{-half, -half, 0}, UV: glm.Vec2{0, 0}}
	tr := Vertex{Position: glm.Vec3{half, -half, 0}, UV: glm.Vec2{1, 0}}
	br := Vertex{Position: glm.Vec3{half, half, 0}, UV: glm.Vec2{1, 1}}
	bl := Vertex{Position: glm.Vec3{-half, half, 0}, UV: glm.Vec2{0, 1}}
	return Mesh{Vertices: []Vertex{tl, bl, br, br, tr, tl}}
}
