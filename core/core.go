// Package core holds the engine services that are not tied to a
// graphics API: configuration, logging, time and shader binaries.
package core

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vertex"
	case FragmentShaderType:
		return "fragment"
	}
	return "unknown"
}

// ShaderBinary is a compiled shader, kept as an opaque blob
type ShaderBinary struct {
	Name string
	Type ShaderType
	Code []byte
}

// Default shader names the renderer loads
const (
	VertexShaderName   = "resa.vert.spv"
	FragmentShaderName = "resa.frag.spv"
)
