package core

import (
	"encoding/binary"
	"strings"

	"github.com/gobuffalo/packd"
	"github.com/pkg/errors"
)

const shaderSuffix = ".spv"

// ShaderTypeOf gets the shader type from its file name.
// It is important that the file name does not contain more than two dots,
// the first is always the name of the shader, second is type, and the third one
// ensured that the shader is compiled (only compiled shaders have an .spv extension).
func ShaderTypeOf(name string) ShaderType {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if !strings.HasSuffix(name, shaderSuffix) {
		return UnknownShaderType
	}

	nodes := strings.Split(strings.TrimSuffix(name, shaderSuffix), ".")
	if len(nodes) != 2 {
		return UnknownShaderType
	}

	switch nodes[1] {
	case "frag":
		return FragmentShaderType
	case "vert":
		return VertexShaderType
	}
	return UnknownShaderType
}

// LoadShaders finds every named shader binary in finder.
// The finder may be a packr box or a kar archive.
func LoadShaders(finder packd.Finder, names ...string) ([]ShaderBinary, error) {
	shaders := make([]ShaderBinary, 0, len(names))
	for _, name := range names {
		shaderType := ShaderTypeOf(name)
		if shaderType == UnknownShaderType {
			return nil, errors.Errorf("%s: not a compiled vertex or fragment shader", name)
		}

		code, err := finder.Find(name)
		if err != nil {
			return nil, errors.Wrapf(err, "find shader %s", name)
		}
		if len(code) == 0 || len(code)%4 != 0 {
			return nil, errors.Errorf("%s: shader size %d is not a multiple of 4", name, len(code))
		}

		shaders = append(shaders, ShaderBinary{
			Name: name,
			Type: shaderType,
			Code: code,
		})
	}
	return shaders, nil
}

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for idx := range words {
		words[idx] = binary.LittleEndian.Uint32(data[idx*4:])
	}
	return words
}

// SafeString null terminates s for the C API
func SafeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

// SafeStrings null terminates every string
func SafeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, SafeString(s))
	}
	return safe
}
