package device

import (
	vk "github.com/vulkan-go/vulkan"
)

// Extension names the logical device may enable
const (
	SwapchainExtension         = "VK_KHR_swapchain"
	PortabilitySubsetExtension = "VK_KHR_portability_subset"
)

// Feature is an optional device feature the renderer can ask for
type Feature int

// Known optional features
const (
	ShaderClipDistance Feature = iota
	SamplerAnisotropy
	FillModeNonSolid
	WideLines
)

// DefaultFeatures are requested unless the caller asks otherwise
var DefaultFeatures = []Feature{ShaderClipDistance, SamplerAnisotropy}

func (f Feature) String() string {
	switch f {
	case ShaderClipDistance:
		return "shaderClipDistance"
	case SamplerAnisotropy:
		return "samplerAnisotropy"
	case FillModeNonSolid:
		return "fillModeNonSolid"
	case WideLines:
		return "wideLines"
	}
	return "unknown"
}

func (f Feature) field(fs *vk.PhysicalDeviceFeatures) *vk.Bool32 {
	switch f {
	case ShaderClipDistance:
		return &fs.ShaderClipDistance
	case SamplerAnisotropy:
		return &fs.SamplerAnisotropy
	case FillModeNonSolid:
		return &fs.FillModeNonSolid
	case WideLines:
		return &fs.WideLines
	}
	return nil
}

// MaskFeatures enables every requested feature the device supports.
// Features the device lacks are returned in dropped.
func MaskFeatures(supported vk.PhysicalDeviceFeatures, requested []Feature) (enabled vk.PhysicalDeviceFeatures, dropped []Feature) {
	for _, f := range requested {
		have := f.field(&supported)
		if have == nil || *have != vk.True {
			dropped = append(dropped, f)
			continue
		}
		*f.field(&enabled) = vk.True
	}
	return
}

// Extensions lists the device extensions to enable on d: the swapchain,
// the portability subset when d advertises it, then extra.
// Duplicates are dropped.
func Extensions(d Descriptor, extra ...string) []string {
	names := []string{SwapchainExtension}
	if d.HasExtension(PortabilitySubsetExtension) {
		names = append(names, PortabilitySubsetExtension)
	}
	for _, name := range extra {
		if !contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
