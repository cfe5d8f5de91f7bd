// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"math"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/gfx"
)

// UndefinedExtent is the current extent a surface reports when the
// swapchain decides its own size.
const UndefinedExtent = math.MaxUint32

// ChoosePresentMode prefers mailbox and falls back to FIFO,
// which every implementation supports.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return vk.PresentModeMailbox
		}
	}
	return vk.PresentModeFifo
}

// ChooseImageCount asks for one image more than the minimum,
// unless that exceeds the maximum. A maximum of 0 means unbounded.
func ChooseImageCount(min, max uint32) uint32 {
	count := min + 1
	if max > 0 && count > max {
		count = max
	}
	return count
}

// ChooseExtent returns current, or the window size clamped into
// [min, max] when current is the undefined sentinel.
func ChooseExtent(current, min, max, window vk.Extent2D) vk.Extent2D {
	if current.Width != UndefinedExtent {
		return vk.Extent2D{Width: current.Width, Height: current.Height}
	}
	return vk.Extent2D{
		Width:  clamp(window.Width, min.Width, max.Width),
		Height: clamp(window.Height, min.Height, max.Height),
	}
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ChooseSurfaceFormat picks the surface format closest to desired.
// A single undefined entry means the surface takes anything.
func ChooseSurfaceFormat(available []vk.SurfaceFormat, desired vk.SurfaceFormat) vk.SurfaceFormat {
	if len(available) == 0 {
		return desired
	}
	if len(available) == 1 && available[0].Format == vk.FormatUndefined {
		return desired
	}
	for _, f := range available {
		if f.Format == desired.Format && f.ColorSpace == desired.ColorSpace {
			return f
		}
	}
	for _, f := range available {
		if f.Format == desired.Format {
			return f
		}
	}
	return available[0]
}

// ChooseTransform keeps images unrotated where the surface allows it
func ChooseTransform(supported vk.SurfaceTransformFlags, current vk.SurfaceTransformFlagBits) vk.SurfaceTransformFlagBits {
	if supported&vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit) != 0 {
		return vk.SurfaceTransformIdentityBit
	}
	return current
}

var compositeAlphaFlags = []vk.CompositeAlphaFlagBits{
	vk.CompositeAlphaOpaqueBit,
	vk.CompositeAlphaPreMultipliedBit,
	vk.CompositeAlphaPostMultipliedBit,
	vk.CompositeAlphaInheritBit,
}

// ChooseCompositeAlpha returns the first supported mode, opaque first
func ChooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	for _, flag := range compositeAlphaFlags {
		if supported&vk.CompositeAlphaFlags(flag) != 0 {
			return flag
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

// DepthFormats are the depth formats tried, best first
var DepthFormats = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
	vk.FormatD16Unorm,
}

// ChooseDepthFormat returns the first entry of DepthFormats for which
// supports reports true. supports tells if a format is usable as an
// optimally tiled depth attachment.
func ChooseDepthFormat(supports func(vk.Format) bool) (vk.Format, error) {
	for _, format := range DepthFormats {
		if supports(format) {
			return format, nil
		}
	}
	return vk.FormatUndefined, gfx.ErrNoDepthFormat
}

// HasStencil tells if a depth format carries a stencil component
func HasStencil(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}

// FindMemoryType returns the first memory type allowed by filter whose
// flags include all of flags.
func FindMemoryType(types []vk.MemoryPropertyFlags, filter uint32, flags vk.MemoryPropertyFlags) (uint32, error) {
	for idx, typeFlags := range types {
		if filter&(1<<uint(idx)) == 0 {
			continue
		}
		if typeFlags&flags == flags {
			return uint32(idx), nil
		}
	}
	return 0, errors.Wrapf(gfx.ErrNoMemoryType, "filter %#x, flags %#x", filter, uint32(flags))
}
