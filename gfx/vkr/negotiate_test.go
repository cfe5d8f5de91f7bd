// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/gfx"
	"github.com/Godric2010/resa/gfx/vkr"
)

func TestChooseImageCount(t *testing.T) {
	c := qt.New(t)
	c.Assert(vkr.ChooseImageCount(2, 4), qt.Equals, uint32(3))
	c.Assert(vkr.ChooseImageCount(2, 2), qt.Equals, uint32(2))
	c.Assert(vkr.ChooseImageCount(3, 0), qt.Equals, uint32(4), qt.Commentf("0 means no maximum"))
	c.Assert(vkr.ChooseImageCount(1, 3), qt.Equals, uint32(2))
}

func extent(w, h uint32) vk.Extent2D {
	return vk.Extent2D{Width: w, Height: h}
}

func TestChooseExtent(t *testing.T) {
	c := qt.New(t)
	min, max := extent(1, 1), extent(1920, 1080)

	got := vkr.ChooseExtent(extent(vkr.UndefinedExtent, vkr.UndefinedExtent), min, max, extent(800, 600))
	c.Assert([]uint32{got.Width, got.Height}, qt.DeepEquals, []uint32{800, 600})

	got = vkr.ChooseExtent(extent(vkr.UndefinedExtent, vkr.UndefinedExtent), min, max, extent(4000, 3000))
	c.Assert([]uint32{got.Width, got.Height}, qt.DeepEquals, []uint32{1920, 1080})

	got = vkr.ChooseExtent(extent(vkr.UndefinedExtent, vkr.UndefinedExtent), extent(64, 64), max, extent(0, 0))
	c.Assert([]uint32{got.Width, got.Height}, qt.DeepEquals, []uint32{64, 64})

	got = vkr.ChooseExtent(extent(1024, 768), min, max, extent(800, 600))
	c.Assert([]uint32{got.Width, got.Height}, qt.DeepEquals, []uint32{1024, 768}, qt.Commentf("a defined extent wins over the window"))
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)
	c.Assert(vkr.ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}), qt.Equals, vk.PresentModeMailbox)
	c.Assert(vkr.ChoosePresentMode([]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}), qt.Equals, vk.PresentModeFifo)
	c.Assert(vkr.ChoosePresentMode(nil), qt.Equals, vk.PresentModeFifo)
}

func format(f vk.Format, cs vk.ColorSpace) vk.SurfaceFormat {
	return vk.SurfaceFormat{Format: f, ColorSpace: cs}
}

func TestChooseSurfaceFormat(t *testing.T) {
	desired := format(vk.FormatB8g8r8a8Unorm, vk.ColorSpaceSrgbNonlinear)
	tests := []struct {
		about     string
		available []vk.SurfaceFormat
		expect    vk.SurfaceFormat
	}{{
		about:     "single undefined entry accepts the desired format",
		available: []vk.SurfaceFormat{format(vk.FormatUndefined, vk.ColorSpaceSrgbNonlinear)},
		expect:    desired,
	}, {
		about: "exact match",
		available: []vk.SurfaceFormat{
			format(vk.FormatR8g8b8a8Unorm, vk.ColorSpaceSrgbNonlinear),
			format(vk.FormatB8g8r8a8Unorm, vk.ColorSpaceSrgbNonlinear),
		},
		expect: desired,
	}, {
		about: "format matches with another color space",
		available: []vk.SurfaceFormat{
			format(vk.FormatR8g8b8a8Unorm, vk.ColorSpaceSrgbNonlinear),
			format(vk.FormatB8g8r8a8Unorm, vk.ColorSpaceExtendedSrgbLinear),
		},
		expect: format(vk.FormatB8g8r8a8Unorm, vk.ColorSpaceExtendedSrgbLinear),
	}, {
		about: "nothing matches, first entry",
		available: []vk.SurfaceFormat{
			format(vk.FormatR8g8b8a8Srgb, vk.ColorSpaceSrgbNonlinear),
			format(vk.FormatR8g8b8a8Unorm, vk.ColorSpaceSrgbNonlinear),
		},
		expect: format(vk.FormatR8g8b8a8Srgb, vk.ColorSpaceSrgbNonlinear),
	}}

	c := qt.New(t)
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			got := vkr.ChooseSurfaceFormat(test.available, desired)
			c.Assert(got.Format, qt.Equals, test.expect.Format)
			c.Assert(got.ColorSpace, qt.Equals, test.expect.ColorSpace)
		})
	}
}

func TestChooseTransform(t *testing.T) {
	c := qt.New(t)
	identity := vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit)
	rotate := vk.SurfaceTransformFlags(vk.SurfaceTransformRotate90Bit)

	c.Assert(vkr.ChooseTransform(identity|rotate, vk.SurfaceTransformRotate90Bit), qt.Equals, vk.SurfaceTransformIdentityBit)
	c.Assert(vkr.ChooseTransform(rotate, vk.SurfaceTransformRotate90Bit), qt.Equals, vk.SurfaceTransformRotate90Bit)
}

func TestChooseCompositeAlpha(t *testing.T) {
	c := qt.New(t)
	all := vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit | vk.CompositeAlphaInheritBit)
	c.Assert(vkr.ChooseCompositeAlpha(all), qt.Equals, vk.CompositeAlphaOpaqueBit)
	c.Assert(vkr.ChooseCompositeAlpha(vk.CompositeAlphaFlags(vk.CompositeAlphaInheritBit)), qt.Equals, vk.CompositeAlphaInheritBit)
}

func TestChooseDepthFormat(t *testing.T) {
	c := qt.New(t)

	got, err := vkr.ChooseDepthFormat(func(f vk.Format) bool {
		return f == vk.FormatD24UnormS8Uint || f == vk.FormatD16Unorm
	})
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, vk.FormatD24UnormS8Uint)
	c.Assert(vkr.HasStencil(got), qt.IsTrue)

	_, err = vkr.ChooseDepthFormat(func(vk.Format) bool { return false })
	c.Assert(errors.Is(err, gfx.ErrNoDepthFormat), qt.IsTrue)
}

func TestFindMemoryType(t *testing.T) {
	c := qt.New(t)
	local := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	visible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	coherent := vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	types := []vk.MemoryPropertyFlags{local, visible, visible | coherent, local | visible | coherent}

	idx, err := vkr.FindMemoryType(types, 0xF, local)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(0))

	idx, err = vkr.FindMemoryType(types, 0xF, visible|coherent)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(2))

	idx, err = vkr.FindMemoryType(types, 0x8, local)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(3), qt.Commentf("filter excludes the first types"))

	_, err = vkr.FindMemoryType(types, 0x3, visible|coherent)
	c.Assert(errors.Is(err, gfx.ErrNoMemoryType), qt.IsTrue)
}
