package device_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/device"
	"github.com/Godric2010/resa/gfx"
)

var (
	graphics = vk.QueueFlags(vk.QueueGraphicsBit)
	compute  = vk.QueueFlags(vk.QueueComputeBit)
	transfer = vk.QueueFlags(vk.QueueTransferBit)
)

func TestResolveQueueFamilies(t *testing.T) {
	tests := []struct {
		about    string
		families []device.QueueFamily
		graphics int
		compute  int
	}{{
		about: "one family does everything",
		families: []device.QueueFamily{
			{Flags: graphics | compute | transfer, Present: true},
		},
		graphics: 0,
		compute:  0,
	}, {
		about: "graphics family can not present",
		families: []device.QueueFamily{
			{Flags: graphics | compute},
			{Flags: graphics, Present: true},
			{Flags: compute},
		},
		graphics: 1,
		compute:  0,
	}, {
		about: "present without graphics is not enough",
		families: []device.QueueFamily{
			{Flags: transfer, Present: true},
			{Flags: compute, Present: true},
		},
		graphics: device.Unresolved,
		compute:  device.Unresolved,
	}, {
		about: "no compute family",
		families: []device.QueueFamily{
			{Flags: transfer},
			{Flags: graphics, Present: true},
		},
		graphics: 1,
		compute:  device.Unresolved,
	}, {
		about:    "no families",
		graphics: device.Unresolved,
		compute:  device.Unresolved,
	}}

	c := qt.New(t)
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			g, cp := device.ResolveQueueFamilies(test.families)
			c.Assert(g, qt.Equals, test.graphics)
			c.Assert(cp, qt.Equals, test.compute)
		})
	}
}

func descriptor(name string, class device.Class, family int) device.Descriptor {
	return device.Descriptor{
		Name:           name,
		Class:          class,
		GraphicsFamily: family,
		ComputeFamily:  device.Unresolved,
	}
}

func TestSelect(t *testing.T) {
	list := []device.Descriptor{
		descriptor("llvmpipe", device.Other, 0),
		descriptor("Intel UHD 630", device.Integrated, 0),
		descriptor("Headless", device.Discrete, device.Unresolved),
		descriptor("AMD Radeon Pro", device.Discrete, 1),
		descriptor("NVIDIA RTX", device.Discrete, 0),
	}

	c := qt.New(t)

	d, err := device.Select(list, "")
	c.Assert(err, qt.IsNil)
	c.Assert(d.Name, qt.Equals, "AMD Radeon Pro")

	d, err = device.Select(list, "Intel UHD 630")
	c.Assert(err, qt.IsNil)
	c.Assert(d.Name, qt.Equals, "Intel UHD 630")

	d, err = device.Select(list, "Headless")
	c.Assert(err, qt.IsNil)
	c.Assert(d.Name, qt.Equals, "AMD Radeon Pro", qt.Commentf("a device that can not present is never picked"))

	d, err = device.Select(list[:2], "missing")
	c.Assert(err, qt.IsNil)
	c.Assert(d.Name, qt.Equals, "llvmpipe")
}

func TestSelectNone(t *testing.T) {
	c := qt.New(t)

	_, err := device.Select(nil, "")
	c.Assert(gfx.IsFatal(err), qt.IsTrue)
	c.Assert(errors.Is(err, gfx.ErrNoDevice), qt.IsTrue)

	_, err = device.Select([]device.Descriptor{descriptor("Headless", device.Discrete, device.Unresolved)}, "")
	c.Assert(gfx.IsFatal(err), qt.IsTrue)
	c.Assert(errors.Is(err, gfx.ErrNoQueueFamily), qt.IsTrue)
}

func TestClassOf(t *testing.T) {
	c := qt.New(t)
	c.Assert(device.ClassOf(vk.PhysicalDeviceTypeDiscreteGpu), qt.Equals, device.Discrete)
	c.Assert(device.ClassOf(vk.PhysicalDeviceTypeIntegratedGpu), qt.Equals, device.Integrated)
	c.Assert(device.ClassOf(vk.PhysicalDeviceTypeCpu), qt.Equals, device.Other)
	c.Assert(device.Integrated.String(), qt.Equals, "integrated")
}

func TestMaskFeatures(t *testing.T) {
	c := qt.New(t)
	supported := vk.PhysicalDeviceFeatures{
		ShaderClipDistance: vk.True,
		WideLines:          vk.True,
	}
	enabled, dropped := device.MaskFeatures(supported, device.DefaultFeatures)
	c.Assert(enabled.ShaderClipDistance, qt.Equals, vk.Bool32(vk.True))
	c.Assert(enabled.SamplerAnisotropy, qt.Equals, vk.Bool32(vk.False))
	c.Assert(enabled.WideLines, qt.Equals, vk.Bool32(vk.False), qt.Commentf("only requested features are enabled"))
	c.Assert(dropped, qt.DeepEquals, []device.Feature{device.SamplerAnisotropy})
}

func TestExtensions(t *testing.T) {
	c := qt.New(t)

	plain := device.Descriptor{Extensions: []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"}}
	c.Assert(device.Extensions(plain), qt.DeepEquals, []string{device.SwapchainExtension})
	c.Assert(device.Extensions(plain, "VK_KHR_maintenance1", device.SwapchainExtension), qt.DeepEquals,
		[]string{device.SwapchainExtension, "VK_KHR_maintenance1"})

	metal := device.Descriptor{Extensions: []string{"VK_KHR_swapchain", "VK_KHR_portability_subset"}}
	c.Assert(device.Extensions(metal), qt.DeepEquals,
		[]string{device.SwapchainExtension, device.PortabilitySubsetExtension})
}
