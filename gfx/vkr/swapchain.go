// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/device"
	"github.com/Godric2010/resa/gfx"
)

// DefaultSurfaceFormat is the format asked for when the surface takes anything
var DefaultSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Unorm,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// Swapchain holds the presentable images, their views and the depth
// buffer shared by every framebuffer. A resize replaces it whole.
type Swapchain struct {
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Images      []vk.Image
	Views       []vk.ImageView
	Depth       *Image
	DepthView   vk.ImageView

	log       logrus.FieldLogger
	device    vk.Device
	handle    vk.Swapchain
	destroyed bool
}

type surfaceSupport struct {
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
}

func querySurface(physical vk.PhysicalDevice, surface vk.Surface) (surfaceSupport, error) {
	var s surfaceSupport
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(physical, surface, &s.capabilities)); err != nil {
		return s, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
	}
	s.capabilities.Deref()
	s.capabilities.CurrentExtent.Deref()
	s.capabilities.MinImageExtent.Deref()
	s.capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &formatCount, nil)); err != nil {
		return s, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}
	s.formats = make([]vk.SurfaceFormat, formatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &formatCount, s.formats)); err != nil {
		return s, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}
	for i := range s.formats {
		s.formats[i].Deref()
	}

	var modeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &modeCount, nil)); err != nil {
		return s, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}
	s.presentModes = make([]vk.PresentMode, modeCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &modeCount, s.presentModes)); err != nil {
		return s, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}
	return s, nil
}

// NewSwapchain negotiates the swapchain with the surface and creates it,
// its image views and a depth buffer. When old is given its handle is
// retired into the new swapchain; the caller still destroys old.
func NewSwapchain(log logrus.FieldLogger, ctx *Context, dev *device.Logical, window vk.Extent2D, desired vk.SurfaceFormat, old *Swapchain) (*Swapchain, error) {
	support, err := querySurface(dev.Physical, ctx.Surface)
	if err != nil {
		return nil, gfx.Fatal(err, "vkr.NewSwapchain()")
	}
	caps := support.capabilities

	sc := &Swapchain{
		Format:      ChooseSurfaceFormat(support.formats, desired),
		PresentMode: ChoosePresentMode(support.presentModes),
		Extent:      ChooseExtent(caps.CurrentExtent, caps.MinImageExtent, caps.MaxImageExtent, window),
		log:         log,
		device:      dev.Device,
	}

	oldHandle := vk.NullSwapchain
	if old != nil {
		oldHandle = old.handle
	}

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          ctx.Surface,
		MinImageCount:    ChooseImageCount(caps.MinImageCount, caps.MaxImageCount),
		ImageFormat:      sc.Format.Format,
		ImageColorSpace:  sc.Format.ColorSpace,
		ImageExtent:      sc.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     ChooseTransform(caps.SupportedTransforms, caps.CurrentTransform),
		CompositeAlpha:   ChooseCompositeAlpha(caps.SupportedCompositeAlpha),
		PresentMode:      sc.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldHandle,
	}
	if err := vk.Error(vk.CreateSwapchain(dev.Device, &scci, nil, &sc.handle)); err != nil {
		return nil, gfx.Fatal(errors.Wrap(err, "vk.CreateSwapchain()"), "vkr.NewSwapchain()")
	}

	if err := sc.createViews(); err != nil {
		sc.Destroy()
		return nil, gfx.Fatal(err, "vkr.NewSwapchain()")
	}
	if err := sc.createDepth(dev); err != nil {
		sc.Destroy()
		return nil, gfx.Fatal(err, "vkr.NewSwapchain()")
	}

	log.WithFields(logrus.Fields{
		"width":   sc.Extent.Width,
		"height":  sc.Extent.Height,
		"images":  len(sc.Images),
		"format":  sc.Format.Format,
		"present": sc.PresentMode,
		"depth":   sc.Depth.Format(),
	}).Info("swapchain created")
	return sc, nil
}

func (sc *Swapchain) createViews() error {
	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(sc.device, sc.handle, &numImages, nil)); err != nil {
		return errors.Wrap(err, "vk.GetSwapchainImages()")
	}
	sc.Images = make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(sc.device, sc.handle, &numImages, sc.Images)); err != nil {
		return errors.Wrap(err, "vk.GetSwapchainImages()")
	}

	for idx, image := range sc.Images {
		view, err := NewImageView(sc.device, image, sc.Format.Format, vk.ImageAspectColorBit)
		if err != nil {
			return errors.Wrapf(err, "image %d", idx)
		}
		sc.Views = append(sc.Views, view)
	}
	return nil
}

func (sc *Swapchain) createDepth(dev *device.Logical) error {
	format, err := ChooseDepthFormat(func(f vk.Format) bool {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(dev.Physical, f, &props)
		props.Deref()
		return props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0
	})
	if err != nil {
		return err
	}

	image, err := NewImage(NewMemoryAllocator(dev), sc.Extent, format, vk.ImageUsageDepthStencilAttachmentBit)
	if err != nil {
		return errors.Wrap(err, "depth image")
	}
	sc.Depth = image

	view, err := NewImageView(sc.device, image.Get(), format, vk.ImageAspectDepthBit)
	if err != nil {
		return errors.Wrap(err, "depth view")
	}
	sc.DepthView = view
	return nil
}

// RecordDepthTransition records the depth image's move from the
// undefined layout into the depth attachment layout.
func (sc *Swapchain) RecordDepthTransition(cmd vk.CommandBuffer) error {
	aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if HasStencil(sc.Depth.Format()) {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       0,
		DstAccessMask:       vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		OldLayout:           vk.ImageLayoutUndefined,
		NewLayout:           vk.ImageLayoutDepthStencilAttachmentOptimal,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               sc.Depth.Get(),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}

// Acquire gets the next image to render into; semaphore is signaled
// once the image may be written.
func (sc *Swapchain) Acquire(semaphore vk.Semaphore) (uint32, gfx.FrameStatus, error) {
	var index uint32
	result := vk.AcquireNextImage(sc.device, sc.handle, vk.MaxUint64, semaphore, vk.NullFence, &index)
	switch result {
	case vk.Success:
		return index, gfx.StatusPresented, nil
	case vk.Suboptimal:
		return index, gfx.StatusSuboptimal, nil
	case vk.ErrorOutOfDate:
		return 0, gfx.StatusOutOfDate, nil
	}
	return 0, gfx.StatusSkipped, errors.Wrap(vk.Error(result), "vk.AcquireNextImage()")
}

// Present queues image index for display once wait is signaled.
func (sc *Swapchain) Present(queue vk.Queue, index uint32, wait vk.Semaphore) (gfx.FrameStatus, error) {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.handle},
		PImageIndices:      []uint32{index},
	}

	result := vk.QueuePresent(queue, &presentInfo)
	switch result {
	case vk.Success:
		return gfx.StatusPresented, nil
	case vk.Suboptimal:
		return gfx.StatusSuboptimal, nil
	case vk.ErrorOutOfDate:
		return gfx.StatusOutOfDate, nil
	}
	return gfx.StatusSkipped, errors.Wrap(vk.Error(result), "vk.QueuePresent()")
}

// Destroy releases the depth buffer, the image views and the swapchain,
// in that order. Calling it again does nothing.
func (sc *Swapchain) Destroy() {
	if sc == nil || sc.destroyed {
		return
	}
	sc.destroyed = true

	if sc.DepthView != vk.NullImageView {
		vk.DestroyImageView(sc.device, sc.DepthView, nil)
	}
	if sc.Depth != nil {
		sc.Depth.Release()
	}
	for i := len(sc.Views) - 1; i >= 0; i-- {
		vk.DestroyImageView(sc.device, sc.Views[i], nil)
	}
	sc.Views = nil
	sc.Images = nil
	if sc.handle != vk.NullSwapchain {
		vk.DestroySwapchain(sc.device, sc.handle, nil)
	}
	sc.log.Debug("swapchain destroyed")
}
