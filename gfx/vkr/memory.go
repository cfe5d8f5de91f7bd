// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/device"
)

// Memory defines a usable memory region.
type Memory struct {
	mapped      bool
	len, offset uint
	device      vk.Device
	memory      vk.DeviceMemory
}

// Len returns the length of assigned memory.
func (m *Memory) Len() uint {
	return m.len
}

// Offset returns the start location of assigned memory.
func (m *Memory) Offset() uint {
	return m.offset
}

// Get returns the vulkan memory handle.
func (m *Memory) Get() vk.DeviceMemory {
	return m.memory
}

// Map maps the entire available memory region and
// returns a pointer to the mapped area.
func (m *Memory) Map() (unsafe.Pointer, error) {
	var memMapped unsafe.Pointer
	if err := vk.Error(vk.MapMemory(m.device, m.memory, vk.DeviceSize(m.offset), vk.DeviceSize(m.len), 0, &memMapped)); err != nil {
		return nil, errors.Wrap(err, "vk.MapMemory()")
	}
	m.mapped = true
	return memMapped, nil
}

// Unmap removes the memory mapping if it was mapped.
func (m *Memory) Unmap() {
	if m.mapped {
		vk.UnmapMemory(m.device, m.memory)
		m.mapped = false
	}
}

// Release frees memory after unmapping it if previously mapped.
func (m *Memory) Release() {
	if m.memory == vk.NullDeviceMemory {
		return
	}
	m.Unmap()
	vk.FreeMemory(m.device, m.memory, nil)
	m.memory = vk.NullDeviceMemory
}

// NewMemoryAllocator creates a memory allocator for the logical device,
// using its memory types to pick where allocations go.
func NewMemoryAllocator(dev *device.Logical) *MemoryAllocator {
	return &MemoryAllocator{
		device:      dev.Device,
		memoryTypes: dev.MemoryTypes,
	}
}

// MemoryAllocator is responsible returning usable
// memory for any resources that may need it.
type MemoryAllocator struct {
	device      vk.Device
	memoryTypes []vk.MemoryPropertyFlags
}

// Malloc returns a usable memory chunk ready for use.
func (ma *MemoryAllocator) Malloc(req vk.MemoryRequirements, prop vk.MemoryPropertyFlags) (Memory, error) {
	memTypeIdx, err := FindMemoryType(ma.memoryTypes, req.MemoryTypeBits, prop)
	if err != nil {
		return Memory{}, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIdx,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(ma.device, &mai, nil, &memory)); err != nil {
		return Memory{}, errors.Wrap(err, "vk.AllocateMemory()")
	}

	return Memory{
		offset: 0,
		len:    uint(req.Size),
		device: ma.device,
		memory: memory,
	}, nil
}

// NewBuffer creates, allocates and binds a host visible buffer.
func NewBuffer(ma *MemoryAllocator, size uint, usage vk.BufferUsageFlagBits) (*Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(ma.device, &createInfo, nil, &buffer)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateBuffer()")
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(ma.device, buffer, &req)
	req.Deref()

	memory, err := ma.Malloc(req, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		vk.DestroyBuffer(ma.device, buffer, nil)
		return nil, err
	}

	if err := vk.Error(vk.BindBufferMemory(ma.device, buffer, memory.Get(), vk.DeviceSize(memory.Offset()))); err != nil {
		vk.DestroyBuffer(ma.device, buffer, nil)
		memory.Release()
		return nil, errors.Wrap(err, "vk.BindBufferMemory()")
	}

	return &Buffer{
		device: ma.device,
		buffer: buffer,
		size:   size,
		memory: memory,
	}, nil
}

// Buffer implements a generic vulkan buffer.
type Buffer struct {
	device vk.Device
	buffer vk.Buffer
	size   uint

	memory Memory
}

// Mem returns the Memory that the buffer is based on.
func (b *Buffer) Mem() *Memory {
	return &b.memory
}

// Get returns the vulkan Buffer handle.
func (b *Buffer) Get() vk.Buffer {
	return b.buffer
}

// Upload copies data to the start of the buffer.
func (b *Buffer) Upload(data []byte) error {
	if uint(len(data)) > b.size {
		return errors.Errorf("upload of %d bytes into a %d byte buffer", len(data), b.size)
	}
	ptr, err := b.memory.Map()
	if err != nil {
		return err
	}
	vk.Memcopy(ptr, data)
	b.memory.Unmap()
	return nil
}

// Release destroys the buffer and memory asociated with it.
func (b *Buffer) Release() {
	if b.buffer == vk.NullBuffer {
		return
	}
	vk.DestroyBuffer(b.device, b.buffer, nil)
	b.buffer = vk.NullBuffer
	b.memory.Release()
}

// NewImage creates a 2D image with device local memory bound to it.
func NewImage(ma *MemoryAllocator, extent vk.Extent2D, format vk.Format, usage vk.ImageUsageFlagBits) (*Image, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var image vk.Image
	if err := vk.Error(vk.CreateImage(ma.device, &createInfo, nil, &image)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateImage()")
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(ma.device, image, &req)
	req.Deref()

	memory, err := ma.Malloc(req, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(ma.device, image, nil)
		return nil, err
	}
	if err := vk.Error(vk.BindImageMemory(ma.device, image, memory.Get(), 0)); err != nil {
		vk.DestroyImage(ma.device, image, nil)
		memory.Release()
		return nil, errors.Wrap(err, "vk.BindImageMemory()")
	}

	return &Image{
		device: ma.device,
		image:  image,
		format: format,
		memory: memory,
	}, nil
}

// Image implements and abstracts vulkan image primitive.
type Image struct {
	device vk.Device
	image  vk.Image
	format vk.Format
	memory Memory
}

// Get returns the vulkan Image handle.
func (i *Image) Get() vk.Image {
	return i.image
}

// Format returns the format the image was created with.
func (i *Image) Format() vk.Format {
	return i.format
}

// Mem returns the underlying memory of the Image.
func (i *Image) Mem() *Memory {
	return &i.memory
}

// Release destroys the image, then frees its memory.
func (i *Image) Release() {
	if i.image == vk.NullImage {
		return
	}
	vk.DestroyImage(i.device, i.image, nil)
	i.image = vk.NullImage
	i.memory.Release()
}

// NewImageView creates a 2D view over image.
func NewImageView(dev vk.Device, image vk.Image, format vk.Format, aspect vk.ImageAspectFlagBits) (vk.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(dev, &ivci, nil, &view)); err != nil {
		return vk.NullImageView, errors.Wrap(err, "vk.CreateImageView()")
	}
	return view, nil
}
