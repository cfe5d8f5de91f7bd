// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/device"
	"github.com/Godric2010/resa/gfx"
)

// DefaultFramesInFlight is how many frames the CPU may record ahead
const DefaultFramesInFlight = 2

// Fence is a vk.Fence that satisfies gfx.Fence
type Fence struct {
	device vk.Device
	handle vk.Fence
}

// Handle returns the vulkan fence
func (f *Fence) Handle() vk.Fence {
	return f.handle
}

// Wait implements gfx.Fence
func (f *Fence) Wait(timeout uint64) error {
	result := vk.WaitForFences(f.device, 1, []vk.Fence{f.handle}, vk.True, timeout)
	if result == vk.Timeout {
		return gfx.ErrFenceTimeout
	}
	return errors.Wrap(vk.Error(result), "vk.WaitForFences()")
}

// Reset implements gfx.Fence
func (f *Fence) Reset() error {
	return errors.Wrap(vk.Error(vk.ResetFences(f.device, 1, []vk.Fence{f.handle})), "vk.ResetFences()")
}

// Frame is the set of objects one frame in flight records and submits with
type Frame struct {
	Slot           int
	Buffer         vk.CommandBuffer
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore

	fence *Fence
}

// FrameSynchronizer owns the command pool and the per-frame command
// buffers, fences and semaphores, and hands frames out through a gfx.Ring.
type FrameSynchronizer struct {
	log    logrus.FieldLogger
	device vk.Device
	queue  vk.Queue

	pool   vk.CommandPool
	frames []*Frame
	ring   *gfx.Ring

	release *gfx.ReleaseStack
}

// NewFrameSynchronizer creates framesInFlight frames whose buffers come
// from a pool on family. Frame fences wait at most timeout.
func NewFrameSynchronizer(log logrus.FieldLogger, dev *device.Logical, family uint32, framesInFlight int, timeout time.Duration) (*FrameSynchronizer, error) {
	if framesInFlight < 1 {
		framesInFlight = DefaultFramesInFlight
	}
	fs := &FrameSynchronizer{
		log:     log,
		device:  dev.Device,
		queue:   dev.Graphics,
		release: gfx.NewReleaseStack(log),
	}

	pool, err := fs.CreatePool(family)
	if err != nil {
		return nil, gfx.Fatal(err, "vkr.NewFrameSynchronizer()")
	}
	fs.pool = pool
	fs.release.Push("command pool", func() error {
		vk.DestroyCommandPool(fs.device, pool, nil)
		return nil
	})

	buffers, err := fs.AllocateBuffers(framesInFlight)
	if err != nil {
		fs.Destroy()
		return nil, gfx.Fatal(err, "vkr.NewFrameSynchronizer()")
	}

	fences := make([]gfx.Fence, 0, framesInFlight)
	for slot := 0; slot < framesInFlight; slot++ {
		frame := &Frame{Slot: slot, Buffer: buffers[slot]}
		if frame.fence, err = fs.CreateFence(true); err != nil {
			fs.Destroy()
			return nil, gfx.Fatal(err, "vkr.NewFrameSynchronizer()")
		}
		if frame.ImageAvailable, err = fs.CreateSemaphore(); err != nil {
			fs.Destroy()
			return nil, gfx.Fatal(err, "vkr.NewFrameSynchronizer()")
		}
		if frame.RenderFinished, err = fs.CreateSemaphore(); err != nil {
			fs.Destroy()
			return nil, gfx.Fatal(err, "vkr.NewFrameSynchronizer()")
		}
		fs.frames = append(fs.frames, frame)
		fences = append(fences, frame.fence)
	}

	wait := gfx.WaitForever
	if timeout > 0 {
		wait = uint64(timeout.Nanoseconds())
	}
	if fs.ring, err = gfx.NewRing(fences, wait); err != nil {
		fs.Destroy()
		return nil, gfx.Fatal(err, "vkr.NewFrameSynchronizer()")
	}

	log.WithField("frames", framesInFlight).Debug("frame synchronizer created")
	return fs, nil
}

// CreatePool creates a command pool whose buffers can be reset one by one
func (fs *FrameSynchronizer) CreatePool(family uint32) (vk.CommandPool, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: family,
	}

	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(fs.device, &cpci, nil, &commandPool)); err != nil {
		return vk.NullCommandPool, errors.Wrap(err, "vk.CreateCommandPool()")
	}
	return commandPool, nil
}

// AllocateBuffers allocates count primary command buffers from the pool
func (fs *FrameSynchronizer) AllocateBuffers(count int) ([]vk.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        fs.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	commandBuffers := make([]vk.CommandBuffer, count)
	if err := vk.Error(vk.AllocateCommandBuffers(fs.device, &cbai, commandBuffers)); err != nil {
		return nil, errors.Wrap(err, "vk.AllocateCommandBuffers()")
	}
	fs.release.Push("command buffers", func() error {
		vk.FreeCommandBuffers(fs.device, fs.pool, uint32(len(commandBuffers)), commandBuffers)
		return nil
	})
	return commandBuffers, nil
}

// CreateFence creates a fence, optionally already signaled
func (fs *FrameSynchronizer) CreateFence(signaled bool) (*Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if err := vk.Error(vk.CreateFence(fs.device, &fci, nil, &handle)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateFence()")
	}
	fs.release.Push("fence", func() error {
		vk.DestroyFence(fs.device, handle, nil)
		return nil
	})
	return &Fence{device: fs.device, handle: handle}, nil
}

// CreateSemaphore creates a binary semaphore
func (fs *FrameSynchronizer) CreateSemaphore() (vk.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var semaphore vk.Semaphore
	if err := vk.Error(vk.CreateSemaphore(fs.device, &sci, nil, &semaphore)); err != nil {
		return vk.NullSemaphore, errors.Wrap(err, "vk.CreateSemaphore()")
	}
	fs.release.Push("semaphore", func() error {
		vk.DestroySemaphore(fs.device, semaphore, nil)
		return nil
	})
	return semaphore, nil
}

// FramesInFlight returns the number of frames in the ring
func (fs *FrameSynchronizer) FramesInFlight() int {
	return len(fs.frames)
}

// Begin waits until the next frame's previous submission completed and
// hands the frame out. Returns gfx.ErrFenceTimeout when the wait ran out.
func (fs *FrameSynchronizer) Begin() (*Frame, error) {
	slot, err := fs.ring.Begin()
	if err != nil {
		return nil, err
	}
	return fs.frames[slot], nil
}

// Abandon gives frame back without submitting it
func (fs *FrameSynchronizer) Abandon(frame *Frame) {
	fs.ring.Abandon(frame.Slot)
}

// RecordAndSubmit records frame's command buffer with record and submits
// it. The submission waits on wait at waitStages, signals signal and the
// frame's fence.
func (fs *FrameSynchronizer) RecordAndSubmit(frame *Frame, record func(vk.CommandBuffer) error, wait vk.Semaphore, waitStages vk.PipelineStageFlags, signal vk.Semaphore) error {
	return fs.ring.Submit(frame.Slot, func() error {
		return recordBuffer(frame.Buffer, vk.CommandBufferUsageOneTimeSubmitBit, record)
	}, func(gfx.Fence) error {
		submit := []vk.SubmitInfo{{
			SType:                vk.StructureTypeSubmitInfo,
			WaitSemaphoreCount:   1,
			PWaitSemaphores:      []vk.Semaphore{wait},
			PWaitDstStageMask:    []vk.PipelineStageFlags{waitStages},
			CommandBufferCount:   1,
			PCommandBuffers:      []vk.CommandBuffer{frame.Buffer},
			SignalSemaphoreCount: 1,
			PSignalSemaphores:    []vk.Semaphore{signal},
		}}
		return errors.Wrap(vk.Error(vk.QueueSubmit(fs.queue, 1, submit, frame.fence.handle)), "vk.QueueSubmit()")
	})
}

// SubmitOnce records a one shot command buffer, submits it and waits
// for it to finish. Meant for setup work before the loop starts.
func (fs *FrameSynchronizer) SubmitOnce(record func(vk.CommandBuffer) error) error {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        fs.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(fs.device, &cbai, buffers)); err != nil {
		return errors.Wrap(err, "vk.AllocateCommandBuffers()")
	}
	defer vk.FreeCommandBuffers(fs.device, fs.pool, 1, buffers)

	if err := recordBuffer(buffers[0], vk.CommandBufferUsageOneTimeSubmitBit, record); err != nil {
		return err
	}

	fci := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	var setup vk.Fence
	if err := vk.Error(vk.CreateFence(fs.device, &fci, nil, &setup)); err != nil {
		return errors.Wrap(err, "vk.CreateFence()")
	}
	defer vk.DestroyFence(fs.device, setup, nil)

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    buffers,
	}}
	if err := vk.Error(vk.QueueSubmit(fs.queue, 1, submit, setup)); err != nil {
		return errors.Wrap(err, "vk.QueueSubmit()")
	}
	return (&Fence{device: fs.device, handle: setup}).Wait(gfx.WaitForever)
}

func recordBuffer(cmd vk.CommandBuffer, usage vk.CommandBufferUsageFlagBits, record func(vk.CommandBuffer) error) error {
	if err := vk.Error(vk.ResetCommandBuffer(cmd, 0)); err != nil {
		return errors.Wrap(err, "vk.ResetCommandBuffer()")
	}
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(usage),
	}
	if err := vk.Error(vk.BeginCommandBuffer(cmd, &cbbi)); err != nil {
		return errors.Wrap(err, "vk.BeginCommandBuffer()")
	}
	if err := record(cmd); err != nil {
		vk.EndCommandBuffer(cmd)
		return err
	}
	return errors.Wrap(vk.Error(vk.EndCommandBuffer(cmd)), "vk.EndCommandBuffer()")
}

// Destroy releases semaphores, fences, buffers and the pool in reverse
// creation order. The device must be idle. Calling it again does nothing.
func (fs *FrameSynchronizer) Destroy() {
	if fs == nil {
		return
	}
	fs.release.Release()
	fs.frames = nil
}
