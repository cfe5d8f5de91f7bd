package device

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/core"
	"github.com/Godric2010/resa/gfx"
)

// Logical owns the vk.Device and the queues fetched from it.
// Everything created from Device must be destroyed before it.
type Logical struct {
	Device   vk.Device
	Physical vk.PhysicalDevice

	Graphics vk.Queue
	Present  vk.Queue
	Compute  vk.Queue

	GraphicsFamily uint32
	ComputeFamily  int

	// MemoryTypes are the property flags of the physical device memory types
	MemoryTypes []vk.MemoryPropertyFlags

	log       logrus.FieldLogger
	destroyed bool
}

// NewLogical creates the logical device for d with one queue per distinct
// family. Features d does not support are dropped with a warning.
func NewLogical(log logrus.FieldLogger, d Descriptor, extensions []string, features []Feature) (*Logical, error) {
	if d.GraphicsFamily == Unresolved {
		return nil, gfx.Fatal(gfx.ErrNoQueueFamily, "device.NewLogical()")
	}

	families := []uint32{uint32(d.GraphicsFamily)}
	if d.ComputeFamily != Unresolved && d.ComputeFamily != d.GraphicsFamily {
		families = append(families, uint32(d.ComputeFamily))
	}
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(families))
	for _, family := range families {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	enabled, dropped := MaskFeatures(d.Features, features)
	for _, f := range dropped {
		log.Warnf("device %s does not support %s, feature disabled", d.Name, f)
	}

	for _, ext := range extensions {
		if !d.HasExtension(ext) {
			return nil, gfx.Fatal(errors.Errorf("device %s lacks extension %s", d.Name, ext), "device.NewLogical()")
		}
	}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: core.SafeStrings(extensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{enabled},
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(d.Handle, &dci, nil, &device)); err != nil {
		return nil, gfx.Fatal(errors.Wrap(err, "vk.CreateDevice()"), "device.NewLogical()")
	}

	l := &Logical{
		Device:         device,
		Physical:       d.Handle,
		GraphicsFamily: uint32(d.GraphicsFamily),
		ComputeFamily:  d.ComputeFamily,
		MemoryTypes:    d.MemoryTypes,
		log:            log,
	}
	vk.GetDeviceQueue(device, l.GraphicsFamily, 0, &l.Graphics)
	l.Present = l.Graphics
	if d.ComputeFamily != Unresolved {
		vk.GetDeviceQueue(device, uint32(d.ComputeFamily), 0, &l.Compute)
	}

	log.WithFields(logrus.Fields{
		"device":     d.Name,
		"graphics":   d.GraphicsFamily,
		"compute":    d.ComputeFamily,
		"extensions": extensions,
	}).Info("logical device created")
	return l, nil
}

// WaitIdle blocks until the device finished all submitted work
func (l *Logical) WaitIdle() error {
	if l == nil || l.destroyed {
		return nil
	}
	return errors.Wrap(vk.Error(vk.DeviceWaitIdle(l.Device)), "vk.DeviceWaitIdle()")
}

// Destroy waits for the device to go idle and destroys it.
// Calling it again does nothing.
func (l *Logical) Destroy() {
	if l == nil || l.destroyed {
		return
	}
	if err := l.WaitIdle(); err != nil {
		l.log.WithError(err).Warn("destroying a device that did not go idle")
	}
	vk.DestroyDevice(l.Device, nil)
	l.destroyed = true
}
