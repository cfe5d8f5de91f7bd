// Package device discovers physical rendering devices, picks one and
// creates the logical device the renderer works with.
package device

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/gfx"
)

// Class is the broad kind of a physical device
type Class int

// Device classes, in order of preference
const (
	Discrete Class = iota
	Integrated
	Other
)

func (c Class) String() string {
	switch c {
	case Discrete:
		return "discrete"
	case Integrated:
		return "integrated"
	}
	return "other"
}

// ClassOf maps the Vulkan device type onto a Class
func ClassOf(t vk.PhysicalDeviceType) Class {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return Discrete
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return Integrated
	}
	return Other
}

// Unresolved marks a queue family that was not found
const Unresolved = -1

// Descriptor describes available physical properties of a rendering device.
// It is filled once by Enumerate and never changed afterwards.
type Descriptor struct {
	Handle vk.PhysicalDevice `json:"-"`

	Name          string
	Class         Class
	ID            int
	VendorID      int
	DriverVersion int
	APIVersion    string
	Extensions    []string
	Layers        []string
	Memory        uint64
	MemoryTypes   []vk.MemoryPropertyFlags  `json:"-"`
	Features      vk.PhysicalDeviceFeatures `json:"-"`

	// GraphicsFamily supports both graphics and presentation to the surface.
	GraphicsFamily int
	ComputeFamily  int
}

// HasExtension tells if the device advertises the named extension
func (d Descriptor) HasExtension(name string) bool {
	for _, ext := range d.Extensions {
		if ext == name {
			return true
		}
	}
	return false
}

// QueueFamily is what selection needs to know about a queue family
type QueueFamily struct {
	Flags   vk.QueueFlags
	Present bool
}

// ResolveQueueFamilies returns the index of the first family that does
// graphics and presents, and the first family that does compute.
// Compute is only looked for when a graphics family exists.
func ResolveQueueFamilies(families []QueueFamily) (graphics, compute int) {
	graphics, compute = Unresolved, Unresolved
	for idx, family := range families {
		if family.Present && family.Flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			graphics = idx
			break
		}
	}
	if graphics == Unresolved {
		return
	}
	for idx, family := range families {
		if family.Flags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
			compute = idx
			break
		}
	}
	return
}

// Select picks the device to render with. A device named preferred wins,
// then the first discrete one, then the first one. Devices without a
// graphics and present family are never picked.
func Select(list []Descriptor, preferred string) (Descriptor, error) {
	if len(list) == 0 {
		return Descriptor{}, gfx.Fatal(gfx.ErrNoDevice, "device.Select()")
	}

	var usable []Descriptor
	for _, d := range list {
		if d.GraphicsFamily != Unresolved {
			usable = append(usable, d)
		}
	}
	if len(usable) == 0 {
		return Descriptor{}, gfx.Fatal(errors.Wrapf(gfx.ErrNoQueueFamily, "%d devices checked", len(list)), "device.Select()")
	}

	if preferred != "" {
		for _, d := range usable {
			if d.Name == preferred {
				return d, nil
			}
		}
	}
	for _, d := range usable {
		if d.Class == Discrete {
			return d, nil
		}
	}
	return usable[0], nil
}
