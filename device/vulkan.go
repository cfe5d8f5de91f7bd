package device

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/gfx"
)

// Enumerate lists every physical device of instance, with its queue
// families resolved against surface. Without a surface no family can
// present, so no graphics family resolves. A device that fails to
// describe itself is logged and listed with unresolved families.
func Enumerate(log logrus.FieldLogger, instance vk.Instance, surface vk.Surface) ([]Descriptor, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, gfx.Fatal(errors.Wrap(err, "vk.EnumeratePhysicalDevices()"), "device.Enumerate()")
	}
	if deviceCount == 0 {
		return nil, gfx.Fatal(gfx.ErrNoDevice, "device.Enumerate()")
	}
	handles := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, handles)); err != nil {
		return nil, gfx.Fatal(errors.Wrap(err, "vk.EnumeratePhysicalDevices()"), "device.Enumerate()")
	}

	return describeAll(log, handles, func(handle vk.PhysicalDevice) (Descriptor, error) {
		return describe(handle, surface)
	}), nil
}

func describeAll(log logrus.FieldLogger, handles []vk.PhysicalDevice, describe func(vk.PhysicalDevice) (Descriptor, error)) []Descriptor {
	list := make([]Descriptor, 0, len(handles))
	for i, handle := range handles {
		d, err := describe(handle)
		if err != nil {
			d.Handle = handle
			d.GraphicsFamily, d.ComputeFamily = Unresolved, Unresolved
			log.WithError(err).WithFields(logrus.Fields{
				"index": i,
				"name":  d.Name,
			}).Warn("device left unresolved")
		}
		list = append(list, d)
	}
	return list
}

func describe(handle vk.PhysicalDevice, surface vk.Surface) (Descriptor, error) {
	d := Descriptor{
		Handle:         handle,
		GraphicsFamily: Unresolved,
		ComputeFamily:  Unresolved,
	}

	// Get general device info
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(handle, &properties)
	properties.Deref()
	d.ID = int(properties.DeviceID)
	d.VendorID = int(properties.VendorID)
	d.Name = vk.ToString(properties.DeviceName[:])
	d.DriverVersion = int(properties.DriverVersion)
	d.APIVersion = versionString(properties.ApiVersion)
	d.Class = ClassOf(properties.DeviceType)

	// Get extension info
	var numDeviceExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(handle, "", &numDeviceExtensions, nil)); err != nil {
		return d, errors.Wrap(err, "vk.EnumerateDeviceExtensionProperties()")
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(handle, "", &numDeviceExtensions, deviceExt)); err != nil {
		return d, errors.Wrap(err, "vk.EnumerateDeviceExtensionProperties()")
	}
	for _, ext := range deviceExt {
		ext.Deref()
		d.Extensions = append(d.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	// Get layers info
	var numDeviceLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(handle, &numDeviceLayers, nil)); err != nil {
		return d, errors.Wrap(err, "vk.EnumerateDeviceLayerProperties()")
	}
	deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(handle, &numDeviceLayers, deviceLayers)); err != nil {
		return d, errors.Wrap(err, "vk.EnumerateDeviceLayerProperties()")
	}
	for _, layer := range deviceLayers {
		layer.Deref()
		d.Layers = append(d.Layers, vk.ToString(layer.LayerName[:]))
	}

	// Get memory info
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(handle, &memoryProperties)
	memoryProperties.Deref()
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		memoryProperties.MemoryHeaps[iMem].Deref()
		d.Memory += uint64(memoryProperties.MemoryHeaps[iMem].Size)
	}
	for iType := uint32(0); iType < memoryProperties.MemoryTypeCount; iType++ {
		memoryProperties.MemoryTypes[iType].Deref()
		d.MemoryTypes = append(d.MemoryTypes, memoryProperties.MemoryTypes[iType].PropertyFlags)
	}

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(handle, &features)
	features.Deref()
	d.Features = features

	families, err := queueFamilies(handle, surface)
	if err != nil {
		return d, err
	}
	d.GraphicsFamily, d.ComputeFamily = ResolveQueueFamilies(families)
	return d, nil
}

func queueFamilies(handle vk.PhysicalDevice, surface vk.Surface) ([]QueueFamily, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(handle, &queueFamilyCount, nil)
	properties := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(handle, &queueFamilyCount, properties)

	families := make([]QueueFamily, queueFamilyCount)
	for i := range properties {
		properties[i].Deref()
		families[i].Flags = properties[i].QueueFlags
		if surface == vk.NullSurface {
			continue
		}

		var supportsPresent vk.Bool32
		if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(handle, uint32(i), surface, &supportsPresent)); err != nil {
			return nil, errors.Wrapf(err, "vk.GetPhysicalDeviceSurfaceSupport(%d)", i)
		}
		families[i].Present = supportsPresent.B()
	}
	return families, nil
}

func versionString(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>22, (v>>12)&0x3ff, v&0xfff)
}
