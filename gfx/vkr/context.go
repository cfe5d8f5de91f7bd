// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr renders through Vulkan, natively or through the
// Metal portability layer.
package vkr

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/core"
	"github.com/Godric2010/resa/gfx"
)

// Instance level names
const (
	ValidationLayer              = "VK_LAYER_KHRONOS_validation"
	DebugReportExtension         = "VK_EXT_debug_report"
	PortabilityEnumerationExt    = "VK_KHR_portability_enumeration"
	PhysicalDeviceProperties2Ext = "VK_KHR_get_physical_device_properties2"
)

const (
	instanceEnumeratePortability = vk.InstanceCreateFlags(0x00000001)
	defaultApplicationName       = "Resa"
	defaultEngineName            = "resa"
)

// Surfacer is the part of a window a graphics context needs
type Surfacer interface {
	InstanceExtensions() []string
	ProcAddr() unsafe.Pointer
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

// ContextConfig drives instance creation
type ContextConfig struct {
	ApplicationName string
	Kind            gfx.Kind
	Validation      bool
}

// Context owns the instance, the debug callback and the window surface
type Context struct {
	Instance vk.Instance
	Surface  vk.Surface
	Kind     gfx.Kind

	log       logrus.FieldLogger
	debug     vk.DebugReportCallback
	hasDebug  bool
	destroyed bool
}

// NewContext creates the Vulkan instance for the window and its surface.
// Every failure is fatal.
func NewContext(log logrus.FieldLogger, win Surfacer, cfg ContextConfig) (*Context, error) {
	if procAddr := win.ProcAddr(); procAddr != nil {
		vk.SetGetInstanceProcAddr(procAddr)
	} else if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return nil, gfx.Fatal(err, "vk.SetDefaultGetInstanceProcAddr()")
	}
	if err := vk.Init(); err != nil {
		return nil, gfx.Fatal(err, "vk.Init()")
	}

	availableExtensions, err := instanceExtensions()
	if err != nil {
		return nil, gfx.Fatal(err, "vkr.NewContext()")
	}
	availableLayers, err := instanceLayers()
	if err != nil {
		return nil, gfx.Fatal(err, "vkr.NewContext()")
	}

	extensions := win.InstanceExtensions()
	for _, ext := range extensions {
		if !contains(availableExtensions, ext) {
			return nil, gfx.Fatal(errors.Errorf("window extension %s is not available", ext), "vkr.NewContext()")
		}
	}

	var optional, layers []string
	if cfg.Validation {
		optional = append(optional, DebugReportExtension)
		layers = filterAvailable(log, "layer", []string{ValidationLayer}, availableLayers)
	}
	var flags vk.InstanceCreateFlags
	if cfg.Kind == gfx.KindMoltenVK {
		optional = append(optional, PortabilityEnumerationExt, PhysicalDeviceProperties2Ext)
	}
	for _, ext := range filterAvailable(log, "instance extension", optional, availableExtensions) {
		if ext == PortabilityEnumerationExt {
			flags |= instanceEnumeratePortability
		}
		if !contains(extensions, ext) {
			extensions = append(extensions, ext)
		}
	}

	name := cfg.ApplicationName
	if name == "" {
		name = defaultApplicationName
	}
	instanceInfo := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		Flags: flags,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         vk.MakeVersion(1, 0, 0),
			ApplicationVersion: vk.MakeVersion(0, 1, 0),
			PApplicationName:   core.SafeString(name),
			PEngineName:        core.SafeString(defaultEngineName),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: core.SafeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     core.SafeStrings(layers),
	}

	c := &Context{Kind: cfg.Kind, log: log}
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &c.Instance)); err != nil {
		return nil, gfx.Fatal(errors.Wrap(err, "vk.CreateInstance()"), "vkr.NewContext()")
	}
	if err := vk.InitInstance(c.Instance); err != nil {
		c.Destroy()
		return nil, gfx.Fatal(errors.Wrap(err, "vk.InitInstance()"), "vkr.NewContext()")
	}

	if contains(extensions, DebugReportExtension) {
		if err := c.installDebugCallback(); err != nil {
			c.Destroy()
			return nil, gfx.Fatal(err, "vkr.NewContext()")
		}
	}

	surface, err := win.CreateSurface(c.Instance)
	if err != nil {
		c.Destroy()
		return nil, gfx.Fatal(errors.Wrap(err, "create surface"), "vkr.NewContext()")
	}
	c.Surface = surface

	log.WithFields(logrus.Fields{
		"backend":    cfg.Kind,
		"extensions": extensions,
		"layers":     layers,
	}).Info("graphics context created")
	return c, nil
}

// Headless is a Surfacer without a window, for tools that only inspect
// devices. Its context has no surface.
type Headless struct{}

// InstanceExtensions implements Surfacer
func (Headless) InstanceExtensions() []string { return nil }

// ProcAddr implements Surfacer
func (Headless) ProcAddr() unsafe.Pointer { return nil }

// CreateSurface implements Surfacer
func (Headless) CreateSurface(vk.Instance) (vk.Surface, error) { return vk.NullSurface, nil }

func (c *Context) installDebugCallback() error {
	log := c.log.WithField("source", "validation")
	info := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit | vk.DebugReportDebugBit),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
			object uint64, location uint, messageCode int32, pLayerPrefix string,
			pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

			entry := log.WithFields(logrus.Fields{"layer": pLayerPrefix, "code": messageCode})
			switch {
			case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
				entry.Error(pMessage)
			case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
				entry.Warn(pMessage)
			case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
				entry.Info(pMessage)
			default:
				entry.Debug(pMessage)
			}
			return vk.Bool32(vk.False)
		},
	}
	if err := vk.Error(vk.CreateDebugReportCallback(c.Instance, &info, nil, &c.debug)); err != nil {
		return errors.Wrap(err, "vk.CreateDebugReportCallback()")
	}
	c.hasDebug = true
	return nil
}

// Destroy releases the debug callback, the surface and the instance.
// Calling it again does nothing.
func (c *Context) Destroy() {
	if c == nil || c.destroyed {
		return
	}
	c.destroyed = true
	if c.hasDebug {
		vk.DestroyDebugReportCallback(c.Instance, c.debug, nil)
	}
	if c.Surface != vk.NullSurface {
		vk.DestroySurface(c.Instance, c.Surface, nil)
	}
	vk.DestroyInstance(c.Instance, nil)
}

func instanceExtensions() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceExtensionProperties()")
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, props)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceExtensionProperties()")
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

func instanceLayers() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceLayerProperties()")
	}
	props := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceLayerProperties()")
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

// filterAvailable drops the wanted names that are not available,
// warning about each.
func filterAvailable(log logrus.FieldLogger, what string, wanted, available []string) []string {
	var kept []string
	for _, name := range wanted {
		if contains(available, name) {
			kept = append(kept, name)
			continue
		}
		log.Warnf("%s %s is not available, skipping", what, name)
	}
	return kept
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
