// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines rendering related features that renderers must implement.
package gfx

import "fmt"

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	// Calling it more than once must be harmless.
	Release()
}

// Kind identifies one of the supported rendering backends.
// The set is closed, new kinds are only added here.
type Kind int

// Supported backend kinds
const (
	// KindVulkan talks to a native Vulkan driver.
	KindVulkan Kind = iota

	// KindMoltenVK talks to Metal through the Vulkan portability layer.
	KindMoltenVK
)

func (k Kind) String() string {
	switch k {
	case KindVulkan:
		return "vulkan"
	case KindMoltenVK:
		return "moltenvk"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// DetectKind picks the backend that fits the given GOOS.
func DetectKind(goos string) Kind {
	switch goos {
	case "darwin", "ios":
		return KindMoltenVK
	}
	return KindVulkan
}

// ParseKind turns a configuration string into a Kind. An empty
// string or "auto" defers to DetectKind.
func ParseKind(s, goos string) (Kind, error) {
	switch s {
	case "", "auto":
		return DetectKind(goos), nil
	case "vulkan":
		return KindVulkan, nil
	case "moltenvk", "metal":
		return KindMoltenVK, nil
	}
	return 0, fmt.Errorf("unknown backend %q", s)
}

// FrameStatus reports how a frame went through acquire and present.
type FrameStatus int

// Frame statuses
const (
	// StatusPresented means the frame was rendered and queued for display.
	StatusPresented FrameStatus = iota

	// StatusSuboptimal means the frame was presented, but the swapchain
	// no longer matches the surface exactly.
	StatusSuboptimal

	// StatusOutOfDate means the surface changed and the frame was dropped.
	StatusOutOfDate

	// StatusSkipped means the frame was not rendered for a host side reason,
	// like a fence wait timing out.
	StatusSkipped
)

func (s FrameStatus) String() string {
	switch s {
	case StatusPresented:
		return "presented"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	case StatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("FrameStatus(%d)", int(s))
}

// NeedsRecreate tells if the swapchain should be rebuilt.
func (s FrameStatus) NeedsRecreate() bool {
	return s == StatusSuboptimal || s == StatusOutOfDate
}

// Backend is the capability set every rendering backend provides.
// Backends are created through their package constructor, which
// takes a Kind, and are never type-asserted by callers.
type Backend interface {
	// Kind returns the backend kind this renderer was built for.
	Kind() Kind

	// Render acquires an image, records and submits a frame and presents it.
	Render() (FrameStatus, error)

	// RecreatePipelines rebuilds every size dependent object for the
	// given surface size. Waits for the device to idle first.
	RecreatePipelines(width, height uint32) error

	// Dispose waits for the device and destroys everything the backend owns.
	Dispose()
}
