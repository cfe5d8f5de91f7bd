// Package window wraps the window systems the renderer can present to.
// SDL2 is the default, GLFW is the alternative.
package window

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/core"
)

// Window is a window that can host a Vulkan surface
type Window interface {
	// InstanceExtensions lists instance extensions the surface needs
	InstanceExtensions() []string

	// ProcAddr returns vkGetInstanceProcAddr as loaded by the window system
	ProcAddr() unsafe.Pointer

	// CreateSurface creates a presentation surface for the window
	CreateSurface(instance vk.Instance) (vk.Surface, error)

	// FramebufferSize returns the drawable size in pixels
	FramebufferSize() (width, height uint32)

	// PollEvents hands every pending event to fn
	PollEvents(fn func(core.Event))

	// Destroy closes the window and shuts the window system down
	Destroy()
}

// New opens a window with the system named in cfg
func New(cfg core.WindowConfiguration) (Window, error) {
	switch cfg.System {
	case "", "sdl":
		return NewSDL(cfg)
	case "glfw":
		return NewGLFW(cfg)
	}
	return nil, errors.Errorf("unknown window system %q", cfg.System)
}

func clampSize(width, height int) (uint32, uint32) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return uint32(width), uint32(height)
}
