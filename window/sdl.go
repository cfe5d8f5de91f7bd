package window

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/core"
)

// SDL is a resizable SDL2 window with Vulkan support
type SDL struct {
	window    *sdl.Window
	destroyed bool
}

// NewSDL initialises SDL video and events, loads the Vulkan library and
// opens the window. Must be called from the main OS thread.
func NewSDL(cfg core.WindowConfiguration) (*SDL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}

	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}
	return &SDL{window: window}, nil
}

// InstanceExtensions implements Window
func (s *SDL) InstanceExtensions() []string {
	return s.window.VulkanGetInstanceExtensions()
}

// ProcAddr implements Window
func (s *SDL) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// CreateSurface implements Window
func (s *SDL) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := s.window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	return vk.SurfaceFromPointer(uintptr(ptr)), nil
}

// FramebufferSize implements Window
func (s *SDL) FramebufferSize() (uint32, uint32) {
	w, h := s.window.VulkanGetDrawableSize()
	return clampSize(int(w), int(h))
}

// PollEvents implements Window
func (s *SDL) PollEvents(fn func(core.Event)) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE && et.State == sdl.PRESSED {
				fn(core.Event{Type: core.CloseEvent})
			}
		case *sdl.QuitEvent:
			fn(core.Event{Type: core.CloseEvent})
		case *sdl.WindowEvent:
			switch et.Event {
			case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
				w, h := s.FramebufferSize()
				fn(core.Event{Type: core.ResizeEvent, Width: w, Height: h})
			}
		}
	}
}

// Destroy implements Window
func (s *SDL) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.window.Destroy()
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
