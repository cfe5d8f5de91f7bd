package window

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/core"
)

// GLFW is a GLFW window created without a client API
type GLFW struct {
	window    *glfw.Window
	pending   []core.Event
	destroyed bool
}

// NewGLFW initialises GLFW and opens the window. Must be called from the
// main OS thread.
func NewGLFW(cfg core.WindowConfiguration) (*GLFW, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw.Init()")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw: vulkan loader not found")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	win, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "glfw.CreateWindow()")
	}

	g := &GLFW{window: win}
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			g.pending = append(g.pending, core.Event{Type: core.CloseEvent})
		}
	})
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w, h := clampSize(width, height)
		g.pending = append(g.pending, core.Event{Type: core.ResizeEvent, Width: w, Height: h})
	})
	return g, nil
}

// InstanceExtensions implements Window
func (g *GLFW) InstanceExtensions() []string {
	return g.window.GetRequiredInstanceExtensions()
}

// ProcAddr implements Window
func (g *GLFW) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// CreateSurface implements Window
func (g *GLFW) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := g.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "glfw.CreateWindowSurface()")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

// FramebufferSize implements Window
func (g *GLFW) FramebufferSize() (uint32, uint32) {
	return clampSize(g.window.GetFramebufferSize())
}

// PollEvents implements Window. Window close requests are reported once.
func (g *GLFW) PollEvents(fn func(core.Event)) {
	glfw.PollEvents()
	if g.window.ShouldClose() {
		g.window.SetShouldClose(false)
		g.pending = append(g.pending, core.Event{Type: core.CloseEvent})
	}
	events := g.pending
	g.pending = nil
	for _, event := range events {
		fn(event)
	}
}

// Destroy implements Window
func (g *GLFW) Destroy() {
	if g.destroyed {
		return
	}
	g.destroyed = true
	g.window.Destroy()
	glfw.Terminate()
}
