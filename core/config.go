package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DisplayMode selects how the window is shown
type DisplayMode int

// Supported display modes
const (
	Windowed DisplayMode = iota
	Fullscreen
)

func (m DisplayMode) String() string {
	if m == Fullscreen {
		return "fullscreen"
	}
	return "windowed"
}

// ParseDisplayMode reads a display mode, case insensitive
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windowed", "window", "":
		return Windowed, nil
	case "fullscreen":
		return Fullscreen, nil
	}
	return Windowed, fmt.Errorf("unknown display mode %q", s)
}

// Configuration defines a global engine configuration setting
type Configuration struct {
	Window   WindowConfiguration
	Logging  LoggingConfiguration
	Renderer RendererConfiguration
	Time     TimeConfiguration
}

// WindowConfiguration describes the main window
type WindowConfiguration struct {
	Mode   DisplayMode
	Width  uint32
	Height uint32
	Title  string

	// System picks the window library, "sdl" or "glfw"
	System string
}

// LoggingConfiguration is used to configure the logging service
type LoggingConfiguration struct {
	// Path of the log file, empty to log to console only
	Path string

	// Level is one of logrus levels: error, warning, info, debug...
	Level string

	// Console mirrors the log to stdout
	Console bool
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	FramesInFlight int

	// Device is the preferred physical device name
	Device string

	// Validation loads the validation layer and the debug report callback
	Validation bool

	// Backend is "auto", "vulkan" or "moltenvk"
	Backend string

	// ShaderArchive points to a kar archive with compiled shaders,
	// when empty the bundled shader box is used
	ShaderArchive string

	// FenceTimeout bounds how long a frame waits for its previous submission
	FenceTimeout time.Duration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the window event poll interval in milliseconds
	EventPollDelay int
}

// DefaultConfiguration returns the settings written on first start
func DefaultConfiguration() Configuration {
	return Configuration{
		Window: WindowConfiguration{
			Mode:   Windowed,
			Width:  640,
			Height: 480,
			Title:  "Resa",
			System: "sdl",
		},
		Logging: LoggingConfiguration{
			Path:    "logs/resa.log",
			Level:   "info",
			Console: true,
		},
		Renderer: RendererConfiguration{
			FramesInFlight: 2,
			Backend:        "auto",
			FenceTimeout:   time.Second,
		},
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  10,
		},
	}
}

// Validate fixes up settings the engine can not honour and
// reports every change on log.
func (c Configuration) Validate(log logrus.FieldLogger) Configuration {
	def := DefaultConfiguration()

	if c.Window.Mode == Fullscreen {
		log.Warn("fullscreen mode is not supported yet, using windowed mode")
		c.Window.Mode = Windowed
	}
	if c.Window.Width == 0 || c.Window.Height == 0 {
		log.Warnf("invalid window size %dx%d, using %dx%d", c.Window.Width, c.Window.Height, def.Window.Width, def.Window.Height)
		c.Window.Width = def.Window.Width
		c.Window.Height = def.Window.Height
	}
	switch c.Window.System {
	case "sdl", "glfw":
	default:
		log.Warnf("unknown window system %q, using %s", c.Window.System, def.Window.System)
		c.Window.System = def.Window.System
	}
	if c.Renderer.FramesInFlight < 1 {
		log.Warnf("frames in flight must be at least 1, using %d", def.Renderer.FramesInFlight)
		c.Renderer.FramesInFlight = def.Renderer.FramesInFlight
	}
	if c.Renderer.FenceTimeout <= 0 {
		c.Renderer.FenceTimeout = def.Renderer.FenceTimeout
	}
	if c.Time.FramesPerSecond < 0 {
		c.Time.FramesPerSecond = 0
	}
	if c.Time.EventPollDelay <= 0 {
		c.Time.EventPollDelay = def.Time.EventPollDelay
	}
	return c
}
