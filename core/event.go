package core

// EventType tells what happened to the window
type EventType int

// Window events
const (
	// CloseEvent is a quit request, either from the window manager or Escape
	CloseEvent EventType = iota

	// ResizeEvent reports a new drawable size
	ResizeEvent
)

func (t EventType) String() string {
	if t == ResizeEvent {
		return "resize"
	}
	return "close"
}

// Event is a window event the render loop reacts to
type Event struct {
	Type   EventType
	Width  uint32
	Height uint32
}
