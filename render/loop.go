// Package render drives a gfx.Backend frame by frame and reacts to window
// events.
package render

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Godric2010/resa/core"
	"github.com/Godric2010/resa/gfx"
)

// State is where the loop is in its lifecycle
type State int

// Loop states
const (
	Idle State = iota
	Running
	ResizeRequested
	CloseRequested
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case ResizeRequested:
		return "resize requested"
	case CloseRequested:
		return "close requested"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Loop errors
var (
	ErrNotStarted = errors.New("render loop not started")
	ErrTerminated = errors.New("render loop terminated")
)

// EventSource is the part of a window the loop consumes
type EventSource interface {
	FramebufferSize() (width, height uint32)
	PollEvents(fn func(core.Event))
}

// Loop renders frames until a close is requested. It is not safe for
// concurrent use: the thread that owns the window runs it.
type Loop struct {
	log     logrus.FieldLogger
	backend gfx.Backend
	events  EventSource

	state  State
	width  uint32
	height uint32

	presented uint64
	skipped   uint64
}

// NewLoop creates an idle loop
func NewLoop(log logrus.FieldLogger, backend gfx.Backend, events EventSource) *Loop {
	return &Loop{
		log:     log,
		backend: backend,
		events:  events,
	}
}

// State returns the current state
func (l *Loop) State() State {
	return l.state
}

// Presented returns how many frames reached the presentation engine
func (l *Loop) Presented() uint64 {
	return l.presented
}

// Skipped returns how many ticks rendered nothing
func (l *Loop) Skipped() uint64 {
	return l.skipped
}

// Start moves an idle loop to Running
func (l *Loop) Start() error {
	if l.state != Idle {
		return errors.Errorf("render loop already %s", l.state)
	}
	l.setState(Running)
	return nil
}

// RequestResize schedules a swapchain rebuild for the given surface size
// on the next tick. Ignored once a close was requested.
func (l *Loop) RequestResize(width, height uint32) {
	switch l.state {
	case Running, ResizeRequested:
		l.width, l.height = width, height
		l.setState(ResizeRequested)
	}
}

// RequestClose makes the next tick tear the backend down
func (l *Loop) RequestClose() {
	switch l.state {
	case Idle, Running, ResizeRequested:
		l.setState(CloseRequested)
	}
}

// HandleEvent applies a window event
func (l *Loop) HandleEvent(event core.Event) {
	switch event.Type {
	case core.CloseEvent:
		l.RequestClose()
	case core.ResizeEvent:
		l.RequestResize(event.Width, event.Height)
	}
}

// Tick advances the loop by one frame. Errors returned from the backend
// are passed through and leave the state as it was.
func (l *Loop) Tick() error {
	switch l.state {
	case Idle:
		return ErrNotStarted
	case Terminated:
		return ErrTerminated
	case CloseRequested:
		l.backend.Dispose()
		l.setState(Terminated)
		return nil
	case ResizeRequested:
		if l.width == 0 || l.height == 0 {
			l.skipped++
			return nil
		}
		if err := l.backend.RecreatePipelines(l.width, l.height); err != nil {
			return err
		}
		l.setState(Running)
		return nil
	}

	status, err := l.backend.Render()
	if err != nil {
		return err
	}
	switch status {
	case gfx.StatusPresented:
		l.presented++
	case gfx.StatusSuboptimal:
		l.presented++
		l.resizeToWindow(status)
	case gfx.StatusOutOfDate:
		l.skipped++
		l.resizeToWindow(status)
	case gfx.StatusSkipped:
		l.skipped++
	}
	return nil
}

func (l *Loop) resizeToWindow(status gfx.FrameStatus) {
	width, height := l.events.FramebufferSize()
	l.log.WithFields(logrus.Fields{
		"status": status,
		"width":  width,
		"height": height,
	}).Debug("swapchain no longer matches the surface")
	l.RequestResize(width, height)
}

func (l *Loop) setState(s State) {
	if l.state == s {
		return
	}
	l.log.WithField("from", l.state).Debugf("render loop %s", s)
	l.state = s
}

// Run starts the loop and consumes window events on the event ticker and
// frames on the fps ticker until the loop terminates. Cancelling ctx
// requests a close. A failing tick disposes the backend and ends the loop
// with the error.
func (l *Loop) Run(ctx context.Context, t *core.Time) error {
	if l.state == Idle {
		if err := l.Start(); err != nil {
			return err
		}
	}

	done := ctx.Done()
	for l.state != Terminated {
		select {
		case <-done:
			l.log.Info("render loop cancelled")
			l.RequestClose()
			done = nil
		case <-t.EventTicker().C:
			l.events.PollEvents(l.HandleEvent)
		case <-t.FpsTicker().C:
			if err := l.Tick(); err != nil {
				l.backend.Dispose()
				l.setState(Terminated)
				return errors.Wrap(err, "render loop")
			}
		}
	}
	l.log.WithFields(logrus.Fields{
		"presented": l.presented,
		"skipped":   l.skipped,
	}).Info("render loop terminated")
	return nil
}
