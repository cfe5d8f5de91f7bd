// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"errors"
	"fmt"
	"io/ioutil"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Godric2010/resa/gfx"
)

// tracker records creation and destruction. Destroying something while a
// later created resource is still alive is recorded as a violation.
type tracker struct {
	alive      []string
	destroyed  []string
	violations []string
}

func (tr *tracker) create(s *gfx.ReleaseStack, name string, err error) {
	tr.alive = append(tr.alive, name)
	s.Push(name, func() error {
		tr.destroy(name)
		return err
	})
}

func (tr *tracker) destroy(name string) {
	for i := len(tr.alive) - 1; i >= 0; i-- {
		if tr.alive[i] != name {
			continue
		}
		if i != len(tr.alive)-1 {
			tr.violations = append(tr.violations, fmt.Sprintf("%s destroyed while %s alive", name, tr.alive[len(tr.alive)-1]))
		}
		tr.alive = append(tr.alive[:i], tr.alive[i+1:]...)
		break
	}
	tr.destroyed = append(tr.destroyed, name)
}

func quietLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.Out = ioutil.Discard
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

func TestReleaseStackReverseOrder(t *testing.T) {
	c := qt.New(t)
	log, _ := quietLogger()
	stack := gfx.NewReleaseStack(log)
	tr := &tracker{}

	tr.create(stack, "A", nil)
	tr.create(stack, "B", nil)
	tr.create(stack, "C", nil)
	c.Assert(stack.Len(), qt.Equals, 3)

	stack.Release()
	c.Assert(tr.destroyed, qt.DeepEquals, []string{"C", "B", "A"})
	c.Assert(tr.violations, qt.HasLen, 0)
	c.Assert(tr.alive, qt.HasLen, 0)
	c.Assert(stack.Len(), qt.Equals, 0)
}

func TestReleaseStackContinuesOnError(t *testing.T) {
	c := qt.New(t)
	log, hook := quietLogger()
	stack := gfx.NewReleaseStack(log)
	tr := &tracker{}

	tr.create(stack, "instance", nil)
	tr.create(stack, "device", errors.New("device lost"))
	tr.create(stack, "swapchain", nil)

	stack.Release()
	c.Assert(tr.destroyed, qt.DeepEquals, []string{"swapchain", "device", "instance"})
	c.Assert(tr.violations, qt.HasLen, 0)

	var warnings []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings = append(warnings, e)
		}
	}
	c.Assert(warnings, qt.HasLen, 1)
	c.Assert(warnings[0].Message, qt.Equals, "release device")
}

func TestReleaseStackIdempotent(t *testing.T) {
	c := qt.New(t)
	log, _ := quietLogger()
	stack := gfx.NewReleaseStack(log)

	calls := 0
	stack.Push("once", func() error {
		calls++
		return nil
	})
	stack.Release()
	stack.Release()
	c.Assert(calls, qt.Equals, 1)
}

type releasable struct{ released int }

func (r *releasable) Release() { r.released++ }

func TestReleaseStackReleasable(t *testing.T) {
	c := qt.New(t)
	log, _ := quietLogger()
	stack := gfx.NewReleaseStack(log)

	r := &releasable{}
	stack.PushReleasable("buffer", r)
	stack.Release()
	c.Assert(r.released, qt.Equals, 1)
}

func TestReleaseStacksOutOfOrder(t *testing.T) {
	c := qt.New(t)
	log, _ := quietLogger()
	tr := &tracker{}

	// Sync objects pushed on an outer stack before the swapchain lives
	// on its own stack.
	outer := gfx.NewReleaseStack(log)
	inner := gfx.NewReleaseStack(log)
	tr.create(outer, "device", nil)
	tr.create(outer, "semaphores", nil)
	tr.create(inner, "swapchain", nil)

	outer.Release()
	inner.Release()
	c.Assert(tr.destroyed, qt.DeepEquals, []string{"semaphores", "device", "swapchain"})
	c.Assert(tr.violations, qt.DeepEquals, []string{
		"semaphores destroyed while swapchain alive",
		"device destroyed while swapchain alive",
	})
}

func TestReleaseStackNested(t *testing.T) {
	c := qt.New(t)
	log, _ := quietLogger()
	tr := &tracker{}

	outer := gfx.NewReleaseStack(log)
	inner := gfx.NewReleaseStack(log)
	tr.create(outer, "device", nil)
	tr.create(outer, "swapchain", nil)
	outer.Push("pipelines", func() error {
		inner.Release()
		return nil
	})
	tr.create(inner, "render pass", nil)
	tr.create(inner, "framebuffers", nil)

	outer.Release()
	c.Assert(tr.destroyed, qt.DeepEquals, []string{"framebuffers", "render pass", "swapchain", "device"})
	c.Assert(tr.violations, qt.HasLen, 0)
}
