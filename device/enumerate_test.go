package device

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	vk "github.com/vulkan-go/vulkan"
)

func TestDescribeAllKeepsFailingCandidate(t *testing.T) {
	c := qt.New(t)
	log, hook := test.NewNullLogger()

	candidates := []struct {
		d   Descriptor
		err error
	}{{
		d:   Descriptor{Name: "discrete", Class: Discrete, GraphicsFamily: 0, ComputeFamily: 1},
		err: errors.New("vk.GetPhysicalDeviceSurfaceSupport(0): surface lost"),
	}, {
		d: Descriptor{Name: "integrated", Class: Integrated, GraphicsFamily: 0, ComputeFamily: 0},
	}}
	next := 0
	list := describeAll(log, make([]vk.PhysicalDevice, len(candidates)), func(vk.PhysicalDevice) (Descriptor, error) {
		candidate := candidates[next]
		next++
		return candidate.d, candidate.err
	})

	c.Assert(list, qt.HasLen, 2)
	c.Assert(list[0].Name, qt.Equals, "discrete")
	c.Assert(list[0].GraphicsFamily, qt.Equals, Unresolved)
	c.Assert(list[0].ComputeFamily, qt.Equals, Unresolved)
	c.Assert(list[1].GraphicsFamily, qt.Equals, 0)

	c.Assert(hook.AllEntries(), qt.HasLen, 1)
	entry := hook.LastEntry()
	c.Assert(entry.Level, qt.Equals, logrus.WarnLevel)
	c.Assert(entry.Data["name"], qt.Equals, "discrete")
	c.Assert(entry.Data[logrus.ErrorKey], qt.ErrorMatches, ".*surface lost")

	chosen, err := Select(list, "discrete")
	c.Assert(err, qt.IsNil)
	c.Assert(chosen.Name, qt.Equals, "integrated")
}

func TestDescribeAllEveryCandidateFails(t *testing.T) {
	c := qt.New(t)
	log, hook := test.NewNullLogger()

	list := describeAll(log, make([]vk.PhysicalDevice, 2), func(vk.PhysicalDevice) (Descriptor, error) {
		return Descriptor{GraphicsFamily: 0}, errors.New("vk.EnumerateDeviceLayerProperties(): out of host memory")
	})
	c.Assert(list, qt.HasLen, 2)
	c.Assert(hook.AllEntries(), qt.HasLen, 2)

	_, err := Select(list, "")
	c.Assert(err, qt.ErrorMatches, ".*2 devices checked.*")
}
