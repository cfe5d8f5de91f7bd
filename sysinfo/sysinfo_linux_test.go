package sysinfo

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

const cpuinfo = `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) Core(TM) i7-8700 CPU @ 3.20GHz
processor	: 1
model name	: Intel(R) Core(TM) i7-8700 CPU @ 3.20GHz
`

func TestCPUModel(t *testing.T) {
	c := qt.New(t)
	c.Assert(cpuModel(strings.NewReader(cpuinfo)), qt.Equals, "Intel(R) Core(TM) i7-8700 CPU @ 3.20GHz")
	c.Assert(cpuModel(strings.NewReader("processor : 0\n")), qt.Equals, "")
}

func TestCollectMemory(t *testing.T) {
	c := qt.New(t)
	info := Collect()
	c.Assert(info.Memory > 0, qt.IsTrue)
	c.Assert(info.OSVersion, qt.Not(qt.Equals), "")
}
