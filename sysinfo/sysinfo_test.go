package sysinfo

import (
	"runtime"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestFormatBytes(t *testing.T) {
	c := qt.New(t)
	c.Assert(FormatBytes(512), qt.Equals, "512 B")
	c.Assert(FormatBytes(1536), qt.Equals, "1.5 KiB")
	c.Assert(FormatBytes(8<<30), qt.Equals, "8.0 GiB")
}

func TestCollect(t *testing.T) {
	c := qt.New(t)
	info := Collect()
	c.Assert(info.OS, qt.Equals, runtime.GOOS)
	c.Assert(info.Cores, qt.Equals, runtime.NumCPU())

	fields := info.Fields()
	c.Assert(fields["os"], qt.Equals, runtime.GOOS)
	c.Assert(fields["gpu"], qt.IsNil)

	info.SetGPU("Test GPU", 2<<30)
	fields = info.Fields()
	c.Assert(fields["gpu"], qt.Equals, "Test GPU")
	c.Assert(fields["gpu_memory"], qt.Equals, "2.0 GiB")
}
