// Package sysinfo collects a short description of the host the renderer
// runs on, so bug reports carry it in the log.
package sysinfo

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
)

// Info describes the host
type Info struct {
	OS        string
	OSVersion string
	Arch      string

	CPU   string
	Cores int

	// Memory and Storage are in bytes. Storage is what is left on the
	// volume holding the executable.
	Memory  uint64
	Storage uint64

	GPU       string
	GPUMemory uint64
}

// Collect reads what the platform offers. Missing values stay empty.
func Collect() Info {
	info := Info{
		OS:    runtime.GOOS,
		Arch:  runtime.GOARCH,
		Cores: runtime.NumCPU(),
	}
	collect(&info)
	return info
}

// SetGPU fills in the device the renderer ended up using
func (i *Info) SetGPU(name string, memory uint64) {
	i.GPU = name
	i.GPUMemory = memory
}

// Fields returns the info as log fields
func (i Info) Fields() logrus.Fields {
	fields := logrus.Fields{
		"os":    i.OS,
		"arch":  i.Arch,
		"cores": i.Cores,
	}
	if i.OSVersion != "" {
		fields["version"] = i.OSVersion
	}
	if i.CPU != "" {
		fields["cpu"] = i.CPU
	}
	if i.Memory > 0 {
		fields["memory"] = FormatBytes(i.Memory)
	}
	if i.Storage > 0 {
		fields["storage"] = FormatBytes(i.Storage)
	}
	if i.GPU != "" {
		fields["gpu"] = i.GPU
		fields["gpu_memory"] = FormatBytes(i.GPUMemory)
	}
	return fields
}

// Log writes the info as one entry
func (i Info) Log(log logrus.FieldLogger) {
	log.WithFields(i.Fields()).Info("system info")
}

// FormatBytes prints n with a binary unit, one decimal
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
