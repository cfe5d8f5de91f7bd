package sysinfo

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

func collect(info *Info) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		info.OSVersion = unix.ByteSliceToString(uts.Release[:])
	}

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err == nil {
		info.Memory = uint64(si.Totalram) * uint64(si.Unit)
	}

	if exe, err := os.Executable(); err == nil {
		var st unix.Statfs_t
		if err := unix.Statfs(filepath.Dir(exe), &st); err == nil {
			info.Storage = uint64(st.Bavail) * uint64(st.Bsize)
		}
	}

	if f, err := os.Open("/proc/cpuinfo"); err == nil {
		info.CPU = cpuModel(f)
		f.Close()
	}
}

// cpuModel returns the first "model name" entry of a /proc/cpuinfo listing
func cpuModel(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if ok && strings.TrimSpace(key) == "model name" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
