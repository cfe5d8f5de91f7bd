//go:build !linux

package sysinfo

func collect(info *Info) {}
