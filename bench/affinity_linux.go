//go:build linux

package bench

import "golang.org/x/sys/unix"

// setThreadAffinity pins the calling thread to a single cpu. Callers must
// hold their thread via runtime.LockOSThread for the pin to stick.
func setThreadAffinity(cpu int) error {
	var set unix.CPUSet
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
