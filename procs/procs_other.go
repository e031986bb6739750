//go:build !linux

// Package procs lists and terminates OS processes via the /proc filesystem.
package procs

import (
	"errors"
	"strings"
)

// ErrUnsupported reports that the platform has no /proc filesystem.
var ErrUnsupported = errors.New("process listing requires /proc")

// Process is one running process.
type Process struct {
	PID      int
	Name     string
	State    string
	MemoryKB int
}

// Filter selects a subset of processes.
type Filter func(Process) bool

// ByName matches processes whose command name equals name.
func ByName(name string) Filter {
	return func(p Process) bool { return p.Name == name }
}

// ByNamePrefix matches processes whose command name starts with prefix.
func ByNamePrefix(prefix string) Filter {
	return func(p Process) bool { return strings.HasPrefix(p.Name, prefix) }
}

// ByPID matches a single process id.
func ByPID(pid int) Filter {
	return func(p Process) bool { return p.PID == pid }
}

// List is unavailable without /proc.
func List(filters ...Filter) ([]Process, error) {
	return nil, ErrUnsupported
}

// Kill is unavailable without /proc.
func Kill(filters ...Filter) (int, error) {
	return 0, ErrUnsupported
}
