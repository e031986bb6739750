//go:build linux

// Package procs lists and terminates OS processes via the /proc filesystem.
package procs

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Process is one running process as read from /proc/<pid>.
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

// List returns the processes matching every filter. Entries that vanish
// between the directory scan and the status read are skipped.
func List(filters ...Filter) ([]Process, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	var procs []Process
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		p, err := read(pid)
		if err != nil {
			continue
		}
		if matches(p, filters) {
			procs = append(procs, p)
		}
	}
	return procs, nil
}

// Kill sends SIGTERM to every matching process and returns how many were
// signalled. Processes that exit mid-scan are not counted as failures.
func Kill(filters ...Filter) (int, error) {
	procs, err := List(filters...)
	if err != nil {
		return 0, err
	}

	killed := 0
	for _, p := range procs {
		if err := unix.Kill(p.PID, unix.SIGTERM); err != nil {
			if errors.Is(err, unix.ESRCH) {
				continue
			}
			return killed, err
		}
		killed++
	}
	return killed, nil
}

func matches(p Process, filters []Filter) bool {
	for _, f := range filters {
		if !f(p) {
			return false
		}
	}
	return true
}

// read parses /proc/<pid>/status for the fields Process carries.
func read(pid int) (Process, error) {
	raw, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "status"))
	if err != nil {
		return Process{}, err
	}

	p := Process{PID: pid}
	for _, line := range strings.Split(string(raw), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Name":
			p.Name = value
		case "State":
			p.State = value
		case "VmRSS":
			fields := strings.Fields(value)
			if len(fields) > 0 {
				if kb, err := strconv.Atoi(fields[0]); err == nil {
					p.MemoryKB = kb
				}
			}
		}
	}
	return p, nil
}
