//go:build linux

package procs

import (
	"os"
	"os/exec"
	"testing"
)

func TestListSelf(t *testing.T) {
	got, err := List(ByPID(os.Getpid()))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("found %d processes, want 1", len(got))
	}
	if got[0].PID != os.Getpid() {
		t.Errorf("PID = %d", got[0].PID)
	}
	if got[0].Name == "" {
		t.Error("Name is empty")
	}
}

func TestFilters(t *testing.T) {
	p := Process{PID: 7, Name: "wire-server"}

	if !ByName("wire-server")(p) {
		t.Error("ByName rejected an exact match")
	}
	if ByName("wire")(p) {
		t.Error("ByName accepted a prefix")
	}
	if !ByNamePrefix("wire")(p) {
		t.Error("ByNamePrefix rejected a prefix")
	}
	if !ByPID(7)(p) || ByPID(8)(p) {
		t.Error("ByPID misbehaved")
	}
}

func TestKill(t *testing.T) {
	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}
	defer cmd.Wait()

	n, err := Kill(ByPID(cmd.Process.Pid))
	if err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if n != 1 {
		t.Errorf("killed %d processes, want 1", n)
	}
}
