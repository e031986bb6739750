// Command hotreload runs one or more commands and restarts them whenever a
// watched source file changes.
package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/searchktools/wire-server/procs"
)

// debounce collapses editor save bursts into one restart.
const debounce = 200 * time.Millisecond

var (
	watchTypes []string
	watchPath  string
	commands   []string
	killNames  []string
)

var rootCmd = &cobra.Command{
	Use:   "hotreload",
	Short: "Runs commands and restarts them when watched files change",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringSliceVarP(&watchTypes, "types", "t", []string{".go"}, "file extensions that trigger a restart")
	rootCmd.Flags().StringVarP(&watchPath, "path", "p", ".", "directory tree to watch")
	rootCmd.Flags().StringSliceVarP(&commands, "scripts", "s", nil, "commands to run and restart")
	rootCmd.Flags().StringSliceVarP(&killNames, "kill", "k", nil, "process names to terminate before starting")
	rootCmd.MarkFlagRequired("scripts")
}

func run(cmd *cobra.Command, args []string) error {
	for _, name := range killNames {
		n, err := procs.Kill(procs.ByName(name))
		if err != nil {
			return fmt.Errorf("kill %s: %w", name, err)
		}
		if n > 0 {
			log.Printf("terminated %d stale %s process(es)", n, name)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watchTree(watcher, watchPath); err != nil {
		return err
	}

	runner := newRunner(commands)
	if err := runner.start(); err != nil {
		return err
	}
	defer runner.stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	var restartAt time.Time
	tick := time.NewTicker(debounce / 2)
	defer tick.Stop()

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					watcher.Add(ev.Name)
					continue
				}
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !watchedType(ev.Name) {
				continue
			}
			log.Printf("change: %s", ev.Name)
			restartAt = time.Now().Add(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)

		case <-tick.C:
			if restartAt.IsZero() || time.Now().Before(restartAt) {
				continue
			}
			restartAt = time.Time{}
			log.Printf("restarting")
			runner.stop()
			if err := runner.start(); err != nil {
				return err
			}

		case s := <-sig:
			log.Printf("received %v, stopping", s)
			return nil
		}
	}
}

// watchTree registers every directory under root with the watcher.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

func watchedType(name string) bool {
	ext := filepath.Ext(name)
	for _, t := range watchTypes {
		if ext == t || ext == "."+strings.TrimPrefix(t, ".") {
			return true
		}
	}
	return false
}

// runner owns the lifecycle of the supervised commands.
type runner struct {
	commands []string
	running  []*exec.Cmd
}

func newRunner(commands []string) *runner {
	return &runner{commands: commands}
}

func (r *runner) start() error {
	for _, line := range r.commands {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd := exec.Command(fields[0], fields[1:]...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			r.stop()
			return fmt.Errorf("start %q: %w", line, err)
		}
		log.Printf("started %q (pid %d)", line, cmd.Process.Pid)
		r.running = append(r.running, cmd)
	}
	return nil
}

func (r *runner) stop() {
	for _, cmd := range r.running {
		if cmd.Process == nil {
			continue
		}
		cmd.Process.Signal(syscall.SIGTERM)
		cmd.Wait()
	}
	r.running = nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
