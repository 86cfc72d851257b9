// Package pidfile guards the serve mode against a second instance on the
// same state directory.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrRunning is returned by Acquire when a live process already holds the file.
var ErrRunning = errors.New("another curlgate instance is running")

// Pidfile represents a PID file
type Pidfile struct {
	path string
	pid  int
}

// New creates a PID file handle for the current process.
func New(path string) *Pidfile {
	return &Pidfile{path: path, pid: os.Getpid()}
}

// Acquire writes the current PID. A file left behind by a dead process is
// replaced; one held by a live process yields ErrRunning.
func (p *Pidfile) Acquire() error {
	if pid, err := p.Read(); err == nil && pid != p.pid && processAlive(pid) {
		return fmt.Errorf("%w (pid %d, %s)", ErrRunning, pid, p.path)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("failed to create pidfile directory: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(strconv.Itoa(p.pid)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write pidfile: %w", err)
	}
	return nil
}

// Read reads the PID from the PID file
func (p *Pidfile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read pidfile: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in pidfile %s", p.path)
	}
	return pid, nil
}

// Release removes the file if it still names this process.
func (p *Pidfile) Release() error {
	pid, err := p.Read()
	if err != nil || pid != p.pid {
		return nil
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove pidfile: %w", err)
	}
	return nil
}

// Path returns the PID file path
func (p *Pidfile) Path() string {
	return p.path
}

// processAlive probes pid with signal 0. On Windows the probe always fails,
// so stale files are simply overwritten there.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, os.ErrPermission)
}
