// Package proc owns the catalog server subprocess: start, exit monitoring,
// and graceful-to-forced termination.
package proc

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"
)

// Config describes how to launch the subprocess.
type Config struct {
	Command string
	Args    []string
	Env     map[string]string
	Dir     string
}

// Process is a running subprocess with its three stdio pipes.
type Process struct {
	cmd    *exec.Cmd
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Stderr io.ReadCloser

	done   chan struct{}
	exited atomic.Bool
}

// Start launches the subprocess and begins monitoring its exit.
func Start(cfg Config) (*Process, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("no command configured")
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		env := os.Environ()
		for k, v := range cfg.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cfg.Command, err)
	}

	p := &Process{
		cmd:    cmd,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		done:   make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		p.exited.Store(true)
		close(p.done)
	}()
	return p, nil
}

// PID returns the process id.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Alive reports whether the process has not yet exited.
func (p *Process) Alive() bool {
	return !p.exited.Load()
}

// Done is closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Terminate closes stdin, asks the process to stop, and escalates to a kill
// if it has not exited within graceful. Safe to call more than once.
func (p *Process) Terminate(graceful time.Duration) error {
	_ = p.Stdin.Close()

	if p.exited.Load() {
		return nil
	}
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(graceful):
	}

	if p.cmd.Process != nil {
		if err := p.cmd.Process.Kill(); err != nil && p.Alive() {
			return fmt.Errorf("failed to kill process %d: %w", p.PID(), err)
		}
	}
	<-p.done
	return nil
}
