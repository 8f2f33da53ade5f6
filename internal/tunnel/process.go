package tunnel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"tunnelo/pkg/logging"
)

// Runner starts external commands.
type Runner interface {
	// Start launches cmd. A command that cannot be launched at all yields a
	// *LaunchError.
	Start(cmd Command) (Process, error)
}

// Process is an exclusively owned handle to one started command.
type Process interface {
	Command() Command
	Pid() int
	// Done is closed once the process has exited and been reaped.
	Done() <-chan struct{}
	// Wait blocks until the process exits and returns its exit error.
	Wait() error
	// Terminate asks the process group to exit. It is a no-op once the
	// process has exited.
	Terminate() error
	// Kill forcibly ends the process group. It is a no-op once the process
	// has exited.
	Kill() error
	// Lines yields captured output for OutputCapture commands and is closed
	// at end of stream. It is nil for other commands. Consumers must drain
	// it until it is closed.
	Lines() <-chan string
}

// For mocking in tests
var execCommand = exec.Command

const (
	lineBuffer = 64
	waitDelay  = 2 * time.Second
)

// ExecRunner starts commands as OS processes, each in its own process
// group so that termination reaches every child it spawned.
type ExecRunner struct {
	// Inherit returns the writers used for OutputInherit commands. When nil
	// the supervisor's own stdout and stderr are used.
	Inherit func(label string) (stdout, stderr io.Writer)
}

// Start implements Runner.
func (r *ExecRunner) Start(c Command) (Process, error) {
	cmd := execCommand(c.Name, c.Args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdin = nil
	cmd.WaitDelay = waitDelay

	var pr, pw *os.File
	switch c.Output {
	case OutputInherit:
		cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
		if r.Inherit != nil {
			cmd.Stdout, cmd.Stderr = r.Inherit(c.Label)
		}
	case OutputCapture:
		var err error
		pr, pw, err = os.Pipe()
		if err != nil {
			return nil, &LaunchError{Command: c.String(), Err: fmt.Errorf("output pipe: %w", err)}
		}
		cmd.Stdout = pw
		cmd.Stderr = pw
	default:
		cmd.Stdout, cmd.Stderr = nil, nil
	}

	if err := cmd.Start(); err != nil {
		if pr != nil {
			pr.Close()
			pw.Close()
		}
		return nil, &LaunchError{Command: c.String(), Err: err}
	}

	p := &execProcess{command: c, cmd: cmd, done: make(chan struct{})}
	if pr != nil {
		// The child holds its own copy of the write end.
		pw.Close()
		p.lines = make(chan string, lineBuffer)
		go p.readLines(pr)
	}
	go func() {
		p.err = cmd.Wait()
		flush(cmd.Stdout, cmd.Stderr)
		close(p.done)
	}()

	logging.Debug(c.Label, "Started %s (PID: %d)", c.Name, cmd.Process.Pid)
	return p, nil
}

// Flusher is implemented by inherit writers that buffer partial lines,
// such as logging.LineWriter.
type Flusher interface {
	Flush()
}

func flush(writers ...io.Writer) {
	seen := make(map[Flusher]bool, len(writers))
	for _, w := range writers {
		if f, ok := w.(Flusher); ok && !seen[f] {
			seen[f] = true
			f.Flush()
		}
	}
}

type execProcess struct {
	command Command
	cmd     *exec.Cmd
	done    chan struct{}
	err     error
	lines   chan string
}

func (p *execProcess) Command() Command      { return p.command }
func (p *execProcess) Pid() int              { return p.cmd.Process.Pid }
func (p *execProcess) Done() <-chan struct{} { return p.done }
func (p *execProcess) Lines() <-chan string  { return p.lines }

func (p *execProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *execProcess) Terminate() error { return p.signal(syscall.SIGTERM) }

func (p *execProcess) Kill() error { return p.signal(syscall.SIGKILL) }

func (p *execProcess) signal(sig syscall.Signal) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	pid := p.cmd.Process.Pid
	err := syscall.Kill(-pid, sig)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	// Fall back to signalling just the process if the group signal fails.
	if err := p.cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *execProcess) readLines(r *os.File) {
	defer close(p.lines)
	defer r.Close()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.lines <- strings.TrimRight(scanner.Text(), "\r")
	}
}

// Stop terminates p and waits for it to be reaped. If it is still running
// after grace it is killed; if it then does not exit within another grace
// period a *CleanupError is returned. Stop is safe on exited processes and
// on nil.
func Stop(p Process, grace time.Duration) error {
	if p == nil {
		return nil
	}
	label := p.Command().Label

	if err := p.Terminate(); err != nil {
		return &CleanupError{Command: p.Command().String(), Err: err}
	}
	select {
	case <-p.Done():
		return nil
	case <-time.After(grace):
	}

	logging.Warn(label, "%s (PID: %d) did not stop within %s, killing", p.Command().Name, p.Pid(), grace)
	if err := p.Kill(); err != nil {
		return &CleanupError{Command: p.Command().String(), Err: err}
	}
	select {
	case <-p.Done():
		return nil
	case <-time.After(grace):
		return &CleanupError{Command: p.Command().String(), Err: errors.New("process did not exit after SIGKILL")}
	}
}

// stopAll stops every process in order, collecting failures.
func stopAll(grace time.Duration, procs ...Process) error {
	var errs []error
	for _, p := range procs {
		if err := Stop(p, grace); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
