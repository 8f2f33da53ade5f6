package tunnel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tunnelo/internal/reporting"
)

// fakeProcess is a scripted Process. It exits when terminated unless
// ignoreTerm is set and when killed unless unkillable is set.
type fakeProcess struct {
	cmd   Command
	pid   int
	done  chan struct{}
	lines chan string

	mu         sync.Mutex
	exitErr    error
	terminated int
	killed     int
	ignoreTerm bool
	unkillable bool
	once       sync.Once
}

func (p *fakeProcess) Command() Command      { return p.cmd }
func (p *fakeProcess) Pid() int              { return p.pid }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Lines() <-chan string { return p.lines }

func (p *fakeProcess) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	p.terminated++
	ignore := p.ignoreTerm
	p.mu.Unlock()
	if !ignore {
		p.exit(errors.New("signal: terminated"))
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.killed++
	unkillable := p.unkillable
	p.mu.Unlock()
	if !unkillable {
		p.exit(errors.New("signal: killed"))
	}
	return nil
}

// exit simulates the process ending on its own.
func (p *fakeProcess) exit(err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.exitErr = err
		p.mu.Unlock()
		if p.lines != nil {
			close(p.lines)
		}
		close(p.done)
	})
}

func (p *fakeProcess) emit(lines ...string) {
	for _, l := range lines {
		p.lines <- l
	}
}

func (p *fakeProcess) counts() (terminated, killed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated, p.killed
}

func (p *fakeProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// fakeRunner hands out fakeProcesses. onStart may script a process before it
// is returned or fail the launch.
type fakeRunner struct {
	mu      sync.Mutex
	nextPid int
	procs   []*fakeProcess
	started chan *fakeProcess
	onStart func(p *fakeProcess) error
}

func newFakeRunner(onStart func(p *fakeProcess) error) *fakeRunner {
	return &fakeRunner{nextPid: 1000, started: make(chan *fakeProcess, 100), onStart: onStart}
}

func (r *fakeRunner) Start(c Command) (Process, error) {
	r.mu.Lock()
	r.nextPid++
	p := &fakeProcess{cmd: c, pid: r.nextPid, done: make(chan struct{})}
	r.mu.Unlock()
	if c.Output == OutputCapture {
		p.lines = make(chan string, 16)
	}
	if r.onStart != nil {
		if err := r.onStart(p); err != nil {
			return nil, &LaunchError{Command: c.String(), Err: err}
		}
	}
	r.mu.Lock()
	r.procs = append(r.procs, p)
	r.mu.Unlock()
	r.started <- p
	return p, nil
}

func (r *fakeRunner) all() []*fakeProcess {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fakeProcess(nil), r.procs...)
}

func (r *fakeRunner) next(t *testing.T) *fakeProcess {
	t.Helper()
	select {
	case p := <-r.started:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a process to start")
		return nil
	}
}

// recorder collects reporter updates.
type recorder struct {
	mu      sync.Mutex
	updates []reporting.Update
}

func (r *recorder) Report(u reporting.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) states(endpoint string) []reporting.TunnelState {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []reporting.TunnelState
	for _, u := range r.updates {
		if u.Endpoint == endpoint {
			out = append(out, u.State)
		}
	}
	return out
}

func (r *recorder) last(endpoint string) (reporting.Update, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.updates) - 1; i >= 0; i-- {
		if r.updates[i].Endpoint == endpoint {
			return r.updates[i], true
		}
	}
	return reporting.Update{}, false
}

func (r *recorder) waitFor(t *testing.T, endpoint string, state reporting.TunnelState) reporting.Update {
	t.Helper()
	var got reporting.Update
	require.Eventually(t, func() bool {
		u, ok := r.last(endpoint)
		got = u
		return ok && u.State == state
	}, 2*time.Second, 5*time.Millisecond, "endpoint %s never reached %s", endpoint, state)
	return got
}

func testEnv(r Runner) Env {
	return Env{
		Runner:           r,
		DiscoveryTimeout: 100 * time.Millisecond,
		StopGrace:        50 * time.Millisecond,
	}
}

func sshEndpoint() Endpoint {
	return Endpoint{Kind: KindDirectSSH, SourcePort: 8080, DestinationPort: 80, Host: "db1"}
}

func tunneledEndpoint() Endpoint {
	return Endpoint{
		Kind:            KindTunneledKubectl,
		SourcePort:      8080,
		DestinationPort: 80,
		Host:            "jump1",
		Resource:        "svc/web",
		Namespace:       "prod",
	}
}
