package tunnel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunnelo/internal/reporting"
)

type stateLog struct {
	mu     sync.Mutex
	states []reporting.TunnelState
	detail []string
}

func (s *stateLog) update(state reporting.TunnelState, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
	s.detail = append(s.detail, detail)
}

func (s *stateLog) get() ([]reporting.TunnelState, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reporting.TunnelState(nil), s.states...), append([]string(nil), s.detail...)
}

func runAsync(ctx context.Context, a Attempt, log *stateLog) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx, log.update) }()
	return errCh
}

func awaitResult(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("attempt did not return")
		return nil
	}
}

func forwardingRemote(port string) func(p *fakeProcess) error {
	return func(p *fakeProcess) error {
		if p.cmd.Output == OutputCapture {
			p.emit("Forwarding from 0.0.0.0:" + port + " -> 80")
		}
		return nil
	}
}

func TestNewAttemptDispatch(t *testing.T) {
	env := testEnv(newFakeRunner(nil))

	a, err := NewAttempt(sshEndpoint(), env)
	require.NoError(t, err)
	assert.IsType(t, &simpleAttempt{}, a)
	assert.Equal(t, "ssh -L 8080:localhost:80 -N db1", a.(*simpleAttempt).command.String())

	a, err = NewAttempt(Endpoint{Kind: KindDirectKubectl, SourcePort: 8080, DestinationPort: 80, Resource: "svc/web"}, env)
	require.NoError(t, err)
	assert.Equal(t, OutputInherit, a.(*simpleAttempt).command.Output)

	a, err = NewAttempt(tunneledEndpoint(), env)
	require.NoError(t, err)
	assert.IsType(t, &compositeAttempt{}, a)

	_, err = NewAttempt(Endpoint{Kind: "carrier-pigeon"}, env)
	assert.Error(t, err)
}

func TestSimpleAttemptProcessExit(t *testing.T) {
	exitErr := errors.New("exit status 255")
	runner := newFakeRunner(func(p *fakeProcess) error {
		p.exit(exitErr)
		return nil
	})
	a, err := NewAttempt(sshEndpoint(), testEnv(runner))
	require.NoError(t, err)

	var log stateLog
	err = a.Run(context.Background(), log.update)
	assert.ErrorIs(t, err, exitErr)

	states, details := log.get()
	assert.Equal(t, []reporting.TunnelState{reporting.StateRunning}, states)
	assert.Equal(t, "PID: 1001", details[0])
}

func TestSimpleAttemptCancel(t *testing.T) {
	runner := newFakeRunner(nil)
	a, err := NewAttempt(sshEndpoint(), testEnv(runner))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var log stateLog
	errCh := runAsync(ctx, a, &log)

	p := runner.next(t)
	cancel()
	assert.NoError(t, awaitResult(t, errCh))
	assert.True(t, p.exited())

	terminated, killed := p.counts()
	assert.Equal(t, 1, terminated)
	assert.Equal(t, 0, killed)
}

func TestSimpleAttemptLaunchFailure(t *testing.T) {
	runner := newFakeRunner(func(p *fakeProcess) error {
		return errors.New("executable file not found in $PATH")
	})
	a, err := NewAttempt(sshEndpoint(), testEnv(runner))
	require.NoError(t, err)

	var log stateLog
	err = a.Run(context.Background(), log.update)
	var launch *LaunchError
	require.True(t, errors.As(err, &launch))

	states, _ := log.get()
	assert.Empty(t, states)
}

func TestSimpleAttemptCleanupFailure(t *testing.T) {
	runner := newFakeRunner(func(p *fakeProcess) error {
		p.ignoreTerm = true
		p.unkillable = true
		return nil
	})
	a, err := NewAttempt(sshEndpoint(), testEnv(runner))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var log stateLog
	errCh := runAsync(ctx, a, &log)
	p := runner.next(t)
	cancel()

	err = awaitResult(t, errCh)
	var cleanup *CleanupError
	require.True(t, errors.As(err, &cleanup))
	_, killed := p.counts()
	assert.Equal(t, 1, killed)
}

func TestCompositeAttemptRemoteExitReapsLocal(t *testing.T) {
	runner := newFakeRunner(forwardingRemote("41234"))
	a, err := NewAttempt(tunneledEndpoint(), testEnv(runner))
	require.NoError(t, err)

	var log stateLog
	errCh := runAsync(context.Background(), a, &log)

	remote := runner.next(t)
	local := runner.next(t)
	assert.Equal(t, OutputCapture, remote.cmd.Output)
	assert.Contains(t, remote.cmd.Args, "0:80")
	assert.Equal(t, "ssh -L 8080:localhost:41234 -N jump1", local.cmd.String())

	remote.exit(errors.New("exit status 1"))

	err = awaitResult(t, errCh)
	var legExit *LegExitError
	require.True(t, errors.As(err, &legExit))
	assert.Equal(t, LegRemote, legExit.Leg)

	assert.True(t, local.exited(), "local leg must be reaped when the remote leg exits")
	terminated, _ := local.counts()
	assert.Equal(t, 1, terminated)

	states, details := log.get()
	assert.Equal(t, []reporting.TunnelState{reporting.StateAwaitingPort, reporting.StateRunning}, states)
	assert.Equal(t, "Dynamic port: 41234", details[1])
}

func TestCompositeAttemptLocalExitReapsRemote(t *testing.T) {
	runner := newFakeRunner(forwardingRemote("41234"))
	a, err := NewAttempt(tunneledEndpoint(), testEnv(runner))
	require.NoError(t, err)

	var log stateLog
	errCh := runAsync(context.Background(), a, &log)
	remote := runner.next(t)
	local := runner.next(t)

	local.exit(nil)

	err = awaitResult(t, errCh)
	var legExit *LegExitError
	require.True(t, errors.As(err, &legExit))
	assert.Equal(t, LegLocal, legExit.Leg)
	assert.NoError(t, legExit.Err)
	assert.True(t, remote.exited())
}

func TestCompositeAttemptDiscoveryTimeout(t *testing.T) {
	runner := newFakeRunner(func(p *fakeProcess) error {
		p.emit("Handling connection for 80")
		return nil
	})
	a, err := NewAttempt(tunneledEndpoint(), testEnv(runner))
	require.NoError(t, err)

	var log stateLog
	err = a.Run(context.Background(), log.update)
	assert.ErrorIs(t, err, ErrDiscoveryTimeout)

	procs := runner.all()
	require.Len(t, procs, 1, "the local leg must never start without a port")
	assert.True(t, procs[0].exited())

	states, _ := log.get()
	assert.Equal(t, []reporting.TunnelState{reporting.StateAwaitingPort}, states)
}

func TestCompositeAttemptOutputEndsWithoutPort(t *testing.T) {
	runner := newFakeRunner(func(p *fakeProcess) error {
		p.emit("error: unable to forward port because pod is not running")
		p.exit(errors.New("exit status 1"))
		return nil
	})
	a, err := NewAttempt(tunneledEndpoint(), testEnv(runner))
	require.NoError(t, err)

	err = a.Run(context.Background(), func(reporting.TunnelState, string) {})
	assert.ErrorIs(t, err, ErrNoDynamicPort)
	assert.Len(t, runner.all(), 1)
}

func TestCompositeAttemptLocalLaunchFailure(t *testing.T) {
	runner := newFakeRunner(func(p *fakeProcess) error {
		if p.cmd.Output != OutputCapture {
			return errors.New("executable file not found in $PATH")
		}
		p.emit("Forwarding from 0.0.0.0:41234 -> 80")
		return nil
	})
	a, err := NewAttempt(tunneledEndpoint(), testEnv(runner))
	require.NoError(t, err)

	err = a.Run(context.Background(), func(reporting.TunnelState, string) {})
	var launch *LaunchError
	require.True(t, errors.As(err, &launch))

	procs := runner.all()
	require.Len(t, procs, 1)
	assert.True(t, procs[0].exited(), "remote leg must be reaped when the local leg fails to launch")
}

func TestCompositeAttemptCancel(t *testing.T) {
	runner := newFakeRunner(forwardingRemote("41234"))
	a, err := NewAttempt(tunneledEndpoint(), testEnv(runner))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var log stateLog
	errCh := runAsync(ctx, a, &log)
	remote := runner.next(t)
	local := runner.next(t)

	cancel()
	assert.NoError(t, awaitResult(t, errCh))
	assert.True(t, remote.exited())
	assert.True(t, local.exited())
}

func TestCompositeAttemptCancelDuringDiscovery(t *testing.T) {
	runner := newFakeRunner(nil)
	env := testEnv(runner)
	env.DiscoveryTimeout = time.Minute
	a, err := NewAttempt(tunneledEndpoint(), env)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var log stateLog
	errCh := runAsync(ctx, a, &log)
	remote := runner.next(t)

	cancel()
	assert.NoError(t, awaitResult(t, errCh))
	assert.True(t, remote.exited())
	assert.Len(t, runner.all(), 1)
}

func TestAwaitDynamicPortSkipsNoise(t *testing.T) {
	lines := make(chan string, 3)
	lines <- "Unable to use a TTY - input is not a terminal or the right kind of file"
	lines <- "Forwarding from 0.0.0.0:39999 -> 5432"
	lines <- "Forwarding from [::]:39999 -> 5432"

	port, err := awaitDynamicPort(context.Background(), "test", lines, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 39999, port)
}
