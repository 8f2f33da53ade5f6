package tunnel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tunnelo/internal/reporting"
	"tunnelo/pkg/logging"
)

// compositeAttempt supervises a tunneled kubectl endpoint. The remote leg
// runs kubectl port-forward on the intermediate client host bound to an
// ephemeral port; once that port is scraped from its output the local leg
// forwards the source port onto it. The attempt ends when either leg exits.
type compositeAttempt struct {
	endpoint Endpoint
	env      Env
}

func (a *compositeAttempt) Run(ctx context.Context, update UpdateFunc) (err error) {
	name := a.endpoint.Name()

	remoteCmd := RemoteLegCommand(a.endpoint, a.env.SSHFlags)
	logging.Info(name, "Starting kubectl port-forward: `%s`", remoteCmd)
	remote, err := a.env.Runner.Start(remoteCmd)
	if err != nil {
		return err
	}

	var local Process
	defer func() {
		// The local leg depends on the remote port, so it goes first.
		if cerr := stopAll(a.env.StopGrace, local, remote); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	update(reporting.StateAwaitingPort, "")
	port, err := awaitDynamicPort(ctx, name, remote.Lines(), a.env.DiscoveryTimeout)
	// The remote leg keeps writing after discovery and must never block on
	// a full pipe.
	go drainLines(name, remote.Lines())
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	logging.Info(name, "Found dynamic port: %d", port)

	localCmd := LocalLegCommand(a.endpoint, a.env.SSHFlags, port)
	logging.Info(name, "Starting SSH tunnel: `%s`", localCmd)
	if local, err = a.env.Runner.Start(localCmd); err != nil {
		local = nil
		return err
	}
	update(reporting.StateRunning, fmt.Sprintf("Dynamic port: %d", port))

	select {
	case <-remote.Done():
		return &LegExitError{Leg: LegRemote, Err: remote.Wait()}
	case <-local.Done():
		return &LegExitError{Leg: LegLocal, Err: local.Wait()}
	case <-ctx.Done():
		logging.Debug(name, "Cancelling tunneled kubectl")
		return nil
	}
}

// awaitDynamicPort reads lines until one reports the bound port. It fails
// with ErrNoDynamicPort if the stream ends first and ErrDiscoveryTimeout if
// timeout elapses first.
func awaitDynamicPort(ctx context.Context, name string, lines <-chan string, timeout time.Duration) (int, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return 0, ErrNoDynamicPort
			}
			logging.Info(name, "kubectl: %s", line)
			if port, ok := ParseForwardedPort(line); ok {
				return port, nil
			}
		case <-timer.C:
			return 0, ErrDiscoveryTimeout
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func drainLines(name string, lines <-chan string) {
	if lines == nil {
		return
	}
	for line := range lines {
		logging.Debug(name, "kubectl: %s", line)
	}
}
