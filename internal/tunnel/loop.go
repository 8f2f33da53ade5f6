package tunnel

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"tunnelo/internal/reporting"
	"tunnelo/pkg/logging"
)

// Loop keeps one endpoint alive: it runs attempts back to back, sleeping
// the backoff between them, until its context is cancelled. At most one
// attempt of an endpoint is live at any time.
type Loop struct {
	endpoint   Endpoint
	newAttempt AttemptFactory
	backoff    time.Duration
	reporter   reporting.Reporter
}

// NewLoop creates a restart loop for ep.
func NewLoop(ep Endpoint, factory AttemptFactory, backoff time.Duration, reporter reporting.Reporter) *Loop {
	if reporter == nil {
		reporter = reporting.Nop
	}
	return &Loop{
		endpoint:   ep,
		newAttempt: factory,
		backoff:    backoff,
		reporter:   reporter,
	}
}

// Run blocks until ctx is cancelled and the current attempt has cleaned up.
// It returns nil on cancellation, or the *CleanupError of an attempt whose
// processes could not be reaped.
func (l *Loop) Run(ctx context.Context) error {
	name := l.endpoint.Name()

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			l.report(reporting.StateCancelled, attempt-1, "", "", nil)
			return nil
		}

		id := reporting.NewAttemptID()
		l.report(reporting.StateStarting, attempt, id, "", nil)
		err := l.runOnce(ctx, attempt, id)

		if ctx.Err() != nil {
			l.report(reporting.StateCancelled, attempt, id, "", err)
			var cleanup *CleanupError
			if errors.As(err, &cleanup) {
				logging.Error(name, err, "Tunnel cleanup failed")
				return err
			}
			logging.Info(name, "Tunnel cancelled")
			return nil
		}

		l.logFailure(err)
		l.report(reporting.StateExited, attempt, id, "", err)

		timer := time.NewTimer(l.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.report(reporting.StateCancelled, attempt, id, "", nil)
			logging.Info(name, "Tunnel cancelled")
			return nil
		case <-timer.C:
		}
	}
}

func (l *Loop) runOnce(ctx context.Context, attempt int, id string) (err error) {
	// A panicking attempt is a failed attempt, not a dead loop.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("attempt panicked: %v", r)
		}
	}()

	a, err := l.newAttempt(l.endpoint)
	if err != nil {
		return err
	}
	return a.Run(ctx, func(state reporting.TunnelState, detail string) {
		l.report(state, attempt, id, detail, nil)
	})
}

func (l *Loop) logFailure(err error) {
	name := l.endpoint.Name()

	var (
		launch  *LaunchError
		legExit *LegExitError
		exitErr *exec.ExitError
	)
	switch {
	case err == nil:
		logging.Info(name, "Tunnel exited, restarting in %s", l.backoff)
	case errors.As(err, &launch):
		logging.Error(name, err, "Failed to launch tunnel process, restarting in %s", l.backoff)
	case errors.Is(err, ErrDiscoveryTimeout), errors.Is(err, ErrNoDynamicPort):
		logging.Warn(name, "%v, restarting in %s", err, l.backoff)
	case errors.As(err, &legExit):
		logging.Warn(name, "Tunnel %v, restarting in %s", err, l.backoff)
	case errors.As(err, &exitErr):
		logging.Warn(name, "Tunnel process exited with code %d, restarting in %s", exitErr.ExitCode(), l.backoff)
	default:
		logging.Error(name, err, "Tunnel attempt failed, restarting in %s", l.backoff)
	}
}

func (l *Loop) report(state reporting.TunnelState, attempt int, id, detail string, err error) {
	l.reporter.Report(reporting.Update{
		Timestamp: time.Now(),
		Endpoint:  l.endpoint.Name(),
		Kind:      string(l.endpoint.Kind),
		State:     state,
		Attempt:   attempt,
		AttemptID: id,
		Detail:    detail,
		Err:       err,
	})
}
