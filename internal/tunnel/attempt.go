package tunnel

import (
	"context"
	"fmt"
	"time"

	"tunnelo/internal/reporting"
)

// UpdateFunc is called by an attempt as it moves through its states.
type UpdateFunc func(state reporting.TunnelState, detail string)

// Attempt is one supervised run of an endpoint's processes.
//
// Run returns once the processes exited or ctx was cancelled. Before it
// returns, every process it started has been terminated and reaped. A
// cancelled attempt returns nil unless cleanup failed, in which case the
// error is a *CleanupError.
type Attempt interface {
	Run(ctx context.Context, update UpdateFunc) error
}

// AttemptFunc adapts a function to the Attempt interface.
type AttemptFunc func(ctx context.Context, update UpdateFunc) error

func (f AttemptFunc) Run(ctx context.Context, update UpdateFunc) error { return f(ctx, update) }

// AttemptFactory builds a fresh attempt for an endpoint.
type AttemptFactory func(ep Endpoint) (Attempt, error)

// Env is the engine-wide state shared read-only by all attempts.
type Env struct {
	Runner           Runner
	SSHFlags         []string
	DiscoveryTimeout time.Duration
	StopGrace        time.Duration
}

// NewAttempt returns the attempt strategy for the endpoint's kind.
func NewAttempt(ep Endpoint, env Env) (Attempt, error) {
	switch ep.Kind {
	case KindDirectSSH:
		return &simpleAttempt{endpoint: ep, command: DirectSSHCommand(ep, env.SSHFlags), env: env}, nil
	case KindDirectKubectl:
		return &simpleAttempt{endpoint: ep, command: DirectKubectlCommand(ep), env: env}, nil
	case KindTunneledKubectl:
		return &compositeAttempt{endpoint: ep, env: env}, nil
	default:
		return nil, fmt.Errorf("unsupported tunnel kind %q", ep.Kind)
	}
}

// Factory returns an AttemptFactory bound to env.
func (env Env) Factory() AttemptFactory {
	return func(ep Endpoint) (Attempt, error) {
		return NewAttempt(ep, env)
	}
}
