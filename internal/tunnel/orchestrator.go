package tunnel

import (
	"context"
	"errors"
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"tunnelo/internal/reporting"
	"tunnelo/pkg/logging"
)

const (
	DefaultBackoff          = 1 * time.Second
	DefaultDiscoveryTimeout = 10 * time.Second
	DefaultStopGrace        = 5 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second
)

const subsystem = "Orchestrator"

// Config configures an Orchestrator. Zero durations take their defaults.
type Config struct {
	Endpoints []Endpoint
	Runner    Runner
	// SSHFlags is passed to every ssh invocation, see SSHConfigFlags.
	SSHFlags []string

	Backoff          time.Duration
	DiscoveryTimeout time.Duration
	StopGrace        time.Duration
	ShutdownTimeout  time.Duration

	Reporter reporting.Reporter
	// NewAttempt overrides how attempts are built. Defaults to NewAttempt.
	NewAttempt AttemptFactory
}

// Orchestrator runs one restart loop per endpoint under a shared
// cancellation scope.
type Orchestrator struct {
	endpoints       []Endpoint
	factory         AttemptFactory
	backoff         time.Duration
	shutdownTimeout time.Duration
	reporter        reporting.Reporter
}

// New validates cfg and creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	for _, ep := range cfg.Endpoints {
		switch ep.Kind {
		case KindDirectSSH, KindDirectKubectl, KindTunneledKubectl:
		default:
			return nil, fmt.Errorf("endpoint %s: unsupported tunnel kind %q", ep.Name(), ep.Kind)
		}
	}
	warnDuplicatePorts(cfg.Endpoints)

	o := &Orchestrator{
		endpoints:       cfg.Endpoints,
		factory:         cfg.NewAttempt,
		backoff:         orDefault(cfg.Backoff, DefaultBackoff),
		shutdownTimeout: orDefault(cfg.ShutdownTimeout, DefaultShutdownTimeout),
		reporter:        cfg.Reporter,
	}
	if o.reporter == nil {
		o.reporter = reporting.Nop
	}
	if o.factory == nil {
		runner := cfg.Runner
		if runner == nil {
			runner = &ExecRunner{}
		}
		o.factory = Env{
			Runner:           runner,
			SSHFlags:         cfg.SSHFlags,
			DiscoveryTimeout: orDefault(cfg.DiscoveryTimeout, DefaultDiscoveryTimeout),
			StopGrace:        orDefault(cfg.StopGrace, DefaultStopGrace),
		}.Factory()
	}
	return o, nil
}

// Endpoints returns the supervised endpoints in declaration order.
func (o *Orchestrator) Endpoints() []Endpoint {
	return o.endpoints
}

type loopResult struct {
	index int
	err   error
}

// Run starts every loop and blocks until ctx is cancelled and all loops
// have finished cleaning up, or the shutdown timeout elapses. Cleanup
// failures and loops that did not stop in time are returned aggregated.
func (o *Orchestrator) Run(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan loopResult, len(o.endpoints))
	pending := make(map[int]struct{}, len(o.endpoints))
	for i, ep := range o.endpoints {
		pending[i] = struct{}{}
		i := i
		loop := NewLoop(ep, o.factory, o.backoff, o.reporter)
		go func() {
			results <- loopResult{index: i, err: loop.Run(loopCtx)}
		}()
	}
	logging.Info(subsystem, "Supervising %d tunnels", len(o.endpoints))

	var errs []error
	collect := func(r loopResult) {
		delete(pending, r.index)
		if r.err != nil && !errors.Is(r.err, context.Canceled) {
			errs = append(errs, fmt.Errorf("%s: %w", o.endpoints[r.index].Name(), r.err))
		}
	}

	for len(pending) > 0 && ctx.Err() == nil {
		select {
		case r := <-results:
			collect(r)
		case <-ctx.Done():
		}
	}

	cancel()
	if len(pending) > 0 {
		logging.Info(subsystem, "Stopping %d tunnels", len(pending))
	}

	deadline := time.NewTimer(o.shutdownTimeout)
	defer deadline.Stop()
	for len(pending) > 0 {
		select {
		case r := <-results:
			collect(r)
		case <-deadline.C:
			for i := range o.endpoints {
				if _, ok := pending[i]; ok {
					errs = append(errs, fmt.Errorf("%s: did not stop within %s", o.endpoints[i].Name(), o.shutdownTimeout))
				}
			}
			logging.Warn(subsystem, "Shutdown timed out with %d tunnels still running", len(pending))
			return utilerrors.NewAggregate(errs)
		}
	}

	logging.Info(subsystem, "All tunnels stopped")
	return utilerrors.NewAggregate(errs)
}

func warnDuplicatePorts(endpoints []Endpoint) {
	seen := make(map[int]string, len(endpoints))
	for _, ep := range endpoints {
		if other, ok := seen[ep.SourcePort]; ok {
			logging.Warn(subsystem, "Local port %d is used by both %s and %s", ep.SourcePort, other, ep.Name())
			continue
		}
		seen[ep.SourcePort] = ep.Name()
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
