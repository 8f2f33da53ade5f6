package tunnel

import (
	"context"
	"errors"
	"fmt"

	"tunnelo/internal/reporting"
	"tunnelo/pkg/logging"
)

// simpleAttempt supervises a single process: a direct ssh or direct kubectl
// forward.
type simpleAttempt struct {
	endpoint Endpoint
	command  Command
	env      Env
}

func (a *simpleAttempt) Run(ctx context.Context, update UpdateFunc) (err error) {
	name := a.endpoint.Name()
	logging.Info(name, "`%s`", a.command)

	proc, err := a.env.Runner.Start(a.command)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := Stop(proc, a.env.StopGrace); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	update(reporting.StateRunning, fmt.Sprintf("PID: %d", proc.Pid()))

	select {
	case <-proc.Done():
		return proc.Wait()
	case <-ctx.Done():
		logging.Debug(name, "Cancelling %s (PID: %d)", a.command.Name, proc.Pid())
		return nil
	}
}
