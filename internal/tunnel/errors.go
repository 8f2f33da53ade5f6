package tunnel

import (
	"errors"
	"fmt"
)

var (
	// ErrDiscoveryTimeout is returned when the remote leg did not report its
	// bound port within the discovery timeout.
	ErrDiscoveryTimeout = errors.New("timeout waiting for dynamic port from kubectl output")
	// ErrNoDynamicPort is returned when the remote leg's output ended without
	// reporting a bound port.
	ErrNoDynamicPort = errors.New("failed to detect dynamic port from kubectl output")
)

// LaunchError reports that an executable could not be started at all.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to start `%s`: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Leg names one process of a tunneled kubectl attempt.
type Leg string

const (
	LegRemote Leg = "remote"
	LegLocal  Leg = "local"
)

// LegExitError reports which leg of a tunneled kubectl attempt exited
// first. Err is the leg's wait error and may be nil for a clean exit.
type LegExitError struct {
	Leg Leg
	Err error
}

func (e *LegExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s leg exited", e.Leg)
	}
	return fmt.Sprintf("%s leg exited: %v", e.Leg, e.Err)
}

func (e *LegExitError) Unwrap() error { return e.Err }

// CleanupError reports a process that could not be terminated and reaped.
type CleanupError struct {
	Command string
	Err     error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("failed to stop `%s`: %v", e.Command, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }
