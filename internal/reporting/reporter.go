package reporting

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TunnelState is the lifecycle position of one tunnel endpoint.
//
//	Starting -> [AwaitingPort ->] Running -> Exited | Cancelled
//
// Exited loops back to Starting after the backoff; Cancelled is terminal.
type TunnelState string

const (
	StateStarting     TunnelState = "Starting"
	StateAwaitingPort TunnelState = "AwaitingPort"
	StateRunning      TunnelState = "Running"
	StateExited       TunnelState = "Exited"
	StateCancelled    TunnelState = "Cancelled"
)

// Live reports whether an attempt is in flight in this state.
func (s TunnelState) Live() bool {
	switch s {
	case StateStarting, StateAwaitingPort, StateRunning:
		return true
	default:
		return false
	}
}

// Update carries one state transition of a tunnel endpoint.
type Update struct {
	Timestamp time.Time

	// Endpoint is the human readable identity, e.g. "svc/web:8080->80".
	Endpoint string
	// Kind is the transport of the endpoint.
	Kind string

	State TunnelState
	// Attempt is the 1-based attempt number the transition belongs to.
	Attempt int
	// AttemptID correlates all log lines of one attempt.
	AttemptID string

	Detail string
	Err    error
}

// String provides a simple representation for debugging.
func (u Update) String() string {
	return fmt.Sprintf("Update(TS: %s, Endpoint: %s, State: %s, Attempt: %d, ID: %s, Detail: %q, Err: %v)",
		u.Timestamp.Format(time.RFC3339), u.Endpoint, u.State, u.Attempt, u.AttemptID, u.Detail, u.Err)
}

// Reporter receives tunnel state transitions. Implementations must be safe
// for concurrent use: every endpoint reports from its own goroutine.
type Reporter interface {
	Report(update Update)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Update)

func (f ReporterFunc) Report(update Update) { f(update) }

// Multi fans an update out to several reporters.
type Multi []Reporter

func (m Multi) Report(update Update) {
	for _, r := range m {
		if r != nil {
			r.Report(update)
		}
	}
}

// NewAttemptID returns a fresh correlation id for one attempt.
func NewAttemptID() string {
	return uuid.NewString()
}

// Nop discards every update.
var Nop Reporter = ReporterFunc(func(Update) {})
