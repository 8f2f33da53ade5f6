package reporting

import (
	"fmt"

	"tunnelo/pkg/logging"
)

// ConsoleReporter logs state transitions via pkg/logging and keeps them in
// a StateStore.
type ConsoleReporter struct {
	stateStore StateStore
}

// NewConsoleReporter creates a ConsoleReporter with its own StateStore.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterWithStateStore(nil)
}

// NewConsoleReporterWithStateStore creates a ConsoleReporter on stateStore.
func NewConsoleReporterWithStateStore(stateStore StateStore) *ConsoleReporter {
	if stateStore == nil {
		stateStore = NewStateStore()
	}
	return &ConsoleReporter{stateStore: stateStore}
}

// Report records the update and logs state changes. Attempt errors are
// logged by the restart loop itself, so they are not repeated here.
func (c *ConsoleReporter) Report(update Update) {
	if !c.stateStore.Apply(update) {
		return
	}

	msg := fmt.Sprintf("State: %s, Attempt: %d", update.State, update.Attempt)
	if update.Detail != "" {
		msg += ", " + update.Detail
	}
	if update.AttemptID != "" {
		msg += ", AttemptID: " + update.AttemptID
	}

	switch update.State {
	case StateRunning, StateCancelled:
		logging.Info(update.Endpoint, "%s", msg)
	default:
		logging.Debug(update.Endpoint, "%s", msg)
	}
}

// GetStateStore returns the underlying state store.
func (c *ConsoleReporter) GetStateStore() StateStore {
	return c.stateStore
}
