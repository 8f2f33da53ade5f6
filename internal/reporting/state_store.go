package reporting

import (
	"sort"
	"sync"
	"time"
)

// TunnelSnapshot is the last known state of one endpoint.
type TunnelSnapshot struct {
	Endpoint   string
	Kind       string
	State      TunnelState
	Attempts   int
	AttemptID  string
	Detail     string
	LastError  error
	LastUpdate time.Time
}

// StateStore keeps the latest state of every endpoint.
type StateStore interface {
	// Apply records an update and reports whether the state changed.
	Apply(update Update) bool
	Get(endpoint string) (TunnelSnapshot, bool)
	// All returns every snapshot ordered by endpoint name.
	All() []TunnelSnapshot
	// LiveCount returns how many endpoints have an attempt in flight.
	LiveCount() int
}

type stateStore struct {
	mu      sync.RWMutex
	tunnels map[string]TunnelSnapshot
}

// NewStateStore creates an empty StateStore.
func NewStateStore() StateStore {
	return &stateStore{tunnels: make(map[string]TunnelSnapshot)}
}

func (s *stateStore) Apply(update Update) bool {
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.tunnels[update.Endpoint]
	next := prev
	next.Endpoint = update.Endpoint
	if update.Kind != "" {
		next.Kind = update.Kind
	}
	next.State = update.State
	next.Detail = update.Detail
	next.LastUpdate = update.Timestamp
	if update.Attempt > next.Attempts {
		next.Attempts = update.Attempt
	}
	if update.AttemptID != "" {
		next.AttemptID = update.AttemptID
	}
	if update.Err != nil {
		next.LastError = update.Err
	}
	s.tunnels[update.Endpoint] = next

	return !existed || prev.State != next.State
}

func (s *stateStore) Get(endpoint string) (TunnelSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.tunnels[endpoint]
	return snap, ok
}

func (s *stateStore) All() []TunnelSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TunnelSnapshot, 0, len(s.tunnels))
	for _, snap := range s.tunnels {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}

func (s *stateStore) LiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, snap := range s.tunnels {
		if snap.State.Live() {
			n++
		}
	}
	return n
}
