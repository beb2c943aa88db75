package service

import "time"

// Phase is the lifecycle state of one managed service as last observed.
type Phase string

const (
	PhaseUnknown  Phase = "unknown" // process table could not be read
	PhaseStopped  Phase = "stopped"
	PhaseStarting Phase = "starting"
	PhaseRunning  Phase = "running"
	PhaseStopping Phase = "stopping"
	PhaseFailed   Phase = "failed" // did not become ready; retryable
)

func (p Phase) String() string { return string(p) }

// Startable reports whether a start attempt should spawn a new process.
// Failed counts as stopped so a failed start can always be retried.
// Unknown does not: when the process table is unreadable we cannot rule out
// a live instance, and spawning blind could double-launch.
func (p Phase) Startable() bool {
	return p == PhaseStopped || p == PhaseFailed
}

// RuntimeState is a disposable per-service snapshot owned by one supervisor
// invocation. It is rebuilt from a fresh probe on every call and never
// persisted; the live OS process table is the only ground truth.
type RuntimeState struct {
	Name      string    `json:"name"`
	PID       int       `json:"pid,omitempty"`
	Phase     Phase     `json:"phase"`
	Health    string    `json:"health,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// AggregateStatus is the combined state of both managed services.
type AggregateStatus string

const (
	BothRunning      AggregateStatus = "running"
	PartiallyRunning AggregateStatus = "partial"
	BothStopped      AggregateStatus = "stopped"
)

// Aggregate derives the combined status from per-service states. Unknown
// counts as not running here; the per-service detail still carries the
// distinction for callers that need it.
func Aggregate(states []RuntimeState) AggregateStatus {
	if len(states) == 0 {
		return BothStopped
	}
	running := 0
	for _, st := range states {
		if st.Phase == PhaseRunning {
			running++
		}
	}
	switch running {
	case len(states):
		return BothRunning
	case 0:
		return BothStopped
	default:
		return PartiallyRunning
	}
}
