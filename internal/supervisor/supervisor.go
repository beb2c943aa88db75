package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/loykin/appsup/internal/journal"
	"github.com/loykin/appsup/internal/metrics"
	"github.com/loykin/appsup/internal/probe"
	"github.com/loykin/appsup/internal/service"
)

// Prober reads the shared process table and health endpoints. Pure reads.
type Prober interface {
	Find(def service.Definition) (int, error)
	FindAll(def service.Definition) ([]int, error)
	HealthCheck(ctx context.Context, url string, timeout time.Duration) probe.HealthResult
}

// Launcher mutates the process table: spawn and terminate.
// service.Handle is the production implementation.
type Launcher interface {
	Spawn(def service.Definition) (pid int, launchID string, err error)
	Terminate(pid int, grace time.Duration) error
}

// Recorder appends lifecycle events to the diagnostics journal. May be nil.
type Recorder interface {
	Record(ctx context.Context, ev journal.Event) error
}

// Options tune the supervisor's waits. Zero values pick production defaults;
// tests shrink them.
type Options struct {
	PollInterval    time.Duration // health poll cadence while Starting
	HealthTimeout   time.Duration // bound on a single health request
	TerminateGrace  time.Duration // TERM to KILL escalation window
	RestartCooldown time.Duration // pause between Stop and Start in Restart
	LockPath        string        // advisory lock for mutating operations
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.HealthTimeout <= 0 {
		o.HealthTimeout = 2 * time.Second
	}
	if o.TerminateGrace <= 0 {
		o.TerminateGrace = 5 * time.Second
	}
	if o.RestartCooldown <= 0 {
		o.RestartCooldown = 2 * time.Second
	}
	if o.LockPath == "" {
		o.LockPath = DefaultLockPath()
	}
	return o
}

// Supervisor orchestrates the managed services, backend before frontend.
// One operation runs to completion per invocation; in-memory state is a
// disposable snapshot rebuilt from a fresh probe every call.
type Supervisor struct {
	defs     []service.Definition
	probe    Prober
	launcher Launcher
	recorder Recorder
	opts     Options
	lock     *opLock
}

// New wires the production probe and launcher over the given definitions.
func New(defs []service.Definition, opts Options) *Supervisor {
	return NewCustom(defs, probe.New(), service.Handle{}, nil, opts)
}

// NewCustom accepts explicit collaborators; tests inject fakes here.
func NewCustom(defs []service.Definition, p Prober, l Launcher, rec Recorder, opts Options) *Supervisor {
	opts = opts.withDefaults()
	return &Supervisor{
		defs:     defs,
		probe:    p,
		launcher: l,
		recorder: rec,
		opts:     opts,
		lock:     newOpLock(opts.LockPath),
	}
}

// SetRecorder attaches a journal after construction.
func (s *Supervisor) SetRecorder(rec Recorder) { s.recorder = rec }

// Definitions returns the managed definitions in start order.
func (s *Supervisor) Definitions() []service.Definition {
	return append([]service.Definition(nil), s.defs...)
}

// Snapshot is the result of one supervisor operation.
type Snapshot struct {
	Aggregate service.AggregateStatus `json:"aggregate"`
	Services  []service.RuntimeState  `json:"services"`
	At        time.Time               `json:"at"`
}

func snapshotOf(states []service.RuntimeState) Snapshot {
	return Snapshot{
		Aggregate: service.Aggregate(states),
		Services:  states,
		At:        time.Now(),
	}
}

var phaseNames = []string{
	service.PhaseUnknown.String(),
	service.PhaseStopped.String(),
	service.PhaseStarting.String(),
	service.PhaseRunning.String(),
	service.PhaseStopping.String(),
	service.PhaseFailed.String(),
}

// Start brings both services up in declared order. Starting an already
// running system is a no-op success. A failed backend never blocks the
// frontend attempt; the returned error joins spawn failures only (readiness
// timeouts are reported through phases, not errors).
func (s *Supervisor) Start(ctx context.Context) (Snapshot, error) {
	if err := s.lock.acquire(); err != nil {
		return Snapshot{}, err
	}
	defer s.lock.release()
	return s.start(ctx)
}

func (s *Supervisor) start(ctx context.Context) (Snapshot, error) {
	states := s.probeAll()
	if allRunning(states) {
		slog.Info("all services already running")
		return s.finish(states), nil
	}

	var errs []error
	for i := range s.defs {
		def := s.defs[i]
		st := &states[i]
		switch {
		case st.Phase == service.PhaseRunning:
			slog.Info("service already running", "service", def.Name, "pid", st.PID)
			continue
		case st.Phase == service.PhaseUnknown:
			// Cannot rule out a live instance; spawning blind could
			// double-launch.
			slog.Warn("process table unreadable, skipping start", "service", def.Name)
			continue
		case !st.Phase.Startable():
			continue
		}

		pid, launchID, err := s.launcher.Spawn(def)
		if err != nil {
			st.Phase = service.PhaseFailed
			st.Detail = err.Error()
			st.ChangedAt = time.Now()
			metrics.IncSpawnFailure(def.Name)
			s.record(ctx, journal.Event{Service: def.Name, Kind: journal.KindSpawnFailed, Detail: err.Error()})
			slog.Error("spawn failed", "service", def.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		st.PID = pid
		st.Phase = service.PhaseStarting
		st.ChangedAt = time.Now()
		metrics.IncStart(def.Name)
		s.record(ctx, journal.Event{Service: def.Name, Kind: journal.KindSpawned, PID: pid, LaunchID: launchID})
		slog.Info("service spawned", "service", def.Name, "pid", pid)

		if def.HealthURL == "" {
			st.Phase = service.PhaseRunning
			continue
		}
		if detail, ok := s.awaitReady(ctx, def); ok {
			st.Phase = service.PhaseRunning
			st.Health = probe.Healthy.String()
			st.ChangedAt = time.Now()
			s.record(ctx, journal.Event{Service: def.Name, Kind: journal.KindReady, PID: pid, LaunchID: launchID})
			slog.Info("service ready", "service", def.Name, "pid", pid)
		} else {
			st.Phase = service.PhaseFailed
			st.Detail = detail
			st.ChangedAt = time.Now()
			metrics.IncReadinessTimeout(def.Name)
			s.record(ctx, journal.Event{Service: def.Name, Kind: journal.KindReadyTimeout, PID: pid, LaunchID: launchID, Detail: detail})
			slog.Warn("service not ready in time, it may still be starting", "service", def.Name, "detail", detail)
		}
	}
	return s.finish(states), errors.Join(errs...)
}

// awaitReady polls the health endpoint until it answers 2xx or the readiness
// timeout lapses. Each poll also re-probes the process table so a crashed
// child fails fast instead of burning the full timeout.
func (s *Supervisor) awaitReady(ctx context.Context, def service.Definition) (string, bool) {
	deadline := time.Now().Add(def.ReadinessTimeout)
	for {
		res := s.probe.HealthCheck(ctx, def.HealthURL, s.opts.HealthTimeout)
		if res == probe.Healthy {
			return "", true
		}
		// Distinct logging per result kind; both mean "not yet ready".
		slog.Debug("health check not ready", "service", def.Name, "result", res.String())
		if pid, err := s.probe.Find(def); err == nil && pid == 0 {
			return "process exited during startup", false
		}
		if !time.Now().Add(s.opts.PollInterval).Before(deadline) {
			return "readiness timeout after " + def.ReadinessTimeout.String(), false
		}
		time.Sleep(s.opts.PollInterval)
	}
}

// Stop terminates both services, frontend first, then sweeps the whole
// process table by pattern to catch processes a prior invocation lost track
// of. Stopping an already stopped system is a no-op success.
func (s *Supervisor) Stop(ctx context.Context) (Snapshot, error) {
	if err := s.lock.acquire(); err != nil {
		return Snapshot{}, err
	}
	defer s.lock.release()
	return s.stop(ctx)
}

func (s *Supervisor) stop(ctx context.Context) (Snapshot, error) {
	states := s.probeAll()
	var errs []error

	// Reverse of start order: the frontend goes down before its backend.
	for i := len(s.defs) - 1; i >= 0; i-- {
		def := s.defs[i]
		st := &states[i]
		switch st.Phase {
		case service.PhaseStopped, service.PhaseFailed:
			slog.Info("service already stopped", "service", def.Name)
			continue
		case service.PhaseUnknown:
			slog.Warn("process table unreadable, relying on sweep", "service", def.Name)
			continue
		}
		st.Phase = service.PhaseStopping
		if err := s.launcher.Terminate(st.PID, s.opts.TerminateGrace); err != nil {
			st.Phase = service.PhaseRunning
			st.Detail = err.Error()
			s.record(ctx, journal.Event{Service: def.Name, Kind: journal.KindTerminateFailed, PID: st.PID, Detail: err.Error()})
			slog.Error("terminate failed", "service", def.Name, "pid", st.PID, "error", err)
			errs = append(errs, err)
			continue
		}
		metrics.IncStop(def.Name)
		s.record(ctx, journal.Event{Service: def.Name, Kind: journal.KindTerminated, PID: st.PID})
		slog.Info("service stopped", "service", def.Name, "pid", st.PID)
		st.PID = 0
		st.Phase = service.PhaseStopped
		st.ChangedAt = time.Now()
	}

	s.sweep(ctx)

	// Final probe so stuck processes resurface in the snapshot.
	return s.finish(s.probeAll()), errors.Join(errs...)
}

// sweep terminates every process still matching a service pattern. Covers
// handles lost by a crashed prior supervisor invocation.
func (s *Supervisor) sweep(ctx context.Context) {
	for _, def := range s.defs {
		pids, err := s.probe.FindAll(def)
		if err != nil {
			slog.Warn("sweep skipped, cannot enumerate processes", "service", def.Name, "error", err)
			continue
		}
		for _, pid := range pids {
			if err := s.launcher.Terminate(pid, s.opts.TerminateGrace); err != nil {
				slog.Warn("sweep terminate failed", "service", def.Name, "pid", pid, "error", err)
				continue
			}
			s.record(ctx, journal.Event{Service: def.Name, Kind: journal.KindSwept, PID: pid})
			slog.Info("swept orphaned process", "service", def.Name, "pid", pid)
		}
	}
}

// Status is a pure read: probe both services, health-check the running ones,
// derive the aggregate. Never mutates, never locks.
func (s *Supervisor) Status(ctx context.Context) Snapshot {
	states := s.probeAll()
	for i := range s.defs {
		def := s.defs[i]
		st := &states[i]
		if st.Phase != service.PhaseRunning || def.HealthURL == "" {
			continue
		}
		st.Health = s.probe.HealthCheck(ctx, def.HealthURL, s.opts.HealthTimeout).String()
	}
	return s.finish(states)
}

// Restart is Stop, a fixed cooldown, then Start under one lock. A stuck
// process during Stop does not prevent the Start attempt; the final snapshot
// surfaces any inconsistency.
func (s *Supervisor) Restart(ctx context.Context) (Snapshot, error) {
	if err := s.lock.acquire(); err != nil {
		return Snapshot{}, err
	}
	defer s.lock.release()

	if _, err := s.stop(ctx); err != nil {
		slog.Warn("stop incomplete, continuing with start", "error", err)
	}
	time.Sleep(s.opts.RestartCooldown)
	return s.start(ctx)
}

// probeAll rebuilds per-service state from a fresh probe. An enumeration
// failure maps to Unknown, which callers must not conflate with Stopped.
func (s *Supervisor) probeAll() []service.RuntimeState {
	now := time.Now()
	states := make([]service.RuntimeState, len(s.defs))
	for i, def := range s.defs {
		st := service.RuntimeState{Name: def.Name, Phase: service.PhaseStopped, ChangedAt: now}
		pid, err := s.probe.Find(def)
		switch {
		case err != nil:
			st.Phase = service.PhaseUnknown
			st.Detail = err.Error()
		case pid > 0:
			st.Phase = service.PhaseRunning
			st.PID = pid
		}
		states[i] = st
	}
	return states
}

func (s *Supervisor) finish(states []service.RuntimeState) Snapshot {
	for _, st := range states {
		metrics.SetPhase(st.Name, st.Phase.String(), phaseNames)
	}
	return snapshotOf(states)
}

func (s *Supervisor) record(ctx context.Context, ev journal.Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, ev); err != nil {
		slog.Debug("journal write failed", "error", err)
	}
}

func allRunning(states []service.RuntimeState) bool {
	for _, st := range states {
		if st.Phase != service.PhaseRunning {
			return false
		}
	}
	return len(states) > 0
}
