package appsup

import (
	"context"
	"net/http"

	icfg "github.com/loykin/appsup/internal/config"
	"github.com/loykin/appsup/internal/journal"
	"github.com/loykin/appsup/internal/metrics"
	"github.com/loykin/appsup/internal/server"
	"github.com/loykin/appsup/internal/service"
	"github.com/loykin/appsup/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Definition = service.Definition

type RuntimeState = service.RuntimeState

type Phase = service.Phase

type AggregateStatus = service.AggregateStatus

type Snapshot = supervisor.Snapshot

type Options = supervisor.Options

type Config = icfg.Config

// ErrLocked is returned when another supervisor operation holds the lock.
var ErrLocked = supervisor.ErrLocked

// Supervisor is a thin facade over internal/supervisor.Supervisor.
// It provides a stable public API for embedding.

type Supervisor struct{ inner *supervisor.Supervisor }

// New builds a supervisor over the built-in backend/frontend definitions.
func New() *Supervisor {
	return NewWith(service.Defaults(), Options{})
}

// NewWith builds a supervisor over explicit definitions and options.
func NewWith(defs []Definition, opts Options) *Supervisor {
	return &Supervisor{inner: supervisor.New(defs, opts)}
}

func (s *Supervisor) Start(ctx context.Context) (Snapshot, error)   { return s.inner.Start(ctx) }
func (s *Supervisor) Stop(ctx context.Context) (Snapshot, error)    { return s.inner.Stop(ctx) }
func (s *Supervisor) Restart(ctx context.Context) (Snapshot, error) { return s.inner.Restart(ctx) }
func (s *Supervisor) Status(ctx context.Context) Snapshot           { return s.inner.Status(ctx) }
func (s *Supervisor) Definitions() []Definition                     { return s.inner.Definitions() }

// AttachJournal records lifecycle events to the SQLite journal at path.
// The returned journal must be closed by the caller.
func (s *Supervisor) AttachJournal(path string) (*journal.Journal, error) {
	jr, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	s.inner.SetRecorder(jr)
	return jr, nil
}

// LoadConfig reads the TOML config at path over the built-in defaults.
func LoadConfig(path string) (Config, error) { return icfg.Load(path) }

// DefaultDefinitions returns the built-in backend/frontend definitions.
func DefaultDefinitions() []Definition { return service.Defaults() }

// RegisterMetricsDefault registers supervisor metrics on the default
// Prometheus registry.
func RegisterMetricsDefault() error { return metrics.Register(nil) }

// RegisterMetrics registers supervisor metrics on a custom registry.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

// NewHTTPServer starts the dashboard API on addr for the given supervisor.
func NewHTTPServer(addr string, s *Supervisor, jr *journal.Journal) (*http.Server, error) {
	return server.NewServer(addr, s.inner, jr)
}
