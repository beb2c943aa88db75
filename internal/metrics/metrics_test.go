package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The collectors are package-level singletons, so one test drives the whole
// register-then-observe flow against a single registry.
func TestRegisterAndObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	// repeated registration is a no-op, not a duplicate error
	require.NoError(t, Register(reg))
	require.NoError(t, Register(prometheus.NewRegistry()))

	IncStart("backend")
	IncStop("backend")
	IncSpawnFailure("frontend")
	IncReadinessTimeout("frontend")
	SetPhase("backend", "running", []string{"stopped", "running", "failed"})

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["appsup_supervisor_service_starts_total"])
	assert.True(t, names["appsup_supervisor_service_stops_total"])
	assert.True(t, names["appsup_supervisor_spawn_failures_total"])
	assert.True(t, names["appsup_supervisor_readiness_timeouts_total"])
	assert.True(t, names["appsup_supervisor_service_phase"])
}
