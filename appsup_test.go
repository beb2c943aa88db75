package appsup

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagesBothServices(t *testing.T) {
	s := New()
	defs := s.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "backend", defs[0].Name)
	assert.Equal(t, "frontend", defs[1].Name)
}

func TestStatusOnFreshSupervisor(t *testing.T) {
	s := New()
	snap := s.Status(context.Background())
	require.Len(t, snap.Services, 2)
	assert.NotEmpty(t, snap.Aggregate)
	assert.False(t, snap.At.IsZero())
}

func TestRegisterMetrics(t *testing.T) {
	require.NoError(t, RegisterMetrics(prometheus.NewRegistry()))
	require.NoError(t, RegisterMetricsDefault())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Len(t, cfg.Services, 2)
}
