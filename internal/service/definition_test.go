package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsOrderAndValidity(t *testing.T) {
	defs := Defaults()
	require.Len(t, defs, 2)
	// declared order is start order: the frontend needs its backend up first
	assert.Equal(t, BackendName, defs[0].Name)
	assert.Equal(t, FrontendName, defs[1].Name)
	for _, d := range defs {
		assert.NoError(t, d.Validate())
		assert.NotEmpty(t, d.HealthURL)
		assert.NotEmpty(t, d.MatchPattern)
		assert.Greater(t, d.ReadinessTimeout.Seconds(), 0.0)
	}
}

func TestValidate(t *testing.T) {
	err := Definition{Command: "x"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")

	err = Definition{Name: "backend"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command")

	err = Definition{Name: "backend", Command: "x", ReadinessTimeout: -1}.Validate()
	require.Error(t, err)
}

func TestBuildCommandDirectExec(t *testing.T) {
	cmd := Definition{Name: "backend", Command: "python run_server.py"}.BuildCommand()
	require.GreaterOrEqual(t, len(cmd.Args), 2)
	assert.Contains(t, cmd.Args[0], "python")
	assert.Equal(t, "run_server.py", cmd.Args[1])
}

func TestBuildCommandShellMetachars(t *testing.T) {
	cmd := Definition{Name: "backend", Command: "python run_server.py > out.log"}.BuildCommand()
	require.Len(t, cmd.Args, 3)
	assert.Equal(t, "/bin/sh", cmd.Args[0])
	assert.Equal(t, "-c", cmd.Args[1])
}

func TestBuildCommandExplicitShell(t *testing.T) {
	cmd := Definition{Name: "backend", Command: `sh -c 'npm start'`}.BuildCommand()
	require.Len(t, cmd.Args, 3)
	assert.Equal(t, "/bin/sh", cmd.Args[0])
	assert.Equal(t, "-c", cmd.Args[1])
	// no double shell wrapping and no leftover quotes
	assert.Equal(t, "npm start", cmd.Args[2])
	assert.False(t, strings.Contains(cmd.Args[2], "sh -c"))
}

func TestBuildCommandEmpty(t *testing.T) {
	cmd := Definition{}.BuildCommand()
	require.NotNil(t, cmd)
	assert.Contains(t, cmd.Args[0], "true")
}
