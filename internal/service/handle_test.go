//go:build !windows

package service

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnAndTerminate(t *testing.T) {
	h := Handle{}
	pid, launchID, err := h.Spawn(Definition{Name: "backend", Command: "sleep 30"})
	require.NoError(t, err)
	require.Greater(t, pid, 0)
	require.NotEmpty(t, launchID)

	// the child runs in its own session, detached from our group
	pgid, err := syscall.Getpgid(pid)
	require.NoError(t, err)
	assert.NotEqual(t, syscall.Getpgrp(), pgid)

	require.NoError(t, h.Terminate(pid, 2*time.Second))

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if err := syscall.Kill(pid, 0); err != nil {
			return // gone
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("pid %d still alive after terminate", pid)
}

func TestTerminateMissingPIDIsSuccess(t *testing.T) {
	h := Handle{}
	assert.NoError(t, h.Terminate(0, time.Second))
	assert.NoError(t, h.Terminate(-1, time.Second))
	// unlikely to exist and certainly not ours
	assert.NoError(t, h.Terminate(1<<30-7, time.Second))
}

func TestSpawnBadWorkDir(t *testing.T) {
	h := Handle{}
	_, _, err := h.Spawn(Definition{Name: "backend", Command: "sleep 1", WorkDir: "/definitely/not/here"})
	require.Error(t, err)
	var se *SpawnError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "backend", se.Name)
}

func TestSpawnInvalidDefinition(t *testing.T) {
	h := Handle{}
	_, _, err := h.Spawn(Definition{Name: "backend"})
	var se *SpawnError
	require.True(t, errors.As(err, &se))
}

func TestSpawnWritesServiceLogs(t *testing.T) {
	dir := t.TempDir()
	h := Handle{}
	pid, _, err := h.Spawn(Definition{Name: "backend", Command: "echo hello-from-test", LogDir: dir})
	require.NoError(t, err)
	require.Greater(t, pid, 0)

	logPath := filepath.Join(dir, "backend.stdout.log")
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if b, err := os.ReadFile(logPath); err == nil && len(b) > 0 {
			assert.Contains(t, string(b), "hello-from-test")
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("no output appeared in %s", logPath)
}
