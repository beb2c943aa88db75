package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Handle spawns and terminates service processes. Spawning is fire-and-forget:
// the child runs in its own process group, detached from the supervisor's
// lifetime, and the supervisor never waits on its exit beyond zombie reaping.
type Handle struct{}

// Spawn launches the service and returns its PID together with a per-spawn
// launch id. The child inherits the supervisor's environment plus the
// MarkerVar/LaunchIDVar markers the probe matches on. Stdout and stderr are
// appended to per-service files under LogDir when set, otherwise discarded.
func (Handle) Spawn(def Definition) (int, string, error) {
	if err := def.Validate(); err != nil {
		return 0, "", &SpawnError{Name: def.Name, Err: err}
	}
	if def.WorkDir != "" {
		fi, err := os.Stat(def.WorkDir)
		if err != nil {
			return 0, "", &SpawnError{Name: def.Name, Err: err}
		}
		if !fi.IsDir() {
			return 0, "", &SpawnError{Name: def.Name, Err: fmt.Errorf("workdir %s is not a directory", def.WorkDir)}
		}
	}

	launchID := uuid.NewString()
	cmd := def.BuildCommand()
	cmd.Dir = def.WorkDir
	cmd.Env = append(os.Environ(), def.Env...)
	cmd.Env = append(cmd.Env,
		MarkerVar+"="+def.Name,
		LaunchIDVar+"="+launchID,
	)
	cmd.SysProcAttr = detachedSysProcAttr()

	stdout, stderr := openServiceLogs(def)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		closeBoth(stdout, stderr)
		return 0, "", &SpawnError{Name: def.Name, Err: err}
	}
	pid := cmd.Process.Pid

	// Reap the child if it exits while the supervisor is still alive; once the
	// supervisor exits the child reparents to init. Log writers stay open for
	// the child's lifetime via the inherited descriptors.
	go func() {
		_ = cmd.Wait()
		closeBoth(stdout, stderr)
	}()

	return pid, launchID, nil
}

// Terminate stops the process group of pid: SIGTERM first, SIGKILL after the
// grace period. Terminating a PID that no longer exists is success, not an
// error; the goal state is already achieved.
func (Handle) Terminate(pid int, grace time.Duration) error {
	if pid <= 0 {
		return nil
	}
	if grace <= 0 {
		grace = 5 * time.Second
	}
	return terminate(pid, grace)
}

func openServiceLogs(def Definition) (io.WriteCloser, io.WriteCloser) {
	if def.LogDir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(def.LogDir, 0o750); err != nil {
		return nil, nil
	}
	var outW, errW io.WriteCloser
	if f, err := os.OpenFile(filepath.Join(def.LogDir, def.Name+".stdout.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640); err == nil {
		outW = f
	}
	if f, err := os.OpenFile(filepath.Join(def.LogDir, def.Name+".stderr.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640); err == nil {
		errW = f
	}
	return outW, errW
}

func closeBoth(a, b io.WriteCloser) {
	if a != nil {
		_ = a.Close()
	}
	if b != nil {
		_ = b.Close()
	}
}
