//go:build !windows

package service

import (
	"errors"
	"syscall"
	"time"
)

// detachedSysProcAttr starts the child in a new session so it is detached
// from the supervisor's controlling terminal and survives supervisor exit.
// The new session is also its own process group, which lets Terminate signal
// the whole service tree at once.
func detachedSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

// terminate escalates SIGTERM to SIGKILL on the process group of pid.
func terminate(pid int, grace time.Duration) error {
	if !unixProcessExists(pid) {
		return nil
	}
	if err := signalGroup(pid, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return &TerminateError{PID: pid, Err: err}
	}
	if waitGone(pid, grace) {
		return nil
	}
	if err := signalGroup(pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return &TerminateError{PID: pid, Err: err}
	}
	if waitGone(pid, 2*time.Second) {
		return nil
	}
	return &TerminateError{PID: pid, Err: errors.New("process still alive after SIGKILL")}
}

// signalGroup targets the process group first and falls back to the single
// process when the child did not become a group leader.
func signalGroup(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(-pid, sig); err == nil || !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return syscall.Kill(pid, sig)
}

func waitGone(pid int, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if !unixProcessExists(pid) {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return !unixProcessExists(pid)
}

// unixProcessExists treats a zombie as gone: the process has exited and only
// awaits reaping by its parent.
func unixProcessExists(pid int) bool {
	if syscall.Kill(pid, 0) != nil {
		return false
	}
	return !isZombie(pid)
}
