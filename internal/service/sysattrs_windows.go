//go:build windows

package service

import (
	"syscall"
	"time"
)

const (
	createNewProcessGroup = 0x00000200
	detachedProcess       = 0x00000008
)

// detachedSysProcAttr detaches the child from the supervisor's console and
// gives it its own process group.
func detachedSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: createNewProcessGroup | detachedProcess}
}

var (
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess      = kernel32.NewProc("OpenProcess")
	procTerminateProcess = kernel32.NewProc("TerminateProcess")
	procCloseHandle      = kernel32.NewProc("CloseHandle")
)

const (
	processTerminate        = 0x0001
	processQueryInformation = 0x0400
)

// terminate force-stops pid. Windows has no TERM/KILL distinction for
// console-less children, so the grace period only bounds the exit wait.
func terminate(pid int, grace time.Duration) error {
	handle, err := openProcess(processTerminate, uint32(pid))
	if err != nil {
		// Unable to open usually means the process is already gone.
		return nil
	}
	ret, _, callErr := procTerminateProcess.Call(uintptr(handle), uintptr(1))
	_, _, _ = procCloseHandle.Call(uintptr(handle))
	if ret == 0 {
		return &TerminateError{PID: pid, Err: callErr}
	}
	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !windowsProcessExists(pid) {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}

func windowsProcessExists(pid int) bool {
	handle, err := openProcess(processQueryInformation, uint32(pid))
	if err != nil {
		return false
	}
	_, _, _ = procCloseHandle.Call(uintptr(handle))
	return true
}

func openProcess(access uint32, pid uint32) (syscall.Handle, error) {
	ret, _, err := procOpenProcess.Call(uintptr(access), 0, uintptr(pid))
	if ret == 0 {
		return 0, err
	}
	return syscall.Handle(ret), nil
}
