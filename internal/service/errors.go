package service

import "fmt"

// SpawnError means a launch command could not be executed at all (missing
// interpreter, missing working directory, permission). It is fatal for that
// service's start attempt but never aborts the other service.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("spawn %s: %v", e.Name, e.Err) }
func (e *SpawnError) Unwrap() error { return e.Err }

// TerminateError means a process exists but could not be stopped (typically
// permission, or it survived SIGKILL). A vanished PID is never an error.
type TerminateError struct {
	PID int
	Err error
}

func (e *TerminateError) Error() string { return fmt.Sprintf("terminate pid %d: %v", e.PID, e.Err) }
func (e *TerminateError) Unwrap() error { return e.Err }
