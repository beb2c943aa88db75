package service

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Environment markers stamped onto every spawned service process. The probe
// matches on MarkerVar, which uniquely names the service regardless of how
// ambiguous its command line is. LaunchIDVar correlates a concrete spawn with
// its journal entries.
const (
	MarkerVar   = "APPSUP_SERVICE"
	LaunchIDVar = "APPSUP_LAUNCH_ID"
)

// Names of the two managed services, in start order.
const (
	BackendName  = "backend"
	FrontendName = "frontend"
)

// Definition describes how to launch and health-check one managed service.
// Immutable after load.
type Definition struct {
	Name             string        `json:"name" mapstructure:"name"`
	Command          string        `json:"command" mapstructure:"command"`
	WorkDir          string        `json:"workdir" mapstructure:"workdir"`
	Env              []string      `json:"env" mapstructure:"env"`
	HealthURL        string        `json:"health_url" mapstructure:"health_url"`
	ReadinessTimeout time.Duration `json:"readiness_timeout" mapstructure:"readiness_timeout"`
	MatchPattern     string        `json:"match_pattern" mapstructure:"match_pattern"`
	LogDir           string        `json:"log_dir" mapstructure:"log_dir"`
}

// Defaults returns the fixed definitions for the two known services, backend
// first. The frontend depends on the backend being reachable, so declared
// order is start order. No dynamic service registration is supported.
func Defaults() []Definition {
	return []Definition{
		{
			Name:             BackendName,
			Command:          "python run_server.py",
			WorkDir:          "backend",
			HealthURL:        "http://127.0.0.1:8000/health",
			ReadinessTimeout: 120 * time.Second,
			MatchPattern:     "run_server.py",
			LogDir:           "logs",
		},
		{
			Name:             FrontendName,
			Command:          "npm start",
			WorkDir:          "frontend",
			HealthURL:        "http://127.0.0.1:3000/",
			ReadinessTimeout: 60 * time.Second,
			MatchPattern:     "react-scripts",
			LogDir:           "logs",
		},
	}
}

// Validate checks the fields a spawn would trip over.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("service requires a name")
	}
	if strings.TrimSpace(d.Command) == "" {
		return fmt.Errorf("service %s requires a command", d.Name)
	}
	if d.ReadinessTimeout < 0 {
		return fmt.Errorf("service %s: readiness_timeout cannot be negative", d.Name)
	}
	return nil
}

// BuildCommand constructs an *exec.Cmd for the launch command. It avoids
// invoking a shell when not necessary and honors an explicit "sh -c ..."
// prefix without wrapping it in a second shell.
func (d Definition) BuildCommand() *exec.Cmd {
	cmdStr := strings.TrimSpace(d.Command)
	if cmdStr == "" {
		// #nosec G204
		return exec.Command("/bin/true")
	}
	if after, ok := stripExplicitShell(cmdStr); ok {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", after)
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// #nosec G204
	return exec.Command(parts[0], args...)
}

// stripExplicitShell detects "sh -c <ARG>" style prefixes and returns the
// argument passed to -c, with one pair of outer quotes removed so the shell
// sees the actual script.
func stripExplicitShell(cmdStr string) (string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	for _, p := range []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "} {
		if !strings.HasPrefix(trim, p) {
			continue
		}
		after := trim[len(p):]
		if n := len(after); n >= 2 {
			if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
				after = after[1 : n-1]
			}
		}
		return after, true
	}
	return "", false
}
