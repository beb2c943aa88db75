package probe

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"

	"github.com/loykin/appsup/internal/service"
)

// ProcessInfo is one row of the process table as the probe sees it.
type ProcessInfo struct {
	PID     int
	Cmdline string
	Environ []string
}

// Lister enumerates candidate processes. The system implementation reads the
// live OS process table; tests inject a fake.
type Lister interface {
	List() ([]ProcessInfo, error)
}

// SystemLister reads the process table via gopsutil. Per-process read errors
// (short-lived processes, permission on environ) are skipped; only a failure
// to enumerate at all is reported.
type SystemLister struct{}

func (SystemLister) List() ([]ProcessInfo, error) {
	procs, err := gopsproc.Processes()
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}
	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		cmdline, err := p.Cmdline()
		if err != nil || cmdline == "" {
			continue
		}
		info := ProcessInfo{PID: int(p.Pid), Cmdline: cmdline}
		// Environ is best-effort: unreadable for other users' processes.
		if env, err := p.Environ(); err == nil {
			info.Environ = env
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Probe answers "is this service alive" from the process table and, when a
// health URL is defined, from its HTTP endpoint. Pure reads, no side effects.
type Probe struct {
	lister  Lister
	client  *http.Client
	selfPID int
}

func New() *Probe {
	return &Probe{lister: SystemLister{}, client: &http.Client{}, selfPID: os.Getpid()}
}

// NewWithLister builds a probe over a custom process lister.
func NewWithLister(l Lister) *Probe {
	return &Probe{lister: l, client: &http.Client{}, selfPID: os.Getpid()}
}

// Find returns the PID of the first process recognized as the service, or 0
// when confirmed absent. An error means the process table could not be read
// and the caller must treat the service phase as unknown, not stopped.
// The whole table is checked for the environment marker before the cmdline
// pattern is consulted at all, so a marker-stamped service is never shadowed
// by an unrelated process whose cmdline happens to contain the pattern.
// Among equal matches the first in table order wins; the rest are only
// picked up by FindAll (stop sweep).
func (p *Probe) Find(def service.Definition) (int, error) {
	infos, err := p.lister.List()
	if err != nil {
		return 0, err
	}
	for _, info := range infos {
		if info.PID == p.selfPID {
			continue
		}
		if hasMarker(def, info) {
			return info.PID, nil
		}
	}
	for _, info := range infos {
		if info.PID == p.selfPID {
			continue
		}
		if matchesPattern(def, info) {
			return info.PID, nil
		}
	}
	return 0, nil
}

// FindAll returns every matching PID in table order. Used by the stop sweep
// to catch processes a prior supervisor invocation lost track of.
func (p *Probe) FindAll(def service.Definition) ([]int, error) {
	infos, err := p.lister.List()
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, info := range infos {
		if info.PID == p.selfPID {
			continue
		}
		if hasMarker(def, info) || matchesPattern(def, info) {
			pids = append(pids, info.PID)
		}
	}
	return pids, nil
}

// hasMarker recognizes processes by the environment marker stamped at spawn
// time. This identification is exact.
func hasMarker(def service.Definition, info ProcessInfo) bool {
	marker := service.MarkerVar + "=" + def.Name
	for _, kv := range info.Environ {
		if kv == marker {
			return true
		}
	}
	return false
}

// matchesPattern is the fallback for processes started outside this
// supervisor or whose environ is unreadable.
func matchesPattern(def service.Definition, info ProcessInfo) bool {
	return def.MatchPattern != "" && strings.Contains(info.Cmdline, def.MatchPattern)
}
