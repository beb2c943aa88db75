package probe

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/appsup/internal/service"
)

type fakeLister struct {
	infos []ProcessInfo
	err   error
}

func (f fakeLister) List() ([]ProcessInfo, error) { return f.infos, f.err }

func backendDef() service.Definition {
	return service.Definition{Name: "backend", Command: "python run_server.py", MatchPattern: "run_server.py"}
}

func TestFindByMarker(t *testing.T) {
	p := NewWithLister(fakeLister{infos: []ProcessInfo{
		{PID: 10, Cmdline: "python something_else.py", Environ: []string{"HOME=/root", service.MarkerVar + "=backend"}},
	}})
	pid, err := p.Find(backendDef())
	require.NoError(t, err)
	assert.Equal(t, 10, pid)
}

func TestFindMarkerForOtherServiceDoesNotMatch(t *testing.T) {
	p := NewWithLister(fakeLister{infos: []ProcessInfo{
		{PID: 10, Cmdline: "node server.js", Environ: []string{service.MarkerVar + "=frontend"}},
	}})
	pid, err := p.Find(backendDef())
	require.NoError(t, err)
	assert.Equal(t, 0, pid)
}

func TestFindFallsBackToCmdlinePattern(t *testing.T) {
	p := NewWithLister(fakeLister{infos: []ProcessInfo{
		{PID: 3, Cmdline: "vim run_server.py.bak"},
		{PID: 7, Cmdline: "python run_server.py"},
	}})
	// without any marker, cmdline matching is substring based and the first
	// process in table order wins, ambiguity included
	pid, err := p.Find(backendDef())
	require.NoError(t, err)
	assert.Equal(t, 3, pid)
}

func TestFindMarkerBeatsEarlierPatternMatch(t *testing.T) {
	// an unrelated process whose cmdline contains the pattern sits earlier in
	// the table than the marker-stamped real service
	p := NewWithLister(fakeLister{infos: []ProcessInfo{
		{PID: 3, Cmdline: "vim run_server.py.bak"},
		{PID: 7, Cmdline: "python run_server.py", Environ: []string{service.MarkerVar + "=backend"}},
	}})
	pid, err := p.Find(backendDef())
	require.NoError(t, err)
	assert.Equal(t, 7, pid)
}

func TestFindConfirmedAbsent(t *testing.T) {
	p := NewWithLister(fakeLister{infos: []ProcessInfo{
		{PID: 5, Cmdline: "bash"},
	}})
	pid, err := p.Find(backendDef())
	require.NoError(t, err)
	assert.Equal(t, 0, pid)
}

func TestFindEnumerationFailure(t *testing.T) {
	p := NewWithLister(fakeLister{err: errors.New("proc unreadable")})
	_, err := p.Find(backendDef())
	require.Error(t, err)
	_, err = p.FindAll(backendDef())
	require.Error(t, err)
}

func TestFindSkipsSelf(t *testing.T) {
	self := os.Getpid()
	p := NewWithLister(fakeLister{infos: []ProcessInfo{
		{PID: self, Cmdline: "appsup run_server.py"},
	}})
	pid, err := p.Find(backendDef())
	require.NoError(t, err)
	assert.Equal(t, 0, pid)
}

func TestFindAllReturnsEveryMatchInOrder(t *testing.T) {
	p := NewWithLister(fakeLister{infos: []ProcessInfo{
		{PID: 11, Cmdline: "python run_server.py"},
		{PID: 12, Cmdline: "bash"},
		{PID: 13, Environ: []string{service.MarkerVar + "=backend"}, Cmdline: "python3"},
	}})
	pids, err := p.FindAll(backendDef())
	require.NoError(t, err)
	assert.Equal(t, []int{11, 13}, pids)
}

func TestEmptyPatternNeverMatchesByCmdline(t *testing.T) {
	def := backendDef()
	def.MatchPattern = ""
	p := NewWithLister(fakeLister{infos: []ProcessInfo{
		{PID: 9, Cmdline: "python run_server.py"},
	}})
	pid, err := p.Find(def)
	require.NoError(t, err)
	assert.Equal(t, 0, pid)
}
