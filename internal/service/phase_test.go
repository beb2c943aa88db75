package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartable(t *testing.T) {
	assert.True(t, PhaseStopped.Startable())
	assert.True(t, PhaseFailed.Startable())
	assert.False(t, PhaseRunning.Startable())
	assert.False(t, PhaseStarting.Startable())
	assert.False(t, PhaseStopping.Startable())
	// unreadable process table must never lead to a blind spawn
	assert.False(t, PhaseUnknown.Startable())
}

func TestAggregate(t *testing.T) {
	run := RuntimeState{Name: BackendName, Phase: PhaseRunning}
	stop := RuntimeState{Name: FrontendName, Phase: PhaseStopped}
	unk := RuntimeState{Name: FrontendName, Phase: PhaseUnknown}
	fail := RuntimeState{Name: FrontendName, Phase: PhaseFailed}

	assert.Equal(t, BothStopped, Aggregate(nil))
	assert.Equal(t, BothRunning, Aggregate([]RuntimeState{run, {Name: FrontendName, Phase: PhaseRunning}}))
	assert.Equal(t, BothStopped, Aggregate([]RuntimeState{stop, fail}))
	assert.Equal(t, PartiallyRunning, Aggregate([]RuntimeState{run, stop}))
	assert.Equal(t, PartiallyRunning, Aggregate([]RuntimeState{run, fail}))
	// unknown counts as not running
	assert.Equal(t, PartiallyRunning, Aggregate([]RuntimeState{run, unk}))
	assert.Equal(t, BothStopped, Aggregate([]RuntimeState{unk, unk}))
}
