package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSystem struct {
	SystemBase
	name      string
	tickGroup uint64
	ticks     *[]string
	onTick    func(w *World, dt float64)
}

func (s *recordingSystem) Name() string { return s.name }
func (s *recordingSystem) TickGroup() uint64 {
	if s.tickGroup != 0 {
		return s.tickGroup
	}
	return s.SystemBase.TickGroup()
}
func (s *recordingSystem) OnTick(w *World, dt float64) {
	*s.ticks = append(*s.ticks, s.name)
	if s.onTick != nil {
		s.onTick(w, dt)
	}
}

func TestSchedulerRunsInRegistrationOrder(t *testing.T) {
	w := newTestWorld()
	var order []string

	require.NoError(t, w.RegisterSystem(&recordingSystem{name: "first", ticks: &order}))
	require.NoError(t, w.RegisterSystem(&recordingSystem{name: "second", ticks: &order}))
	require.NoError(t, w.RegisterSystem(&recordingSystem{name: "third", ticks: &order}))

	require.NoError(t, w.Startup())
	require.NoError(t, w.BeginTick())
	require.NoError(t, w.Tick(1.0/60))

	assert.Equal(t, []string{"first", "second", "third"}, order, "there is no priority beyond registration order")
}

func TestSchedulerDefersRegistrationMidTick(t *testing.T) {
	w := newTestWorld()
	var order []string

	late := &recordingSystem{name: "joiner", ticks: &order}
	first := &recordingSystem{name: "first", ticks: &order, onTick: func(w *World, dt float64) {
		_ = w.RegisterSystem(late)
	}}

	require.NoError(t, w.RegisterSystem(first))
	require.NoError(t, w.Startup())
	require.NoError(t, w.BeginTick())
	require.NoError(t, w.Tick(1.0/60))

	assert.Equal(t, []string{"first"}, order, "system registered mid-tick must not run that same tick")

	require.NoError(t, w.EndTick())
	require.NoError(t, w.BeginTick())
	order = nil
	require.NoError(t, w.Tick(1.0/60))

	assert.ElementsMatch(t, []string{"first", "joiner"}, order, "deferred registration is visible starting next tick")
}

func TestSchedulerUnregisterDeferredMidTick(t *testing.T) {
	w := newTestWorld()
	var order []string

	victim := &recordingSystem{name: "victim", ticks: &order}
	remover := &recordingSystem{name: "remover", ticks: &order, onTick: func(w *World, dt float64) {
		_ = w.UnregisterSystem("victim")
	}}

	require.NoError(t, w.RegisterSystem(victim))
	require.NoError(t, w.RegisterSystem(remover))
	require.NoError(t, w.Startup())
	require.NoError(t, w.BeginTick())
	require.NoError(t, w.Tick(1.0/60))

	assert.Contains(t, order, "victim", "unregister requested mid-tick must not affect the tick in progress")

	_, found := w.FindSystem("victim")
	assert.True(t, found, "removal stays deferred until cleanup_phase, which runs in EndTick")

	require.NoError(t, w.EndTick())
	_, found = w.FindSystem("victim")
	assert.False(t, found, "removal is visible after cleanup_phase flush")
}

func TestSchedulerTickMaskGating(t *testing.T) {
	w := newTestWorld()
	var order []string

	s1 := &recordingSystem{name: "s1", tickGroup: 0b01, ticks: &order}
	s2 := &recordingSystem{name: "s2", tickGroup: 0b10, ticks: &order}

	require.NoError(t, w.RegisterSystem(s1))
	require.NoError(t, w.RegisterSystem(s2))
	require.NoError(t, w.Startup())

	require.NoError(t, w.BeginTick())
	require.NoError(t, w.TickMasked(0b01, 1.0/60))
	assert.Equal(t, []string{"s1"}, order, "mask 0b01 must run only the system in that tick group")
	require.NoError(t, w.EndTick())

	order = nil
	require.NoError(t, w.BeginTick())
	require.NoError(t, w.TickMasked(0b11, 1.0/60))
	assert.Equal(t, []string{"s1", "s2"}, order, "mask 0b11 must run both systems in registration order")
	require.NoError(t, w.EndTick())
}
