package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clockManager struct {
	ManagerBase
	tick    int
	started bool
	ended   bool
}

func (c *clockManager) Name() string           { return "clock" }
func (c *clockManager) OnWorldStarted(w *World) { c.started = true }
func (c *clockManager) OnWorldEnded(w *World)   { c.ended = true }

func TestManagerRegistryLookupByType(t *testing.T) {
	w := newTestWorld()
	w.Managers.Register(&clockManager{tick: 5})

	m, ok := ManagerOf[*clockManager](w)
	assert.True(t, ok)
	assert.Equal(t, 5, m.tick)

	_, ok = ManagerOf[*recordingSystem](w)
	assert.False(t, ok)
}

func TestManagerLifecycleHooksRunAtWorldStartAndEnd(t *testing.T) {
	w := newTestWorld()
	w.Managers.Register(&clockManager{tick: 5})

	m, ok := ManagerOf[*clockManager](w)
	require.True(t, ok)

	require.NoError(t, w.Startup())
	assert.True(t, m.started, "on_world_started must run for every registered manager")

	require.NoError(t, w.Shutdown())
	assert.True(t, m.ended, "on_world_ended must run for every registered manager")
}
