package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/ecsworld/entity"
)

func TestWorldPhaseMachine(t *testing.T) {
	w := newTestWorld()
	assert.Equal(t, PhaseCreated, w.Phase())

	require.Error(t, w.BeginTick(), "BeginTick before Startup must fail")

	require.NoError(t, w.Startup())
	assert.Equal(t, PhaseReady, w.Phase())
	require.Error(t, w.Startup(), "double Startup must fail")

	require.NoError(t, w.BeginTick())
	assert.Equal(t, PhaseTicking, w.Phase())
	require.Error(t, w.Shutdown(), "Shutdown while Ticking must fail")

	require.NoError(t, w.Tick(1.0/60))
	assert.Equal(t, uint64(1), w.TickCount())

	require.NoError(t, w.EndTick())
	assert.Equal(t, PhaseReady, w.Phase())

	require.NoError(t, w.Shutdown())
	assert.Equal(t, PhaseDestroyed, w.Phase())
}

func TestTickCountIncreasesOncePerBeginTickRegardlessOfTickCalls(t *testing.T) {
	w := newTestWorld()
	require.NoError(t, w.Startup())

	require.NoError(t, w.BeginTick())
	require.NoError(t, w.TickMasked(0b01, 1.0/60))
	require.NoError(t, w.TickMasked(0b10, 1.0/60))
	require.NoError(t, w.TickMasked(AllTickGroups, 1.0/60))
	assert.Equal(t, uint64(1), w.TickCount(), "tick_count increases by exactly one per begin_tick")
	require.NoError(t, w.EndTick())

	require.NoError(t, w.BeginTick())
	assert.Equal(t, uint64(2), w.TickCount())
	require.NoError(t, w.EndTick())
}

func TestEntityComponentLifecycle(t *testing.T) {
	w := newTestWorld()

	e, err := w.CreateEntity(entity.All)
	require.NoError(t, err)

	_, err = CreateComponent[position](w, e, position{X: 3, Y: 4})
	require.NoError(t, err)
	assert.True(t, HasComponent[position](w, e))

	v, ok, err := GetComponent[position](w, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, position{X: 3, Y: 4}, *v)

	destroyed, err := DestroyComponent[position](w, e)
	require.NoError(t, err)
	assert.True(t, destroyed)
	assert.False(t, HasComponent[position](w, e))
}

func TestDestroyEntityFreesEveryComponent(t *testing.T) {
	w := newTestWorld()

	e, err := w.CreateEntity(entity.All)
	require.NoError(t, err)
	_, err = CreateComponent[position](w, e, position{})
	require.NoError(t, err)
	_, err = CreateComponent[velocity](w, e, velocity{})
	require.NoError(t, err)

	require.True(t, w.DestroyEntity(e))

	_, stillAlive := w.GetEntity(e.ID)
	assert.False(t, stillAlive)
	assert.False(t, HasComponent[position](w, e))
	assert.False(t, HasComponent[velocity](w, e))
}

func TestEntityIsValidAfterDestroy(t *testing.T) {
	w := newTestWorld()

	e, err := w.CreateEntity(entity.All)
	require.NoError(t, err)
	assert.True(t, e.IsValid())

	require.True(t, w.DestroyEntity(e))
	assert.False(t, e.IsValid())
}

func TestComponentRefReflectsLiveness(t *testing.T) {
	w := newTestWorld()

	e, err := w.CreateEntity(entity.All)
	require.NoError(t, err)

	ref, err := CreateComponentRef[position](w, e, position{X: 1, Y: 2})
	require.NoError(t, err)
	v, err := ref.Get()
	require.NoError(t, err)
	assert.Equal(t, position{X: 1, Y: 2}, *v)

	destroyed, err := DestroyComponent[position](w, e)
	require.NoError(t, err)
	require.True(t, destroyed)
	_, err = ref.Get()
	assert.Error(t, err, "Ref[T].Get must fail once the component is freed")
}

func TestComponentOpsFailOnDestroyedEntityHandle(t *testing.T) {
	w := newTestWorld()

	e, err := w.CreateEntity(entity.All)
	require.NoError(t, err)
	require.True(t, w.DestroyEntity(e))

	_, err = CreateComponent[position](w, e, position{})
	assert.ErrorIs(t, err, ErrEntityDestroyed)

	_, _, err = GetComponent[position](w, e)
	assert.ErrorIs(t, err, ErrEntityDestroyed)

	_, err = DestroyComponent[position](w, e)
	assert.ErrorIs(t, err, ErrEntityDestroyed)

	assert.False(t, HasComponent[position](w, e), "has_component on a stale handle reports false rather than raising")
}

func TestDestroyComponentRefRejectsForeignRef(t *testing.T) {
	w := newTestWorld()

	owner, err := w.CreateEntity(entity.All)
	require.NoError(t, err)
	ref, err := CreateComponentRef[position](w, owner, position{X: 1})
	require.NoError(t, err)

	other, err := w.CreateEntity(entity.All)
	require.NoError(t, err)

	err = DestroyComponentRef[position](w, other, ref)
	assert.ErrorIs(t, err, ErrForeignComponent)

	err = DestroyComponentRef[position](w, owner, ref)
	assert.NoError(t, err)
	assert.False(t, HasComponent[position](w, owner))
}

func TestEntityBuilder(t *testing.T) {
	w := newTestWorld()

	eb := w.NewEntity(entity.All)
	With[position](eb, position{X: 1, Y: 1})
	With[velocity](eb, velocity{DX: 2})

	e, err := eb.Build()
	require.NoError(t, err)

	assert.True(t, HasComponent[position](w, e))
	assert.True(t, HasComponent[velocity](w, e))
}
