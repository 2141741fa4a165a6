package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/ecsworld/entity"
)

func TestRefAsRecoversTypedRefFromUntyped(t *testing.T) {
	w := newTestWorld()
	e, err := w.CreateEntity(entity.All)
	require.NoError(t, err)
	_, err = CreateComponent[position](w, e, position{X: 3, Y: 4})
	require.NoError(t, err)

	untyped := w.Components.RefFor(typeTag[position](), e.ID)
	require.True(t, untyped.Live())

	typed, err := RefAs[position](w.Components, untyped)
	require.NoError(t, err)
	v, err := typed.Get()
	require.NoError(t, err)
	assert.Equal(t, position{X: 3, Y: 4}, *v)
}

func TestRefAsFailsOnTagMismatch(t *testing.T) {
	w := newTestWorld()
	e, err := w.CreateEntity(entity.All)
	require.NoError(t, err)
	_, err = CreateComponent[position](w, e, position{})
	require.NoError(t, err)

	untyped := w.Components.RefFor(typeTag[position](), e.ID)
	_, err = RefAs[velocity](w.Components, untyped)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRefAsFailsOnZeroRef(t *testing.T) {
	w := newTestWorld()
	_, err := RefAs[position](w.Components, Ref{})
	assert.ErrorIs(t, err, ErrReferenceCut)
}
