package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSignalOrderedDispatch(t *testing.T) {
	var sig Signal[int]
	var order []int

	sig.Add(func(v int) { order = append(order, v*10+1) }, 0)
	sig.Add(func(v int) { order = append(order, v*10+2) }, 0)
	sig.Add(func(v int) { order = append(order, v*10+3) }, 0)

	sig.Emit(zap.NewNop(), 7)

	assert.Equal(t, []int{71, 72, 73}, order)
}

func TestSignalDispatchesByAscendingOrderThenRegistration(t *testing.T) {
	var sig Signal[int]
	var order []int

	sig.Add(func(v int) { order = append(order, v*10+9) }, 9)
	sig.Add(func(v int) { order = append(order, v*10+1) }, 1)
	sig.Add(func(v int) { order = append(order, v*10+1) }, 1)

	sig.Emit(zap.NewNop(), 7)

	assert.Equal(t, []int{71, 71, 79}, order, "lower order runs first, ties broken by registration sequence")
}

func TestSignalPanicIsCapturedNotPropagated(t *testing.T) {
	var sig Signal[int]
	var ran []string

	sig.Add(func(v int) { ran = append(ran, "before") }, 0)
	sig.Add(func(v int) { panic("boom") }, 0)
	sig.Add(func(v int) { ran = append(ran, "after") }, 0)

	assert.NotPanics(t, func() {
		sig.Emit(zap.NewNop(), 1)
	})
	assert.Equal(t, []string{"before", "after"}, ran, "a panicking handler must not stop later handlers")
}

func TestSignalRemove(t *testing.T) {
	var sig Signal[int]
	var got []int

	token := sig.Add(func(v int) { got = append(got, v) }, 0)
	sig.Add(func(v int) { got = append(got, v*2) }, 0)

	assert.True(t, sig.Remove(token))
	sig.Emit(zap.NewNop(), 5)

	assert.Equal(t, []int{10}, got)
}

func TestSignalAddRejectsDuplicateHandler(t *testing.T) {
	var sig Signal[int]

	handler := func(v int) {}
	first := sig.Add(handler, 0)
	second := sig.Add(handler, 5)

	assert.Equal(t, first, second, "adding the same handler twice returns the existing token")
	assert.Equal(t, 1, sig.Len(), "a duplicate add must not queue a second handler")
}
