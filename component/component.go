// Package component holds example component value types exercising the
// engine package — demo material, not part of the library's required
// surface.
package component

import "github.com/lixenwraith/ecsworld/entity"

// Position is a 2D spatial component.
type Position struct {
	X, Y float64
}

// Velocity is a 2D displacement per unit of the tick's dt; Movement adds
// Velocity*dt to Position on each tick.
type Velocity struct {
	DX, DY float64
}

// Health tracks remaining hit points and implements Initializer via the
// engine's init hook path.
type Health struct {
	Current, Max int
}

// Init implements engine.Initializer, setting Max to Current when Max is
// zero. The store runs it on the slot's zero value before CreateComponent
// writes the caller's value, so it does not see or change that value.
func (h *Health) Init(e entity.Id) {
	if h.Max == 0 {
		h.Max = h.Current
	}
}
