// Package system holds example systems exercising the engine's scheduler,
// matcher and collector machinery — demo material, not part of the
// library's required surface.
package system

import (
	"github.com/lixenwraith/ecsworld/component"
	"github.com/lixenwraith/ecsworld/engine"
)

// Movement integrates Velocity into Position for every entity carrying
// both, using a non-lazy collector so entities gaining or losing
// either component are picked up without a per-tick query scan.
type Movement struct {
	engine.SystemBase
	collector *engine.Collector
}

// NewMovement builds a Movement system bound to w. The collector is built
// once at construction and reused for the system's lifetime.
func NewMovement(w *engine.World) *Movement {
	m := engine.NewMatcher()
	engine.OfAll[component.Position](m)
	engine.OfAll[component.Velocity](m)

	return &Movement{
		collector: w.CreateCollector(m.Build(), 0),
	}
}

// Name identifies this system to the scheduler.
func (m *Movement) Name() string { return "movement" }

// OnTick advances every collected entity's Position by Velocity*dt, then
// rotates the collector's generation.
func (m *Movement) OnTick(w *engine.World, dt float64) {
	for _, id := range m.collector.Collected() {
		e, ok := w.GetEntity(id)
		if !ok {
			continue
		}
		pos, ok, err := engine.GetComponent[component.Position](w, e)
		if err != nil || !ok {
			continue
		}
		vel, ok, err := engine.GetComponent[component.Velocity](w, e)
		if err != nil || !ok {
			continue
		}
		pos.X += vel.DX * dt
		pos.Y += vel.DY * dt
	}
	m.collector.Change()
}
