package engine

import "github.com/lixenwraith/ecsworld/entity"

// EntityBuilder accumulates component values to attach atomically when
// Build is called, mirroring the source's fluent EntityBuilder (With/Build).
type EntityBuilder struct {
	world  *World
	mask   entity.Mask
	attach []func(entity.Id)
}

// NewEntity starts an EntityBuilder for an entity with the given mask.
func (w *World) NewEntity(mask entity.Mask) *EntityBuilder {
	return &EntityBuilder{world: w, mask: mask}
}

// With queues component attaching T's value once Build allocates the
// entity. Free-function form because Go has no generic methods, directly
// mirroring the source's With[T](eb, store, component) shape.
func With[T any](eb *EntityBuilder, value T) *EntityBuilder {
	eb.attach = append(eb.attach, func(id entity.Id) {
		CreateComponentOnRegistry[T](eb.world.Components, id, value)
	})
	return eb
}

// Build allocates the entity and attaches every queued component in call
// order.
func (eb *EntityBuilder) Build() (Entity, error) {
	e, err := eb.world.CreateEntity(eb.mask)
	if err != nil {
		return Entity{}, err
	}
	for _, fn := range eb.attach {
		fn(e.ID)
	}
	return e, nil
}
