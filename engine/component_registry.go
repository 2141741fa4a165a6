package engine

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/ecsworld/entity"
)

// ComponentEvent carries the identity of a component lifecycle transition to
// onCreated/onRemoved subscribers (§4.3). It never carries the component
// value itself — subscribers that need the value fetch it through the core.
type ComponentEvent struct {
	Entity entity.Id
	Tag    ComponentTag
	Core   *ComponentCore
}

// ComponentRegistry owns every Store[T] in a World, keyed by stable type tag,
// and is the single place component-created/component-removed signals fire
// from (the re-expression of the source's ComponentStore aggregator).
type ComponentRegistry struct {
	stores map[ComponentTag]AnyStore
	log    *zap.Logger

	OnCreated Signal[ComponentEvent]
	OnRemoved Signal[ComponentEvent]
}

// NewComponentRegistry builds an empty registry.
func NewComponentRegistry(log *zap.Logger) *ComponentRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &ComponentRegistry{
		stores: make(map[ComponentTag]AnyStore),
		log:    log,
	}
}

// storeFor returns the registered Store[T], registering a fresh one on first
// use with opts applied (opts are ignored on subsequent calls). A fresh
// store logs captured init/deinit panics through the registry's logger
// unless opts set another.
func storeFor[T any](cr *ComponentRegistry, opts ...StoreOption) *Store[T] {
	tag := typeTag[T]()
	if existing, ok := cr.stores[tag]; ok {
		return existing.(*Store[T])
	}
	s := NewStore[T](append([]StoreOption{WithStoreLogger(cr.log)}, opts...)...)
	cr.stores[tag] = s
	return s
}

// CreateComponentOnRegistry allocates a T for e in its store and emits
// OnCreated. This is the free-function stand-in for a generic method (§9):
// Go has no generic methods, so typed component operations take the
// registry/store as an explicit parameter, mirroring the source's own
// With[T](eb, store, v). World callers use the CreateComponent wrapper in
// world.go; this lower-level form is for code that only has a
// ComponentRegistry (e.g. EntityBuilder, before an Entity handle exists).
func CreateComponentOnRegistry[T any](cr *ComponentRegistry, e entity.Id, value T) *ComponentCore {
	s := storeFor[T](cr)
	core := s.Allocate(e)
	*s.valueAt(core.offset) = value
	cr.OnCreated.Emit(cr.log, ComponentEvent{Entity: e, Tag: s.Tag(), Core: core})
	return core
}

// GetComponentOnRegistry returns e's T value, if it has one.
func GetComponentOnRegistry[T any](cr *ComponentRegistry, e entity.Id) (*T, bool) {
	tag := typeTag[T]()
	store, ok := cr.stores[tag]
	if !ok {
		return nil, false
	}
	s := store.(*Store[T])
	off, ok := s.OffsetOf(e)
	if !ok {
		return nil, false
	}
	return s.valueAt(off), true
}

// HasComponentOnRegistry reports whether e has a live T.
func HasComponentOnRegistry[T any](cr *ComponentRegistry, e entity.Id) bool {
	tag := typeTag[T]()
	store, ok := cr.stores[tag]
	if !ok {
		return false
	}
	_, ok = store.(*Store[T]).OffsetOf(e)
	return ok
}

// DestroyComponentOnRegistry frees e's T, emitting OnRemoved. Reports false
// if e had no T.
func DestroyComponentOnRegistry[T any](cr *ComponentRegistry, e entity.Id) bool {
	tag := typeTag[T]()
	store, ok := cr.stores[tag]
	if !ok {
		return false
	}
	s := store.(*Store[T])
	off, ok := s.OffsetOf(e)
	if !ok {
		return false
	}
	s.Free(off)
	cr.OnRemoved.Emit(cr.log, ComponentEvent{Entity: e, Tag: tag})
	return true
}

// DestroyByTag frees the component with the given tag belonging to e,
// without requiring the caller to know its static type — used by
// EntityRegistry.Destroy when sweeping every component off a dying entity.
func (cr *ComponentRegistry) DestroyByTag(tag ComponentTag, e entity.Id) bool {
	store, ok := cr.stores[tag]
	if !ok {
		return false
	}
	core := coreOf(store, e)
	if core == nil {
		return false
	}
	off := core.offset
	store.Free(off)
	cr.OnRemoved.Emit(cr.log, ComponentEvent{Entity: e, Tag: tag})
	return true
}

// coreOf finds e's core within an AnyStore without static type knowledge, by
// linear scan of every live core in the store, so its cost grows with the
// number of entities carrying that component type. It trades Store[T]'s
// indexed CoreOf lookup for this scan rather than widening AnyStore's
// interface.
func coreOf(store AnyStore, e entity.Id) *ComponentCore {
	for _, c := range store.Cores() {
		if c.EntityID() == e {
			return c
		}
	}
	return nil
}

// RefFor builds a typeless Ref to e's component of the given tag, or the
// zero Ref if none exists.
func (cr *ComponentRegistry) RefFor(tag ComponentTag, e entity.Id) Ref {
	store, ok := cr.stores[tag]
	if !ok {
		return Ref{}
	}
	return Ref{core: coreOf(store, e)}
}

// TypedRef builds a typed Ref[T] to e's T, or the zero Ref[T] if none exists.
func TypedRef[T any](cr *ComponentRegistry, e entity.Id) Ref[T] {
	s := storeFor[T](cr)
	off, ok := s.OffsetOf(e)
	if !ok {
		return Ref[T]{}
	}
	return Ref[T]{core: s.records[off].core, store: s}
}
