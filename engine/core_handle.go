package engine

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/ecsworld/entity"
)

// AnyStore is the type-erased view every Store[T] satisfies. It is what lets
// the ComponentRegistry and World manage stores uniformly without knowing T,
// the re-expression of the source's polymorphic-store-base idiom (§9).
type AnyStore interface {
	Tag() ComponentTag
	Liveness(offset int32, version uint32) bool
	EntityAt(offset int32) entity.Id
	Free(offset int32) bool
	Allocated() int
	Clear()
	Cores() []*ComponentCore
}

// ComponentCore is the stable public handle into a Store slot. It is owned
// by the Store that allocated it and is mutated in place (relocated) by
// that Store on swap-remove; it is never copied or forwarded by value. A
// ComponentCore with a nil locator is tombstoned — dead forever.
type ComponentCore struct {
	locator AnyStore
	offset  int32
	version uint32
}

// Tag reports the component type this core belongs to, or 0 if tombstoned.
func (c *ComponentCore) Tag() ComponentTag {
	if c == nil || c.locator == nil {
		return 0
	}
	return c.locator.Tag()
}

// Live reports whether this core still refers to a live slot.
func (c *ComponentCore) Live() bool {
	return c != nil && c.locator != nil && c.locator.Liveness(c.offset, c.version)
}

// EntityID reports the entity this core's slot currently belongs to, or
// entity.Null if tombstoned.
func (c *ComponentCore) EntityID() entity.Id {
	if c == nil || c.locator == nil {
		return entity.Null
	}
	return c.locator.EntityAt(c.offset)
}

func (c *ComponentCore) tombstone() {
	c.locator = nil
	c.offset = -1
	c.version = 0
}

// Ref is the typeless façade over a ComponentCore (§3): liveness and
// identity only, no typed value access.
type Ref struct {
	core *ComponentCore
}

// Live reports whether the referenced component slot is still live.
func (r Ref) Live() bool { return r.core.Live() }

// Tag reports the referenced component's type tag.
func (r Ref) Tag() ComponentTag { return r.core.Tag() }

// EntityID reports the entity the referenced component currently belongs to.
func (r Ref) EntityID() entity.Id { return r.core.EntityID() }

// Ref_T is the typed façade over a ComponentCore. Named with a trailing
// type parameter comment because Go renders it as Ref[T] at use sites.
type Ref[T any] struct {
	core  *ComponentCore
	store *Store[T]
}

// Get returns a pointer to the live value, or ErrReferenceCut if the
// component has been freed or re-versioned since this Ref was obtained.
func (r Ref[T]) Get() (*T, error) {
	if r.core == nil || !r.core.Live() {
		return nil, errors.Wrap(ErrReferenceCut, "Ref[T].Get")
	}
	return r.store.valueAt(r.core.offset), nil
}

// Live reports whether the referenced component slot is still live.
func (r Ref[T]) Live() bool { return r.core.Live() }

// EntityID reports the entity the referenced component currently belongs to.
func (r Ref[T]) EntityID() entity.Id { return r.core.EntityID() }

// Untyped drops type information, yielding the typeless façade.
func (r Ref[T]) Untyped() Ref { return Ref{core: r.core} }

// RefAs recovers a typed Ref[T] from a typeless Ref, failing with
// ErrTypeMismatch if r's component tag disagrees with T — the one place a
// caller can ask for a stored value's type and be wrong, since every other
// typed accessor in this package derives T from the store it looked the
// component up in rather than from a caller-supplied tag (§6).
func RefAs[T any](cr *ComponentRegistry, r Ref) (Ref[T], error) {
	if r.core == nil {
		return Ref[T]{}, errors.Wrap(ErrReferenceCut, "RefAs")
	}
	if r.Tag() != typeTag[T]() {
		return Ref[T]{}, errors.Wrap(ErrTypeMismatch, "RefAs")
	}
	return Ref[T]{core: r.core, store: storeFor[T](cr)}, nil
}

// Initializer is the optional lifecycle hook a component value type may
// implement; Store[T].Allocate calls it after zero-initializing the slot.
type Initializer interface {
	Init(e entity.Id)
}

// Deinitializer is the optional lifecycle hook a component value type may
// implement; Store[T].Free calls it before the slot is reclaimed.
type Deinitializer interface {
	Deinit(e entity.Id)
}

// safeCall runs fn and recovers any panic, logging it instead of letting it
// propagate. This is the fault boundary for UserCallback-kind failures
// (§7): one bad init/deinit/on_tick must not abort the caller.
func safeCall(log *zap.Logger, phase string, fields []zap.Field, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if log != nil {
				log.Error("captured user callback panic",
					append([]zap.Field{zap.String("phase", phase), zap.Any("panic", r)}, fields...)...)
			}
		}
	}()
	fn()
}
