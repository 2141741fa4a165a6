package engine

import "github.com/pkg/errors"

// Sentinel errors for the structural-misuse taxonomy. User-code faults
// (init/deinit/on_tick panics, signal handler panics) are never surfaced
// this way — they are captured and logged, see safeCall and Signal.Emit.
var (
	// ErrInvalidState is returned when a World operation is attempted from
	// the wrong phase.
	ErrInvalidState = errors.New("invalid state")

	// ErrReferenceCut is returned when a Ref/Ref[T] is accessed after its
	// slot has been freed or re-versioned.
	ErrReferenceCut = errors.New("reference cut")

	// ErrTypeMismatch is returned when typed access disagrees with a
	// component core's actual stored type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrEntityDestroyed is returned when an entity handle is used after
	// its entity has been destroyed.
	ErrEntityDestroyed = errors.New("entity destroyed")

	// ErrForeignComponent is returned when a component is destroyed
	// through a sibling entity handle that does not own it.
	ErrForeignComponent = errors.New("foreign component")

	// ErrExhaustion is returned when the entity id counter has wrapped.
	// Treated as fatal by callers.
	ErrExhaustion = errors.New("entity id counter exhausted")
)
