package engine

import (
	"math"

	"go.uber.org/zap"

	"github.com/lixenwraith/ecsworld/entity"
)

// StoreConfig holds the growth parameters of §4.1. DefaultStoreConfig
// matches the source's defaults exactly.
type StoreConfig struct {
	InitialCapacity int
	GrowthRate      float64
	TriggerEdge     float64
	logger          *zap.Logger
}

// DefaultStoreConfig is the §4.1 default: initial capacity 100, growth
// rate x2, trigger edge 1.2.
var DefaultStoreConfig = StoreConfig{
	InitialCapacity: 100,
	GrowthRate:      2.0,
	TriggerEdge:     1.2,
}

// StoreOption adjusts a StoreConfig before a Store[T] is constructed.
// This is the ambient-configuration surface for stores: a functional-option
// list in the teacher's constructor-returns-a-ready-value style rather than
// a file format or parser (see SPEC_FULL.md's Configuration section).
type StoreOption func(*StoreConfig)

// WithCapacity overrides the initial capacity.
func WithCapacity(n int) StoreOption {
	return func(c *StoreConfig) { c.InitialCapacity = n }
}

// WithGrowthRate overrides the growth multiplier applied on capacity growth.
func WithGrowthRate(rate float64) StoreOption {
	return func(c *StoreConfig) { c.GrowthRate = rate }
}

// WithTriggerEdge overrides the fraction of capacity that triggers growth.
func WithTriggerEdge(edge float64) StoreOption {
	return func(c *StoreConfig) { c.TriggerEdge = edge }
}

// WithStoreLogger attaches a logger used to report captured init/deinit
// panics (§7 UserCallback). Defaults to a no-op logger.
func WithStoreLogger(log *zap.Logger) StoreOption {
	return func(c *StoreConfig) { c.logger = log }
}

type record[T any] struct {
	value   T
	core    *ComponentCore
	entity  entity.Id
	version uint32
}

// Store is the dense, type-partitioned backing array for every component of
// type T (§3, §4.1). Slots [0, allocated) are live; [allocated, len(records))
// are reserve capacity that still remembers its last-used version so a
// reused slot's version keeps climbing instead of resetting.
type Store[T any] struct {
	tagValue    ComponentTag
	cfg         StoreConfig
	records     []record[T]
	allocated   int
	entityIndex map[entity.Id]int32
}

// NewStore constructs a Store[T] with the given options layered over
// DefaultStoreConfig.
func NewStore[T any](opts ...StoreOption) *Store[T] {
	cfg := DefaultStoreConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	return &Store[T]{
		tagValue:    typeTag[T](),
		cfg:         cfg,
		records:     make([]record[T], cfg.InitialCapacity),
		entityIndex: make(map[entity.Id]int32, cfg.InitialCapacity),
	}
}

// Tag reports this store's component type tag.
func (s *Store[T]) Tag() ComponentTag { return s.tagValue }

// Allocated reports the number of live slots.
func (s *Store[T]) Allocated() int { return s.allocated }

// Capacity reports the current backing array length (live + reserve).
func (s *Store[T]) Capacity() int { return len(s.records) }

func (s *Store[T]) maybeGrow() {
	capacity := len(s.records)
	threshold := int(math.Floor(float64(capacity) * s.cfg.TriggerEdge))
	if s.allocated <= threshold && s.allocated < capacity {
		return
	}
	newCap := int(math.Round(float64(capacity) * s.cfg.GrowthRate))
	if s.allocated+1 > newCap {
		newCap = s.allocated + 1
	}
	grown := make([]record[T], newCap)
	copy(grown, s.records)
	s.records = grown
}

// Allocate grows capacity if needed, claims slot `allocated`, bumps its
// version, builds a fresh core, and runs T's optional Init hook (captured,
// never propagated — §7 UserCallback).
func (s *Store[T]) Allocate(e entity.Id) *ComponentCore {
	s.maybeGrow()

	i := s.allocated
	rec := &s.records[i]

	var zero T
	rec.value = zero
	rec.entity = e
	rec.version++
	if rec.version == 0 {
		rec.version = 1
	}
	core := &ComponentCore{locator: s, offset: int32(i), version: rec.version}
	rec.core = core
	s.allocated++
	s.entityIndex[e] = int32(i)

	if initer, ok := any(&rec.value).(Initializer); ok {
		safeCall(s.cfg.logger, "init", []zap.Field{zap.Uint64("entity", uint64(e)), zap.Uint64("tag", uint64(s.tagValue))},
			func() { initer.Init(e) })
	}
	return core
}

// Free bounds-checks offset, runs T's optional Deinit hook, and performs the
// swap-remove compaction of §3. Freeing an out-of-range offset is a no-op
// that returns false.
func (s *Store[T]) Free(offset int32) bool {
	if offset < 0 || int(offset) >= s.allocated {
		return false
	}
	victim := &s.records[offset]

	if deiniter, ok := any(&victim.value).(Deinitializer); ok {
		e := victim.entity
		safeCall(s.cfg.logger, "deinit", []zap.Field{zap.Uint64("entity", uint64(e)), zap.Uint64("tag", uint64(s.tagValue))},
			func() { deiniter.Deinit(e) })
	}

	oldCore := victim.core
	delete(s.entityIndex, victim.entity)

	tail := s.allocated - 1
	if int(offset) != tail {
		tailRec := &s.records[tail]
		victim.value = tailRec.value
		victim.entity = tailRec.entity
		victim.version = tailRec.version
		victim.core = tailRec.core
		victim.core.offset = offset // relocate the tail's core in place
		s.entityIndex[victim.entity] = offset

		tailRec.core = nil
		var zero T
		tailRec.value = zero
	}

	oldCore.tombstone()
	s.allocated--
	return true
}

// Liveness reports whether offset/version still identifies a live slot.
func (s *Store[T]) Liveness(offset int32, version uint32) bool {
	if offset < 0 || int(offset) >= s.allocated {
		return false
	}
	return s.records[offset].version == version
}

// EntityAt reports the entity owning the live slot at offset.
func (s *Store[T]) EntityAt(offset int32) entity.Id {
	if offset < 0 || int(offset) >= s.allocated {
		return entity.Null
	}
	return s.records[offset].entity
}

// valueAt returns a pointer to the value at a known-live offset.
func (s *Store[T]) valueAt(offset int32) *T {
	return &s.records[offset].value
}

// OffsetOf returns the offset of entity e's component in this store, if any.
func (s *Store[T]) OffsetOf(e entity.Id) (int32, bool) {
	off, ok := s.entityIndex[e]
	return off, ok
}

// CoreOf returns e's component core in this store, if any.
func (s *Store[T]) CoreOf(e entity.Id) *ComponentCore {
	off, ok := s.entityIndex[e]
	if !ok {
		return nil
	}
	return s.records[off].core
}

// Cores yields the cores of all live slots in physical order. Iteration
// order is not stable across mutations (swap-remove reorders).
func (s *Store[T]) Cores() []*ComponentCore {
	out := make([]*ComponentCore, s.allocated)
	for i := 0; i < s.allocated; i++ {
		out[i] = s.records[i].core
	}
	return out
}

// Clear frees every live slot, tombstoning every previously issued core.
func (s *Store[T]) Clear() {
	for s.allocated > 0 {
		s.Free(int32(s.allocated - 1))
	}
}
