package engine

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/ecsworld/entity"
)

// WorldPhase is the tick-phase machine of §6: Created → Ready ⇄ Ticking →
// Destroyed, every operation gated on the phase it requires.
type WorldPhase uint8

const (
	PhaseCreated WorldPhase = iota
	PhaseReady
	PhaseTicking
	PhaseDestroyed
)

// World is the façade a caller drives: entity/component lifecycle,
// system scheduling, collector creation and manager lookup, all phase
// guarded (the re-expression of the source's World orchestrator).
type World struct {
	log   *zap.Logger
	phase WorldPhase

	Entities   *EntityRegistry
	Components *ComponentRegistry
	Collectors *CollectorEngine
	Scheduler  *Scheduler
	Managers   ManagerRegistry

	tickCount uint64
}

// WorldOption configures a World at construction.
type WorldOption func(*World)

// WithLogger attaches a zap logger. Defaults to zap.NewNop().
func WithLogger(log *zap.Logger) WorldOption {
	return func(w *World) { w.log = log }
}

// NewWorld builds a World in the Created phase, wiring the entity registry,
// component registry, collector engine and scheduler together.
func NewWorld(opts ...WorldOption) *World {
	w := &World{phase: PhaseCreated}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	w.Components = NewComponentRegistry(w.log)
	w.Entities = NewEntityRegistry(w.log)
	w.Entities.Wire(w.Components)
	w.Collectors = NewCollectorEngine(w.log, w.Entities)
	w.Scheduler = NewScheduler(w.log)
	return w
}

// Phase reports the world's current tick phase.
func (w *World) Phase() WorldPhase { return w.phase }

// TickCount reports how many ticks have begun: it is incremented by each
// BeginTick, so it already counts the tick in progress while Ticking.
func (w *World) TickCount() uint64 { return w.tickCount }

func (w *World) requirePhase(p WorldPhase) error {
	if w.phase != p {
		return errors.Wrapf(ErrInvalidState, "world phase is %d, want %d", w.phase, p)
	}
	return nil
}

// Startup transitions Created -> Ready: runs on_world_started for every
// registered manager, then transitions. Systems, managers and initial
// entities are normally registered before this call.
func (w *World) Startup() error {
	if err := w.requirePhase(PhaseCreated); err != nil {
		return err
	}
	for _, m := range w.Managers.All() {
		mgr := m
		safeCall(w.log, "on_world_started", nil, func() { mgr.OnWorldStarted(w) })
	}
	w.phase = PhaseReady
	return nil
}

// BeginTick transitions Ready -> Ticking. tick_count increases by exactly
// one here, and the scheduler enters Frozen and flushes its add-set
// (instantiating systems registered since the last flush and running their
// on_create hooks) — §4.7.
func (w *World) BeginTick() error {
	if err := w.requirePhase(PhaseReady); err != nil {
		return err
	}
	w.phase = PhaseTicking
	w.tickCount++
	w.Scheduler.TeardownPhase(w)
	return nil
}

// Tick runs the scheduler's execute_phase with the default mask (every
// system runs). Must be called while Ticking; may be called more than once
// per tick window via TickMasked without re-incrementing tick_count.
func (w *World) Tick(dt float64) error {
	return w.TickMasked(AllTickGroups, dt)
}

// TickMasked runs the scheduler's execute_phase, executing only systems
// whose TickGroup intersects mask (§4.6/§4.7 tick(mask)). Callable multiple
// times within the same BeginTick/EndTick window.
func (w *World) TickMasked(mask uint64, dt float64) error {
	if err := w.requirePhase(PhaseTicking); err != nil {
		return err
	}
	w.Scheduler.ExecutePhase(w, mask, dt)
	return nil
}

// EndTick transitions Ticking -> Ready: flushes the scheduler's del-set
// (running on_destroy for systems unregistered during the window and
// leaving Frozen), then releases the graphs of entities destroyed since the
// last sweep. Entities left without components are not collected here, and
// the preserved flag does not affect which graphs are released.
func (w *World) EndTick() error {
	if err := w.requirePhase(PhaseTicking); err != nil {
		return err
	}
	w.Scheduler.CleanupPhase(w)
	w.Entities.Sweep()
	w.phase = PhaseReady
	return nil
}

// Shutdown transitions Ready -> Destroyed: runs on_world_ended then
// on_manager_destroyed for every registered manager, in that order, and
// releases pooled entity graphs. After this the World must not be used
// again.
func (w *World) Shutdown() error {
	if err := w.requirePhase(PhaseReady); err != nil {
		return err
	}
	for _, m := range w.Managers.All() {
		mgr := m
		safeCall(w.log, "on_world_ended", nil, func() { mgr.OnWorldEnded(w) })
	}
	for _, m := range w.Managers.All() {
		mgr := m
		safeCall(w.log, "on_manager_destroyed", nil, func() { mgr.OnManagerDestroyed(w) })
	}
	w.Entities.ReleaseAll()
	w.phase = PhaseDestroyed
	return nil
}

// Entity is a lightweight handle returned by CreateEntity/NewEntity. Typed
// component operations on it are free functions (With/CreateComponent/...)
// because Go has no generic methods.
type Entity struct {
	ID    entity.Id
	world *World
}

// CreateEntity allocates a bare entity with the given mask and no
// components.
func (w *World) CreateEntity(mask entity.Mask) (Entity, error) {
	id, err := w.Entities.Create(mask)
	if err != nil {
		return Entity{}, err
	}
	return Entity{ID: id, world: w}, nil
}

// GetEntity wraps an already-known Id as an Entity handle, if it is alive.
func (w *World) GetEntity(id entity.Id) (Entity, bool) {
	if _, ok := w.Entities.Get(id); !ok {
		return Entity{}, false
	}
	return Entity{ID: id, world: w}, true
}

// DestroyEntity destroys the entity behind e, freeing every component it
// carries.
func (w *World) DestroyEntity(e Entity) bool {
	return w.Entities.Destroy(e.ID)
}

// SetPreserved records e's preserved flag. No teardown path in this package
// reads the flag.
func (w *World) SetPreserved(e Entity, preserved bool) bool {
	return w.Entities.SetPreserved(e.ID, preserved)
}

// CreateCollector builds a Collector for m against this world's live
// entities.
func (w *World) CreateCollector(m Matcher, flags CollectorFlags) *Collector {
	return w.Collectors.NewCollector(m, flags)
}

// RegisterSystem adds sys to the scheduler, running its on_create hook.
func (w *World) RegisterSystem(sys System) error {
	return w.Scheduler.Register(w, sys)
}

// UnregisterSystem removes the named system from the scheduler, running its
// on_destroy hook.
func (w *World) UnregisterSystem(name string) error {
	return w.Scheduler.Unregister(w, name)
}

// FindSystem returns the named registered system.
func (w *World) FindSystem(name string) (System, bool) {
	return w.Scheduler.Find(name)
}

// RegisterManager adds m to the world's manager registry and immediately
// runs its on_manager_created hook.
func (w *World) RegisterManager(m Manager) {
	w.Managers.Register(m)
	safeCall(w.log, "on_manager_created", nil, func() { m.OnManagerCreated(w) })
}

// CreateComponent attaches a T to e, emitting a creation event. Fails with
// ErrEntityDestroyed if e's handle no longer refers to a live entity (§6).
func CreateComponent[T any](w *World, e Entity, value T) (*ComponentCore, error) {
	if !e.IsValid() {
		return nil, errors.Wrap(ErrEntityDestroyed, "CreateComponent")
	}
	return CreateComponentOnRegistry[T](w.Components, e.ID, value), nil
}

// GetComponent returns a pointer to e's T, if present, and whether it was
// found. Fails with ErrEntityDestroyed if e's handle is stale.
func GetComponent[T any](w *World, e Entity) (*T, bool, error) {
	if !e.IsValid() {
		return nil, false, errors.Wrap(ErrEntityDestroyed, "GetComponent")
	}
	v, ok := GetComponentOnRegistry[T](w.Components, e.ID)
	return v, ok, nil
}

// HasComponent reports whether e carries a T. A stale handle simply reports
// false — has_component is a pure predicate with no error channel in the
// Entity handle surface (§6).
func HasComponent[T any](w *World, e Entity) bool {
	if !e.IsValid() {
		return false
	}
	return HasComponentOnRegistry[T](w.Components, e.ID)
}

// DestroyComponent removes e's T, if present, reporting whether it was
// found. Fails with ErrEntityDestroyed if e's handle is stale.
func DestroyComponent[T any](w *World, e Entity) (bool, error) {
	if !e.IsValid() {
		return false, errors.Wrap(ErrEntityDestroyed, "DestroyComponent")
	}
	return DestroyComponentOnRegistry[T](w.Components, e.ID), nil
}

// CreateComponentRef attaches a T to e and returns a typed Ref to it,
// matching create_component<T>() → Ref<T> of the Entity handle surface.
// Fails with ErrEntityDestroyed if e's handle is stale.
func CreateComponentRef[T any](w *World, e Entity, value T) (Ref[T], error) {
	if !e.IsValid() {
		return Ref[T]{}, errors.Wrap(ErrEntityDestroyed, "CreateComponentRef")
	}
	CreateComponentOnRegistry[T](w.Components, e.ID, value)
	return TypedRef[T](w.Components, e.ID), nil
}

// GetComponentRef returns a typed Ref to e's T, matching
// get_component<T>() → Ref<T> of the Entity handle surface. The returned
// Ref is valid even if e does not currently carry a T; Ref[T].Get then fails
// with ErrReferenceCut. Fails with ErrEntityDestroyed if e's handle is stale.
func GetComponentRef[T any](w *World, e Entity) (Ref[T], error) {
	if !e.IsValid() {
		return Ref[T]{}, errors.Wrap(ErrEntityDestroyed, "GetComponentRef")
	}
	return TypedRef[T](w.Components, e.ID), nil
}

// DestroyComponentRef removes the component ref points at, requiring ref to
// actually belong to e. Fails with ErrEntityDestroyed if e's handle is
// stale, or ErrForeignComponent if ref belongs to a different entity (§6) —
// the variant of component destruction that can observe that mismatch,
// since DestroyComponent's (entity, type) lookup can never target another
// entity's slot.
func DestroyComponentRef[T any](w *World, e Entity, ref Ref[T]) error {
	if !e.IsValid() {
		return errors.Wrap(ErrEntityDestroyed, "DestroyComponentRef")
	}
	if ref.core == nil || ref.EntityID() != e.ID {
		return errors.Wrap(ErrForeignComponent, "DestroyComponentRef")
	}
	DestroyComponentOnRegistry[T](w.Components, e.ID)
	return nil
}

// ManagerOf returns the first manager registered on w assignable to M.
func ManagerOf[M any](w *World) (M, bool) {
	return GetManager[M](&w.Managers)
}

// IsValid reports whether e's entity is still alive (is_valid in §6).
func (e Entity) IsValid() bool {
	_, ok := e.world.Entities.Get(e.ID)
	return ok
}

// Mask reports e's fixed entity mask, or 0 if e is no longer valid.
func (e Entity) Mask() entity.Mask {
	g, ok := e.world.Entities.Get(e.ID)
	if !ok {
		return 0
	}
	return g.Mask()
}

// Components returns the set of component tags e currently carries.
func (e Entity) Components() []ComponentTag {
	g, ok := e.world.Entities.Get(e.ID)
	if !ok {
		return nil
	}
	out := make([]ComponentTag, 0, len(g.components))
	for tag := range g.components {
		out = append(out, tag)
	}
	return out
}
