package engine

import (
	"go.uber.org/zap"
)

// System is the unit of per-tick behavior a World runs in registration order
// (the source's System interface, generalized off game logic). There is no
// priority concept beyond registration order — two systems with the same
// TickGroup run in the order they were registered. OnCreate/OnTick/OnDestroy
// all run inside a fault boundary; a panic in any of them is captured as a
// UserCallback fault, never propagated (§4.6/§7).
type System interface {
	Name() string
	TickGroup() uint64
	OnCreate(w *World)
	OnTick(w *World, dt float64)
	OnDestroy(w *World)
}

// AllTickGroups is the default tick_group mask: a system carrying it runs
// under every tick(mask) call unless it overrides TickGroup.
const AllTickGroups uint64 = ^uint64(0)

// SystemBase is embeddable by concrete systems that want a default TickGroup
// of AllTickGroups and no-op OnCreate/OnDestroy, mirroring the source's
// SystemBase composition idiom.
type SystemBase struct{}

// TickGroup returns the default tick group, AllTickGroups.
func (SystemBase) TickGroup() uint64 { return AllTickGroups }

// OnCreate is a no-op default; override to run setup when a system is
// instantiated (immediately if registered while Mutable, or at the next
// teardown_phase flush if registered while Frozen).
func (SystemBase) OnCreate(*World) {}

// OnDestroy is a no-op default; override to run teardown when a system is
// removed (immediately if unregistered while Mutable, or at the next
// cleanup_phase flush if unregistered while Frozen).
func (SystemBase) OnDestroy(*World) {}

// schedulerState tracks the Mutable/Frozen machine of §4.6. Frozen spans an
// entire tick window — from teardown_phase through cleanup_phase — not a
// single ExecutePhase call, since tick(mask) may run more than once per
// window.
type schedulerState uint8

const (
	schedulerMutable schedulerState = iota
	schedulerFrozen
)

// Scheduler owns the ordered system list and the phase-gated registration
// machinery of §4.6: registrations/unregistrations requested while Frozen are
// deferred into add/del sets, the add-set only taking effect at the next
// teardown_phase and the del-set only at the next cleanup_phase, so "a system
// added mid-tick becomes visible starting with the next tick."
type Scheduler struct {
	log     *zap.Logger
	state   schedulerState
	systems []System

	addSet []System
	delSet map[string]struct{}

	OnSystemBegin Signal[string]
	OnSystemEnd   Signal[string]
}

// NewScheduler builds an empty, Mutable scheduler.
func NewScheduler(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{log: log, delSet: make(map[string]struct{})}
}

// Register adds sys to the system list, running its on_create hook. If
// called while Frozen, both the insertion and on_create are deferred to the
// next TeardownPhase; otherwise both happen immediately, sys appended at the
// end of the registration order.
func (s *Scheduler) Register(w *World, sys System) error {
	if s.state == schedulerFrozen {
		s.addSet = append(s.addSet, sys)
		return nil
	}
	s.insert(w, sys)
	return nil
}

func (s *Scheduler) insert(w *World, sys System) {
	name := sys.Name()
	safeCall(s.log, "on_create", []zap.Field{zap.String("system", name)}, func() {
		sys.OnCreate(w)
	})
	s.systems = append(s.systems, sys)
}

// Unregister removes the named system, running its on_destroy hook. If
// called while Frozen, both are deferred to the next CleanupPhase.
func (s *Scheduler) Unregister(w *World, name string) error {
	if s.state == schedulerFrozen {
		s.delSet[name] = struct{}{}
		return nil
	}
	s.removeNow(w, name)
	return nil
}

func (s *Scheduler) removeNow(w *World, name string) {
	for i, sys := range s.systems {
		if sys.Name() == name {
			safeCall(s.log, "on_destroy", []zap.Field{zap.String("system", name)}, func() {
				sys.OnDestroy(w)
			})
			s.systems = append(s.systems[:i], s.systems[i+1:]...)
			return
		}
	}
}

// Find returns the named system, if registered (pending additions/removals
// not yet flushed are not visible here).
func (s *Scheduler) Find(name string) (System, bool) {
	for _, sys := range s.systems {
		if sys.Name() == name {
			return sys, true
		}
	}
	return nil, false
}

// Systems returns the current ordered system list.
func (s *Scheduler) Systems() []System {
	out := make([]System, len(s.systems))
	copy(out, s.systems)
	return out
}

// ExecutePhase runs, in registration order, every registered system whose
// TickGroup intersects mask. Must only be called while Frozen (between
// TeardownPhase and CleanupPhase); any Register/Unregister call made by a
// system mid-tick is deferred rather than mutating the slice being iterated.
// May be called more than once within the same Frozen window (tick(mask)).
func (s *Scheduler) ExecutePhase(w *World, mask uint64, dt float64) {
	for _, sys := range s.systems {
		if sys.TickGroup()&mask == 0 {
			continue
		}
		name := sys.Name()
		s.OnSystemBegin.Emit(s.log, name)
		safeCall(s.log, "on_tick", []zap.Field{zap.String("system", name)}, func() {
			sys.OnTick(w, dt)
		})
		s.OnSystemEnd.Emit(s.log, name)
	}
}

// TeardownPhase enters Frozen and flushes the add-set accumulated since the
// last flush: each pending system is instantiated into the registration
// order and its on_create hook runs. Called once per tick window, from
// World.BeginTick.
func (s *Scheduler) TeardownPhase(w *World) {
	s.state = schedulerFrozen
	pending := s.addSet
	s.addSet = nil
	for _, sys := range pending {
		s.insert(w, sys)
	}
}

// CleanupPhase flushes the del-set accumulated since TeardownPhase: each
// pending system is found, its on_destroy hook runs, and it is removed from
// the registration order, then leaves Frozen. Called once per tick window,
// from World.EndTick.
func (s *Scheduler) CleanupPhase(w *World) {
	for name := range s.delSet {
		s.removeNow(w, name)
		delete(s.delSet, name)
	}
	s.state = schedulerMutable
}
