package engine

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/ecsworld/entity"
)

// Graph is the per-entity bookkeeping record: its mask, its live component
// tags, and its preserved flag (recorded only; no teardown path reads it).
// Graphs are pooled and reused across Create/Destroy cycles rather than
// reallocated, mirroring the source's entity-slot-reuse idiom.
type Graph struct {
	id          entity.Id
	mask        entity.Mask
	components  map[ComponentTag]struct{}
	preserved   bool
	alive       bool
	wishDestroy bool
}

// Mask reports g's fixed entity mask.
func (g *Graph) Mask() entity.Mask { return g.mask }

// Has reports whether g currently carries a component of the given tag.
func (g *Graph) Has(tag ComponentTag) bool {
	_, ok := g.components[tag]
	return ok
}

// Preserved reports g's preserved flag. Sweep and ReleaseAll do not consult
// it.
func (g *Graph) Preserved() bool { return g.preserved }

// EntityRegistry owns the Id space and the Graph for every live entity. It
// pools released graphs for reuse (the source's registry-with-pooled-slots
// pattern) and fires onComponentCreated/onComponentRemoved hooks into the
// Graph bookkeeping so Matchers and Collectors never need to touch
// component stores directly.
type EntityRegistry struct {
	nextID  entity.Id
	graphs  map[entity.Id]*Graph
	pool    []*Graph
	pending []entity.Id
	log     *zap.Logger
	cr      *ComponentRegistry

	OnEntityCreated   Signal[entity.Id]
	OnEntityDestroyed Signal[entity.Id]
	OnGraphChanged    Signal[*Graph]
}

// NewEntityRegistry builds an empty registry.
func NewEntityRegistry(log *zap.Logger) *EntityRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &EntityRegistry{
		graphs: make(map[entity.Id]*Graph),
		log:    log,
	}
}

// Wire attaches the ComponentRegistry whose create/remove signals keep each
// Graph's component set in sync. Must be called once before any entity is
// created.
func (er *EntityRegistry) Wire(cr *ComponentRegistry) {
	er.cr = cr
	cr.OnCreated.Add(func(evt ComponentEvent) {
		er.onComponentCreated(evt)
	}, 0)
	cr.OnRemoved.Add(func(evt ComponentEvent) {
		er.onComponentRemoved(evt)
	}, 0)
}

func (er *EntityRegistry) acquire() *Graph {
	if n := len(er.pool); n > 0 {
		g := er.pool[n-1]
		er.pool = er.pool[:n-1]
		return g
	}
	return &Graph{}
}

func (er *EntityRegistry) release(g *Graph) {
	g.id = entity.Null
	g.mask = 0
	g.preserved = false
	g.alive = false
	g.wishDestroy = false
	for tag := range g.components {
		delete(g.components, tag)
	}
	er.pool = append(er.pool, g)
}

// Create allocates the next Id and its Graph, wired with the given mask.
// Returns ErrExhaustion if the Id counter has wrapped (§4.2 edge case).
func (er *EntityRegistry) Create(mask entity.Mask) (entity.Id, error) {
	er.nextID++
	if er.nextID == entity.Null {
		return entity.Null, errExhausted()
	}
	id := er.nextID

	g := er.acquire()
	g.id = id
	g.mask = mask
	g.alive = true
	if g.components == nil {
		g.components = make(map[ComponentTag]struct{})
	}
	er.graphs[id] = g

	er.OnEntityCreated.Emit(er.log, id)
	return id, nil
}

// Get returns e's Graph, if e is alive.
func (er *EntityRegistry) Get(e entity.Id) (*Graph, bool) {
	g, ok := er.graphs[e]
	if !ok || !g.alive {
		return nil, false
	}
	return g, true
}

// SetPreserved sets e's preserved flag. Sweep and ReleaseAll do not consult
// it, and a graph left without components is never collected automatically.
func (er *EntityRegistry) SetPreserved(e entity.Id, preserved bool) bool {
	g, ok := er.Get(e)
	if !ok {
		return false
	}
	g.preserved = preserved
	return true
}

// Destroy frees every component belonging to e, then marks its Graph dead
// and queues it for release by the next Sweep.
// Components are destroyed before the graph is released so collectors and
// matchers still see a valid mask while processing each removal (§4.3);
// an unconditional final OnEntityDestroyed/component-lost notification
// fires after the loop even for an entity with zero components, so
// collectors always observe the transition to "gone".
func (er *EntityRegistry) Destroy(e entity.Id) bool {
	g, ok := er.Get(e)
	if !ok {
		return false
	}

	g.wishDestroy = true

	for tag := range g.components {
		er.cr.DestroyByTag(tag, e)
	}

	g.alive = false
	er.pending = append(er.pending, e)

	er.OnEntityDestroyed.Emit(er.log, e)
	er.OnGraphChanged.Emit(er.log, g)

	return true
}

func (er *EntityRegistry) onComponentCreated(evt ComponentEvent) {
	g, ok := er.Get(evt.Entity)
	if !ok {
		return
	}
	g.components[evt.Tag] = struct{}{}
	er.OnGraphChanged.Emit(er.log, g)
}

func (er *EntityRegistry) onComponentRemoved(evt ComponentEvent) {
	g, ok := er.Get(evt.Entity)
	if !ok {
		return
	}
	delete(g.components, evt.Tag)
	er.OnGraphChanged.Emit(er.log, g)
}

// AllGraphs returns a snapshot of every currently live entity's Graph,
// keyed by Id. Used by callers that need to scan the whole population
// (e.g. a matcher sweep) rather than react to individual change signals.
func (er *EntityRegistry) AllGraphs() map[entity.Id]*Graph {
	out := make(map[entity.Id]*Graph, len(er.graphs))
	for id, g := range er.graphs {
		if g.alive {
			out[id] = g
		}
	}
	return out
}

// Sweep releases every Graph queued by Destroy back into the pool. Taking a
// defensive copy of the pending slice first means a release triggered
// during Sweep (e.g. from a handler reacting to pool reuse) cannot corrupt
// the iteration in progress.
func (er *EntityRegistry) Sweep() {
	if len(er.pending) == 0 {
		return
	}
	batch := make([]entity.Id, len(er.pending))
	copy(batch, er.pending)
	er.pending = er.pending[:0]

	for _, id := range batch {
		if g, ok := er.graphs[id]; ok {
			delete(er.graphs, id)
			er.release(g)
		}
	}
}

// ReleaseAll releases every live Graph back into the pool and discards any
// pending sweep entries, without emitting destroy signals — used once, at
// World shutdown, to free pooled entity graphs rather than leave them live
// past the world's lifetime (§4.7).
func (er *EntityRegistry) ReleaseAll() {
	for id, g := range er.graphs {
		delete(er.graphs, id)
		er.release(g)
	}
	er.pending = er.pending[:0]
}

func errExhausted() error {
	return ErrExhaustion
}
