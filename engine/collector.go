package engine

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/ecsworld/entity"
)

// orderedSet is an insertion-order-preserving set of entity ids, used for
// every one of a Collector's five buffers (§4.5).
type orderedSet struct {
	order []entity.Id
	index map[entity.Id]int
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[entity.Id]int)}
}

func (s *orderedSet) has(e entity.Id) bool {
	_, ok := s.index[e]
	return ok
}

func (s *orderedSet) add(e entity.Id) {
	if s.has(e) {
		return
	}
	s.index[e] = len(s.order)
	s.order = append(s.order, e)
}

func (s *orderedSet) remove(e entity.Id) {
	i, ok := s.index[e]
	if !ok {
		return
	}
	last := len(s.order) - 1
	moved := s.order[last]
	s.order[i] = moved
	s.index[moved] = i
	s.order = s.order[:last]
	delete(s.index, e)
}

func (s *orderedSet) clear() {
	s.order = s.order[:0]
	for k := range s.index {
		delete(s.index, k)
	}
}

func (s *orderedSet) slice() []entity.Id {
	out := make([]entity.Id, len(s.order))
	copy(out, s.order)
	return out
}

// CollectorFlags controls whether a Collector applies matching-adds and
// clashing-removes to its observable set immediately, on every graph
// change, or defers them to the next Change() call (§4.5).
type CollectorFlags uint8

const (
	// LazyAdd defers applying newly-matching entities to Collected until
	// Change() runs; until then they appear in neither Collected() nor
	// Matching(), which only shows them after that Change().
	LazyAdd CollectorFlags = 1 << iota
	// LazyRemove defers applying newly-clashing entities' removal from
	// Collected until Change() runs; until then they still appear in
	// Collected(), and Clashing() only shows them after that Change().
	LazyRemove
)

// Lazy is the combination of LazyAdd and LazyRemove.
const Lazy = LazyAdd | LazyRemove

// Collector tracks, against a Matcher, which entities currently match, which
// newly started matching since the last Change(), and which newly stopped
// matching — with immediate or deferred application to the observable
// Collected set depending on its flags (§4.5).
type Collector struct {
	matcher Matcher
	flags   CollectorFlags

	collected       *orderedSet
	matching        *orderedSet
	clashing        *orderedSet
	pendingMatching *orderedSet
	pendingClashing *orderedSet
}

func newCollector(m Matcher, flags CollectorFlags) *Collector {
	return &Collector{
		matcher:         m,
		flags:           flags,
		collected:       newOrderedSet(),
		matching:        newOrderedSet(),
		clashing:        newOrderedSet(),
		pendingMatching: newOrderedSet(),
		pendingClashing: newOrderedSet(),
	}
}

// already reports how onEntityChanged should interpret membership: an entity
// counts as "already collected" if it is in collected — i.e. the live view a
// caller reading Collected() would see right now. The pending buffers are
// not consulted: an entity staged in pendingClashing under LazyRemove still
// counts as collected, and one staged in pendingMatching under LazyAdd does
// not.
func (c *Collector) already(e entity.Id) bool {
	return c.collected.has(e)
}

// onEntityChanged re-evaluates e against the matcher and accumulates the
// transition into pending_matching/pending_clashing — always, regardless of
// Lazy flags — applying it to collected immediately unless the relevant Lazy
// flag defers that part. matching/clashing themselves are left untouched
// here: they hold the previous generation's rotated-in delta until the next
// Change() call (§4.5).
func (c *Collector) onEntityChanged(g *Graph, e entity.Id) {
	isMatch := c.matcher.Matches(g)
	already := c.already(e)

	switch {
	case isMatch && !already:
		c.pendingMatching.add(e)
		c.pendingClashing.remove(e)
		if c.flags&LazyAdd == 0 {
			c.collected.add(e)
		}
	case !isMatch && already:
		c.pendingClashing.add(e)
		c.pendingMatching.remove(e)
		if c.flags&LazyRemove == 0 {
			c.collected.remove(e)
		}
	default:
		// no transition: either still matching-and-collected or still
		// non-matching-and-uncollected. Clear any stale pending
		// membership for e; matching/clashing are last generation's
		// snapshot and are untouched until the next Change().
		c.pendingMatching.remove(e)
		c.pendingClashing.remove(e)
	}
}

// Change rotates the collection generation: pending_matching/pending_clashing
// swap into matching/clashing (so a caller reading Matching()/Clashing()
// after this call sees the delta that just closed), the new pending pair is
// cleared, and the rotated-in matching/clashing are applied to collected —
// unconditionally, regardless of Lazy flags. For a non-lazy transition this
// duplicates work onEntityChanged already did to collected (harmless, the
// set operations are idempotent); for a lazy transition this is the point
// collected is first updated. This is what lets
// collected == (previous_collected ∪ matching) \ clashing hold whether or
// not the collector is lazy, and is what seeds a lazy collector's initial
// membership correctly.
func (c *Collector) Change() {
	c.matching, c.pendingMatching = c.pendingMatching, c.matching
	c.clashing, c.pendingClashing = c.pendingClashing, c.clashing

	for _, e := range c.clashing.order {
		c.collected.remove(e)
	}
	for _, e := range c.matching.order {
		c.collected.add(e)
	}

	c.pendingMatching.clear()
	c.pendingClashing.clear()
}

// Collected returns the current observable membership set.
func (c *Collector) Collected() []entity.Id { return c.collected.slice() }

// Matching returns entities that started matching as of the last Change().
func (c *Collector) Matching() []entity.Id { return c.matching.slice() }

// Clashing returns entities that stopped matching as of the last Change().
func (c *Collector) Clashing() []entity.Id { return c.clashing.slice() }

// CollectorEngine owns the lifetime of every live Collector for a World,
// fanning each Graph change out to every collector whose matcher might care.
type CollectorEngine struct {
	log        *zap.Logger
	er         *EntityRegistry
	collectors map[*Collector]struct{}
}

// NewCollectorEngine wires a CollectorEngine to er's graph-change signal.
func NewCollectorEngine(log *zap.Logger, er *EntityRegistry) *CollectorEngine {
	if log == nil {
		log = zap.NewNop()
	}
	ce := &CollectorEngine{log: log, er: er, collectors: make(map[*Collector]struct{})}
	er.OnGraphChanged.Add(func(g *Graph) {
		ce.onGraphChanged(g)
	}, 0)
	return ce
}

// NewCollector builds a Collector for m, seeding its initial membership by
// evaluating every currently live entity, then immediately calling Change()
// so a lazy collector's seed set is present in Collected() from the start.
func (ce *CollectorEngine) NewCollector(m Matcher, flags CollectorFlags) *Collector {
	c := newCollector(m, flags)
	for id, g := range ce.er.graphs {
		if !g.alive {
			continue
		}
		c.onEntityChanged(g, id)
	}
	c.Change()
	ce.collectors[c] = struct{}{}
	return c
}

// Dispose stops c from receiving further graph-change notifications.
func (ce *CollectorEngine) Dispose(c *Collector) {
	delete(ce.collectors, c)
}

func (ce *CollectorEngine) onGraphChanged(g *Graph) {
	// Defensive snapshot: a collector callback destroying an entity (and so
	// mutating ce.collectors indirectly through further signals) must not
	// corrupt this range.
	snapshot := make([]*Collector, 0, len(ce.collectors))
	for c := range ce.collectors {
		snapshot = append(snapshot, c)
	}
	for _, c := range snapshot {
		safeCall(ce.log, "collector", nil, func() { c.onEntityChanged(g, g.id) })
	}
}
