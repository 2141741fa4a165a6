package engine

import "github.com/lixenwraith/ecsworld/entity"

// Matcher is a pure, stateless predicate over a Graph: an entity mask
// prefilter plus All/Any/None tag-set conditions (§4.4). The same Matcher
// value can be reused across any number of Matches calls and carries no
// per-call state.
type Matcher struct {
	mask entity.Mask
	all  []ComponentTag
	any  []ComponentTag
	none []ComponentTag
}

// Matches reports whether g satisfies every condition: its mask intersects
// the matcher's mask, it carries every All tag, at least one Any tag
// (if any were given), and none of the None tags.
func (m Matcher) Matches(g *Graph) bool {
	if g.wishDestroy {
		return false
	}
	if m.mask != 0 && g.mask&m.mask == 0 {
		return false
	}
	for _, tag := range m.all {
		if !g.Has(tag) {
			return false
		}
	}
	if len(m.any) > 0 {
		found := false
		for _, tag := range m.any {
			if g.Has(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, tag := range m.none {
		if g.Has(tag) {
			return false
		}
	}
	if m.mask == 0 && len(m.all) == 0 && len(m.any) == 0 && len(m.none) == 0 {
		return len(g.components) > 0
	}
	return true
}

// MatcherBuilder assembles a Matcher via OfAll/OfAny/OfNone/WithMask calls,
// terminated by Build.
type MatcherBuilder struct {
	m Matcher
}

// NewMatcher starts a MatcherBuilder with no mask prefilter and no tag
// conditions (matches every entity carrying at least one component until
// conditions are added).
func NewMatcher() *MatcherBuilder {
	return &MatcherBuilder{}
}

// WithMask sets the entity-mask prefilter.
func (b *MatcherBuilder) WithMask(mask entity.Mask) *MatcherBuilder {
	b.m.mask = mask
	return b
}

// OfAll requires every one of T1..Tn to be present. Call multiple times (or
// with multiple type parameters via repeated calls) to accumulate.
func OfAll[T any](b *MatcherBuilder) *MatcherBuilder {
	b.m.all = append(b.m.all, typeTag[T]())
	return b
}

// OfAny requires at least one of the accumulated Any tags to be present.
func OfAny[T any](b *MatcherBuilder) *MatcherBuilder {
	b.m.any = append(b.m.any, typeTag[T]())
	return b
}

// OfNone excludes entities carrying this tag.
func OfNone[T any](b *MatcherBuilder) *MatcherBuilder {
	b.m.none = append(b.m.none, typeTag[T]())
	return b
}

// Build finalizes the Matcher. The builder remains usable afterward; each
// Build call returns an independent snapshot of the accumulated conditions.
func (b *MatcherBuilder) Build() Matcher {
	out := Matcher{mask: b.m.mask}
	out.all = append(out.all, b.m.all...)
	out.any = append(out.any, b.m.any...)
	out.none = append(out.none, b.m.none...)
	return out
}
