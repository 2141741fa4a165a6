// Package entity defines the identity types shared by every layer of the
// ECS core: the entity id space and the entity mask bitset.
package entity

// Id is a monotonically allocated entity identifier. Zero is reserved as
// "null" and is never issued by an EntityRegistry.
type Id uint64

// Null is the reserved Id meaning "no entity".
const Null Id = 0

// Mask is a user-assigned bitset, fixed at entity creation and immutable
// thereafter. Matchers use it as a cheap prefilter ahead of scanning an
// entity's component list.
type Mask uint64

// All is the mask a caller passes to mean "no prefilter" — every bit set.
const All Mask = ^Mask(0)
