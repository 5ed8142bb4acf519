package fem

import (
	"fmt"

	"github.com/rs/xid"
)

// InvalidTag is the tag held by entities that are not attached to a registry.
// Live entities always hold positive tags.
const InvalidTag = 0

// An Entity is an object whose integer tag is managed by a Registry. The tag
// is a cached value rewritten in place whenever the registry renumbers; the
// ID is the stable identity that survives renumbering and detachment.
//
// Entities are created through the per-kind constructors (NewMaterial,
// NewPattern, ...). Kind-specific payload belongs in wrapper types that hold
// one of the entity types; wrappers read the current tag through Tag() at
// serialization time instead of caching it themselves.
type Entity interface {
	// ID returns the globally unique identity of the entity. It never
	// changes, no matter how often the registry rewrites the tag.
	ID() string

	// Kind returns the entity category this entity belongs to.
	Kind() Kind

	// Tag returns the current solver handle, or InvalidTag when detached.
	Tag() int

	// CreationOrder returns the sequence number assigned at registration. It
	// is meaningful only while the entity is live.
	CreationOrder() uint64

	// Live reports whether the entity is currently attached to a registry.
	Live() bool

	attach(r *Registry, order uint64)
	detach()
	setTag(tag int)
	registry() *Registry
}

// EntityBase implements the bookkeeping shared by all entity kinds. The
// per-kind types embed it. The owning registry is the only writer of the tag
// and creation order fields.
type EntityBase struct {
	id    string
	kind  Kind
	tag   int
	order uint64
	reg   *Registry
}

func (b *EntityBase) init(kind Kind) {
	b.id = xid.New().String()
	b.kind = kind
	b.tag = InvalidTag
}

// ID returns the stable identity assigned at construction.
func (b *EntityBase) ID() string {
	return b.id
}

// Kind returns the entity category.
func (b *EntityBase) Kind() Kind {
	return b.kind
}

// Tag returns the cached tag, or InvalidTag when the entity is detached.
func (b *EntityBase) Tag() int {
	return b.tag
}

// CreationOrder returns the registration sequence number.
func (b *EntityBase) CreationOrder() uint64 {
	return b.order
}

// Live reports whether the entity is attached to a registry.
func (b *EntityBase) Live() bool {
	return b.reg != nil
}

// Delete removes the entity from its registry, renumbering the entities
// created after it. Deleting a detached entity reports ErrNotFound.
func (b *EntityBase) Delete() error {
	if b.reg == nil {
		return fmt.Errorf("fem: entity %s is not attached to a registry: %w",
			b.id, ErrNotFound)
	}

	return b.reg.Remove(b.tag)
}

func (b *EntityBase) attach(r *Registry, order uint64) {
	b.reg = r
	b.order = order
}

func (b *EntityBase) detach() {
	b.reg = nil
	b.tag = InvalidTag
}

func (b *EntityBase) setTag(tag int) {
	b.tag = tag
}

func (b *EntityBase) registry() *Registry {
	return b.reg
}
