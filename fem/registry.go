package fem

import "fmt"

// HookPosRegister is triggered after an entity is attached and tagged. The
// hook context carries the entity as Item.
var HookPosRegister = &HookPos{Name: "Register"}

// HookPosRemove is triggered after an entity is detached, before the
// surviving entities are renumbered. The hook context carries the detached
// entity as Item and the tag it held as Detail.
var HookPosRemove = &HookPos{Name: "Remove"}

// HookPosRetag is triggered after a live entity's tag is rewritten. The hook
// context carries the entity as Item and the previous tag as Detail.
var HookPosRetag = &HookPos{Name: "Retag"}

// HookPosRebase is triggered when the start tag changes. The hook context
// carries a Rebase as Item.
var HookPosRebase = &HookPos{Name: "Rebase"}

// HookPosReset is triggered after the registry is cleared. The hook context
// carries the number of entities detached as Item.
var HookPosReset = &HookPos{Name: "Reset"}

// A Rebase describes a start tag change.
type Rebase struct {
	PrevStart int
	NewStart  int
}

const defaultStartTag = 1

// A Registry owns the tag space of one entity kind. It keeps the live
// entities ordered by creation order and guarantees that the entity at
// position i always holds the tag StartTag() + i. Tags are therefore dense
// and contiguous at every observation point, which is what the generated
// solver scripts rely on.
//
// A registry is plain single-threaded state. Calls on the same registry must
// be serialized by the caller.
type Registry struct {
	HookableBase

	kind      Kind
	startTag  int
	nextOrder uint64
	entities  []Entity
}

// NewRegistry creates an empty registry for the given kind, numbering from 1.
func NewRegistry(kind Kind) *Registry {
	kind.mustBeValid()

	return &Registry{
		kind:     kind,
		startTag: defaultStartTag,
	}
}

// Kind returns the entity kind this registry manages.
func (r *Registry) Kind() Kind {
	return r.kind
}

// StartTag returns the tag held by the earliest-created live entity.
func (r *Registry) StartTag() int {
	return r.startTag
}

// Count returns the number of live entities.
func (r *Registry) Count() int {
	return len(r.entities)
}

// NextTag returns the tag the next registered entity will receive.
func (r *Registry) NextTag() int {
	return r.startTag + len(r.entities)
}

// Register attaches e to the registry, assigns the next creation order, and
// returns the tag computed from the entity's position at the end of the live
// sequence. Registration always succeeds on valid input. Registering a nil
// entity, an entity of another kind, or an entity that is currently live is
// a programmer error and panics.
func (r *Registry) Register(e Entity) int {
	r.entityMustBeRegistrable(e)

	order := r.nextOrder
	r.nextOrder++

	tag := r.startTag + len(r.entities)
	r.entities = append(r.entities, e)
	e.attach(r, order)
	e.setTag(tag)

	if r.NumHooks() > 0 {
		r.InvokeHook(HookCtx{
			Domain: r,
			Pos:    HookPosRegister,
			Item:   e,
		})
	}

	return tag
}

func (r *Registry) entityMustBeRegistrable(e Entity) {
	if e == nil {
		panic("fem: cannot register nil entity")
	}

	if e.Kind() != r.kind {
		panic(fmt.Sprintf("fem: cannot register %s entity with %s registry",
			e.Kind(), r.kind))
	}

	if e.registry() != nil {
		panic(fmt.Sprintf("fem: entity %s is already registered", e.ID()))
	}
}

// Remove detaches the live entity holding tag and renumbers every entity
// created after it, so that the live sequence stays dense. The detached
// entity's tag becomes InvalidTag; its creation order slot is not reused.
// Removing a tag that no live entity holds reports ErrNotFound and leaves
// the registry unchanged.
func (r *Registry) Remove(tag int) error {
	idx := tag - r.startTag
	if idx < 0 || idx >= len(r.entities) {
		return fmt.Errorf("fem: %s registry holds no entity with tag %d: %w",
			r.kind, tag, ErrNotFound)
	}

	victim := r.entities[idx]
	victim.detach()
	r.entities = append(r.entities[:idx], r.entities[idx+1:]...)

	if r.NumHooks() > 0 {
		r.InvokeHook(HookCtx{
			Domain: r,
			Pos:    HookPosRemove,
			Item:   victim,
			Detail: tag,
		})
	}

	r.retagFrom(idx)

	return nil
}

// SetStartTag rebases the numbering so that the earliest-created live entity
// holds newStart, renumbering every live entity. Renumbering happens on
// every accepted call, whether newStart is above, below, or equal to the
// current start. Later registrations continue from newStart plus the live
// count. Non-positive starts report ErrInvalidStartTag and leave all tags
// untouched.
func (r *Registry) SetStartTag(newStart int) error {
	if newStart < 1 {
		return fmt.Errorf(
			"fem: start tag for %s registry must be positive, got %d: %w",
			r.kind, newStart, ErrInvalidStartTag)
	}

	prev := r.startTag
	r.startTag = newStart

	if r.NumHooks() > 0 {
		r.InvokeHook(HookCtx{
			Domain: r,
			Pos:    HookPosRebase,
			Item:   Rebase{PrevStart: prev, NewStart: newStart},
		})
	}

	r.retagFrom(0)

	return nil
}

// Reset detaches every live entity and restores the registry to its initial
// state: no live entities, start tag 1, and creation orders starting over
// from zero. Resetting an already-empty registry leaves the same state.
func (r *Registry) Reset() {
	detached := len(r.entities)
	for _, e := range r.entities {
		e.detach()
	}

	r.entities = nil
	r.startTag = defaultStartTag
	r.nextOrder = 0

	if r.NumHooks() > 0 {
		r.InvokeHook(HookCtx{
			Domain: r,
			Pos:    HookPosReset,
			Item:   detached,
		})
	}
}

// EntityByTag returns the live entity currently holding tag. The lookup is
// position arithmetic on the dense sequence, not a search.
func (r *Registry) EntityByTag(tag int) (Entity, error) {
	idx := tag - r.startTag
	if idx < 0 || idx >= len(r.entities) {
		return nil, fmt.Errorf(
			"fem: %s registry holds no entity with tag %d: %w",
			r.kind, tag, ErrNotFound)
	}

	return r.entities[idx], nil
}

// Entities returns the live entities in creation order. The returned slice
// is a copy; mutating it does not affect the registry.
func (r *Registry) Entities() []Entity {
	out := make([]Entity, len(r.entities))
	copy(out, r.entities)

	return out
}

// retagFrom rewrites the cached tag of every live entity at position idx or
// later. Entities before idx already satisfy the density invariant.
func (r *Registry) retagFrom(idx int) {
	for i := idx; i < len(r.entities); i++ {
		e := r.entities[i]

		prev := e.Tag()
		next := r.startTag + i
		if prev == next {
			continue
		}

		e.setTag(next)

		if r.NumHooks() > 0 {
			r.InvokeHook(HookCtx{
				Domain: r,
				Pos:    HookPosRetag,
				Item:   e,
				Detail: prev,
			})
		}
	}
}
