package memory

import (
	"github.com/pkg/errors"
)

// ErrEmptyHandle is returned (or panicked with) when an operation needs a
// handle that points at a live member.
var ErrEmptyHandle = errors.New("empty group handle")

// Handle is implemented by every strong handle regardless of payload type.
// Grouping operations take Handles so that members of different types can
// share a lifetime.
type Handle interface {
	target() *member
}

// noCopy may be embedded into structs which must not be copied after first
// use. See sync.noCopy; `go vet` reports copies through the copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// ref is the bookkeeping shared by Ptr and Const: one counted reference to
// a cell. Every method that changes what a ref points at keeps the member
// and group counts in step.
type ref[T any] struct {
	_ noCopy
	c *cell[T]
}

func (r *ref[T]) target() *member {
	if r == nil || r.c == nil || r.c.dead {
		return nil
	}
	return &r.c.member
}

// Valid reports whether the handle points at a live member.
func (r *ref[T]) Valid() bool {
	return r.target() != nil
}

// Reset releases the handle's target, if any, and leaves it empty. Dropping
// the last handle into a group destroys every member of that group.
func (r *ref[T]) Reset() {
	if r == nil || r.c == nil {
		return
	}
	c := r.c
	r.c = nil
	c.drop()
}

// share counts one more handle on r's cell and returns it, or nil when r is
// empty.
func (r *ref[T]) share() *cell[T] {
	if !r.Valid() {
		return nil
	}
	r.c.acquire()
	return r.c
}

// assign counts o's target before releasing r's, so self-assignment is safe.
func (r *ref[T]) assign(o *ref[T]) {
	c := o.share()
	r.Reset()
	r.c = c
}

// moveFrom takes over o's target without touching any count.
func (r *ref[T]) moveFrom(o *ref[T]) {
	if r == o || o == nil {
		return
	}
	c := o.c
	o.c = nil
	r.Reset()
	r.c = c
}

func (r *ref[T]) payload() *T {
	if !r.Valid() {
		panic(errors.Wrap(ErrEmptyHandle, "dereference"))
	}
	return r.c.p
}

func (r *ref[T]) weak() Weak[T] {
	if !r.Valid() {
		return Weak[T]{}
	}
	return Weak[T]{c: r.c}
}

// AddToGroup migrates other's member into this handle's group. See
// AddToGroup.
func (r *ref[T]) AddToGroup(other Handle) error {
	return AddToGroup(r, other)
}

// MergeGroup moves every member of other's group into this handle's group.
// See MergeGroup.
func (r *ref[T]) MergeGroup(other Handle) error {
	return MergeGroup(r, other)
}

// Equal reports whether both handles resolve to the same member.
func (r *ref[T]) Equal(other Handle) bool {
	return sameMember(r, other)
}

// Compare orders handles by member identity; empty handles sort first.
func (r *ref[T]) Compare(other Handle) int {
	return compareMembers(r, other)
}

// Hash returns a value identifying the member, or 0 when the handle is
// empty.
func (r *ref[T]) Hash() uint64 {
	return memberID(r)
}

// UseCount returns the number of strong handles on the member.
func (r *ref[T]) UseCount() int {
	return useCount(r)
}

// GroupUseCount returns the aggregate count of the member's group.
func (r *ref[T]) GroupUseCount() int {
	return groupUseCount(r)
}

// GroupSize returns the number of members in the member's group.
func (r *ref[T]) GroupSize() int {
	return groupSize(r)
}

// Ptr is a strong handle to a payload of type T. Every live Ptr counts once
// toward its member and once toward the member's group. The zero value is
// an empty handle.
//
// Reset is the handle's destructor and Go never calls it for you: a Ptr
// dropped without Reset keeps its whole group alive for good. A Ptr is
// copied with Clone, never by value.
type Ptr[T any] struct {
	ref[T]
}

// New wraps p in a new member inside a new singleton group and returns the
// first handle to it. When the group is destroyed, p.Close is called if p
// implements io.Closer.
func New[T any](p *T) *Ptr[T] {
	return NewFunc(p, nil)
}

// NewFunc is like New but runs release instead of Close when the payload is
// destroyed.
func NewFunc[T any](p *T, release func(*T)) *Ptr[T] {
	c := newCell(p, release)
	c.acquire()
	q := &Ptr[T]{}
	q.c = c
	return q
}

// target is nil-safe so that a nil *Ptr passed as a Handle is empty.
func (p *Ptr[T]) target() *member {
	if p == nil {
		return nil
	}
	return p.ref.target()
}

// Get returns the payload. It panics if p is empty.
func (p *Ptr[T]) Get() *T {
	return p.payload()
}

// Clone returns a new handle to the same member.
func (p *Ptr[T]) Clone() *Ptr[T] {
	q := &Ptr[T]{}
	q.c = p.share()
	return q
}

// Assign rebinds p to other's member. The new target is counted before the
// old one is released, so p.Assign(p) is safe. A nil other empties p.
func (p *Ptr[T]) Assign(other *Ptr[T]) {
	if other == nil {
		p.Reset()
		return
	}
	p.assign(&other.ref)
}

// ResetTo is an alias of Assign.
func (p *Ptr[T]) ResetTo(other *Ptr[T]) {
	p.Assign(other)
}

// Move returns a handle that takes over p's target without touching any
// count. p is left empty.
func (p *Ptr[T]) Move() *Ptr[T] {
	q := &Ptr[T]{}
	q.moveFrom(&p.ref)
	return q
}

// MoveFrom releases p's previous target and takes over other's without
// touching its count. other is left empty.
func (p *Ptr[T]) MoveFrom(other *Ptr[T]) {
	if other == nil {
		return
	}
	p.moveFrom(&other.ref)
}

// Weak returns a non-owning handle to p's member.
func (p *Ptr[T]) Weak() Weak[T] {
	return p.weak()
}

// Const returns a read-only handle sharing p's member and counts. An empty
// p yields an empty Const.
func (p *Ptr[T]) Const() *Const[T] {
	q := &Const[T]{}
	q.c = p.share()
	return q
}

// Const is a read-only strong handle. It counts, groups, compares and moves
// exactly like a Ptr; only Get differs. Like a Ptr it must be Reset.
type Const[T any] struct {
	ref[T]
}

func (p *Const[T]) target() *member {
	if p == nil {
		return nil
	}
	return p.ref.target()
}

// Get returns a copy of the payload. It panics if p is empty.
//
// The copy is shallow: slices, maps and pointers inside the payload are
// shared with it. Payloads that must not be copied, such as ones holding a
// sync.Mutex, should be read through a Ptr.
func (p *Const[T]) Get() T {
	return *p.payload()
}

// Clone returns a new read-only handle to the same member.
func (p *Const[T]) Clone() *Const[T] {
	q := &Const[T]{}
	q.c = p.share()
	return q
}

// Assign rebinds p to other's member. A nil other empties p.
func (p *Const[T]) Assign(other *Const[T]) {
	if other == nil {
		p.Reset()
		return
	}
	p.assign(&other.ref)
}

// ResetTo is an alias of Assign.
func (p *Const[T]) ResetTo(other *Const[T]) {
	p.Assign(other)
}

// Move returns a handle that takes over p's target without touching any
// count. p is left empty.
func (p *Const[T]) Move() *Const[T] {
	q := &Const[T]{}
	q.moveFrom(&p.ref)
	return q
}

// MoveFrom releases p's previous target and takes over other's without
// touching its count. other is left empty.
func (p *Const[T]) MoveFrom(other *Const[T]) {
	if other == nil {
		return
	}
	p.moveFrom(&other.ref)
}

// Weak returns a non-owning handle to p's member. Locking it yields a Ptr.
func (p *Const[T]) Weak() Weak[T] {
	return p.weak()
}

// resolve returns h's live member, or nil for an empty or nil handle.
func resolve(h Handle) *member {
	if h == nil {
		return nil
	}
	return h.target()
}

func sameMember(a, b Handle) bool {
	return resolve(a) == resolve(b)
}

func memberID(h Handle) uint64 {
	if m := resolve(h); m != nil {
		return m.id
	}
	return 0
}

func compareMembers(a, b Handle) int {
	x, y := memberID(a), memberID(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func useCount(h Handle) int {
	if m := resolve(h); m != nil {
		return m.refcount
	}
	return 0
}

func groupUseCount(h Handle) int {
	if m := resolve(h); m != nil {
		return m.group.refcount
	}
	return 0
}

func groupSize(h Handle) int {
	if m := resolve(h); m != nil {
		return len(m.group.members)
	}
	return 0
}

// SameGroup reports whether a and b point into the same live group.
func SameGroup(a, b Handle) bool {
	ma, mb := resolve(a), resolve(b)
	if ma == nil || mb == nil {
		return false
	}
	return ma.group == mb.group
}
