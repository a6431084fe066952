package memory

// Weak observes a member without counting toward it. It is the handle for
// back-references (child to parent, object to itself): liveness flows
// through grouping, and a Weak never keeps a group alive.
//
// Weak values may be copied freely. The zero value is expired.
type Weak[T any] struct {
	c *cell[T]
}

// NewWeak returns a weak handle to p's member. An empty p yields an expired
// Weak.
func NewWeak[T any](p *Ptr[T]) Weak[T] {
	if p == nil {
		return Weak[T]{}
	}
	return p.weak()
}

// Lock returns a new strong handle to the member if its group is still
// alive, or an empty handle otherwise.
func (w Weak[T]) Lock() *Ptr[T] {
	if w.Expired() {
		return &Ptr[T]{}
	}
	w.c.acquire()
	p := &Ptr[T]{}
	p.c = w.c
	return p
}

// Expired reports whether the member has been destroyed.
func (w Weak[T]) Expired() bool {
	return w.c == nil || w.c.dead
}

// Is reports whether w observes the member h points at.
func (w Weak[T]) Is(h Handle) bool {
	if w.Expired() {
		return false
	}
	return &w.c.member == resolve(h)
}
