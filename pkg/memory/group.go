package memory

import (
	"io"
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Grouped Reference Counting
//
// A plain reference count keeps exactly one object alive. Here the unit of
// liveness is a group: every payload is wrapped in a member, every member
// belongs to exactly one group, and a group stays alive while the sum of its
// members' counts is positive. A member with no handles of its own survives
// as long as some other member of its group is still referenced.
//
//   group.refcount == Σ member.refcount over group.members
//
// When group.refcount reaches 0 every member count is 0 too, so the whole
// group is destroyed in one step: each member is marked dead, then each
// payload is released.
//
// Groups change shape through migration (one member moves) and merge (all
// members move). Not safe for concurrent use; callers synchronize.

// member is the bookkeeping record for one payload.
type member struct {
	id       uint64
	group    *group
	refcount int
	dead     bool
	destroy  func() error
}

// group owns a set of members and their aggregate count.
type group struct {
	refcount int
	members  map[*member]struct{}
}

// Global member ID counter
var nextMemberID uint64

func newGroup() *group {
	stats.groupsCreated.Add(1)
	return &group{members: make(map[*member]struct{})}
}

func (g *group) insert(m *member) {
	g.members[m] = struct{}{}
	m.group = g
}

func (g *group) remove(m *member) {
	delete(g.members, m)
}

// sorted returns the members ordered by creation, so destruction order is
// reproducible.
func (g *group) sorted() []*member {
	ms := make([]*member, 0, len(g.members))
	for m := range g.members {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].id < ms[j].id })
	return ms
}

// free destroys the group and every member it owns. All members are marked
// dead before any payload is released, so handles dropped from inside a
// release step see a dead target and leave the counts alone.
func (g *group) free() {
	ms := g.sorted()
	g.members = nil
	stats.groupsDestroyed.Add(1)

	for _, m := range ms {
		m.dead = true
		m.group = nil
	}
	for _, m := range ms {
		stats.membersDestroyed.Add(1)
		if err := m.destroy(); err != nil {
			reportError(errors.Wrapf(err, "release member %d", m.id))
		}
	}
}

// cell is a member carrying a payload of type T.
type cell[T any] struct {
	member
	p       *T
	release func(*T)
}

func newCell[T any](p *T, release func(*T)) *cell[T] {
	c := &cell[T]{p: p, release: release}
	c.id = atomic.AddUint64(&nextMemberID, 1)
	c.destroy = c.free
	stats.membersCreated.Add(1)

	g := newGroup()
	g.insert(&c.member)
	return c
}

// free runs the payload's release step exactly once.
func (c *cell[T]) free() error {
	p := c.p
	c.p = nil
	if p == nil {
		return nil
	}
	if c.release != nil {
		c.release(p)
		return nil
	}
	if closer, ok := any(p).(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// acquire counts one more handle on m.
func (m *member) acquire() {
	m.refcount++
	m.group.refcount++
}

// drop counts one less handle on m and destroys its group at zero.
func (m *member) drop() {
	if m.dead {
		return
	}
	m.refcount--
	g := m.group
	g.refcount--
	if g.refcount == 0 {
		g.free()
	}
}

var errorHandler atomic.Pointer[func(error)]

// SetErrorHandler installs fn to receive errors returned by payload Close
// methods during group destruction. A nil fn discards them.
func SetErrorHandler(fn func(error)) {
	if fn == nil {
		errorHandler.Store(nil)
		return
	}
	errorHandler.Store(&fn)
}

func reportError(err error) {
	if fn := errorHandler.Load(); fn != nil {
		(*fn)(err)
	}
}

// Stats is a snapshot of process-wide lifetime counters.
type Stats struct {
	MembersCreated   int64
	MembersDestroyed int64
	GroupsCreated    int64
	GroupsDestroyed  int64
	Migrations       int64
	Merges           int64
}

var stats struct {
	membersCreated   atomic.Int64
	membersDestroyed atomic.Int64
	groupsCreated    atomic.Int64
	groupsDestroyed  atomic.Int64
	migrations       atomic.Int64
	merges           atomic.Int64
}

// ReadStats returns current statistics
func ReadStats() Stats {
	return Stats{
		MembersCreated:   stats.membersCreated.Load(),
		MembersDestroyed: stats.membersDestroyed.Load(),
		GroupsCreated:    stats.groupsCreated.Load(),
		GroupsDestroyed:  stats.groupsDestroyed.Load(),
		Migrations:       stats.migrations.Load(),
		Merges:           stats.merges.Load(),
	}
}

// LiveMembers returns members created but not yet destroyed.
func (s Stats) LiveMembers() int64 {
	return s.MembersCreated - s.MembersDestroyed
}

// LiveGroups returns groups created but not yet destroyed or absorbed.
func (s Stats) LiveGroups() int64 {
	return s.GroupsCreated - s.GroupsDestroyed
}
