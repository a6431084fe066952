package memory

import (
	"github.com/pkg/errors"
)

// AddToGroup migrates b's member, and only that member, into a's group.
//
// b's old group loses b's count and b's member. If nothing else in the old
// group is referenced any more, the old group is destroyed along with the
// members left in it. b's member then joins a's group, carrying its count.
//
// When a and b already share a group nothing changes. Either handle being
// empty is rejected with ErrEmptyHandle.
func AddToGroup(a, b Handle) error {
	ma, mb := resolve(a), resolve(b)
	if ma == nil || mb == nil {
		return errors.Wrap(ErrEmptyHandle, "add to group")
	}
	if ma.group == mb.group {
		return nil
	}
	migrate(mb, ma.group)
	return nil
}

// Detach migrates h's member out of its group into a new singleton group.
// The rest of the old group is destroyed if h's member carried all of its
// count.
func Detach(h Handle) error {
	m := resolve(h)
	if m == nil {
		return errors.Wrap(ErrEmptyHandle, "detach")
	}
	if len(m.group.members) == 1 {
		return nil
	}
	migrate(m, newGroup())
	return nil
}

func migrate(m *member, dst *group) {
	src := m.group
	src.refcount -= m.refcount
	src.remove(m)

	// m is out of src already, so only what was left behind goes.
	if src.refcount == 0 {
		src.free()
	}

	dst.insert(m)
	dst.refcount += m.refcount
	stats.migrations.Add(1)
}

// MergeGroup moves every member of b's group into a's group. a's aggregate
// count grows by b's and b's group ceases to exist. No payload is destroyed.
//
// When a and b already share a group nothing changes. Either handle being
// empty is rejected with ErrEmptyHandle.
func MergeGroup(a, b Handle) error {
	ma, mb := resolve(a), resolve(b)
	if ma == nil || mb == nil {
		return errors.Wrap(ErrEmptyHandle, "merge group")
	}
	dst, src := ma.group, mb.group
	if dst == src {
		return nil
	}

	dst.refcount += src.refcount
	for m := range src.members {
		dst.insert(m)
	}
	src.members = nil
	src.refcount = 0

	stats.groupsDestroyed.Add(1)
	stats.merges.Add(1)
	return nil
}
