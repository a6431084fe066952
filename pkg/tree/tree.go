package tree

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"groupptr/pkg/memory"
)

// Tree of interdependent nodes
//
// Every node of a tree lives in one group, so a handle to any node keeps the
// whole tree alive. Links between nodes never count: children are reached
// through weak handles, the parent through a weak handle, and each node
// keeps a weak handle to itself to hand out strong handles on demand.

var (
	ErrHasParent = errors.New("node already has a parent")
	ErrCycle     = errors.New("node is an ancestor of the new parent")
	ErrNotChild  = errors.New("node is not a child")
)

// Node is a named tree node. Nodes are only reachable through handles
// returned by New.
type Node struct {
	name     string
	log      *slog.Logger
	self     memory.Weak[Node]
	parent   memory.Weak[Node]
	children []memory.Weak[Node]
}

// New creates a detached node in its own group.
func New(log *slog.Logger, name string) *memory.Ptr[Node] {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	n := &Node{name: name, log: log}
	p := memory.New(n)
	n.self = p.Weak()
	log.Debug("node created", "name", name)
	return p
}

// Name returns the node's name.
func (n *Node) Name() string {
	return n.name
}

// Self returns a new strong handle to n.
func (n *Node) Self() *memory.Ptr[Node] {
	return n.self.Lock()
}

// Parent returns a strong handle to n's parent, empty for a root.
func (n *Node) Parent() *memory.Ptr[Node] {
	return n.parent.Lock()
}

// Len returns the number of children.
func (n *Node) Len() int {
	return len(n.children)
}

// Child returns a strong handle to the i'th child.
func (n *Node) Child(i int) *memory.Ptr[Node] {
	return n.children[i].Lock()
}

// Add attaches child, which must be a root, under n. The child's tree joins
// n's group.
func (n *Node) Add(child *memory.Ptr[Node]) error {
	if !child.Valid() {
		return errors.Wrap(memory.ErrEmptyHandle, "add child")
	}
	c := child.Get()
	if !c.parent.Expired() {
		return errors.Wrapf(ErrHasParent, "add %q to %q", c.name, n.name)
	}
	if n.hasAncestor(child) {
		return errors.Wrapf(ErrCycle, "add %q to %q", c.name, n.name)
	}

	self := n.self.Lock()
	defer self.Reset()

	var err error
	if child.GroupSize() == 1 {
		err = memory.AddToGroup(self, child)
	} else {
		err = memory.MergeGroup(self, child)
	}
	if err != nil {
		return errors.Wrapf(err, "add %q to %q", c.name, n.name)
	}

	n.children = append(n.children, child.Weak())
	c.parent = self.Weak()
	n.log.Debug("node attached", "parent", n.name, "child", c.name)
	return nil
}

// Remove detaches child and its subtree from n. The subtree moves into a
// group of its own; whatever is left of n's tree stays alive only as long as
// something still references it.
func (n *Node) Remove(child *memory.Ptr[Node]) error {
	idx := -1
	for i, w := range n.children {
		if w.Is(child) {
			idx = i
			break
		}
	}
	if idx < 0 {
		name := "<empty>"
		if child.Valid() {
			name = child.Get().name
		}
		return errors.Wrapf(ErrNotChild, "remove %q from %q", name, n.name)
	}

	// Keep n's group alive until the subtree is out.
	self := n.self.Lock()
	defer self.Reset()

	n.children = append(n.children[:idx], n.children[idx+1:]...)
	c := child.Get()
	c.parent = memory.Weak[Node]{}

	if err := memory.Detach(child); err != nil {
		return errors.Wrapf(err, "remove %q", c.name)
	}
	for _, w := range c.descendants() {
		d := w.Lock()
		err := memory.AddToGroup(child, d)
		d.Reset()
		if err != nil {
			return errors.Wrapf(err, "remove %q", c.name)
		}
	}
	n.log.Debug("node detached", "parent", n.name, "child", c.name)
	return nil
}

func (n *Node) descendants() []memory.Weak[Node] {
	var out []memory.Weak[Node]
	for _, w := range n.children {
		out = append(out, w)
		if c := w.Lock(); c.Valid() {
			out = append(out, c.Get().descendants()...)
			c.Reset()
		}
	}
	return out
}

// hasAncestor reports whether h is n or one of n's ancestors.
func (n *Node) hasAncestor(h memory.Handle) bool {
	cur := n.self.Lock()
	for cur.Valid() {
		if cur.Equal(h) {
			cur.Reset()
			return true
		}
		next := cur.Get().parent.Lock()
		cur.Reset()
		cur = next
	}
	return false
}

// Walk calls fn for n and every descendant, depth first, until fn returns
// false.
func (n *Node) Walk(fn func(depth int, n *Node) bool) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(int, *Node) bool) bool {
	if !fn(depth, n) {
		return false
	}
	for _, w := range n.children {
		c := w.Lock()
		if !c.Valid() {
			continue
		}
		ok := c.Get().walk(depth+1, fn)
		c.Reset()
		if !ok {
			return false
		}
	}
	return true
}

// Close logs the node's destruction. It is run once, when the node's group
// is destroyed.
func (n *Node) Close() error {
	n.log.Debug("node destroyed", "name", n.name)
	n.children = nil
	return nil
}

// Build creates a complete tree of the given depth and fanout and returns
// its root. Child names are the parent's name plus a dotted index.
func Build(log *slog.Logger, name string, depth, fanout int) (*memory.Ptr[Node], error) {
	root := New(log, name)
	if depth <= 0 {
		return root, nil
	}
	for i := 0; i < fanout; i++ {
		child, err := Build(log, fmt.Sprintf("%s.%d", name, i), depth-1, fanout)
		if err != nil {
			root.Reset()
			return nil, err
		}
		err = root.Get().Add(child)
		child.Reset()
		if err != nil {
			root.Reset()
			return nil, err
		}
	}
	return root, nil
}

// Count returns the number of nodes in n's subtree, n included.
func Count(n *Node) int {
	total := 0
	n.Walk(func(int, *Node) bool {
		total++
		return true
	})
	return total
}
