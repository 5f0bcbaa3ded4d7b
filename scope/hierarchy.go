package scope

import "slices"

// SpawnChild creates a child of s. A non-isolated child reads through to the
// parent's properties; an isolated child starts with an independent store.
// Both share the tree's queues and phase and are digested from the root.
func (s *Scope) SpawnChild(isolated bool) *Scope {
	child := &Scope{
		id:         s.tree.nextID(),
		parent:     s,
		root:       s.root,
		isolated:   isolated,
		tree:       s.tree,
		visitIndex: -1,
	}
	if isolated {
		child.props = newProperties(nil)
	} else {
		child.props = newProperties(s.props)
	}
	s.children = append(s.children, child)
	return child
}

// Destroy detaches s from its parent so it, and everything below it, stops
// being digested. It is a no-op on the root and when already destroyed.
// The detached scopes keep their state and property delegation.
func (s *Scope) Destroy() {
	if s.IsRoot() || s.destroyed {
		return
	}
	s.destroyed = true
	siblings := s.parent.children
	if i := slices.Index(siblings, s); i >= 0 {
		s.parent.children = slices.Delete(siblings, i, i+1)
	}
}

// IsDestroyed reports whether Destroy was called on s. Descendants of a
// destroyed scope are unreachable but not themselves marked.
func (s *Scope) IsDestroyed() bool {
	return s.destroyed
}

// everyScope visits s and then, only while fn returns true, its
// descendants in pre-order. It returns false once any visit stopped the walk.
// Children destroyed during the walk are skipped.
func (s *Scope) everyScope(fn func(*Scope) bool) bool {
	if !fn(s) {
		return false
	}
	for _, child := range slices.Clone(s.children) {
		if child.destroyed {
			continue
		}
		if !child.everyScope(fn) {
			return false
		}
	}
	return true
}
