package scope

import mapset "github.com/deckarep/golang-set/v2"

// properties is a two tier store: a scope's own values, then its parent's
// store on a miss. Isolated scopes and the root have no parent store.
type properties struct {
	own    map[string]any
	parent *properties
}

func newProperties(parent *properties) *properties {
	return &properties{
		own:    map[string]any{},
		parent: parent,
	}
}

func (p *properties) get(key string) (any, bool) {
	for store := p; store != nil; store = store.parent {
		if v, ok := store.own[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Get looks a property up on this scope, falling through to its ancestors
// unless the scope is isolated.
func (s *Scope) Get(key string) (any, bool) {
	return s.props.get(key)
}

// Set always writes to this scope's own store, shadowing any inherited value.
func (s *Scope) Set(key string, value any) {
	s.props.own[key] = value
}

func (s *Scope) Has(key string) bool {
	_, ok := s.props.get(key)
	return ok
}

func (s *Scope) HasOwn(key string) bool {
	_, ok := s.props.own[key]
	return ok
}

// Delete removes a key from this scope's own store. An inherited value with
// the same key becomes visible again.
func (s *Scope) Delete(key string) {
	delete(s.props.own, key)
}

// VisibleKeys returns every property name readable from this scope.
func (s *Scope) VisibleKeys() mapset.Set[string] {
	keys := mapset.NewThreadUnsafeSet[string]()
	for store := s.props; store != nil; store = store.parent {
		for k := range store.own {
			keys.Add(k)
		}
	}
	return keys
}

// Value reads a property and asserts it to T. ok is false when the key is
// missing or holds another type.
func Value[T any](s *Scope, key string) (v T, ok bool) {
	raw, found := s.Get(key)
	if !found {
		return v, false
	}
	v, ok = raw.(T)
	return v, ok
}
