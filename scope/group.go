package scope

import "slices"

// GroupListenerFn receives the latest value of every expression in a group,
// in the order the expressions were given.
type GroupListenerFn func(newValues, oldValues []any, s *Scope) error

// WatchGroup watches several expressions and calls listenerFn at most once
// per digest pass in which any of them changed. The call is queued as an
// async task, so it sees every change made in that pass. On the first call
// oldValues equals newValues.
//
// An empty group still calls listenerFn once, with empty slices, unless it
// is deregistered before the next digest.
func (s *Scope) WatchGroup(fns []WatchFn, listenerFn GroupListenerFn) (deregister func()) {
	newValues := make([]any, len(fns))
	oldValues := make([]any, len(fns))

	if len(fns) == 0 {
		cancelled := false
		s.ScheduleAsync(func(s *Scope, _ any) (any, error) {
			if cancelled {
				return nil, nil
			}
			return nil, listenerFn(newValues, newValues, s)
		})
		return func() { cancelled = true }
	}

	var (
		scheduled bool
		first     = true
	)
	fire := func(s *Scope, _ any) (any, error) {
		scheduled = false
		current := slices.Clone(newValues)
		if first {
			first = false
			return nil, listenerFn(current, slices.Clone(current), s)
		}
		return nil, listenerFn(current, slices.Clone(oldValues), s)
	}

	deregs := make([]func(), len(fns))
	for i, fn := range fns {
		deregs[i] = s.Watch(fn, func(newValue, oldValue any, s *Scope) error {
			newValues[i] = newValue
			oldValues[i] = oldValue
			if !scheduled {
				scheduled = true
				s.ScheduleAsync(fire)
			}
			return nil
		}, false)
	}

	return func() {
		for _, d := range deregs {
			d()
		}
	}
}
