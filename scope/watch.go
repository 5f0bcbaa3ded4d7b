package scope

import "slices"

// WatchFn returns the value a watcher observes on s.
type WatchFn func(s *Scope) (any, error)

// ListenerFn reacts to a change. On a watcher's first evaluation oldValue is
// the same as newValue.
type ListenerFn func(newValue, oldValue any, s *Scope) error

type sentinel struct{ name string }

// initWatchVal marks a watcher that has never been evaluated. It can not
// collide with any value a WatchFn returns, nil included.
var initWatchVal = &sentinel{name: "uninitialized"}

type watcher struct {
	watchFn    WatchFn
	listenerFn ListenerFn
	valueEq    bool
	last       any
}

func noopListener(newValue, oldValue any, s *Scope) error {
	return nil
}

// Watch registers a watcher on s and returns the function that removes it.
// A nil listener is allowed for watch functions run for their side effects.
// valueEq selects structural comparison; the cached value is then a deep
// copy so in-place mutation of the live value is still detected.
//
// The returned function is idempotent and safe to call from any watch or
// listener function, including during a digest over this very scope.
func (s *Scope) Watch(watchFn WatchFn, listenerFn ListenerFn, valueEq bool) (deregister func()) {
	if listenerFn == nil {
		listenerFn = noopListener
	}
	w := &watcher{
		watchFn:    watchFn,
		listenerFn: listenerFn,
		valueEq:    valueEq,
		last:       initWatchVal,
	}

	s.watchers = slices.Insert(s.watchers, 0, w)
	if s.visitIndex >= 0 {
		s.visitIndex++
	}
	s.root.lastDirtyWatch = nil

	return func() {
		i := slices.Index(s.watchers, w)
		if i < 0 {
			return
		}
		s.watchers = slices.Delete(s.watchers, i, i+1)
		if i < s.visitIndex {
			s.visitIndex--
		}
		s.root.lastDirtyWatch = nil
	}
}

// WatchDeep is Watch with structural comparison.
func (s *Scope) WatchDeep(watchFn WatchFn, listenerFn ListenerFn) (deregister func()) {
	return s.Watch(watchFn, listenerFn, true)
}

func (s *Scope) callWatch(w *watcher) (v any, err error) {
	err = protect(func() error {
		v, err = w.watchFn(s)
		return err
	})
	return v, err
}

func (s *Scope) callListener(w *watcher, newValue, oldValue any) error {
	return protect(func() error {
		return w.listenerFn(newValue, oldValue, s)
	})
}
