package scope

import "time"

// Digest runs watchers across the whole tree, starting from the root no
// matter which scope it is called on, until a full pass finds nothing dirty.
//
// It returns ErrPhaseInProgress if a digest or apply is already running and
// a *TTLError when the tree is still dirty after the configured number of
// passes. Failures inside watch, listener and queued functions are logged,
// passed to the error handler and never returned.
func (s *Scope) Digest() error {
	return s.root.digest()
}

func (r *Scope) digest() (err error) {
	t := r.tree
	if err := t.beginPhase(PhaseDigest); err != nil {
		return err
	}

	var stats DigestStats
	start := time.Now()
	t.digestStarted(r)
	defer func() {
		stats.Duration = time.Since(start)
		t.digestFinished(r, stats, err)
	}()

	r.lastDirtyWatch = nil
	ttl := t.ttl
	for {
		t.drainAsync(&stats)

		dirty := r.digestOnce(&stats)
		stats.Passes++

		if !dirty && len(t.asyncQueue) == 0 {
			break
		}
		ttl--
		if ttl <= 0 {
			t.clearPhase()
			return &TTLError{TTL: t.ttl}
		}
	}
	t.clearPhase()

	t.drainPostDigest(&stats)
	return nil
}

// digestOnce makes one pre-order pass over the tree. Within a scope the
// watcher list is walked from the back, so watchers fire in the order they
// were registered. The walk stops as soon as it meets, clean, the watcher
// that was last found dirty anywhere in the tree: everything after it was
// already seen clean.
func (r *Scope) digestOnce(stats *DigestStats) (dirty bool) {
	t := r.tree
	r.everyScope(func(s *Scope) bool {
		// Watch and deregister shift visitIndex so the walk neither skips
		// nor repeats watchers when the list changes underneath it.
		defer func() { s.visitIndex = -1 }()
		for s.visitIndex = len(s.watchers) - 1; s.visitIndex >= 0; s.visitIndex-- {
			w := s.watchers[s.visitIndex]

			stats.Evaluations++
			newValue, err := s.callWatch(w)
			if err != nil {
				stats.Errors++
				t.report(s, StageWatch, err)
				continue
			}

			oldValue := w.last
			if oldValue == initWatchVal || !t.areEqual(newValue, oldValue, w.valueEq) {
				dirty = true
				stats.DirtyWatchers++
				r.lastDirtyWatch = w
				if w.valueEq {
					w.last = t.clone(newValue)
				} else {
					w.last = newValue
				}
				if oldValue == initWatchVal {
					oldValue = newValue
				}
				if err := s.callListener(w, newValue, oldValue); err != nil {
					stats.Errors++
					t.report(s, StageListener, err)
				}
			} else if r.lastDirtyWatch == w {
				return false
			}
		}
		return true
	})
	return dirty
}
