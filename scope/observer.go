package scope

import "time"

// DigestStats describes one call to Digest.
type DigestStats struct {
	Passes          int
	Evaluations     int
	DirtyWatchers   int
	AsyncTasks      int
	PostDigestTasks int
	Errors          int
	Duration        time.Duration
}

// DigestObserver is notified around every digest that actually starts.
// A digest rejected with ErrPhaseInProgress is not observed.
// Observers run on the digesting goroutine and must not digest themselves.
type DigestObserver interface {
	DigestStarted(root *Scope)
	DigestFinished(root *Scope, stats DigestStats, err error)
}

func (t *tree) digestStarted(root *Scope) {
	for _, o := range t.observers {
		o.DigestStarted(root)
	}
}

func (t *tree) digestFinished(root *Scope, stats DigestStats, err error) {
	for _, o := range t.observers {
		o.DigestFinished(root, stats, err)
	}
}
