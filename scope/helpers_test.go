package scope_test

import (
	"sync"
	"testing"

	"github.com/delaneyj/digestparty/internal/logging"
	"github.com/delaneyj/digestparty/scope"
)

func newRoot(t *testing.T, opts ...scope.Option) *scope.Scope {
	t.Helper()
	return scope.NewRoot(append([]scope.Option{scope.WithLogger(logging.NewNop())}, opts...)...)
}

// prop watches a single property.
func prop(key string) scope.WatchFn {
	return func(s *scope.Scope) (any, error) {
		v, _ := s.Get(key)
		return v, nil
	}
}

func intProp(s *scope.Scope, key string) int {
	v, _ := scope.Value[int](s, key)
	return v
}

func increment(s *scope.Scope, key string) {
	s.Set(key, intProp(s, key)+1)
}

type errorLog struct {
	mu   sync.Mutex
	errs []*scope.StageError
}

func (l *errorLog) handler() scope.Option {
	return scope.WithErrorHandler(func(_ *scope.Scope, err error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.errs = append(l.errs, err.(*scope.StageError))
	})
}

func (l *errorLog) stages() []scope.Stage {
	l.mu.Lock()
	defer l.mu.Unlock()
	stages := make([]scope.Stage, len(l.errs))
	for i, err := range l.errs {
		stages[i] = err.Stage
	}
	return stages
}

type statsRecorder struct {
	started  int
	finished []scope.DigestStats
	errs     []error
}

func (r *statsRecorder) DigestStarted(*scope.Scope) {
	r.started++
}

func (r *statsRecorder) DigestFinished(_ *scope.Scope, stats scope.DigestStats, err error) {
	r.finished = append(r.finished, stats)
	r.errs = append(r.errs, err)
}

func (r *statsRecorder) last() scope.DigestStats {
	return r.finished[len(r.finished)-1]
}

// mutualIncrement registers two watchers that keep dirtying each other.
func mutualIncrement(s *scope.Scope) {
	s.Set("counterA", 0)
	s.Set("counterB", 0)
	s.Watch(prop("counterA"), func(_, _ any, s *scope.Scope) error {
		increment(s, "counterB")
		return nil
	}, false)
	s.Watch(prop("counterB"), func(_, _ any, s *scope.Scope) error {
		increment(s, "counterA")
		return nil
	}, false)
}
