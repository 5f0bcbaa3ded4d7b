package scope_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/delaneyj/digestparty/internal/logging"
	"github.com/delaneyj/digestparty/loop"
	"github.com/delaneyj/digestparty/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// should evaluate against the scope with the extra argument
func TestEvalImmediate(t *testing.T) {
	s := newRoot(t)
	s.Set("aValue", 42)

	result, err := s.EvalImmediate(func(s *scope.Scope, arg any) (any, error) {
		assert.Equal(t, scope.PhaseIdle, s.Phase())
		return intProp(s, "aValue") + arg.(int), nil
	}, 2)
	require.NoError(t, err)
	assert.Equal(t, 44, result)

	_, err = s.EvalImmediate(func(*scope.Scope, any) (any, error) {
		return nil, errors.New("nope")
	}, nil)
	assert.EqualError(t, err, "nope")
}

// should evaluate the expression and digest
func TestApplyAndDigest(t *testing.T) {
	s := newRoot(t)
	s.Set("aValue", "someValue")

	calls := 0
	s.Watch(prop("aValue"), func(_, _ any, _ *scope.Scope) error {
		calls++
		return nil
	}, false)
	require.NoError(t, s.Digest())

	var phase scope.Phase
	result, err := s.ApplyAndDigest(func(s *scope.Scope, _ any) (any, error) {
		phase = s.Phase()
		s.Set("aValue", "someOtherValue")
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, scope.PhaseApply, phase)
	assert.Equal(t, 2, calls)
	assert.Equal(t, scope.PhaseIdle, s.Phase())
}

// should digest from the root when applied on a nested child
func TestApplyAndDigestFromNestedChild(t *testing.T) {
	root := newRoot(t)
	middle := root.SpawnChild(false)
	leaf := middle.SpawnChild(true)

	var rootCalls, middleCalls int
	root.Watch(prop("aValue"), func(_, _ any, _ *scope.Scope) error {
		rootCalls++
		return nil
	}, false)
	middle.Watch(prop("aValue"), func(_, _ any, _ *scope.Scope) error {
		middleCalls++
		return nil
	}, false)

	_, err := leaf.ApplyAndDigest(func(leaf *scope.Scope, _ any) (any, error) {
		leaf.Root().Set("aValue", "abc")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rootCalls)
	assert.Equal(t, 1, middleCalls)
}

// should still digest when the applied expression fails
func TestApplyAndDigestExprFailure(t *testing.T) {
	s := newRoot(t)
	calls := 0
	s.Watch(prop("aValue"), func(_, _ any, _ *scope.Scope) error {
		calls++
		return nil
	}, false)

	bad := errors.New("bad expression")
	_, err := s.ApplyAndDigest(func(*scope.Scope, any) (any, error) {
		return nil, bad
	})
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 1, calls)

	_, err = s.ApplyAndDigest(func(*scope.Scope, any) (any, error) {
		panic("kaboom")
	})
	var panicErr *scope.PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value)
	assert.Equal(t, scope.PhaseIdle, s.Phase())
}

// should propagate non convergence after the expression ran
func TestApplyAndDigestTTL(t *testing.T) {
	s := newRoot(t)
	mutualIncrement(s)

	ran := false
	result, err := s.ApplyAndDigest(func(*scope.Scope, any) (any, error) {
		ran = true
		return 7, nil
	})
	assert.ErrorIs(t, err, scope.ErrDigestTTL)
	assert.True(t, ran)
	assert.Equal(t, 7, result)
	assert.Equal(t, scope.PhaseIdle, s.Phase())
}

// should run async work later in the same digest
func TestScheduleAsyncSameDigest(t *testing.T) {
	s := newRoot(t)
	s.Set("aValue", []int{1, 2, 3})

	evaluatedImmediately := true
	s.Watch(prop("aValue"), func(_, _ any, s *scope.Scope) error {
		s.ScheduleAsync(func(s *scope.Scope, _ any) (any, error) {
			s.Set("asyncEvaluated", true)
			return nil, nil
		})
		_, evaluatedImmediately = s.Get("asyncEvaluated")
		return nil
	}, false)

	require.NoError(t, s.Digest())
	assert.False(t, evaluatedImmediately)
	assert.True(t, s.Has("asyncEvaluated"))
}

// should run async work scheduled by watch functions even when nothing is dirty
func TestScheduleAsyncFromWatchFn(t *testing.T) {
	s := newRoot(t)
	s.Set("aValue", "abc")

	evaluated := 0
	s.Watch(func(s *scope.Scope) (any, error) {
		if evaluated < 2 {
			s.ScheduleAsync(func(*scope.Scope, any) (any, error) {
				evaluated++
				return nil, nil
			})
		}
		v, _ := s.Get("aValue")
		return v, nil
	}, nil, false)

	require.NoError(t, s.Digest())
	assert.Equal(t, 2, evaluated)
}

// should give up when watch functions keep scheduling async work
func TestScheduleAsyncTTL(t *testing.T) {
	s := newRoot(t)
	s.Watch(func(s *scope.Scope) (any, error) {
		s.ScheduleAsync(func(*scope.Scope, any) (any, error) { return nil, nil })
		return "same", nil
	}, nil, false)

	assert.ErrorIs(t, s.Digest(), scope.ErrDigestTTL)
}

// should defer a digest when scheduled outside one, without running it yet
func TestScheduleAsyncDefersDigest(t *testing.T) {
	l := loop.New()
	s := newRoot(t, scope.WithScheduler(l))
	assert.Same(t, l, s.Scheduler())

	calls := 0
	s.Watch(prop("aValue"), func(_, _ any, _ *scope.Scope) error {
		calls++
		return nil
	}, false)

	ran := false
	var phase scope.Phase
	s.ScheduleAsync(func(s *scope.Scope, _ any) (any, error) {
		ran = true
		phase = s.Phase()
		s.Set("aValue", "changed")
		return nil, nil
	})
	s.ScheduleAsync(func(*scope.Scope, any) (any, error) { return nil, nil })

	assert.False(t, ran)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, l.Len())

	assert.Equal(t, 1, l.RunPending())
	assert.True(t, ran)
	assert.Equal(t, scope.PhaseDigest, phase)
	assert.Equal(t, 1, calls)
}

// should not digest twice when the queue was already drained
func TestScheduleAsyncDrainedBeforeDeferred(t *testing.T) {
	l := loop.New()
	rec := &statsRecorder{}
	s := newRoot(t, scope.WithScheduler(l), scope.WithObserver(rec))

	s.ScheduleAsync(func(*scope.Scope, any) (any, error) { return nil, nil })
	require.NoError(t, s.Digest())
	l.RunPending()

	assert.Equal(t, 1, rec.started)
}

// should digest on a running loop without an explicit call
func TestScheduleAsyncOnRunningLoop(t *testing.T) {
	l := loop.New(loop.WithLogger(logging.NewNop()))
	s := newRoot(t, scope.WithScheduler(l))

	calls := 0
	s.Watch(prop("aValue"), func(_, _ any, _ *scope.Scope) error {
		calls++
		return nil
	}, false)

	done := make(chan struct{})
	s.ScheduleAsync(func(s *scope.Scope, _ any) (any, error) {
		s.Set("aValue", 1)
		return nil, nil
	})
	s.SchedulePostDigest(func() error {
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "deferred digest never ran")
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, intProp(s, "aValue"))
}

// should report a deferred digest that fails
func TestDeferredDigestFailure(t *testing.T) {
	l := loop.New()
	errs := &errorLog{}
	s := newRoot(t, scope.WithScheduler(l), errs.handler())
	mutualIncrement(s)

	s.ScheduleAsync(func(*scope.Scope, any) (any, error) { return nil, nil })
	l.RunPending()

	require.Equal(t, []scope.Stage{scope.StageDeferredDigest}, errs.stages())
	assert.ErrorIs(t, errs.errs[0], scope.ErrDigestTTL)
	assert.Equal(t, s.ID(), errs.errs[0].ScopeID)
}

// should keep draining past failing async tasks
func TestAsyncFailuresRecovered(t *testing.T) {
	errs := &errorLog{}
	s := newRoot(t, scope.WithScheduler(loop.New()), errs.handler())
	child := s.SpawnChild(false)

	ran := false
	child.ScheduleAsync(func(*scope.Scope, any) (any, error) {
		panic("async boom")
	})
	s.ScheduleAsync(func(*scope.Scope, any) (any, error) {
		return nil, errors.New("async bad")
	})
	s.ScheduleAsync(func(*scope.Scope, any) (any, error) {
		ran = true
		return nil, nil
	})

	require.NoError(t, s.Digest())
	assert.True(t, ran)
	assert.Equal(t, []scope.Stage{scope.StageAsync, scope.StageAsync}, errs.stages())
	assert.Equal(t, child.ID(), errs.errs[0].ScopeID)
}

// should run post digest work once, after the digest
func TestSchedulePostDigest(t *testing.T) {
	s := newRoot(t)
	calls := 0
	s.SchedulePostDigest(func() error {
		calls++
		assert.Equal(t, scope.PhaseIdle, s.Phase())
		return nil
	})

	assert.Equal(t, 0, calls)
	require.NoError(t, s.Digest())
	assert.Equal(t, 1, calls)
	require.NoError(t, s.Digest())
	assert.Equal(t, 1, calls)
}

// should not include post digest work in the digest
func TestPostDigestNotDigested(t *testing.T) {
	s := newRoot(t)
	s.Set("aValue", "original value")

	s.SchedulePostDigest(func() error {
		s.Set("aValue", "changed value")
		return nil
	})

	var watched any
	s.Watch(prop("aValue"), func(newValue, _ any, _ *scope.Scope) error {
		watched = newValue
		return nil
	}, false)

	require.NoError(t, s.Digest())
	assert.Equal(t, "original value", watched)

	require.NoError(t, s.Digest())
	assert.Equal(t, "changed value", watched)
}

// should run post digest work in order, past failures
func TestPostDigestOrderAndFailures(t *testing.T) {
	errs := &errorLog{}
	s := newRoot(t, errs.handler())
	child := s.SpawnChild(true)

	var order []int
	s.SchedulePostDigest(func() error {
		order = append(order, 1)
		return nil
	})
	child.SchedulePostDigest(func() error {
		panic("post boom")
	})
	s.SchedulePostDigest(func() error {
		order = append(order, 2)
		return errors.New("post bad")
	})
	s.SchedulePostDigest(func() error {
		order = append(order, 3)
		return nil
	})

	require.NoError(t, child.Digest())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, []scope.Stage{scope.StagePostDigest, scope.StagePostDigest}, errs.stages())
	assert.Equal(t, child.ID(), errs.errs[0].ScopeID)
}

// should not run post digest work when the digest fails
func TestPostDigestSkippedOnTTL(t *testing.T) {
	s := newRoot(t)
	mutualIncrement(s)

	ran := false
	s.SchedulePostDigest(func() error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, s.Digest(), scope.ErrDigestTTL)
	assert.False(t, ran)
}
