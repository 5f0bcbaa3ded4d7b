package scope

import "errors"

// EvalFn is an expression evaluated against a scope.
type EvalFn func(s *Scope, arg any) (any, error)

type asyncTask struct {
	scope *Scope
	expr  EvalFn
}

type postDigestTask struct {
	scope *Scope
	fn    func() error
}

// EvalImmediate calls expr with s and arg right away. No phase is entered
// and nothing is queued.
func (s *Scope) EvalImmediate(expr EvalFn, arg any) (any, error) {
	return expr(s, arg)
}

func (s *Scope) evalProtected(expr EvalFn, arg any) (result any, err error) {
	err = protect(func() error {
		result, err = s.EvalImmediate(expr, arg)
		return err
	})
	return result, err
}

// ApplyAndDigest evaluates expr in the apply phase and then digests the
// whole tree from the root. A nil expr only digests. An error or panic from
// expr does not skip the digest; it is returned joined with any digest error.
func (s *Scope) ApplyAndDigest(expr EvalFn) (any, error) {
	t := s.tree
	if err := t.beginPhase(PhaseApply); err != nil {
		return nil, err
	}

	var (
		result  any
		evalErr error
	)
	if expr != nil {
		result, evalErr = s.evalProtected(expr, nil)
	}
	t.clearPhase()

	if err := s.root.digest(); err != nil {
		return result, errors.Join(evalErr, err)
	}
	return result, evalErr
}

// ScheduleAsync queues expr to run against s early in a digest. When this is
// the first task queued outside of any digest or apply, a digest from the
// root is also deferred on the tree's Scheduler, so the task runs even if
// nobody digests explicitly. expr never runs before ScheduleAsync returns.
func (s *Scope) ScheduleAsync(expr EvalFn) {
	t := s.tree
	if t.phase == PhaseIdle && len(t.asyncQueue) == 0 {
		t.scheduler.Defer(t.deferredDigest)
	}
	t.asyncQueue = append(t.asyncQueue, asyncTask{scope: s, expr: expr})
}

// SchedulePostDigest queues fn to run once, after the tree next settles.
func (s *Scope) SchedulePostDigest(fn func() error) {
	t := s.tree
	t.postDigestQueue = append(t.postDigestQueue, postDigestTask{scope: s, fn: fn})
}

func (t *tree) deferredDigest() {
	if len(t.asyncQueue) == 0 {
		return
	}
	if err := t.root.digest(); err != nil {
		t.report(t.root, StageDeferredDigest, err)
	}
}

func (t *tree) drainAsync(stats *DigestStats) {
	for len(t.asyncQueue) > 0 {
		task := t.asyncQueue[0]
		t.asyncQueue[0] = asyncTask{}
		t.asyncQueue = t.asyncQueue[1:]

		stats.AsyncTasks++
		if _, err := task.scope.evalProtected(task.expr, nil); err != nil {
			stats.Errors++
			t.report(task.scope, StageAsync, err)
		}
	}
}

func (t *tree) drainPostDigest(stats *DigestStats) {
	for len(t.postDigestQueue) > 0 {
		task := t.postDigestQueue[0]
		t.postDigestQueue[0] = postDigestTask{}
		t.postDigestQueue = t.postDigestQueue[1:]

		stats.PostDigestTasks++
		if err := protect(task.fn); err != nil {
			stats.Errors++
			t.report(task.scope, StagePostDigest, err)
		}
	}
}
