package scope

import (
	"errors"
	"fmt"
)

// ErrPhaseInProgress is returned when a digest or apply is started while
// another one is active on the same tree.
var ErrPhaseInProgress = errors.New("scope: phase already in progress")

// ErrDigestTTL is wrapped by *TTLError when a digest never settles.
var ErrDigestTTL = errors.New("scope: digest did not converge")

type TTLError struct {
	TTL int
}

func (e *TTLError) Error() string {
	return fmt.Sprintf("scope: %d digest iterations reached", e.TTL)
}

func (e *TTLError) Unwrap() error {
	return ErrDigestTTL
}

// Stage names the point where a recovered failure happened.
type Stage string

const (
	StageWatch          Stage = "watch"
	StageListener       Stage = "listener"
	StageAsync          Stage = "async"
	StagePostDigest     Stage = "postDigest"
	StageDeferredDigest Stage = "deferredDigest"
)

// StageError is what the error handler receives for a failure that was
// recovered instead of aborting the digest.
type StageError struct {
	Stage   Stage
	ScopeID uint64
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("scope %d: %s: %v", e.ScopeID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panicking user function.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// protect runs fn and turns a panic into a *PanicError.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}

func (t *tree) report(s *Scope, stage Stage, err error) {
	t.logger.Error("scope: recovered failure", "scope", s.id, "stage", string(stage), "err", err)
	if t.onError != nil {
		t.onError(s, &StageError{Stage: stage, ScopeID: s.id, Err: err})
	}
}
