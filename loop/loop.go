// Package loop is a minimal cooperative task queue. Any goroutine may Defer
// work; a single goroutine drains it with RunPending or Run.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	logger *slog.Logger
}

type Option func(*Loop)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Defer queues task to run after everything already queued. It never blocks
// and never runs task itself.
func (l *Loop) Defer(task func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len reports how many tasks are waiting.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// RunPending runs queued tasks in FIFO order until the queue is empty,
// including tasks deferred while it runs, and returns how many ran.
// A panicking task is logged and does not stop the others.
func (l *Loop) RunPending() int {
	ran := 0
	for {
		task, ok := l.pop()
		if !ok {
			return ran
		}
		l.run(task)
		ran++
	}
}

// Run drains the queue whenever work arrives until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil, false
	}
	task := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return task, true
}

func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop: task panicked", "err", fmt.Sprint(r))
		}
	}()
	task()
}
