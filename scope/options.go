package scope

import "log/slog"

// Option configures a tree created by NewRoot.
type Option func(*tree)

// WithTTL sets how many dirty passes a digest tolerates. Values below one
// are ignored.
func WithTTL(ttl int) Option {
	return func(t *tree) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithLogger sets the logger used to report recovered failures.
func WithLogger(logger *slog.Logger) Option {
	return func(t *tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithErrorHandler registers a callback invoked, after logging, for every
// failure that is recovered inside a digest or queue drain.
func WithErrorHandler(onError ErrorHandler) Option {
	return func(t *tree) {
		t.onError = onError
	}
}

// WithScheduler sets where deferred digests are queued.
func WithScheduler(scheduler Scheduler) Option {
	return func(t *tree) {
		t.scheduler = scheduler
	}
}

// WithEqualer replaces the deep equality used by structural watchers.
func WithEqualer(equal Equaler) Option {
	return func(t *tree) {
		if equal != nil {
			t.equal = equal
		}
	}
}

// WithCopier replaces the deep copy used to cache structural watch values.
func WithCopier(clone Copier) Option {
	return func(t *tree) {
		if clone != nil {
			t.clone = clone
		}
	}
}

func WithObserver(observers ...DigestObserver) Option {
	return func(t *tree) {
		t.observers = append(t.observers, observers...)
	}
}
