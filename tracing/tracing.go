// Package tracing wraps every digest in an OpenTelemetry span.
package tracing

import (
	"context"
	"sync"

	"github.com/delaneyj/digestparty/scope"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTracerName = "github.com/delaneyj/digestparty"
	SpanName          = "scope.digest"
)

type Config struct {
	// TracerName is the name of the tracer (default: the module path).
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: otel.GetTracerProvider()
	TracerProvider trace.TracerProvider

	// Context is the parent of every digest span (default: context.Background()).
	Context context.Context
}

type Option func(*Config)

func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = provider
	}
}

func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

// Observer is a scope.DigestObserver that starts a span when a digest
// starts and ends it, annotated with the digest stats, when it finishes.
// One Observer may be shared by several trees.
type Observer struct {
	tracer trace.Tracer
	ctx    context.Context

	mu    sync.Mutex
	spans map[*scope.Scope]trace.Span
}

var _ scope.DigestObserver = (*Observer)(nil)

func New(opts ...Option) *Observer {
	config := Config{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	if config.Context == nil {
		config.Context = context.Background()
	}

	return &Observer{
		tracer: config.TracerProvider.Tracer(config.TracerName),
		ctx:    config.Context,
		spans:  map[*scope.Scope]trace.Span{},
	}
}

func (o *Observer) DigestStarted(root *scope.Scope) {
	_, span := o.tracer.Start(o.ctx, SpanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int64("scope.root_id", int64(root.ID()))),
	)

	o.mu.Lock()
	o.spans[root] = span
	o.mu.Unlock()
}

func (o *Observer) DigestFinished(root *scope.Scope, stats scope.DigestStats, err error) {
	o.mu.Lock()
	span, ok := o.spans[root]
	delete(o.spans, root)
	o.mu.Unlock()
	if !ok {
		return
	}

	span.SetAttributes(
		attribute.Int("digest.passes", stats.Passes),
		attribute.Int("digest.evaluations", stats.Evaluations),
		attribute.Int("digest.dirty_watchers", stats.DirtyWatchers),
		attribute.Int("digest.async_tasks", stats.AsyncTasks),
		attribute.Int("digest.post_digest_tasks", stats.PostDigestTasks),
		attribute.Int("digest.recovered_errors", stats.Errors),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
