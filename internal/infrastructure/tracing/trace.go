package tracing

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/taskdock/internal/shared/id"
	"go.uber.org/zap"
)

// Header names used to carry trace context across the HTTP boundary
const (
	TraceHeader = "X-Trace-ID"
	SpanHeader  = "X-Span-ID"
)

const spanBuffer = 256

// Span is one timed unit of work inside a trace
type Span struct {
	TraceID  string
	SpanID   string
	ParentID string
	Name     string
	Start    time.Time
	Duration time.Duration
	Status   int
	Err      error
	Tags     map[string]string
}

// SetTag attaches a key/value pair to the span
func (s *Span) SetTag(key, value string) {
	if s.Tags == nil {
		s.Tags = make(map[string]string)
	}
	s.Tags[key] = value
}

// Finish stamps the span duration
func (s *Span) Finish() {
	s.Duration = time.Since(s.Start)
}

// Tracer hands out spans and logs finished ones from a background collector
type Tracer struct {
	service string
	log     *zap.Logger
	spans   chan *Span
	done    chan struct{}
	once    sync.Once
}

// New starts a tracer for service
func New(service string, log *zap.Logger) *Tracer {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracer{
		service: service,
		log:     log,
		spans:   make(chan *Span, spanBuffer),
		done:    make(chan struct{}),
	}
	go t.collect()
	return t
}

type ctxKey int

const (
	traceKey ctxKey = iota
	spanKey
)

// StartSpan opens a span, joining the trace already on ctx if there is one
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID := TraceID(ctx)
	if traceID == "" {
		traceID = id.NewTraceID()
	}
	span := &Span{
		TraceID:  traceID,
		SpanID:   id.NewSpanID(),
		ParentID: SpanID(ctx),
		Name:     name,
		Start:    time.Now(),
	}
	ctx = context.WithValue(ctx, traceKey, span.TraceID)
	ctx = context.WithValue(ctx, spanKey, span.SpanID)
	return span, ctx
}

// Submit queues a finished span. Spans are dropped when the buffer is full
// or the tracer is closed.
func (t *Tracer) Submit(span *Span) {
	select {
	case <-t.done:
		return
	default:
	}
	select {
	case t.spans <- span:
	default:
		t.log.Warn("span buffer full, dropping span",
			zap.String("trace_id", span.TraceID),
			zap.String("name", span.Name))
	}
}

// Close stops the collector
func (t *Tracer) Close() {
	t.once.Do(func() { close(t.done) })
}

func (t *Tracer) collect() {
	for {
		select {
		case span := <-t.spans:
			t.emit(span)
		case <-t.done:
			return
		}
	}
}

func (t *Tracer) emit(span *Span) {
	fields := []zap.Field{
		zap.String("service", t.service),
		zap.String("trace_id", span.TraceID),
		zap.String("span_id", span.SpanID),
		zap.String("name", span.Name),
		zap.Duration("duration", span.Duration),
	}
	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", span.ParentID))
	}
	if span.Status != 0 {
		fields = append(fields, zap.Int("status", span.Status))
	}
	for k, v := range span.Tags {
		fields = append(fields, zap.String(k, v))
	}
	if span.Err != nil {
		t.log.Warn("span failed", append(fields, zap.Error(span.Err))...)
		return
	}
	t.log.Debug("span", fields...)
}

// TraceID returns the trace carried by ctx, or ""
func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(traceKey).(string)
	return v
}

// SpanID returns the current span carried by ctx, or ""
func SpanID(ctx context.Context) string {
	v, _ := ctx.Value(spanKey).(string)
	return v
}

// WithParent seeds ctx with an inbound trace context
func WithParent(ctx context.Context, traceID, spanID string) context.Context {
	if traceID != "" {
		ctx = context.WithValue(ctx, traceKey, traceID)
	}
	if spanID != "" {
		ctx = context.WithValue(ctx, spanKey, spanID)
	}
	return ctx
}
