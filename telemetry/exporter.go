package telemetry

import (
	"context"
	"encoding/hex"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SlogSpanExporter implements sdktrace.SpanExporter by writing every
// finished span as one structured log record. It lets `--log-level debug`
// show the turn / llm / tool span tree without running a collector.
//
// Export never fails; records are dropped once the exporter is shut down.
type SlogSpanExporter struct {
	logger *slog.Logger
	level  slog.Level

	mu      sync.Mutex
	stopped bool
}

// NewSlogSpanExporter creates an exporter logging at the given level.
func NewSlogSpanExporter(logger *slog.Logger, level slog.Level) *SlogSpanExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSpanExporter{
		logger: logger.With("component", "telemetry"),
		level:  level,
	}
}

// ExportSpans logs each span.
func (e *SlogSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	stopped := e.stopped
	e.mu.Unlock()
	if stopped || len(spans) == 0 {
		return nil
	}

	for _, span := range spans {
		e.logger.LogAttrs(ctx, e.level, "span", spanAttrs(span)...)
	}
	return nil
}

// Shutdown stops further exports.
func (e *SlogSpanExporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
	return nil
}

func spanAttrs(span sdktrace.ReadOnlySpan) []slog.Attr {
	sc := span.SpanContext()
	traceID := sc.TraceID()
	spanID := sc.SpanID()

	attrs := []slog.Attr{
		slog.String("name", span.Name()),
		slog.String("trace_id", hex.EncodeToString(traceID[:])),
		slog.String("span_id", hex.EncodeToString(spanID[:])),
		slog.Duration("duration", span.EndTime().Sub(span.StartTime())),
	}

	if span.Parent().IsValid() {
		parentID := span.Parent().SpanID()
		attrs = append(attrs, slog.String("parent_span_id", hex.EncodeToString(parentID[:])))
	}

	status := span.Status()
	switch status.Code {
	case codes.Error:
		attrs = append(attrs, slog.String("status", "error"), slog.String("status_message", status.Description))
	case codes.Ok:
		attrs = append(attrs, slog.String("status", "ok"))
	}

	if kvs := span.Attributes(); len(kvs) > 0 {
		group := make([]any, 0, len(kvs))
		for _, kv := range kvs {
			group = append(group, attributeToSlog(kv))
		}
		attrs = append(attrs, slog.Group("attributes", group...))
	}

	return attrs
}

func attributeToSlog(kv attribute.KeyValue) slog.Attr {
	key := string(kv.Key)
	switch kv.Value.Type() {
	case attribute.BOOL:
		return slog.Bool(key, kv.Value.AsBool())
	case attribute.INT64:
		return slog.Int64(key, kv.Value.AsInt64())
	case attribute.FLOAT64:
		return slog.Float64(key, kv.Value.AsFloat64())
	case attribute.STRING:
		return slog.String(key, kv.Value.AsString())
	default:
		return slog.String(key, kv.Value.Emit())
	}
}
