package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments recorded by the orchestrator, the tool
// executor and the feed monitor. A nil *Metrics records nothing.
type Metrics struct {
	turns          metric.Int64Counter
	llmCalls       metric.Int64Counter
	toolCalls      metric.Int64Counter
	toolDuration   metric.Float64Histogram
	feedEvents     metric.Int64Counter
	feedReconnects metric.Int64Counter
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.turns, err = meter.Int64Counter("sabik.turns",
		metric.WithDescription("Conversation turns by final status"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if m.llmCalls, err = meter.Int64Counter("sabik.llm.calls",
		metric.WithDescription("LLM completion calls"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if m.toolCalls, err = meter.Int64Counter("sabik.tool.calls",
		metric.WithDescription("Tool executions by status"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if m.toolDuration, err = meter.Float64Histogram("sabik.tool.duration",
		metric.WithDescription("Tool execution duration in milliseconds"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.feedEvents, err = meter.Int64Counter("sabik.feed.events",
		metric.WithDescription("Events received from feeds"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if m.feedReconnects, err = meter.Int64Counter("sabik.feed.reconnects",
		metric.WithDescription("Feed reconnect attempts by cause"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordTurn counts a finished turn.
func (m *Metrics) RecordTurn(ctx context.Context, status string, iterations int) {
	if m == nil {
		return
	}
	m.turns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
		attribute.Int("iterations", iterations),
	))
}

// RecordLLMCall counts one completion call.
func (m *Metrics) RecordLLMCall(ctx context.Context, model string, ok bool) {
	if m == nil {
		return
	}
	m.llmCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.Bool("ok", ok),
	))
}

// RecordToolCall counts one tool execution and its duration.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	)
	m.toolCalls.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, float64(d.Microseconds())/1000.0, attrs)
}

// RecordFeedEvent counts one delivered feed event.
func (m *Metrics) RecordFeedEvent(ctx context.Context, feed string, raw bool) {
	if m == nil {
		return
	}
	m.feedEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("feed", feed),
		attribute.Bool("raw", raw),
	))
}

// RecordFeedReconnect counts one backoff before reconnecting.
func (m *Metrics) RecordFeedReconnect(ctx context.Context, feed, cause string) {
	if m == nil {
		return
	}
	m.feedReconnects.Add(ctx, 1, metric.WithAttributes(
		attribute.String("feed", feed),
		attribute.String("cause", cause),
	))
}
