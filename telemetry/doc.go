// Package telemetry wires OpenTelemetry tracing and metrics for Sabik.
//
// Spans are exported through SlogSpanExporter, so a trace of a turn shows
// up in the structured log instead of requiring a collector. Metric
// instruments are created on whatever meter the caller supplies; with the
// global no-op provider they cost nothing.
package telemetry
