package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/schema"
	"github.com/zero-day-ai/sabik/telemetry"
	"github.com/zero-day-ai/sabik/toolerr"
)

// DefaultMaxConcurrency bounds ExecuteBatch when no option overrides it.
const DefaultMaxConcurrency = 4

// Executor runs tools by name and turns every outcome into a Result.
// Neither Execute nor ExecuteBatch ever panics or returns an error.
type Executor struct {
	registry       *Registry
	env            *Env
	logger         *slog.Logger
	tracer         trace.Tracer
	metrics        *telemetry.Metrics
	hints          *toolerr.RecoveryRegistry
	maxConcurrency int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithEnv sets the shared context passed to tools.
func WithEnv(env *Env) ExecutorOption {
	return func(e *Executor) {
		e.env = env
	}
}

// WithLogger sets the executor logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithTracer sets the tracer used for per-tool spans.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithMetrics records tool call counts and durations.
func WithMetrics(m *telemetry.Metrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithRecoveryRegistry sets where recovery hints are looked up.
// Defaults to the toolerr package registry.
func WithRecoveryRegistry(r *toolerr.RecoveryRegistry) ExecutorOption {
	return func(e *Executor) {
		e.hints = r
	}
}

// WithMaxConcurrency bounds how many calls ExecuteBatch runs at once.
// Values below 1 mean sequential execution.
func WithMaxConcurrency(n int) ExecutorOption {
	return func(e *Executor) {
		e.maxConcurrency = n
	}
}

// NewExecutor creates an executor over a registry.
func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry:       registry,
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "tool_executor")
	if e.tracer == nil {
		e.tracer = otel.Tracer(telemetry.InstrumentationName)
	}
	if e.env == nil {
		e.env = &Env{}
	}
	if e.env.Logger == nil {
		e.env.Logger = e.logger
	}
	if e.maxConcurrency < 1 {
		e.maxConcurrency = 1
	}

	return e
}

// Registry returns the registry the executor dispatches to.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute runs the named tool with raw JSON arguments.
func (e *Executor) Execute(ctx context.Context, name, rawArguments string) Result {
	return e.ExecuteCall(ctx, llm.ToolCall{Name: name, Arguments: rawArguments})
}

// ExecuteCall runs one tool invocation request.
func (e *Executor) ExecuteCall(ctx context.Context, call llm.ToolCall) Result {
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "sabik.tool",
		trace.WithAttributes(
			attribute.String("tool", call.Name),
			attribute.String("tool_call_id", call.ID),
		))
	defer span.End()

	result := e.execute(ctx, call)
	duration := time.Since(start)

	span.SetAttributes(attribute.String("status", string(result.Status)))
	if result.IsError() {
		span.SetStatus(codes.Error, result.Message)
	}
	e.metrics.RecordToolCall(ctx, call.Name, string(result.Status), duration)

	attrs := []any{
		"tool", call.Name,
		"tool_call_id", call.ID,
		"status", result.Status,
		"duration", duration,
	}
	if result.Err != nil {
		attrs = append(attrs, "code", result.Err.Code)
		e.logger.Warn("tool failed", append(attrs, "message", result.Message)...)
	} else {
		if result.NonStandard {
			attrs = append(attrs, "non_standard", true)
		}
		e.logger.Info("tool executed", attrs...)
	}

	return result
}

// ExecuteBatch runs calls concurrently and returns their results in the
// order of calls, independent of completion order.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []llm.ToolCall) []Result {
	results := make([]Result, len(calls))
	if len(calls) == 0 {
		return results
	}
	if len(calls) == 1 || e.maxConcurrency == 1 {
		for i, call := range calls {
			results[i] = e.ExecuteCall(ctx, call)
		}
		return results
	}

	sem := make(chan struct{}, e.maxConcurrency)
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.ExecuteCall(ctx, call)
		}(i, call)
	}
	wg.Wait()

	return results
}

func (e *Executor) execute(ctx context.Context, call llm.ToolCall) Result {
	t, ok := e.registry.Get(call.Name)
	if !ok {
		return e.fail(toolerr.New(call.Name, "lookup", toolerr.CodeUnknownTool,
			fmt.Sprintf("Function '%s' not found or not implemented by the agent.", call.Name)))
	}

	args, err := decodeArguments(call.Arguments)
	if err != nil {
		return e.fail(toolerr.New(call.Name, "decode", toolerr.CodeArgumentDecode,
			fmt.Sprintf("Invalid JSON arguments for '%s'", call.Name)).
			WithCause(err).
			WithDetails(map[string]any{
				"raw_arguments": call.Arguments,
				"reason":        err.Error(),
			}))
	}

	if err := validateArguments(t.Parameters(), args); err != nil {
		return e.fail(toolerr.New(call.Name, "validate", toolerr.CodeArgumentShape,
			fmt.Sprintf("Invalid arguments for '%s'", call.Name)).
			WithCause(err).
			WithDetails(map[string]any{
				"raw_arguments": call.Arguments,
				"reason":        err.Error(),
				"required":      t.Parameters().Required,
			}))
	}

	out, err := e.invoke(ctx, t, args.(map[string]any))
	if err != nil {
		var te *toolerr.Error
		if !errors.As(err, &te) {
			te = toolerr.New(call.Name, "execute", toolerr.CodeInternalFault,
				fmt.Sprintf("Error executing %s", call.Name)).WithCause(err)
		}
		if te.Tool == "" {
			te.Tool = call.Name
		}
		return e.fail(te)
	}

	return normalize(out)
}

// invoke calls the tool and converts a panic into an internal fault.
func (e *Executor) invoke(ctx context.Context, t Tool, args map[string]any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked",
				"tool", t.Name(),
				"panic", r,
				"stack", string(debug.Stack()))
			out = nil
			err = toolerr.New(t.Name(), "execute", toolerr.CodeInternalFault,
				fmt.Sprintf("Error executing %s: panic: %v", t.Name(), r))
		}
	}()

	return t.Execute(ctx, args, e.env)
}

func (e *Executor) fail(err *toolerr.Error) Result {
	if e.hints != nil {
		e.hints.EnrichError(err)
	} else {
		toolerr.EnrichError(err)
	}
	return Failure(err)
}

// decodeArguments parses the model's argument text. Any valid JSON is
// accepted here; whether it is an object is checked by validateArguments.
func decodeArguments(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	if v == nil {
		// "null"
		return map[string]any{}, nil
	}
	return v, nil
}

func validateArguments(params schema.JSON, v any) error {
	if _, ok := v.(map[string]any); !ok {
		return fmt.Errorf("arguments must be a JSON object, got %s", jsonKind(v))
	}
	return params.Validate(v)
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}
