package tool

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/schema"
	"github.com/zero-day-ai/sabik/toolerr"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExecutor(t *testing.T, tools ...Tool) *Executor {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister(tools...)
	return NewExecutor(reg, WithLogger(quietLogger()), WithRecoveryRegistry(toolerr.NewRecoveryRegistry()))
}

func funcOf(name string, params schema.JSON, fn ExecuteFunc) Tool {
	return MustNew(NewConfig().SetName(name).SetParameters(params).SetExecuteFunc(fn))
}

func TestExecuteUnknownTool(t *testing.T) {
	exec := newTestExecutor(t)

	r := exec.Execute(context.Background(), "foo", `{}`)
	require.True(t, r.IsError())
	assert.Equal(t, "Function 'foo' not found or not implemented by the agent.", r.Message)
	assert.Equal(t, toolerr.CodeUnknownTool, r.Err.Code)
	assert.Equal(t, toolerr.ErrorClassSemantic, r.Err.Class)
}

func TestExecuteArgumentDecodeError(t *testing.T) {
	called := false
	exec := newTestExecutor(t, funcOf("calculator",
		schema.Object(map[string]schema.JSON{"expression": schema.String()}, "expression"),
		func(ctx context.Context, args map[string]any, env *Env) (any, error) {
			called = true
			return nil, nil
		}))

	for _, raw := range []string{`{"expression":`, `2+2`, `{'expression': '2+2'}`} {
		r := exec.Execute(context.Background(), "calculator", raw)
		require.True(t, r.IsError(), raw)
		assert.Equal(t, toolerr.CodeArgumentDecode, r.Err.Code)
		assert.Equal(t, raw, r.Payload["raw_arguments"])
		assert.NotEmpty(t, r.Payload["reason"])
	}
	assert.False(t, called)
}

func TestExecuteNonObjectArgumentsAreShapeErrors(t *testing.T) {
	called := false
	exec := newTestExecutor(t, funcOf("calculator",
		schema.Object(map[string]schema.JSON{"expression": schema.String()}, "expression"),
		func(ctx context.Context, args map[string]any, env *Env) (any, error) {
			called = true
			return nil, nil
		}))

	tests := []struct {
		raw  string
		kind string
	}{
		{`["2+2"]`, "array"},
		{`"2+2"`, "string"},
		{`4`, "number"},
		{`true`, "boolean"},
	}
	for _, tt := range tests {
		r := exec.Execute(context.Background(), "calculator", tt.raw)
		require.True(t, r.IsError(), tt.raw)
		assert.Equal(t, toolerr.CodeArgumentShape, r.Err.Code, tt.raw)
		assert.Equal(t, tt.raw, r.Payload["raw_arguments"])
		assert.Equal(t, "arguments must be a JSON object, got "+tt.kind, r.Payload["reason"])
	}
	assert.False(t, called)
}

func TestExecuteArgumentShapeError(t *testing.T) {
	exec := newTestExecutor(t, funcOf("generate_ai_image",
		schema.Object(map[string]schema.JSON{
			"prompt": schema.String(),
			"width":  schema.Int(),
		}, "prompt"),
		func(ctx context.Context, args map[string]any, env *Env) (any, error) {
			return "unreachable", nil
		}))

	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing required", raw: `{"width": 10}`},
		{name: "wrong type", raw: `{"prompt": 5}`},
		{name: "fractional integer", raw: `{"prompt": "cat", "width": 1.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := exec.Execute(context.Background(), "generate_ai_image", tt.raw)
			require.True(t, r.IsError())
			assert.Equal(t, toolerr.CodeArgumentShape, r.Err.Code)
			assert.Equal(t, tt.raw, r.Payload["raw_arguments"])
		})
	}
}

func TestExecuteEmptyArgumentsMeansEmptyObject(t *testing.T) {
	var got map[string]any
	exec := newTestExecutor(t, funcOf("noop", schema.Object(nil),
		func(ctx context.Context, args map[string]any, env *Env) (any, error) {
			got = args
			return Success("ok", nil), nil
		}))

	r := exec.Execute(context.Background(), "noop", "")
	assert.False(t, r.IsError())
	assert.NotNil(t, got)
	assert.Empty(t, got)

	r = exec.Execute(context.Background(), "noop", "null")
	assert.False(t, r.IsError())
}

func TestExecuteToolFaults(t *testing.T) {
	exec := newTestExecutor(t,
		funcOf("plain_error", schema.Object(nil), func(ctx context.Context, args map[string]any, env *Env) (any, error) {
			return nil, errors.New("disk on fire")
		}),
		funcOf("typed_error", schema.Object(nil), func(ctx context.Context, args map[string]any, env *Env) (any, error) {
			return nil, toolerr.New("", "fetch", toolerr.CodeTimeout, "took too long")
		}),
		funcOf("panics", schema.Object(nil), func(ctx context.Context, args map[string]any, env *Env) (any, error) {
			panic("boom")
		}),
	)

	r := exec.Execute(context.Background(), "plain_error", "{}")
	require.True(t, r.IsError())
	assert.Equal(t, toolerr.CodeInternalFault, r.Err.Code)
	assert.Contains(t, r.Message, "disk on fire")

	r = exec.Execute(context.Background(), "typed_error", "{}")
	require.True(t, r.IsError())
	assert.Equal(t, toolerr.CodeTimeout, r.Err.Code)
	assert.Equal(t, "typed_error", r.Err.Tool)
	assert.Equal(t, toolerr.ErrorClassTransient, r.Err.Class)

	r = exec.Execute(context.Background(), "panics", "{}")
	require.True(t, r.IsError())
	assert.Equal(t, toolerr.CodeInternalFault, r.Err.Code)
	assert.Contains(t, r.Message, "boom")
}

func TestExecuteNonStandardResult(t *testing.T) {
	exec := newTestExecutor(t, funcOf("legacy", schema.Object(nil),
		func(ctx context.Context, args map[string]any, env *Env) (any, error) {
			return "just a string", nil
		}))

	r := exec.Execute(context.Background(), "legacy", "{}")
	assert.Equal(t, StatusSuccess, r.Status)
	assert.True(t, r.NonStandard)
	assert.Equal(t, "just a string", r.Payload["result"])
}

func TestExecuteBatchKeepsRequestOrder(t *testing.T) {
	var running, peak atomic.Int32
	sleepy := funcOf("sleepy",
		schema.Object(map[string]schema.JSON{"ms": schema.Int()}, "ms"),
		func(ctx context.Context, args map[string]any, env *Env) (any, error) {
			n := running.Add(1)
			defer running.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Duration(args["ms"].(float64)) * time.Millisecond)
			return Success("slept", map[string]any{"ms": args["ms"]}), nil
		})

	reg := NewRegistry()
	reg.MustRegister(sleepy)
	exec := NewExecutor(reg, WithLogger(quietLogger()), WithMaxConcurrency(2))

	calls := []llm.ToolCall{
		{ID: "a", Name: "sleepy", Arguments: `{"ms": 60}`},
		{ID: "b", Name: "sleepy", Arguments: `{"ms": 30}`},
		{ID: "c", Name: "missing", Arguments: `{}`},
		{ID: "d", Name: "sleepy", Arguments: `{"ms": 1}`},
	}
	results := exec.ExecuteBatch(context.Background(), calls)
	require.Len(t, results, 4)

	assert.Equal(t, float64(60), results[0].Payload["ms"])
	assert.Equal(t, float64(30), results[1].Payload["ms"])
	assert.Equal(t, toolerr.CodeUnknownTool, results[2].Err.Code)
	assert.Equal(t, float64(1), results[3].Payload["ms"])
	assert.LessOrEqual(t, peak.Load(), int32(2))

	assert.Empty(t, exec.ExecuteBatch(context.Background(), nil))
}

func TestExecuteRecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	reg := NewRegistry()
	exec := NewExecutor(reg, WithLogger(quietLogger()), WithTracer(tp.Tracer("test")))

	exec.ExecuteCall(context.Background(), llm.ToolCall{ID: "call_1", Name: "nope"})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "sabik.tool", spans[0].Name())
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}
