package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/schema"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/toolerr"
	"github.com/zero-day-ai/sabik/tools"
)

// scriptedClient replays responses in order and records every request.
type scriptedClient struct {
	mu       sync.Mutex
	steps    []func(req *llm.CompletionRequest) (*llm.CompletionResponse, error)
	requests []*llm.CompletionRequest
}

func (c *scriptedClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := *req
	snapshot.Messages = append([]llm.Message(nil), req.Messages...)
	c.requests = append(c.requests, &snapshot)

	i := len(c.requests) - 1
	if i >= len(c.steps) {
		i = len(c.steps) - 1
	}
	return c.steps[i](req)
}

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func text(s string) func(*llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return func(*llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{
			Model:   "openai-large",
			Content: s,
			Usage:   llm.TokenUsage{InputTokens: 10, OutputTokens: 2, TotalTokens: 12},
		}, nil
	}
}

func toolCalls(content string, calls ...llm.ToolCall) func(*llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return func(*llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{
			Model:     "openai-large",
			Content:   content,
			ToolCalls: calls,
			Usage:     llm.TokenUsage{InputTokens: 5, OutputTokens: 1, TotalTokens: 6},
		}, nil
	}
}

func fail(err error) func(*llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return func(*llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, err
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newOrchestrator(t *testing.T, client llm.Client, extra []tool.Tool, opts ...Option) *Orchestrator {
	t.Helper()
	reg := tool.NewRegistry()
	require.NoError(t, tools.Register(reg))
	reg.MustRegister(extra...)

	exec := tool.NewExecutor(reg, tool.WithLogger(newTestLogger()))
	return New(client, exec, append([]Option{WithLogger(newTestLogger())}, opts...)...)
}

func toolMessages(msgs []llm.Message) []llm.Message {
	var out []llm.Message
	for _, m := range msgs {
		if m.Role == llm.RoleTool {
			out = append(out, m)
		}
	}
	return out
}

func TestRunTurnPlainAnswer(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){text("Hello.")}}
	o := newOrchestrator(t, client, nil)

	res := o.RunTurn(context.Background(), "hi")

	assert.Equal(t, StatusFinal, res.Status)
	assert.Equal(t, "Hello.", res.Text)
	assert.Equal(t, 0, res.Iterations)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, client.calls())
	assert.Equal(t, 12, res.Usage.TotalTokens)

	req := client.requests[0]
	assert.Equal(t, llm.ToolChoiceAuto, req.ToolChoice)
	require.Len(t, req.Tools, 6)
	assert.Equal(t, tools.NameGenerateImage, req.Tools[0].Name)
	assert.Equal(t, tools.NameCalculator, req.Tools[5].Name)

	transcript := o.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, llm.RoleSystem, transcript[0].Role)
	assert.Equal(t, DefaultSystemPrompt, transcript[0].Content)
	assert.Equal(t, llm.RoleUser, transcript[1].Role)
	assert.Equal(t, llm.RoleAssistant, transcript[2].Role)
}

func TestRunTurnSystemMessageOnce(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){text("ok")}}
	o := newOrchestrator(t, client, nil, WithSystemPrompt("be brief"))

	for i := 0; i < 4; i++ {
		o.RunTurn(context.Background(), fmt.Sprintf("turn %d", i))
	}

	for _, req := range client.requests {
		assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
		assert.Equal(t, "be brief", req.Messages[0].Content)
	}

	systems := 0
	for _, m := range o.Transcript() {
		if m.Role == llm.RoleSystem {
			systems++
		}
	}
	assert.Equal(t, 1, systems)
	assert.Len(t, o.Transcript(), 1+4*2)
}

func TestRunTurnNoText(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){text("   ")}}
	o := newOrchestrator(t, client, nil)

	res := o.RunTurn(context.Background(), "hi")
	assert.Equal(t, StatusNoText, res.Status)
	assert.Empty(t, res.Text)
	assert.Equal(t, NoTextMarker, res.Display())
	assert.Equal(t, 1, client.calls())
}

func TestRunTurnCalculator(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){
		toolCalls("", llm.ToolCall{ID: "call_1", Name: tools.NameCalculator, Arguments: `{"expression":"2+2"}`}),
		text("2+2 = 4"),
	}}
	o := newOrchestrator(t, client, nil)

	res := o.RunTurn(context.Background(), "what is 2+2?")
	assert.Equal(t, StatusFinal, res.Status)
	assert.Equal(t, "2+2 = 4", res.Text)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 2, client.calls())
	assert.Equal(t, 18, res.Usage.TotalTokens)

	msgs := toolMessages(o.Transcript())
	require.Len(t, msgs, 1)
	assert.Equal(t, "call_1", msgs[0].ToolCallID)
	assert.Equal(t, tools.NameCalculator, msgs[0].Name)

	var content map[string]any
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Content), &content))
	assert.Equal(t, map[string]any{"status": "success", "expression": "2+2", "result": "4"}, content)

	second := client.requests[1].Messages
	assert.Equal(t, llm.RoleTool, second[len(second)-1].Role)
	assert.Equal(t, llm.RoleAssistant, second[len(second)-2].Role)
	require.Len(t, second[len(second)-2].ToolCalls, 1)
}

func TestRunTurnUnknownToolContinues(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){
		toolCalls("", llm.ToolCall{ID: "call_x", Name: "foo", Arguments: `{}`}),
		text("I cannot do that."),
	}}
	o := newOrchestrator(t, client, nil)

	res := o.RunTurn(context.Background(), "use foo")
	assert.Equal(t, StatusFinal, res.Status)
	assert.Equal(t, 2, client.calls())

	msgs := toolMessages(o.Transcript())
	require.Len(t, msgs, 1)
	var content map[string]any
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Content), &content))
	assert.Equal(t, "error", content["status"])
	assert.Equal(t, "Function 'foo' not found or not implemented by the agent.", content["message"])
	assert.Equal(t, toolerr.CodeUnknownTool, content["error_code"])
}

func TestRunTurnLoopBound(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){
		toolCalls("still working", llm.ToolCall{ID: "c", Name: tools.NameCalculator, Arguments: `{"expression":"1+1"}`}),
	}}
	o := newOrchestrator(t, client, nil)

	res := o.RunTurn(context.Background(), "loop forever")

	assert.Equal(t, StatusLoopExhausted, res.Status)
	assert.Equal(t, MaxIterations+1, client.calls())
	assert.Equal(t, MaxIterations, res.Iterations)
	assert.Equal(t, "still working", res.Text)
	assert.Len(t, toolMessages(o.Transcript()), MaxIterations)

	transcript := o.Transcript()
	last := transcript[len(transcript)-1]
	assert.Equal(t, llm.RoleAssistant, last.Role)
	assert.Len(t, last.ToolCalls, 1)
}

func TestRunTurnLoopBoundCustom(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){
		toolCalls("", llm.ToolCall{ID: "c", Name: tools.NameCalculator, Arguments: `{"expression":"1"}`}),
	}}
	o := newOrchestrator(t, client, nil, WithMaxIterations(2))

	res := o.RunTurn(context.Background(), "x")
	assert.Equal(t, StatusLoopExhausted, res.Status)
	assert.Equal(t, 3, client.calls())
	assert.Equal(t, NoTextMarker, res.Display())
}

func TestRunTurnTransportAbort(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){
		fail(errors.New("connection refused")),
	}}
	o := newOrchestrator(t, client, nil)

	res := o.RunTurn(context.Background(), "hi")
	assert.Equal(t, StatusAborted, res.Status)
	assert.Equal(t, AbortMarker, res.Text)
	assert.True(t, errors.Is(res.Err, toolerr.ErrTransport))

	transcript := o.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, llm.RoleUser, transcript[1].Role)
}

func TestRunTurnTransportAbortAfterTools(t *testing.T) {
	transportErr := toolerr.New("llm", "complete", toolerr.CodeTransport, "chat completion failed")
	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){
		toolCalls("", llm.ToolCall{ID: "c1", Name: tools.NameCalculator, Arguments: `{"expression":"3*3"}`}),
		fail(transportErr),
	}}
	o := newOrchestrator(t, client, nil)

	res := o.RunTurn(context.Background(), "3*3")
	assert.Equal(t, StatusAborted, res.Status)
	assert.Equal(t, 1, res.Iterations)
	assert.Same(t, transportErr, res.Err)

	transcript := o.Transcript()
	require.Len(t, transcript, 4)
	assert.Equal(t, llm.RoleTool, transcript[3].Role)
}

func TestRunTurnEmptyResponse(t *testing.T) {
	tests := []struct {
		name string
		step func(*llm.CompletionRequest) (*llm.CompletionResponse, error)
	}{
		{name: "nil response", step: func(*llm.CompletionRequest) (*llm.CompletionResponse, error) { return nil, nil }},
		{name: "sentinel", step: fail(fmt.Errorf("wrapped: %w", llm.ErrEmptyResponse))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){tt.step}}
			o := newOrchestrator(t, client, nil)

			res := o.RunTurn(context.Background(), "hi")
			assert.Equal(t, StatusAborted, res.Status)
			assert.Equal(t, AbortMarker, res.Text)
			assert.True(t, errors.Is(res.Err, toolerr.ErrEmptyResponse))
			assert.Len(t, o.Transcript(), 2)
		})
	}
}

func TestRunTurnToolResultsKeepRequestOrder(t *testing.T) {
	sleeper := tool.MustNew(tool.NewConfig().
		SetName("sleep").
		SetParameters(schema.Object(map[string]schema.JSON{"ms": schema.Int()}, "ms")).
		SetExecuteFunc(func(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
			ms := args["ms"].(float64)
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return tool.Success(fmt.Sprintf("slept %v", ms), nil), nil
		}))

	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){
		toolCalls("",
			llm.ToolCall{ID: "a", Name: "sleep", Arguments: `{"ms":80}`},
			llm.ToolCall{ID: "b", Name: "sleep", Arguments: `{"ms":40}`},
			llm.ToolCall{ID: "c", Name: "sleep", Arguments: `{"ms":1}`},
		),
		text("done"),
	}}

	var hookCalls, hookResults int
	o := newOrchestrator(t, client, []tool.Tool{sleeper}, WithHooks(Hooks{
		OnToolCalls: func(iteration int, calls []llm.ToolCall) {
			hookCalls += len(calls)
		},
		OnToolResults: func(iteration int, calls []llm.ToolCall, results []tool.Result) {
			hookResults += len(results)
		},
	}))

	res := o.RunTurn(context.Background(), "sleep")
	require.Equal(t, StatusFinal, res.Status)

	msgs := toolMessages(o.Transcript())
	require.Len(t, msgs, 3)
	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, id, msgs[i].ToolCallID)
	}
	assert.Contains(t, msgs[0].Content, "slept 80")
	assert.Contains(t, msgs[2].Content, "slept 1")
	assert.Equal(t, 3, hookCalls)
	assert.Equal(t, 3, hookResults)
}

func TestResetAndUsage(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){text("ok")}}
	o := newOrchestrator(t, client, nil)

	o.RunTurn(context.Background(), "one")
	o.RunTurn(context.Background(), "two")
	assert.Equal(t, 24, o.Usage().Total().TotalTokens)
	assert.Equal(t, 24, o.Usage().ByModel("openai-large").TotalTokens)

	o.Reset()
	assert.Empty(t, o.Transcript())

	o.RunTurn(context.Background(), "three")
	transcript := o.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, llm.RoleSystem, transcript[0].Role)
}

func TestRunTurnSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tracer := tp.Tracer("test")

	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){
		toolCalls("", llm.ToolCall{ID: "c1", Name: tools.NameCalculator, Arguments: `{"expression":"2+2"}`}),
		text("4"),
	}}

	reg := tool.NewRegistry()
	require.NoError(t, tools.Register(reg))
	exec := tool.NewExecutor(reg, tool.WithLogger(newTestLogger()), tool.WithTracer(tracer))
	o := New(client, exec, WithLogger(newTestLogger()), WithTracer(tracer))

	o.RunTurn(context.Background(), "2+2")

	names := map[string]int{}
	var turn sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		names[s.Name()]++
		if s.Name() == "sabik.turn" {
			turn = s
		}
	}
	assert.Equal(t, 1, names["sabik.turn"])
	assert.Equal(t, 2, names["sabik.llm"])
	assert.Equal(t, 1, names["sabik.tool"])

	require.NotNil(t, turn)
	for _, s := range rec.Ended() {
		if s.Name() != "sabik.turn" {
			assert.Equal(t, turn.SpanContext().TraceID(), s.SpanContext().TraceID())
		}
	}
}

func TestTranscriptCopyIsIndependent(t *testing.T) {
	client := &scriptedClient{steps: []func(*llm.CompletionRequest) (*llm.CompletionResponse, error){text("ok")}}
	o := newOrchestrator(t, client, nil)
	o.RunTurn(context.Background(), "hi")

	copied := o.Transcript()
	copied[1].Content = "changed"
	assert.Equal(t, "hi", o.Transcript()[1].Content)
}
