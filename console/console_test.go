package console

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zero-day-ai/sabik/agent"
	"github.com/zero-day-ai/sabik/health"
	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/monitor"
	"github.com/zero-day-ai/sabik/schema"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/toolerr"
	"github.com/zero-day-ai/sabik/types"
)

func newTestConsole() (*Console, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&buf, WithWidth(120)), &buf
}

func TestWelcome(t *testing.T) {
	c, buf := newTestConsole()
	c.Welcome(WelcomeInfo{
		Referrer:  "sabik",
		TextURL:   "https://text.example/openai",
		ImageURL:  "https://image.example",
		OutputDir: "agent_outputs_tool_mode",
	})

	out := buf.String()
	assert.Contains(t, out, "Welcome to Sabik AI!")
	assert.Contains(t, out, "https://text.example/openai")
	assert.Contains(t, out, "agent_outputs_tool_mode")
	assert.NotContains(t, out, "Redis:")
	assert.Contains(t, out, "Help & Instructions")
	assert.Contains(t, out, "/feed start image|text")
}

func TestTurn(t *testing.T) {
	tests := []struct {
		name string
		res  agent.TurnResult
		want []string
	}{
		{
			name: "final",
			res:  agent.TurnResult{Status: agent.StatusFinal, Text: "The answer is 4."},
			want: []string{"Assistant", "The answer is 4."},
		},
		{
			name: "no text",
			res:  agent.TurnResult{Status: agent.StatusNoText},
			want: []string{agent.NoTextMarker},
		},
		{
			name: "loop exhausted",
			res:  agent.TurnResult{Status: agent.StatusLoopExhausted, Iterations: 5, Text: "still going"},
			want: []string{"Max tool call iterations (5) reached.", "still going"},
		},
		{
			name: "aborted",
			res: agent.TurnResult{
				Status: agent.StatusAborted,
				Text:   agent.AbortMarker,
				Err:    toolerr.New("llm", "complete", toolerr.CodeTransport, "the model could not be reached"),
			},
			want: []string{"[TRANSPORT]", agent.AbortMarker},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, buf := newTestConsole()
			c.Turn(tt.res)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestToolActivity(t *testing.T) {
	c, buf := newTestConsole()
	hooks := c.Hooks()

	calls := []llm.ToolCall{
		{ID: "call_1", Name: "calculator", Arguments: `{"expression":"2+2"}`},
		{ID: "call_2", Name: "foo", Arguments: `{}`},
	}
	results := []tool.Result{
		tool.Success("", map[string]any{"result": "4"}),
		tool.Failure(toolerr.New("foo", "lookup", toolerr.CodeUnknownTool, "Function 'foo' not found or not implemented by the agent.")),
	}

	hooks.OnToolCalls(1, calls)
	hooks.OnToolResults(1, calls, results)

	out := buf.String()
	assert.Contains(t, out, "Tool Call Details (iteration 1)")
	assert.Contains(t, out, `ID: call_1, Func: calculator, Args: {"expression":"2+2"}`)
	assert.Contains(t, out, "Success")
	assert.Contains(t, out, "Unknown Function")
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "Success (non-standard)", resultLabel(tool.Result{Status: tool.StatusSuccess, NonStandard: true}))
	assert.Equal(t, "Arg JSON Error", resultLabel(tool.Failure(toolerr.New("x", "decode", toolerr.CodeArgumentDecode, "bad"))))
	assert.Equal(t, "Error: TIMEOUT", resultLabel(tool.Failure(toolerr.New("x", "fetch", toolerr.CodeTimeout, "slow"))))
	assert.Equal(t, "Error", resultLabel(tool.Result{Status: tool.StatusError}))
}

func TestToolsAndUsage(t *testing.T) {
	c, buf := newTestConsole()

	c.Tools([]tool.Spec{{
		Name:        "calculator",
		Description: "Evaluates arithmetic.",
		Parameters:  schema.Object(map[string]schema.JSON{"expression": schema.String()}, "expression"),
	}})
	assert.Contains(t, buf.String(), "calculator")
	assert.Contains(t, buf.String(), "expression")

	buf.Reset()
	c.Usage(llm.Snapshot{})
	assert.Contains(t, buf.String(), "No tokens used yet.")

	buf.Reset()
	tracker := llm.NewTokenTracker()
	tracker.Add("openai-large", llm.TokenUsage{InputTokens: 10, OutputTokens: 2, TotalTokens: 12})
	c.Usage(tracker.Snapshot())
	assert.Contains(t, buf.String(), "openai-large")
	assert.Contains(t, buf.String(), "total")
	assert.Contains(t, buf.String(), "12")
}

func TestErrorWithHints(t *testing.T) {
	c, buf := newTestConsole()
	err := toolerr.New("generate_ai_image", "fetch", toolerr.CodeTimeout, "timed out").
		WithHints(toolerr.RecoveryHint{Strategy: toolerr.StrategyModifyParams, Reason: "use a smaller image"})
	c.Error(err)
	assert.Contains(t, buf.String(), "[TIMEOUT]")
	assert.Contains(t, buf.String(), "use a smaller image")

	buf.Reset()
	c.Error(errors.New("plain"))
	assert.Contains(t, buf.String(), "plain")

	buf.Reset()
	c.Error(nil)
	assert.Empty(t, buf.String())
}

func TestHealth(t *testing.T) {
	c, buf := newTestConsole()
	c.Health([]health.Result{
		{Name: "output dir", Status: types.NewHealthyStatus("directory is writable")},
		{Name: "audio player", Status: types.NewDegradedStatus("no audio player found", nil)},
	})
	out := buf.String()
	assert.Contains(t, out, "output dir")
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "1 check(s) degraded")
}

func TestFeedRenderer(t *testing.T) {
	c, buf := newTestConsole()
	r := c.FeedRenderer()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)

	r.Deliver(monitor.Event{FeedID: "image", Data: `{"prompt":"cat"}`, Value: map[string]any{"prompt": "cat"}, ReceivedAt: at})
	assert.Contains(t, buf.String(), "Image Feed Event (03:04:05)")
	assert.Contains(t, buf.String(), `"prompt": "cat"`)

	buf.Reset()
	r.Deliver(monitor.Event{FeedID: "text", Data: `["a","b"]`, Value: []any{"a", "b"}, ReceivedAt: at})
	assert.Contains(t, buf.String(), "Text Feed Event (03:04:05)")
	assert.Contains(t, buf.String(), `"a",`)

	buf.Reset()
	r.Deliver(monitor.Event{FeedID: "text", Data: "hello there", Raw: true, ReceivedAt: at})
	assert.Contains(t, buf.String(), "Text Feed Raw Data (03:04:05)")
	assert.Contains(t, buf.String(), "hello there")

	buf.Reset()
	r.Notify(monitor.Notice{FeedID: "text", Kind: monitor.NoticeRetrying, Cause: monitor.CauseEnd, Retry: 5 * time.Second})
	assert.Contains(t, buf.String(), "Text Feed stream ended. Retrying in 5 seconds...")

	buf.Reset()
	r.Notify(monitor.Notice{FeedID: "image", Kind: monitor.NoticeRetrying, Cause: monitor.CauseIOError, Err: errors.New("refused"), Retry: 10 * time.Second})
	assert.Contains(t, buf.String(), "Image Feed connection error: refused. Retrying in 10 seconds...")

	buf.Reset()
	r.Notify(monitor.Notice{FeedID: "custom", Kind: monitor.NoticeStopped})
	assert.Contains(t, buf.String(), "custom monitor stopped.")
}

func TestWithTheme(t *testing.T) {
	theme := DefaultTheme
	theme.Error = "#ff0000"

	c := New(&bytes.Buffer{}, WithTheme(theme))
	assert.Equal(t, theme, c.Styles().Theme)

	assert.Equal(t, DefaultTheme, New(&bytes.Buffer{}).Styles().Theme)
}
