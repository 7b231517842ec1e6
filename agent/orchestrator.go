package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/telemetry"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/toolerr"
)

// MaxIterations is how many tool-requesting assistant messages a single
// turn will act on.
const MaxIterations = 5

// DefaultSystemPrompt is sent as the first message of every conversation.
const DefaultSystemPrompt = `You are Sabik, a terminal-first AI assistant. You are fast, focused, and efficient, built for power users who operate in the command line.

Your core values are:
- Speed: respond with maximum efficiency.
- Control: execute tasks cleanly, with no unnecessary fluff.
- Focus: keep all answers concise, relevant, and context-aware.

Guidelines:
1. Never break character. You are not a chatbot. You are a terminal AI assistant.
2. Minimize verbosity. Do not provide excessive explanations unless explicitly asked.
3. Avoid follow-up questions unless clarification is absolutely necessary. Prefer immediate execution.
4. When unsure, clearly say so and recommend a next step.
5. Always prefer actionable output (code, commands, summaries, or results) over vague or conversational replies.
6. Respect user privacy. Do not log or retain information beyond the current session.
7. Avoid emotional tone, chit-chat, or overly friendly phrasing. You are a productivity tool.

Your job is to help the user execute tasks quickly and intelligently from the terminal using natural language.

Stay sharp. Stay quiet unless needed. Let the user lead.

You are Sabik.`

// Hooks receive progress notifications during a turn. Any field may be nil.
// They run on the goroutine calling RunTurn.
type Hooks struct {
	// OnToolCalls is called before a batch of tool calls is executed.
	OnToolCalls func(iteration int, calls []llm.ToolCall)

	// OnToolResults is called after the batch finished, with results in
	// the order of calls.
	OnToolResults func(iteration int, calls []llm.ToolCall, results []tool.Result)
}

// Orchestrator drives the bounded model / tool loop of one conversation.
// It owns its transcript; RunTurn calls are serialized.
type Orchestrator struct {
	mu sync.Mutex

	client   llm.Client
	executor *tool.Executor

	systemPrompt  string
	model         string
	maxIterations int
	transcript    *Transcript
	tracker       llm.TokenTracker
	hooks         Hooks

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) {
		o.systemPrompt = prompt
	}
}

// WithModel sets the model requested on every call. Empty leaves the
// choice to the client.
func WithModel(model string) Option {
	return func(o *Orchestrator) {
		o.model = model
	}
}

// WithMaxIterations overrides MaxIterations.
func WithMaxIterations(n int) Option {
	return func(o *Orchestrator) {
		o.maxIterations = n
	}
}

// WithTokenTracker sets the session-wide usage tracker.
func WithTokenTracker(t llm.TokenTracker) Option {
	return func(o *Orchestrator) {
		o.tracker = t
	}
}

// WithHooks installs progress callbacks.
func WithHooks(h Hooks) Option {
	return func(o *Orchestrator) {
		o.hooks = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithTracer sets the tracer for turn and LLM spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

// WithMetrics records turn and LLM call counters.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// New creates an orchestrator that talks to client and runs tools through
// executor.
func New(client llm.Client, executor *tool.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:        client,
		executor:      executor,
		systemPrompt:  DefaultSystemPrompt,
		maxIterations: MaxIterations,
		transcript:    NewTranscript(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "orchestrator")
	if o.tracer == nil {
		o.tracer = otel.Tracer(telemetry.InstrumentationName)
	}
	if o.tracker == nil {
		o.tracker = llm.NewTokenTracker()
	}

	return o
}

// RunTurn appends userText to the conversation and loops between the model
// and the tools until the model answers without tool calls, the iteration
// cap is hit, or the model cannot be reached.
func (o *Orchestrator) RunTurn(ctx context.Context, userText string) TurnResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	turnID := uuid.NewString()
	logger := o.logger.With("turn_id", turnID)

	ctx, span := o.tracer.Start(ctx, "sabik.turn", trace.WithAttributes(attribute.String("turn_id", turnID)))
	defer span.End()

	o.transcript.EnsureSystem(o.systemPrompt)
	o.transcript.Append(llm.UserMessage(userText))

	specs := o.executor.Registry().Specs()
	defs := tool.ToolDefs(specs)

	var (
		usage     llm.TokenUsage
		iteration int
		lastText  string
	)

	finish := func(res TurnResult) TurnResult {
		res.Iterations = iteration
		res.Usage = usage
		span.SetAttributes(
			attribute.String("status", string(res.Status)),
			attribute.Int("iterations", iteration),
		)
		if res.Status == StatusAborted {
			span.SetStatus(codes.Error, res.Err.Error())
		}
		o.metrics.RecordTurn(ctx, string(res.Status), iteration)
		logger.Info("turn finished",
			"status", res.Status,
			"iterations", iteration,
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens)
		return res
	}

	for {
		resp, err := o.complete(ctx, iteration, defs)
		if err != nil {
			logger.Warn("model call failed", "iteration", iteration, "error", err)
			return finish(TurnResult{Text: AbortMarker, Status: StatusAborted, Err: err})
		}

		usage = usage.Add(resp.Usage)
		o.tracker.Add(resp.Model, resp.Usage)

		o.transcript.Append(resp.Message())
		text := strings.TrimSpace(resp.Content)
		if text != "" {
			lastText = resp.Content
		}

		if !resp.HasToolCalls() {
			if text == "" {
				return finish(TurnResult{Status: StatusNoText})
			}
			return finish(TurnResult{Text: resp.Content, Status: StatusFinal})
		}

		iteration++
		if iteration > o.maxIterations {
			iteration = o.maxIterations
			logger.Warn("tool iteration limit reached",
				"max_iterations", o.maxIterations,
				"pending_tool_calls", len(resp.ToolCalls))
			return finish(TurnResult{Text: lastText, Status: StatusLoopExhausted})
		}

		o.runTools(ctx, iteration, resp.ToolCalls)
	}
}

func (o *Orchestrator) complete(ctx context.Context, iteration int, defs []llm.ToolDef) (*llm.CompletionResponse, error) {
	ctx, span := o.tracer.Start(ctx, "sabik.llm", trace.WithAttributes(attribute.Int("iteration", iteration)))
	defer span.End()

	opts := []llm.CompletionOption{llm.WithTools(defs...)}
	if o.model != "" {
		opts = append(opts, llm.WithModel(o.model))
	}
	req := llm.NewCompletionRequest(o.transcript.view(), opts...)

	start := time.Now()
	resp, err := o.client.Complete(ctx, req)
	if err == nil && resp == nil {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		err = classifyLLMError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.metrics.RecordLLMCall(ctx, o.model, false)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("model", resp.Model),
		attribute.Int("tool_calls", len(resp.ToolCalls)),
		attribute.Int("input_tokens", resp.Usage.InputTokens),
		attribute.Int("output_tokens", resp.Usage.OutputTokens),
	)
	o.metrics.RecordLLMCall(ctx, resp.Model, true)
	o.logger.Debug("model responded",
		"iteration", iteration,
		"tool_calls", len(resp.ToolCalls),
		"duration", time.Since(start))

	return resp, nil
}

func (o *Orchestrator) runTools(ctx context.Context, iteration int, calls []llm.ToolCall) {
	if o.hooks.OnToolCalls != nil {
		o.hooks.OnToolCalls(iteration, calls)
	}

	results := o.executor.ExecuteBatch(ctx, calls)
	for i, call := range calls {
		o.transcript.Append(llm.ToolMessage(call.ID, call.Name, results[i].JSON()))
	}

	if o.hooks.OnToolResults != nil {
		o.hooks.OnToolResults(iteration, calls, results)
	}
}

// classifyLLMError maps a client failure onto TRANSPORT or EMPTY_RESPONSE.
func classifyLLMError(err error) error {
	var te *toolerr.Error
	if errors.As(err, &te) && (te.Code == toolerr.CodeTransport || te.Code == toolerr.CodeEmptyResponse) {
		return err
	}
	if errors.Is(err, llm.ErrEmptyResponse) {
		return toolerr.New("llm", "complete", toolerr.CodeEmptyResponse, "the model returned no answer").WithCause(err)
	}
	return toolerr.New("llm", "complete", toolerr.CodeTransport, "the model could not be reached").WithCause(err)
}

// Transcript returns a copy of the conversation so far.
func (o *Orchestrator) Transcript() []llm.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transcript.Messages()
}

// Usage returns the token usage accumulated across turns.
func (o *Orchestrator) Usage() llm.TokenTracker {
	return o.tracker
}

// Reset clears the conversation. The system message is inserted again on
// the next turn.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transcript.Reset()
}
