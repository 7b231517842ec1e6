package llm

// CompletionRequest is one chat completion call.
type CompletionRequest struct {
	// Model replaces the client's default model when non-empty.
	Model string

	Messages []Message

	// Tools are the functions the model may call, in the order offered.
	Tools []ToolDef

	// ToolChoice is left to the endpoint when empty.
	ToolChoice ToolChoice

	// Sampling overrides; nil leaves the endpoint default.
	Temperature *float64
	MaxTokens   *int
}

// CompletionResponse is the first choice of a completion, flattened.
type CompletionResponse struct {
	// Model is the model the endpoint reports having used.
	Model string

	Content string

	// ToolCalls are kept in the order the model emitted them.
	ToolCalls []ToolCall

	// FinishReason is passed through as reported ("stop", "tool_calls",
	// "length" ...).
	FinishReason string

	Usage TokenUsage
}

// TokenUsage counts the tokens billed for one or more calls.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add returns the sum of u and o.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.TotalTokens += o.TotalTokens
	return u
}

// CompletionOption customizes a request built by NewCompletionRequest.
type CompletionOption func(*CompletionRequest)

// NewCompletionRequest builds a request over messages. The slice is used
// as is, not copied.
func NewCompletionRequest(messages []Message, opts ...CompletionOption) *CompletionRequest {
	req := &CompletionRequest{Messages: messages}
	for _, opt := range opts {
		opt(req)
	}
	return req
}

func WithModel(model string) CompletionOption {
	return func(r *CompletionRequest) { r.Model = model }
}

func WithTemperature(t float64) CompletionOption {
	return func(r *CompletionRequest) { r.Temperature = &t }
}

func WithMaxTokens(n int) CompletionOption {
	return func(r *CompletionRequest) { r.MaxTokens = &n }
}

// WithTools offers tools to the model. Unless a choice was already set,
// the model is left free to pick (ToolChoiceAuto).
func WithTools(tools ...ToolDef) CompletionOption {
	return func(r *CompletionRequest) {
		r.Tools = tools
		if len(tools) > 0 && r.ToolChoice == "" {
			r.ToolChoice = ToolChoiceAuto
		}
	}
}

func WithToolChoice(choice ToolChoice) CompletionOption {
	return func(r *CompletionRequest) { r.ToolChoice = choice }
}

// HasContent reports whether the model produced any text.
func (r *CompletionResponse) HasContent() bool { return r.Content != "" }

// HasToolCalls reports whether the model asked for at least one tool.
func (r *CompletionResponse) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// Message is the assistant message to append to a transcript for r.
func (r *CompletionResponse) Message() Message {
	return AssistantMessage(r.Content, r.ToolCalls...)
}
