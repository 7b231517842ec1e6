// Package llm defines the conversation types Sabik exchanges with a
// language model and an OpenAI-compatible transport for them.
//
// # Messages
//
// A transcript is a slice of Message values. Assistant messages may carry
// ToolCalls; tool messages answer one call through ToolCallID:
//
//	history := []llm.Message{
//	    llm.SystemMessage("You are Sabik..."),
//	    llm.UserMessage("what is 2+2?"),
//	    llm.AssistantMessage("", llm.ToolCall{ID: "c1", Name: "calculator", Arguments: `{"expression":"2+2"}`}),
//	    llm.ToolMessage("c1", "calculator", `{"status":"success","result":"4"}`),
//	}
//
// User messages may instead carry multimodal Parts (text, image URL,
// input audio) for the vision and transcription tools.
//
// # Clients
//
// Client is the single-attempt completion boundary. OpenAIClient
// implements it with the openai-go SDK:
//
//	client := llm.NewOpenAIClient(llm.OpenAIConfig{
//	    BaseURL:  "https://text.pollinations.ai/openai",
//	    APIKey:   "dummy-openai-key",
//	    Model:    "openai-large",
//	    Referrer: "sabik",
//	})
//	resp, err := client.Complete(ctx, llm.NewCompletionRequest(history,
//	    llm.WithTools(defs...)))
//
// Transport failures are returned as *toolerr.Error with code
// toolerr.CodeTransport, and replies without choices with
// toolerr.CodeEmptyResponse wrapping ErrEmptyResponse.
//
// # Token tracking
//
// DefaultTokenTracker accumulates TokenUsage per model and is safe for
// concurrent use.
package llm
