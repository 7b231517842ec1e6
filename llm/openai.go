package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/zero-day-ai/sabik/toolerr"
)

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	// BaseURL is the OpenAI-compatible endpoint, e.g. https://text.pollinations.ai/openai.
	BaseURL string

	// APIKey is sent as a bearer token. Some endpoints accept any value.
	APIKey string

	// Model is used when a request does not name one.
	Model string

	// Referrer is sent as both the Referer and User-Agent headers.
	Referrer string

	// HTTPClient is the transport. Defaults to a client with Timeout.
	HTTPClient *http.Client

	// Timeout bounds a single completion call. Defaults to 120s.
	Timeout time.Duration

	Logger *slog.Logger
}

// OpenAIClient implements Client on top of the openai-go SDK.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIClient builds a client for an OpenAI-compatible chat completions
// endpoint. SDK retries are disabled; every Complete call is one attempt.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Referrer != "" {
		opts = append(opts,
			option.WithHeader("Referer", cfg.Referrer),
			option.WithHeader("User-Agent", cfg.Referrer),
		)
	}

	client := openai.NewClient(opts...)
	return &OpenAIClient{
		client: &client,
		model:  cfg.Model,
		logger: cfg.Logger.With("component", "llm", "provider", "openai"),
	}
}

// Model returns the default model.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete sends the request and converts the first choice into a
// CompletionResponse. Failures to reach the endpoint are reported as
// toolerr CodeTransport errors; a reply without choices as CodeEmptyResponse.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, toolerr.New("llm", "complete", toolerr.CodeInvalidInput, "cannot build request").WithCause(err)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		c.logger.Warn("chat completion failed",
			"model", params.Model,
			"duration", time.Since(start),
			"error", err)
		return nil, toolerr.New("llm", "complete", toolerr.CodeTransport, "chat completion failed").WithCause(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, toolerr.New("llm", "complete", toolerr.CodeEmptyResponse, "no choices returned").WithCause(ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	out := &CompletionResponse{
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}
	if out.Model == "" {
		out.Model = params.Model
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	c.logger.Debug("chat completion",
		"model", out.Model,
		"finish_reason", out.FinishReason,
		"tool_calls", len(out.ToolCalls),
		"input_tokens", out.Usage.InputTokens,
		"output_tokens", out.Usage.OutputTokens,
		"duration", time.Since(start))

	return out, nil
}

func (c *OpenAIClient) buildParams(req *CompletionRequest) (openai.ChatCompletionNewParams, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for i := range req.Messages {
		mp, err := convMessage(&req.Messages[i])
		if err != nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs = append(msgs, mp)
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: msgs,
	}
	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = param.NewOpt(int64(*req.MaxTokens))
	}

	for i, def := range req.Tools {
		if err := def.Validate(); err != nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("tool %d: %w", i, err)
		}
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: param.NewOpt(def.Description),
				Parameters:  openai.FunctionParameters(def.Parameters),
			},
		})
	}
	if req.ToolChoice != "" && !req.ToolChoice.IsValid() {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("invalid tool choice %q", req.ToolChoice)
	}
	if len(params.Tools) > 0 && req.ToolChoice != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: param.NewOpt(string(req.ToolChoice)),
		}
	}

	return params, nil
}

func convMessage(msg *Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case RoleSystem:
		return openai.SystemMessage(msg.Content), nil

	case RoleUser:
		if len(msg.Parts) == 0 {
			return openai.UserMessage(msg.Content), nil
		}
		parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			switch p.Type {
			case PartText:
				parts = append(parts, openai.TextContentPart(p.Text))
			case PartImageURL:
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: p.ImageURL,
				}))
			case PartInputAudio:
				parts = append(parts, openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
					Data:   p.AudioData,
					Format: p.AudioFormat,
				}))
			default:
				return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported content part %q", p.Type)
			}
		}
		return openai.ChatCompletionMessageParamUnion{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: parts,
				},
			},
		}, nil

	case RoleAssistant:
		mp := &openai.ChatCompletionAssistantMessageParam{}
		if msg.Content != "" {
			mp.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
				OfString: param.NewOpt(msg.Content),
			}
		}
		for _, tc := range msg.ToolCalls {
			mp.ToolCalls = append(mp.ToolCalls, openai.ChatCompletionMessageToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: mp}, nil

	case RoleTool:
		return openai.ToolMessage(msg.Content, msg.ToolCallID), nil
	}

	return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unexpected role %q", msg.Role)
}
