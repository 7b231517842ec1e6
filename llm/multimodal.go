package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	visionSystemPrompt     = "You are an AI vision expert."
	transcribeSystemPrompt = "You are an AI transcription service."
	transcribeUserPrompt   = "Transcribe the following audio."
)

// DescribeImage asks model to analyze one image. imageURL may be a public
// URL or a data URL. An answer without text is reported as ErrEmptyResponse.
func DescribeImage(ctx context.Context, c Client, model, prompt, imageURL string) (string, error) {
	return completeText(ctx, c, model, []Message{
		SystemMessage(visionSystemPrompt),
		{Role: RoleUser, Parts: []Part{TextPart(prompt), ImagePart(imageURL)}},
	})
}

// TranscribeAudio asks model for a transcription of base64 encoded audio.
func TranscribeAudio(ctx context.Context, c Client, model, data, format string) (string, error) {
	return completeText(ctx, c, model, []Message{
		SystemMessage(transcribeSystemPrompt),
		{Role: RoleUser, Parts: []Part{TextPart(transcribeUserPrompt), AudioPart(data, format)}},
	})
}

func completeText(ctx context.Context, c Client, model string, msgs []Message) (string, error) {
	resp, err := c.Complete(ctx, NewCompletionRequest(msgs, WithModel(model)))
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("model %s: %w", model, ErrEmptyResponse)
	}
	return resp.Content, nil
}
