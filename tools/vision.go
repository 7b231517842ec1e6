package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/schema"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/toolerr"
)

const (
	defaultAnalysisPrompt = "Describe the image in detail."
	imageFetchTimeout     = 15 * time.Second
)

// AnalyzeImage returns the analyze_image_content tool.
func AnalyzeImage() tool.Tool {
	return tool.MustNew(tool.NewConfig().
		SetName(NameAnalyzeImage).
		SetDescription("Analyzes an image from a URL or a local file path with a vision model and returns a description.").
		SetParameters(schema.Object(map[string]schema.JSON{
			"image_url_or_path": schema.StringWithDesc("Public http(s) URL or local path of the image."),
			"analysis_prompt":   schema.StringWithDesc("What to look for in the image.").WithDefault(defaultAnalysisPrompt),
		}, "image_url_or_path")).
		SetExecuteFunc(analyzeImage))
}

func analyzeImage(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
	source := stringArg(args, "image_url_or_path", "")
	prompt := stringArg(args, "analysis_prompt", defaultAnalysisPrompt)

	if env == nil || env.LLM == nil {
		return nil, toolerr.New(NameAnalyzeImage, "analyze", toolerr.CodeInternalFault, "no model client configured")
	}

	dataURL, err := encodeImage(ctx, env, source)
	if err != nil {
		return nil, err
	}

	cfg := cfgOf(env)
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeouts.GetLLM())
	defer cancel()

	analysis, err := llm.DescribeImage(ctx, env.LLM, cfg.Models.Vision, prompt, dataURL)
	if err != nil {
		return nil, modelError(NameAnalyzeImage, "analyze", err)
	}

	return tool.Success("Image analyzed", map[string]any{
		"analysis": analysis,
		"source":   source,
	}), nil
}

// encodeImage loads an image from a URL or a local path and returns it as
// a base64 data URL.
func encodeImage(ctx context.Context, env *tool.Env, source string) (string, error) {
	var (
		data        []byte
		contentType string
	)

	if isHTTPURL(source) {
		req, err := http.NewRequest(http.MethodGet, source, nil)
		if err != nil {
			return "", toolerr.New(NameAnalyzeImage, "load", toolerr.CodeInvalidInput, "invalid image url").WithCause(err)
		}
		resp, body, err := fetch(ctx, httpOf(env), req, NameAnalyzeImage, "load", imageFetchTimeout)
		if err != nil {
			return "", err
		}
		data = body
		contentType = resp.Header.Get("Content-Type")
	} else {
		body, err := os.ReadFile(source)
		if err != nil {
			return "", toolerr.New(NameAnalyzeImage, "load", toolerr.CodeFileIO,
				fmt.Sprintf("Could not load or encode image: %s", source)).
				WithCause(err).
				WithDetails(map[string]any{"image_url_or_path": source})
		}
		data = body
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(source)))
	}

	return "data:" + imageMediaType(data, contentType) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// imageMediaType prefers the type sniffed from the bytes, then the
// declared one, then image/jpeg.
func imageMediaType(data []byte, declared string) string {
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	return "image/jpeg"
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// modelError converts a failure of a nested model call into a tool error.
func modelError(name, op string, err error) error {
	var te *toolerr.Error
	if errors.As(err, &te) {
		wrapped := *te
		wrapped.Tool = name
		wrapped.Operation = op
		wrapped.Hints = nil
		wrapped.Class = ""
		return &wrapped
	}
	if errors.Is(err, llm.ErrEmptyResponse) {
		return toolerr.New(name, op, toolerr.CodeEmptyResponse, "the model returned no text").WithCause(err)
	}
	return toolerr.New(name, op, toolerr.CodeNetworkError, "model call failed").WithCause(err)
}
