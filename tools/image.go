package tools

import (
	"context"
	"fmt"
	"math/rand/v2"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zero-day-ai/sabik/schema"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/toolerr"
)

const defaultImageSize = 1024

// GenerateImage returns the generate_ai_image tool. It renders a prompt
// through the image backend and saves the picture under the output directory.
func GenerateImage() tool.Tool {
	return tool.MustNew(tool.NewConfig().
		SetName(NameGenerateImage).
		SetDescription("Generates an image from a text prompt. The image is saved locally and its URL is returned.").
		SetParameters(schema.Object(map[string]schema.JSON{
			"prompt": schema.StringWithDesc("Detailed description of the image to generate."),
			"model":  schema.StringWithDesc("Image model to use.").WithDefault("flux"),
			"width":  schema.IntWithDesc("Image width in pixels.").WithDefault(defaultImageSize),
			"height": schema.IntWithDesc("Image height in pixels.").WithDefault(defaultImageSize),
		}, "prompt")).
		SetExecuteFunc(generateImage))
}

func generateImage(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
	cfg := cfgOf(env)
	prompt := stringArg(args, "prompt", "")
	if strings.TrimSpace(prompt) == "" {
		return nil, toolerr.New(NameGenerateImage, "validate", toolerr.CodeInvalidInput, "prompt must not be empty")
	}

	q := url.Values{}
	q.Set("model", stringArg(args, "model", cfg.Models.Image))
	q.Set("width", strconv.Itoa(intArg(args, "width", defaultImageSize)))
	q.Set("height", strconv.Itoa(intArg(args, "height", defaultImageSize)))
	q.Set("seed", strconv.Itoa(rand.IntN(1<<31)))
	q.Set("nologo", "true")
	q.Set("referrer", cfg.Referrer)

	endpoint := strings.TrimRight(cfg.ImageBaseURL, "/") + "/prompt/" + url.PathEscape(prompt) + "?" + q.Encode()
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, toolerr.New(NameGenerateImage, "request", toolerr.CodeInvalidInput, "cannot build image request").WithCause(err)
	}

	env.Log().Debug("generating image", "prompt", truncate(prompt, 80), "model", q.Get("model"))

	resp, body, err := fetch(ctx, httpOf(env), req, NameGenerateImage, "generate", cfg.Timeouts.GetImage())
	if err != nil {
		return nil, withPrompt(err, prompt)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, toolerr.New(NameGenerateImage, "generate", toolerr.CodeUpstreamStatus,
			fmt.Sprintf("expected an image, got %q", contentType)).
			WithDetails(map[string]any{"prompt": prompt, "body": truncate(string(body), 200)})
	}

	filename := fmt.Sprintf("image_%s_%s.%s", safeName(prompt, 40), timestamp(env), imageExt(mediaType))
	path, err := saveFile(env, NameGenerateImage, "save", filename, body)
	if err != nil {
		return nil, err
	}

	imageURL := req.URL.String()
	if resp.Request != nil && resp.Request.URL != nil {
		imageURL = resp.Request.URL.String()
	}

	return tool.Success(
		fmt.Sprintf("Image generated, available at %s", imageURL),
		map[string]any{
			"image_url": imageURL,
			"file_path": path,
		},
	), nil
}

// imageExt derives a file extension from an image media type.
func imageExt(mediaType string) string {
	ext := strings.TrimPrefix(mediaType, "image/")
	switch {
	case ext == "jpeg":
		return "jpg"
	case ext == "" || len(ext) > 5 || strings.ContainsAny(ext, "+."):
		return "png"
	}
	return ext
}

func withPrompt(err error, prompt string) error {
	te, ok := err.(*toolerr.Error)
	if !ok {
		return err
	}
	if te.Details == nil {
		te.Details = map[string]any{}
	}
	te.Details["prompt"] = prompt
	return te
}
