package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/zero-day-ai/sabik/schema"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/toolerr"
)

// WebFetch returns the simple_web_search tool. It fetches one page and
// reports its size; it does not parse the content.
func WebFetch() tool.Tool {
	return tool.MustNew(tool.NewConfig().
		SetName(NameWebFetch).
		SetDescription("Fetches a single web page by URL and reports whether it could be retrieved.").
		SetParameters(schema.Object(map[string]schema.JSON{
			"url": schema.StringWithDesc("Absolute http:// or https:// URL to fetch."),
		}, "url")).
		SetExecuteFunc(webFetch))
}

func webFetch(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
	target := stringArg(args, "url", "")
	details := map[string]any{"url": target}

	if !isHTTPURL(target) {
		return nil, toolerr.New(NameWebFetch, "validate", toolerr.CodeInvalidInput,
			"Invalid URL. Must start with http:// or https://").WithDetails(details)
	}

	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, toolerr.New(NameWebFetch, "validate", toolerr.CodeInvalidInput, "invalid url").
			WithCause(err).WithDetails(details)
	}

	env.Log().Debug("fetching page", "url", target)

	_, body, err := fetch(ctx, httpOf(env), req, NameWebFetch, "fetch", cfgOf(env).Timeouts.GetFetch())
	if err != nil {
		var te *toolerr.Error
		if !errors.As(err, &te) {
			return nil, err
		}
		te.Message = fmt.Sprintf("Failed to fetch URL %s: %s", target, te.Message)
		if te.Details == nil {
			te.Details = map[string]any{}
		}
		te.Details["url"] = target
		return nil, te
	}

	return tool.Success(
		fmt.Sprintf("Fetched content from %s.", target),
		map[string]any{
			"url": target,
			"summary": fmt.Sprintf("Successfully fetched content from %s. Content length: %d characters.",
				target, utf8.RuneCount(body)),
		},
	), nil
}
