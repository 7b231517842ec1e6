package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/zero-day-ai/sabik/config"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/toolerr"
)

// Builtin tool names.
const (
	NameGenerateImage   = "generate_ai_image"
	NameAnalyzeImage    = "analyze_image_content"
	NameTranscribeAudio = "transcribe_audio_file"
	NameGenerateSpeech  = "generate_speech_audio"
	NameWebFetch        = "simple_web_search"
	NameCalculator      = "calculator"
)

// maxBodyBytes caps how much of a backend response is read into memory.
const maxBodyBytes = 64 << 20

// All returns the builtin tools in declaration order.
func All() []tool.Tool {
	return []tool.Tool{
		GenerateImage(),
		AnalyzeImage(),
		TranscribeAudio(),
		NewSpeech(),
		WebFetch(),
		Calculator(),
	}
}

// Register adds every builtin tool to reg.
func Register(reg *tool.Registry) error {
	for _, t := range All() {
		if err := reg.Register(t); err != nil {
			return fmt.Errorf("register %s: %w", t.Name(), err)
		}
	}
	return nil
}

func cfgOf(env *tool.Env) *config.Config {
	if env == nil || env.Config == nil {
		return config.Default()
	}
	return env.Config
}

func httpOf(env *tool.Env) *http.Client {
	if env == nil || env.HTTP == nil {
		return http.DefaultClient
	}
	return env.HTTP
}

func stringArg(args map[string]any, key, def string) string {
	if s, ok := args[key].(string); ok && s != "" {
		return s
	}
	return def
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func boolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

// fetch performs req bounded by timeout and returns the body of a 2xx
// response. Failures are classified as TIMEOUT, NETWORK_ERROR or
// UPSTREAM_STATUS.
func fetch(ctx context.Context, client *http.Client, req *http.Request, name, op string, timeout time.Duration) (*http.Response, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, nil, classifyTransport(name, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, classifyTransport(name, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, toolerr.New(name, op, toolerr.CodeUpstreamStatus,
			fmt.Sprintf("%s returned status %d", req.URL.Host, resp.StatusCode)).
			WithDetails(map[string]any{
				"status_code": resp.StatusCode,
				"body":        truncate(string(body), 200),
			})
	}

	return resp, body, nil
}

func classifyTransport(name, op string, err error) *toolerr.Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return toolerr.New(name, op, toolerr.CodeTimeout, "request timed out").WithCause(err)
	}
	return toolerr.New(name, op, toolerr.CodeNetworkError, "request failed").WithCause(err)
}

// saveFile writes data under the configured output directory.
func saveFile(env *tool.Env, name, op, filename string, data []byte) (string, error) {
	dir, err := cfgOf(env).EnsureOutputDir()
	if err != nil {
		return "", toolerr.New(name, op, toolerr.CodeFileIO, "cannot create output directory").WithCause(err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", toolerr.New(name, op, toolerr.CodeFileIO, "cannot save file").WithCause(err)
	}
	return path, nil
}

// safeName turns the first n runes of s into a file name fragment.
func safeName(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' && r != '_' {
			runes[i] = '_'
		}
	}
	out := strings.TrimRight(string(runes), " ")
	return strings.ReplaceAll(out, " ", "_")
}

func timestamp(env *tool.Env) string {
	return env.Clock().Format("20060102_150405")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
