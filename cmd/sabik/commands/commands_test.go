package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/sabik"
	"github.com/zero-day-ai/sabik/config"
	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/monitor"
	"github.com/zero-day-ai/sabik/queue"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// countingClient answers every request with the same text.
type countingClient struct {
	mu    sync.Mutex
	calls int
}

func (c *countingClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return &llm.CompletionResponse{
		Model:   req.Model,
		Content: "Sure thing.",
		Usage:   llm.TokenUsage{InputTokens: 4, OutputTokens: 2, TotalTokens: 6},
	}, nil
}

func (c *countingClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed" {
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"model\":\"flux\"}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, cfg *config.Config, client llm.Client) (*sabik.App, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	app, err := sabik.New(context.Background(),
		sabik.WithConfig(cfg),
		sabik.WithLogger(slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))),
		sabik.WithOutput(out),
		sabik.WithWidth(120),
		sabik.WithLLMClient(client),
	)
	require.NoError(t, err)
	t.Cleanup(func() { closeApp(app) })
	return app, out
}

func testConfig(t *testing.T, srv *httptest.Server) *config.Config {
	cfg := config.Default()
	cfg.TextBaseURL = srv.URL + "/openai"
	cfg.ImageBaseURL = srv.URL
	cfg.OutputDir = t.TempDir()
	cfg.Monitor.JoinTimeout = "2s"
	return cfg
}

func TestLoadConfigFlagsOverrideEnvAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sabik.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: from-file\nlog_level: debug\nreferrer: file-ref\n"), 0o600))

	cfg, err := loadConfig(globalFlags{
		configPath: path,
		outputDir:  "from-flag",
		redisURL:   "redis://flag:6379",
	}, envMap(map[string]string{
		config.EnvOutputDir: "from-env",
		config.EnvReferrer:  "env-ref",
	}))
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.OutputDir)
	assert.Equal(t, "env-ref", cfg.Referrer)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "redis://flag:6379", cfg.RedisURL)
	assert.Equal(t, slog.LevelDebug, cfg.Level())

	_, err = loadConfig(globalFlags{configPath: filepath.Join(t.TempDir(), "missing.yaml")}, envMap(nil))
	assert.Error(t, err)
}

func TestREPLSession(t *testing.T) {
	srv := newFeedServer(t)
	client := &countingClient{}
	app, out := newTestApp(t, testConfig(t, srv), client)

	in := strings.NewReader(strings.Join([]string{
		"",
		"hello",
		"/usage",
		"/reset",
		"/bogus",
		"quit",
		"never read",
	}, "\n"))

	require.NoError(t, repl(context.Background(), app, in, out))

	s := out.String()
	assert.Contains(t, s, "Welcome to Sabik AI!")
	assert.Contains(t, s, "Sure thing.")
	assert.Contains(t, s, "openai-large")
	assert.Contains(t, s, "Conversation cleared.")
	assert.Contains(t, s, "Unknown command /bogus")
	assert.Contains(t, s, "Goodbye!")
	assert.Equal(t, 1, client.count())
	assert.Empty(t, app.Orchestrator().Transcript())
}

func TestREPLExitsOnEOF(t *testing.T) {
	srv := newFeedServer(t)
	app, out := newTestApp(t, testConfig(t, srv), &countingClient{})

	require.NoError(t, repl(context.Background(), app, strings.NewReader("EXIT"), out))
	assert.Contains(t, out.String(), "Goodbye!")

	out2 := &syncBuffer{}
	require.NoError(t, repl(context.Background(), app, strings.NewReader(""), out2))
	assert.Contains(t, out2.String(), "Exiting.")
}

func TestREPLExitsOnCancel(t *testing.T) {
	srv := newFeedServer(t)
	app, out := newTestApp(t, testConfig(t, srv), &countingClient{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := io.Pipe()
	defer pw.Close()

	require.NoError(t, repl(ctx, app, pr, out))
	assert.Contains(t, out.String(), "Interrupted. Exiting.")
}

func TestFeedSlashCommands(t *testing.T) {
	srv := newFeedServer(t)
	app, out := newTestApp(t, testConfig(t, srv), &countingClient{})
	ctx := context.Background()

	assert.True(t, handleLine(ctx, app, "/feed"))
	assert.Contains(t, out.String(), "No feeds running.")

	assert.True(t, handleLine(ctx, app, "/feed start image"))
	assert.True(t, app.Monitor().IsRunning(config.FeedImage))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Image Feed Event")
	}, 3*time.Second, 10*time.Millisecond)

	assert.True(t, handleLine(ctx, app, "/feed start image"))
	assert.Contains(t, out.String(), "image feed is already running.")

	assert.True(t, handleLine(ctx, app, "/feed"))
	assert.Contains(t, out.String(), "Running feeds: image")

	assert.True(t, handleLine(ctx, app, "/feed start video"))
	assert.Contains(t, out.String(), "unknown feed")

	assert.True(t, handleLine(ctx, app, "/feed start"))
	assert.Contains(t, out.String(), "Usage: /feed start image|text")

	assert.True(t, handleLine(ctx, app, "/feed stop"))
	assert.Contains(t, out.String(), "All feeds stopped.")
	assert.Empty(t, app.Monitor().Running())
}

func TestFollowReplaysRecent(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newFeedServer(t)
	cfg := testConfig(t, srv)
	cfg.RedisURL = "redis://" + mr.Addr()

	rc, err := queue.NewRedisClient(queue.RedisOptions{URL: cfg.RedisURL})
	require.NoError(t, err)
	defer rc.Close()
	for i, data := range []string{"first", "second"} {
		require.NoError(t, rc.Publish(context.Background(), queue.FromEvent(monitor.Event{
			FeedID:     config.FeedText,
			Data:       data,
			Raw:        true,
			ReceivedAt: time.Date(2026, 1, 1, 12, 0, i, 0, time.Local),
		})))
	}

	app, out := newTestApp(t, cfg, &countingClient{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- follow(ctx, app, config.FeedText, 5) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Following the text feed.")
	}, 3*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	s := out.String()
	first, second := strings.Index(s, "first"), strings.Index(s, "second")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.Empty(t, app.Monitor().Running())
}

func TestFollowRecentNeedsRedis(t *testing.T) {
	srv := newFeedServer(t)
	app, _ := newTestApp(t, testConfig(t, srv), &countingClient{})

	err := follow(context.Background(), app, config.FeedImage, 3)
	assert.ErrorIs(t, err, sabik.ErrQueueDisabled)
}

func TestWatchPrintsRepublishedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newFeedServer(t)
	cfg := testConfig(t, srv)
	cfg.RedisURL = "redis://" + mr.Addr()

	app, out := newTestApp(t, cfg, &countingClient{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watch(ctx, app, config.FeedImage, 0) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching the image feed through Redis.")
	}, 3*time.Second, 10*time.Millisecond)

	rc, err := queue.NewRedisClient(queue.RedisOptions{URL: cfg.RedisURL})
	require.NoError(t, err)
	defer rc.Close()
	require.NoError(t, rc.Publish(context.Background(), queue.FromEvent(monitor.Event{
		FeedID:     config.FeedImage,
		Data:       "from another process",
		Raw:        true,
		ReceivedAt: time.Now(),
	})))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "from another process")
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, app.Monitor().Running())
}

func TestWatchNeedsRedis(t *testing.T) {
	srv := newFeedServer(t)
	app, _ := newTestApp(t, testConfig(t, srv), &countingClient{})

	err := watch(context.Background(), app, config.FeedText, 0)
	assert.ErrorIs(t, err, sabik.ErrQueueDisabled)
}
