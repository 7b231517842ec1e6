package sabik

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/zero-day-ai/sabik/agent"
	"github.com/zero-day-ai/sabik/config"
	"github.com/zero-day-ai/sabik/console"
	"github.com/zero-day-ai/sabik/health"
	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/monitor"
	"github.com/zero-day-ai/sabik/queue"
	"github.com/zero-day-ai/sabik/telemetry"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/tools"
	"github.com/zero-day-ai/sabik/types"
)

// App wires configuration, the model client, the tool registry, the
// conversation orchestrator, the feed monitor and the console together.
// One App serves one conversation.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	console *console.Console

	http     *http.Client
	llm      llm.Client
	registry *tool.Registry
	executor *tool.Executor
	tracker  *llm.DefaultTokenTracker
	orch     *agent.Orchestrator
	monitor  *monitor.Monitor

	// queue is nil unless redis_url is set or WithQueue was used.
	queue    queue.Client
	queueErr error

	tp      *sdktrace.TracerProvider
	metrics *telemetry.Metrics

	// feedMu makes the closed check and monitor.Start atomic with
	// respect to Close.
	feedMu    sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// New builds an App. The output directory is created and, when a redis_url
// is configured, Redis is dialed; an unreachable Redis is logged and the
// App runs without re-publishing feed events.
func New(ctx context.Context, opts ...Option) (*App, error) {
	ac := &appConfig{}
	for _, opt := range opts {
		opt(ac)
	}

	cfg := ac.config
	if cfg == nil {
		loaded, err := config.Load(ac.configPath)
		if err != nil {
			return nil, NewConfigurationError("New", errors.Join(ErrInvalidConfig, err)).
				WithContext(map[string]any{"path": ac.configPath})
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewConfigurationError("New", errors.Join(ErrInvalidConfig, err))
	}
	if _, err := cfg.EnsureOutputDir(); err != nil {
		return nil, NewConfigurationError("New", err)
	}

	logger := ac.logger
	if logger == nil {
		logger = slog.Default()
	}
	out := ac.out
	if out == nil {
		out = os.Stdout
	}

	a := &App{
		cfg:     cfg,
		logger:  logger.With("component", "app"),
		console: console.New(out, console.WithWidth(ac.width)),
		tracker: llm.NewTokenTracker(),
		closed:  make(chan struct{}),
	}

	a.tp = telemetry.NewTracerProvider(logger, slog.LevelDebug)
	tracer := telemetry.Tracer(a.tp)
	metrics, err := telemetry.NewMetrics(otel.Meter(telemetry.InstrumentationName))
	if err != nil {
		a.logger.Warn("metrics disabled", "error", err)
	}
	a.metrics = metrics

	a.http = identityClient(ac.httpClient, cfg.Referrer)

	a.llm = ac.llmClient
	if a.llm == nil {
		a.llm = llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:    cfg.TextBaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Models.Text,
			Referrer:   cfg.Referrer,
			HTTPClient: a.http,
			Timeout:    cfg.Timeouts.GetLLM(),
			Logger:     logger,
		})
	}

	a.registry = tool.NewRegistry()
	if err := tools.Register(a.registry); err != nil {
		return nil, NewInternalError("New", err)
	}
	for _, t := range ac.extraTools {
		if err := a.registry.Register(t); err != nil {
			return nil, NewValidationError("New", err)
		}
	}

	env := &tool.Env{
		HTTP:   a.http,
		LLM:    a.llm,
		Config: cfg,
		Logger: logger,
	}
	a.executor = tool.NewExecutor(a.registry,
		tool.WithEnv(env),
		tool.WithLogger(logger),
		tool.WithTracer(tracer),
		tool.WithMetrics(metrics),
		tool.WithMaxConcurrency(cfg.Tools.GetMaxConcurrency()),
	)

	a.orch = agent.New(a.llm, a.executor,
		agent.WithModel(cfg.Models.Text),
		agent.WithTokenTracker(a.tracker),
		agent.WithHooks(a.console.Hooks()),
		agent.WithLogger(logger),
		agent.WithTracer(tracer),
		agent.WithMetrics(metrics),
	)

	sinks := monitor.MultiSink{a.console.FeedRenderer()}
	a.queue = ac.queue
	if a.queue == nil && cfg.RedisURL != "" {
		rc, err := queue.NewRedisClient(queue.RedisOptions{URL: cfg.RedisURL})
		if err != nil {
			a.queueErr = err
			a.logger.Warn("feed queue unavailable, continuing without it", "redis_url", cfg.RedisURL, "error", err)
		} else {
			a.queue = rc
		}
	}
	if a.queue != nil {
		sinks = append(sinks, queue.NewPublisher(a.queue, queue.WithLogger(logger)))
	}

	a.monitor = monitor.New(
		monitor.WithHTTPClient(a.http),
		monitor.WithSink(sinks),
		monitor.WithHeaders(IdentityHeaders(cfg.Referrer)),
		monitor.WithBackoff(monitor.Backoff{
			Timeout: cfg.Monitor.GetTimeoutBackoff(),
			IOError: cfg.Monitor.GetIOErrorBackoff(),
			Fault:   cfg.Monitor.GetFaultBackoff(),
			End:     cfg.Monitor.GetEndBackoff(),
		}),
		monitor.WithTimeouts(cfg.Monitor.GetConnectTimeout(), cfg.Monitor.GetReadTimeout()),
		monitor.WithJoinTimeout(cfg.Monitor.GetJoinTimeout()),
		monitor.WithLogger(logger),
		monitor.WithMetrics(metrics),
	)

	a.logger.Debug("app ready",
		"text_base_url", cfg.TextBaseURL,
		"image_base_url", cfg.ImageBaseURL,
		"tools", a.registry.Len(),
		"queue", a.queue != nil)
	return a, nil
}

// Config returns the effective configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Console returns the terminal renderer.
func (a *App) Console() *console.Console { return a.console }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Orchestrator returns the conversation orchestrator.
func (a *App) Orchestrator() *agent.Orchestrator { return a.orch }

// Monitor returns the feed monitor.
func (a *App) Monitor() *monitor.Monitor { return a.monitor }

// Registry returns the tool registry.
func (a *App) Registry() *tool.Registry { return a.registry }

// Welcome prints the startup panel.
func (a *App) Welcome() {
	a.console.Welcome(console.WelcomeInfo{
		Referrer:  a.cfg.Referrer,
		TextURL:   a.cfg.TextBaseURL,
		ImageURL:  a.cfg.ImageBaseURL,
		OutputDir: a.cfg.OutputDir,
		RedisURL:  a.cfg.RedisURL,
	})
}

// Ask runs one conversation turn and renders its outcome.
func (a *App) Ask(ctx context.Context, text string) agent.TurnResult {
	res := a.orch.RunTurn(ctx, text)
	a.console.Turn(res)
	return res
}

// Reset forgets the conversation. Token usage is kept.
func (a *App) Reset() {
	a.orch.Reset()
}

// Usage returns the token usage accumulated so far.
func (a *App) Usage() llm.Snapshot {
	return a.tracker.Snapshot()
}

// StartFeed starts following the named feed in the background.
func (a *App) StartFeed(name string) (monitor.StartStatus, error) {
	url, err := a.cfg.FeedURL(name)
	if err != nil {
		return "", NewValidationError("App.StartFeed", errors.Join(ErrUnknownFeed, err)).
			WithContext(map[string]any{"feed": name})
	}

	a.feedMu.Lock()
	defer a.feedMu.Unlock()

	select {
	case <-a.closed:
		return "", NewInternalError("App.StartFeed", ErrClosed)
	default:
	}
	return a.monitor.Start(name, url)
}

// StopFeeds stops every running feed.
func (a *App) StopFeeds() {
	a.monitor.StopAll()
}

// Recent returns up to n events of a feed that were re-published to
// Redis, newest first.
func (a *App) Recent(ctx context.Context, feed string, n int) ([]queue.FeedMessage, error) {
	if err := a.queueReady("App.Recent"); err != nil {
		return nil, err
	}
	msgs, err := a.queue.Recent(ctx, feed, n)
	if err != nil {
		return nil, NewNetworkError("App.Recent", err).WithContext(map[string]any{"feed": feed})
	}
	return msgs, nil
}

// Subscribe follows a feed through Redis instead of connecting to it,
// receiving what another Sabik process re-publishes. The channel closes
// when ctx ends.
func (a *App) Subscribe(ctx context.Context, feed string) (<-chan queue.FeedMessage, error) {
	if err := a.queueReady("App.Subscribe"); err != nil {
		return nil, err
	}
	msgs, err := a.queue.Subscribe(ctx, feed)
	if err != nil {
		return nil, NewNetworkError("App.Subscribe", err).WithContext(map[string]any{"feed": feed})
	}
	return msgs, nil
}

func (a *App) queueReady(op string) error {
	if a.queue != nil {
		return nil
	}
	err := ErrQueueDisabled
	if a.queueErr != nil {
		err = errors.Join(ErrQueueDisabled, a.queueErr)
	}
	return NewConfigurationError(op, err)
}

// Doctor probes the endpoints, the output directory, tools that declare a
// health check and, when configured, Redis.
func (a *App) Doctor(ctx context.Context) []health.Result {
	checks := []health.Check{
		{Name: "text endpoint", Run: func(ctx context.Context) types.HealthStatus {
			return health.URLCheck(ctx, a.http, a.cfg.TextBaseURL)
		}},
		{Name: "image endpoint", Run: func(ctx context.Context) types.HealthStatus {
			return health.URLCheck(ctx, a.http, a.cfg.ImageBaseURL)
		}},
		{Name: "output dir", Run: func(context.Context) types.HealthStatus {
			return health.WritableDirCheck(a.cfg.OutputDir)
		}},
	}

	env := &tool.Env{HTTP: a.http, LLM: a.llm, Config: a.cfg, Logger: a.logger}
	for _, name := range a.registry.Names() {
		t, _ := a.registry.Get(name)
		hc, ok := t.(tool.HealthChecker)
		if !ok {
			continue
		}
		checks = append(checks, health.Check{Name: name, Run: func(ctx context.Context) types.HealthStatus {
			return hc.Health(ctx, env)
		}})
	}

	if a.queue != nil || a.queueErr != nil {
		checks = append(checks, health.Check{Name: "redis", Run: func(ctx context.Context) types.HealthStatus {
			if a.queueErr != nil {
				return types.NewUnhealthyStatus("redis is unreachable", map[string]any{"error": a.queueErr.Error()})
			}
			return health.PingCheck(ctx, "redis", a.queue)
		}})
	}

	return health.Run(ctx, health.DefaultCheckTimeout, checks...)
}

// Close stops the feeds, closes the queue and flushes telemetry. It is
// safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	var err error
	a.closeOnce.Do(func() {
		a.feedMu.Lock()
		close(a.closed)
		a.monitor.StopAll()
		a.feedMu.Unlock()

		if a.queue != nil {
			CloseWithLog(a.queue, a.logger, "feed queue")
		}
		if shutdownErr := a.tp.Shutdown(ctx); shutdownErr != nil {
			err = NewInternalError("App.Close", fmt.Errorf("failed to shut down tracer provider: %w", shutdownErr))
		}
	})
	return err
}
