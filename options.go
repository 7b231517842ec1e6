package sabik

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/zero-day-ai/sabik/config"
	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/queue"
	"github.com/zero-day-ai/sabik/tool"
)

// Option configures an App.
type Option func(*appConfig)

type appConfig struct {
	configPath string
	config     *config.Config
	logger     *slog.Logger
	out        io.Writer
	width      int
	httpClient *http.Client
	llmClient  llm.Client
	queue      queue.Client
	extraTools []tool.Tool
}

// WithConfigPath loads configuration from a YAML file. Environment
// variables still override it.
func WithConfigPath(path string) Option {
	return func(c *appConfig) {
		c.configPath = path
	}
}

// WithConfig uses cfg as is, skipping file and environment loading.
func WithConfig(cfg *config.Config) Option {
	return func(c *appConfig) {
		c.config = cfg
	}
}

// WithLogger sets the logger. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *appConfig) {
		c.logger = logger
	}
}

// WithOutput sets where console output is written. Default: os.Stdout
func WithOutput(w io.Writer) Option {
	return func(c *appConfig) {
		c.out = w
	}
}

// WithWidth sets the console rendering width.
func WithWidth(width int) Option {
	return func(c *appConfig) {
		c.width = width
	}
}

// WithHTTPClient replaces the base HTTP client. Its transport is wrapped
// so outbound requests carry the configured referrer.
func WithHTTPClient(client *http.Client) Option {
	return func(c *appConfig) {
		c.httpClient = client
	}
}

// WithLLMClient replaces the OpenAI-compatible client built from the
// configuration.
func WithLLMClient(client llm.Client) Option {
	return func(c *appConfig) {
		c.llmClient = client
	}
}

// WithQueue uses an existing feed queue instead of dialing redis_url.
// The App takes ownership and closes it.
func WithQueue(q queue.Client) Option {
	return func(c *appConfig) {
		c.queue = q
	}
}

// WithTools registers additional tools after the builtin ones.
func WithTools(tools ...tool.Tool) Option {
	return func(c *appConfig) {
		c.extraTools = append(c.extraTools, tools...)
	}
}
