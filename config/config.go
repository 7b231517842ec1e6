// Package config loads Sabik's runtime configuration from an optional YAML
// file, environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the public Pollinations endpoints.
const (
	DefaultTextBaseURL  = "https://text.pollinations.ai/openai"
	DefaultImageBaseURL = "https://image.pollinations.ai"
	DefaultReferrer     = "sabik"
	DefaultAPIKey       = "dummy-openai-key"
	DefaultOutputDir    = "agent_outputs_tool_mode"
)

// Environment variables consulted by Load.
const (
	EnvTextBaseURL  = "OPENAI_BASE_URL_TEXT"
	EnvImageBaseURL = "OPENAI_IMAGE_BASE_URL_TEXT"
	EnvReferrer     = "OPENAI_REFERRER"
	EnvAPIKey       = "OPENAI_API_KEY"
	EnvOutputDir    = "OUTPUT_DIR"
	EnvRedisURL     = "SABIK_REDIS_URL"
	EnvLogLevel     = "SABIK_LOG_LEVEL"
	EnvConcurrency  = "SABIK_TOOL_CONCURRENCY"
)

// Config is the complete runtime configuration.
type Config struct {
	TextBaseURL  string `yaml:"text_base_url"`
	ImageBaseURL string `yaml:"image_base_url"`
	Referrer     string `yaml:"referrer"`
	APIKey       string `yaml:"api_key"`
	OutputDir    string `yaml:"output_dir"`

	// RedisURL enables re-publishing feed events to Redis when set.
	RedisURL string `yaml:"redis_url,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	Models   ModelsConfig   `yaml:"models"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Tools    ToolsConfig    `yaml:"tools"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

// ModelsConfig names the model used for each capability.
type ModelsConfig struct {
	Text   string `yaml:"text"`
	Vision string `yaml:"vision"`
	Audio  string `yaml:"audio"`
	Image  string `yaml:"image"`
}

// TimeoutsConfig holds Go duration strings (e.g. "30s", "5m").
type TimeoutsConfig struct {
	LLM   string `yaml:"llm,omitempty"`
	Image string `yaml:"image,omitempty"`
	Fetch string `yaml:"fetch,omitempty"`
	Audio string `yaml:"audio,omitempty"`
}

// ToolsConfig tunes tool execution.
type ToolsConfig struct {
	// MaxConcurrency bounds how many tool calls of one assistant message run at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency,omitempty"`
}

// MonitorConfig holds feed monitor timings as Go duration strings.
type MonitorConfig struct {
	ConnectTimeout string `yaml:"connect_timeout,omitempty"`
	ReadTimeout    string `yaml:"read_timeout,omitempty"`
	TimeoutBackoff string `yaml:"timeout_backoff,omitempty"`
	IOErrorBackoff string `yaml:"io_error_backoff,omitempty"`
	FaultBackoff   string `yaml:"fault_backoff,omitempty"`
	EndBackoff     string `yaml:"end_backoff,omitempty"`
	JoinTimeout    string `yaml:"join_timeout,omitempty"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		TextBaseURL:  DefaultTextBaseURL,
		ImageBaseURL: DefaultImageBaseURL,
		Referrer:     DefaultReferrer,
		APIKey:       DefaultAPIKey,
		OutputDir:    DefaultOutputDir,
		LogLevel:     "info",
		Models: ModelsConfig{
			Text:   "openai-large",
			Vision: "openai-large",
			Audio:  "openai-audio",
			Image:  "flux",
		},
	}
}

// Load builds a configuration from defaults, the YAML file at path (if
// path is not empty) and the process environment, in that order.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables that are set and non-empty.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	set(EnvTextBaseURL, &c.TextBaseURL)
	set(EnvImageBaseURL, &c.ImageBaseURL)
	set(EnvReferrer, &c.Referrer)
	set(EnvAPIKey, &c.APIKey)
	set(EnvOutputDir, &c.OutputDir)
	set(EnvRedisURL, &c.RedisURL)
	set(EnvLogLevel, &c.LogLevel)

	if v, ok := lookup(EnvConcurrency); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvConcurrency, err)
		}
		c.Tools.MaxConcurrency = n
	}

	return nil
}

// Validate checks that the endpoints are absolute http(s) URLs and the
// remaining required fields are present.
func (c *Config) Validate() error {
	var errs []error

	for name, raw := range map[string]string{
		"text_base_url":  c.TextBaseURL,
		"image_base_url": c.ImageBaseURL,
	} {
		if err := checkHTTPURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.RedisURL != "" {
		if _, err := url.Parse(c.RedisURL); err != nil {
			errs = append(errs, fmt.Errorf("redis_url: %w", err))
		}
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if c.Models.Text == "" {
		errs = append(errs, errors.New("models.text is required"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}

	return errors.Join(errs...)
}

// ParseLogLevel maps debug, info, warn or error (any case) to a slog
// level. An empty string is info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
}

// Level returns the configured log level, falling back to info.
func (c *Config) Level() slog.Level {
	lvl, _ := ParseLogLevel(c.LogLevel)
	return lvl
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

// EnsureOutputDir creates the output directory if needed and returns its
// absolute path.
func (c *Config) EnsureOutputDir() (string, error) {
	abs, err := filepath.Abs(c.OutputDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	return abs, nil
}

// Feed names understood by FeedURL.
const (
	FeedImage = "image"
	FeedText  = "text"
)

// FeedNames lists the known feeds in display order.
func FeedNames() []string {
	return []string{FeedImage, FeedText}
}

// FeedURL returns the server-sent events endpoint of a named feed. The
// image feed hangs off the image base URL; the text feed lives at the root
// of the text endpoint's host.
func (c *Config) FeedURL(name string) (string, error) {
	switch name {
	case FeedImage:
		return strings.TrimRight(c.ImageBaseURL, "/") + "/feed", nil
	case FeedText:
		u, err := url.Parse(c.TextBaseURL)
		if err != nil {
			return "", fmt.Errorf("invalid text base url: %w", err)
		}
		return u.Scheme + "://" + u.Host + "/feed", nil
	default:
		return "", fmt.Errorf("unknown feed %q (want one of %s)", name, strings.Join(FeedNames(), ", "))
	}
}

// GetLLM returns the LLM call timeout. Default: 120s
func (t TimeoutsConfig) GetLLM() time.Duration { return parseDuration(t.LLM, 120*time.Second) }

// GetImage returns the image generation timeout. Default: 300s
func (t TimeoutsConfig) GetImage() time.Duration { return parseDuration(t.Image, 300*time.Second) }

// GetFetch returns the web fetch timeout. Default: 10s
func (t TimeoutsConfig) GetFetch() time.Duration { return parseDuration(t.Fetch, 10*time.Second) }

// GetAudio returns the speech and transcription timeout. Default: 120s
func (t TimeoutsConfig) GetAudio() time.Duration { return parseDuration(t.Audio, 120*time.Second) }

// GetMaxConcurrency returns the configured concurrency or 4.
func (t ToolsConfig) GetMaxConcurrency() int {
	if t.MaxConcurrency <= 0 {
		return 4
	}
	return t.MaxConcurrency
}

// GetConnectTimeout returns the feed connect timeout. Default: 10s
func (m MonitorConfig) GetConnectTimeout() time.Duration {
	return parseDuration(m.ConnectTimeout, 10*time.Second)
}

// GetReadTimeout returns how long a feed may stay silent. Default: 60s
func (m MonitorConfig) GetReadTimeout() time.Duration {
	return parseDuration(m.ReadTimeout, 60*time.Second)
}

// GetTimeoutBackoff returns the delay after a connection timeout. Default: 10s
func (m MonitorConfig) GetTimeoutBackoff() time.Duration {
	return parseDuration(m.TimeoutBackoff, 10*time.Second)
}

// GetIOErrorBackoff returns the delay after an I/O error. Default: 10s
func (m MonitorConfig) GetIOErrorBackoff() time.Duration {
	return parseDuration(m.IOErrorBackoff, 10*time.Second)
}

// GetFaultBackoff returns the delay after an unexpected fault. Default: 10s
func (m MonitorConfig) GetFaultBackoff() time.Duration {
	return parseDuration(m.FaultBackoff, 10*time.Second)
}

// GetEndBackoff returns the delay after a clean stream end. Default: 5s
func (m MonitorConfig) GetEndBackoff() time.Duration {
	return parseDuration(m.EndBackoff, 5*time.Second)
}

// GetJoinTimeout returns how long StopAll waits per worker. Default: 5s
func (m MonitorConfig) GetJoinTimeout() time.Duration {
	return parseDuration(m.JoinTimeout, 5*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
