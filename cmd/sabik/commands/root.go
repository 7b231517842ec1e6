package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/sabik"
	"github.com/zero-day-ai/sabik/config"
)

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	outputDir  string
	logLevel   string
	redisURL   string
}

var flags globalFlags

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sabik",
	Short: "Natural-language assistant with image, audio, web and math tools",
	Long: `Sabik - talk to a language model that can call tools.

The model decides when to generate or analyze images, transcribe audio,
speak text, fetch a web page or evaluate arithmetic. Live image and text
feeds can be followed in the background while you chat.

Examples:
  # Start an interactive session
  sabik

  # One-shot request
  sabik ask "What is the result of (350 / 7) * 3 + 15?"

  # Follow the image feed and re-publish events to Redis
  sabik --redis-url redis://localhost:6379 feed image
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.outputDir, "output-dir", "", "directory for generated files (default agent_outputs_tool_mode)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.redisURL, "redis-url", "", "re-publish feed events to this Redis")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(toolsCmd)
}

// loadConfig layers flags over the file and environment.
func loadConfig(f globalFlags, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(f.configPath, lookup)
	if err != nil {
		return nil, err
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.redisURL != "" {
		cfg.RedisURL = f.redisURL
	}
	return cfg, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newApp builds the application for a command from the global flags.
func newApp(cmd *cobra.Command, opts ...sabik.Option) (*sabik.App, error) {
	cfg, err := loadConfig(flags, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Level())

	base := []sabik.Option{
		sabik.WithConfig(cfg),
		sabik.WithLogger(logger),
		sabik.WithOutput(cmd.OutOrStdout()),
	}
	return sabik.New(cmd.Context(), append(base, opts...)...)
}

// closeApp shuts the app down with a fresh context so an interrupted
// command still flushes.
func closeApp(app *sabik.App) {
	if err := app.Close(context.Background()); err != nil {
		app.Logger().Warn("shutdown incomplete", "error", err)
	}
}
