package tool

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zero-day-ai/sabik/config"
	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/schema"
	"github.com/zero-day-ai/sabik/types"
)

// Tool is a capability the model can invoke by name.
//
// Execute receives arguments that already decoded as a JSON object and
// passed Parameters().Validate. It may return a Result, a map carrying a
// "status" key, or any other value; the Executor normalizes all of them.
// Returned errors and panics are converted into error results.
type Tool interface {
	// Name returns the unique identifier the model uses to call this tool.
	Name() string

	// Description tells the model what the tool does and when to use it.
	Description() string

	// Parameters returns the JSON Schema of the tool's arguments.
	Parameters() schema.JSON

	// Execute runs the tool.
	Execute(ctx context.Context, args map[string]any, env *Env) (any, error)
}

// HealthChecker is implemented by tools that depend on something that may
// be missing at runtime, such as a local audio player.
type HealthChecker interface {
	Health(ctx context.Context, env *Env) types.HealthStatus
}

// Env is the shared context handed to every tool invocation.
type Env struct {
	// HTTP is the outbound session for tool backends.
	HTTP *http.Client

	// LLM is used by tools that call the model themselves (vision, transcription).
	LLM llm.Client

	// Config is the static runtime configuration.
	Config *config.Config

	// Logger is scoped to the executor.
	Logger *slog.Logger

	// Now returns the current time; file names are derived from it.
	Now func() time.Time
}

// Clock returns Now, or time.Now when unset.
func (e *Env) Clock() time.Time {
	if e == nil || e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Log returns the env logger or slog.Default.
func (e *Env) Log() *slog.Logger {
	if e == nil || e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
