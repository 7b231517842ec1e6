package sabik

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Sentinel errors for application-level conditions.
var (
	// ErrInvalidConfig indicates the configuration could not be loaded or failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownFeed indicates a feed name that has no endpoint.
	ErrUnknownFeed = errors.New("unknown feed")

	// ErrQueueDisabled indicates an operation that needs Redis while no redis_url is configured.
	ErrQueueDisabled = errors.New("feed queue is not configured")

	// ErrClosed indicates the App was already closed.
	ErrClosed = errors.New("app is closed")
)

// Error kinds categorize errors by their type.
const (
	KindConfiguration = "configuration"
	KindValidation    = "validation"
	KindNetwork       = "network"
	KindInternal      = "internal"
)

// Error wraps an underlying error with the operation that failed and its
// category. It supports errors.Is and errors.As.
type Error struct {
	// Op is the operation that failed (e.g. "App.StartFeed").
	Op string

	// Kind categorizes the error.
	Kind string

	// Err is the underlying error.
	Err error

	// Context carries optional debugging values such as the feed name.
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sabik: %s: %s", e.Op, e.Kind)
	}
	if len(e.Context) > 0 {
		return fmt.Sprintf("sabik: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}
	return fmt.Sprintf("sabik: %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind (and Op, when the target sets one) and
// otherwise delegates to the wrapped error.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if t, ok := target.(*Error); ok && t.Kind != "" && e.Kind == t.Kind {
		if t.Op == "" || e.Op == t.Op {
			return true
		}
	}
	return errors.Is(e.Err, target)
}

// WithContext returns a copy of e with ctx merged into its Context.
func (e *Error) WithContext(ctx map[string]any) *Error {
	out := *e
	out.Context = make(map[string]any, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		out.Context[k] = v
	}
	for k, v := range ctx {
		out.Context[k] = v
	}
	return &out
}

// NewConfigurationError creates an Error with KindConfiguration.
func NewConfigurationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindConfiguration, Err: err}
}

// NewValidationError creates an Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindValidation, Err: err}
}

// NewNetworkError creates an Error with KindNetwork.
func NewNetworkError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindNetwork, Err: err}
}

// NewInternalError creates an Error with KindInternal.
func NewInternalError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInternal, Err: err}
}

// CloseWithLog closes c and logs a failure at warning level. The name
// describes the resource (e.g. "redis client"). A nil logger falls back
// to slog.Default().
//
//	defer sabik.CloseWithLog(client, logger, "redis client")
func CloseWithLog(c io.Closer, logger *slog.Logger, name string) {
	if c == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := c.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
