package toolerr

import (
	"fmt"
	"strings"
)

// Error codes. The first group is the conversation taxonomy: every failure
// the orchestrator or the tool executor can observe maps onto one of them.
// The second group is used by individual tools to describe what went wrong
// talking to their backends.
const (
	// CodeTransport indicates the LLM call could not complete
	// (network failure, timeout or a non-2xx status).
	CodeTransport = "TRANSPORT"

	// CodeEmptyResponse indicates the LLM answered without any candidate message.
	CodeEmptyResponse = "EMPTY_RESPONSE"

	// CodeUnknownTool indicates the model asked for a tool that is not registered.
	CodeUnknownTool = "UNKNOWN_TOOL"

	// CodeArgumentDecode indicates the tool arguments were not a valid JSON object.
	CodeArgumentDecode = "ARGUMENT_DECODE"

	// CodeArgumentShape indicates decoded arguments did not satisfy the tool schema.
	CodeArgumentShape = "ARGUMENT_SHAPE"

	// CodeInternalFault indicates a tool failed inside its own logic.
	CodeInternalFault = "TOOL_INTERNAL_FAULT"
)

const (
	// CodeInvalidInput indicates an argument passed the schema but is still unusable
	CodeInvalidInput = "INVALID_INPUT"

	// CodeTimeout indicates an operation timed out
	CodeTimeout = "TIMEOUT"

	// CodeNetworkError indicates a network-related error
	CodeNetworkError = "NETWORK_ERROR"

	// CodeUpstreamStatus indicates a backend answered with a non-2xx status
	CodeUpstreamStatus = "UPSTREAM_STATUS"

	// CodeFileIO indicates a local file could not be read or written
	CodeFileIO = "FILE_IO"
)

// Sentinels for errors.Is. They match any *Error carrying the same code,
// whatever tool or operation produced it.
var (
	ErrTransport     = &Error{Code: CodeTransport}
	ErrEmptyResponse = &Error{Code: CodeEmptyResponse}
	ErrUnknownTool   = &Error{Code: CodeUnknownTool}
	ErrInvalidInput  = &Error{Code: CodeInvalidInput}
	ErrTimeout       = &Error{Code: CodeTimeout}
)

// Error is a structured error for tool and conversation failures.
// It records which tool and operation failed, a standard code, and an
// optional cause chain.
type Error struct {
	// Tool is the name of the tool that generated the error
	Tool string `json:"tool,omitempty"`

	// Operation is the specific operation that failed
	Operation string `json:"operation,omitempty"`

	// Code is one of the Code* constants
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message,omitempty"`

	// Details contains additional context as key-value pairs
	Details map[string]any `json:"details,omitempty"`

	// Cause is the underlying error that caused this error
	Cause error `json:"-"`

	// Class categorizes the error by its nature
	Class ErrorClass `json:"class,omitempty"`

	// Hints provides recovery suggestions for this error
	Hints []RecoveryHint `json:"hints,omitempty"`
}

// New creates a new structured error.
//
// Example:
//
//	err := toolerr.New("calculator", "evaluate", toolerr.CodeInvalidInput,
//	    "expression contains disallowed characters")
func New(tool, operation, code, message string) *Error {
	return &Error{
		Tool:      tool,
		Operation: operation,
		Code:      code,
		Message:   message,
	}
}

// WithCause adds an underlying error and returns the same instance.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails adds additional context and returns the same instance.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// WithClass sets the error classification and returns the same instance.
func (e *Error) WithClass(class ErrorClass) *Error {
	e.Class = class
	return e
}

// WithHints appends recovery suggestions and returns the same instance.
func (e *Error) WithHints(hints ...RecoveryHint) *Error {
	e.Hints = append(e.Hints, hints...)
	return e
}

// Error formats the error as "tool [operation/code]: message: cause".
//
// Examples:
//   - "calculator [evaluate/INVALID_INPUT]: expression contains disallowed characters"
//   - "llm [complete/TRANSPORT]: chat completion failed: connection refused"
func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("%s [%s/%s]", e.Tool, e.Operation, e.Code))

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code. Empty Tool or
// Operation on the target act as wildcards, which is how the package
// sentinels match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code != t.Code {
		return false
	}
	if t.Tool != "" && t.Tool != e.Tool {
		return false
	}
	if t.Operation != "" && t.Operation != e.Operation {
		return false
	}
	return true
}
