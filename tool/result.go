package tool

import (
	"encoding/json"
	"fmt"

	"github.com/zero-day-ai/sabik/toolerr"
)

// Status is the outcome of a tool execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the uniform envelope every tool execution produces. It is
// serialized with JSON into the content of a tool message.
type Result struct {
	Status Status

	// Message is a human-readable summary.
	Message string

	// Payload holds the machine-oriented fields. They are flattened into
	// the top level of the JSON encoding.
	Payload map[string]any

	// NonStandard marks a successful result whose tool returned something
	// other than a Result or a status map.
	NonStandard bool

	// Err is set on error results.
	Err *toolerr.Error
}

// Success returns a success result.
func Success(message string, payload map[string]any) Result {
	return Result{Status: StatusSuccess, Message: message, Payload: payload}
}

// Failure returns an error result built from a structured error.
func Failure(err *toolerr.Error) Result {
	msg := err.Message
	if err.Cause != nil {
		if msg == "" {
			msg = err.Cause.Error()
		} else {
			msg = msg + ": " + err.Cause.Error()
		}
	}
	return Result{
		Status:  StatusError,
		Message: msg,
		Payload: err.Details,
		Err:     err,
	}
}

// IsError reports whether the result is an error.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

// Map returns the flat representation used on the wire. Reserved keys
// (status, message, error_code, error_class, retryable, recovery_hints,
// non_standard_payload) override payload keys of the same name.
func (r Result) Map() map[string]any {
	out := make(map[string]any, len(r.Payload)+4)
	for k, v := range r.Payload {
		out[k] = v
	}

	out["status"] = string(r.Status)
	if r.Message != "" {
		out["message"] = r.Message
	}
	if r.NonStandard {
		out["non_standard_payload"] = true
	}
	if r.Err != nil {
		out["error_code"] = r.Err.Code
		if r.Err.Class != "" {
			out["error_class"] = string(r.Err.Class)
			out["retryable"] = r.Err.Class.Retryable()
		}
		if len(r.Err.Hints) > 0 {
			out["recovery_hints"] = r.Err.Hints
		}
	}
	return out
}

// JSON encodes the result. Payload values that cannot be encoded are
// replaced by their fmt representation so the model always receives a
// well-formed object.
func (r Result) JSON() string {
	data, err := json.Marshal(r.Map())
	if err == nil {
		return string(data)
	}

	fallback := r
	fallback.Payload = make(map[string]any, len(r.Payload))
	for k, v := range r.Payload {
		fallback.Payload[k] = fmt.Sprintf("%v", v)
	}
	fallback.NonStandard = true
	data, err = json.Marshal(fallback.Map())
	if err != nil {
		return fmt.Sprintf(`{"status":%q,"message":%q}`, r.Status, r.Message)
	}
	return string(data)
}

// normalize converts whatever a tool returned into a Result.
func normalize(v any) Result {
	switch out := v.(type) {
	case Result:
		if out.Status == "" {
			out.Status = StatusSuccess
		}
		return out
	case *Result:
		if out != nil {
			return normalize(*out)
		}
	case map[string]any:
		if r, ok := fromStatusMap(out); ok {
			return r
		}
	}

	return Result{
		Status:      StatusSuccess,
		Payload:     map[string]any{"result": v},
		NonStandard: true,
	}
}

func fromStatusMap(m map[string]any) (Result, bool) {
	raw, ok := m["status"].(string)
	if !ok {
		return Result{}, false
	}
	status := Status(raw)
	if status != StatusSuccess && status != StatusError {
		return Result{}, false
	}

	r := Result{Status: status, Payload: make(map[string]any, len(m))}
	for k, v := range m {
		switch k {
		case "status":
		case "message":
			if s, ok := v.(string); ok {
				r.Message = s
			} else {
				r.Payload[k] = v
			}
		default:
			r.Payload[k] = v
		}
	}
	return r, true
}
