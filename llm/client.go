package llm

import (
	"context"
	"errors"
)

// Client sends a completion request to a model and returns its single
// candidate answer. Implementations make exactly one attempt per call.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// ErrEmptyResponse is returned when the provider answered successfully but
// without any candidate message.
var ErrEmptyResponse = errors.New("llm: response contained no choices")

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return f(ctx, req)
}
