package sabik

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "wrapped",
			err:  NewValidationError("App.StartFeed", ErrUnknownFeed),
			want: "sabik: App.StartFeed (validation): unknown feed",
		},
		{
			name: "no underlying error",
			err:  &Error{Op: "App.Close", Kind: KindInternal},
			want: "sabik: App.Close: internal",
		},
		{
			name: "with context",
			err:  NewNetworkError("App.Recent", errors.New("refused")).WithContext(map[string]any{"feed": "text"}),
			want: "sabik: App.Recent (network): refused [context: map[feed:text]]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := NewConfigurationError("New", ErrInvalidConfig)

	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, &Error{Kind: KindConfiguration})
	assert.ErrorIs(t, err, &Error{Op: "New", Kind: KindConfiguration})
	assert.NotErrorIs(t, err, &Error{Op: "Other", Kind: KindConfiguration})
	assert.NotErrorIs(t, err, &Error{Kind: KindNetwork})
	assert.NotErrorIs(t, err, ErrQueueDisabled)
	assert.False(t, err.Is(nil))

	var target *Error
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "New", target.Op)
}

func TestWithContextCopies(t *testing.T) {
	base := NewInternalError("op", errors.New("x")).WithContext(map[string]any{"a": 1})
	derived := base.WithContext(map[string]any{"b": 2})

	assert.Equal(t, map[string]any{"a": 1}, base.Context)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, derived.Context)
}

type mockCloser struct {
	err   error
	calls int
}

func (m *mockCloser) Close() error {
	m.calls++
	return m.err
}

func TestCloseWithLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	CloseWithLog(nil, logger, "nothing")
	assert.Empty(t, buf.String())

	ok := &mockCloser{}
	CloseWithLog(ok, logger, "redis client")
	assert.Equal(t, 1, ok.calls)
	assert.Empty(t, buf.String())

	bad := &mockCloser{err: errors.New("connection reset")}
	CloseWithLog(bad, logger, "redis client")
	assert.Equal(t, 1, bad.calls)
	assert.Contains(t, buf.String(), "failed to close resource")
	assert.Contains(t, buf.String(), "resource=\"redis client\"")
	assert.Contains(t, buf.String(), "connection reset")
}
