package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/sabik/schema"
)

func echoTool(t *testing.T, name string) Tool {
	t.Helper()
	tl, err := New(NewConfig().
		SetName(name).
		SetDescription("echoes text").
		SetParameters(schema.Object(map[string]schema.JSON{
			"text": schema.StringWithDesc("text to echo"),
		}, "text")).
		SetExecuteFunc(func(ctx context.Context, args map[string]any, env *Env) (any, error) {
			return Success("echoed", map[string]any{"text": args["text"]}), nil
		}))
	require.NoError(t, err)
	return tl
}

func TestRegistryKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"generate_ai_image", "calculator", "simple_web_search"} {
		require.NoError(t, reg.Register(echoTool(t, name)))
	}

	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{"generate_ai_image", "calculator", "simple_web_search"}, reg.Names())

	specs := reg.Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, "calculator", specs[1].Name)
	assert.Equal(t, []string{"text"}, specs[1].Required())

	defs := ToolDefs(specs)
	require.Len(t, defs, 3)
	assert.Equal(t, "generate_ai_image", defs[0].Name)
	assert.Equal(t, "object", defs[0].Parameters["type"])
}

func TestRegistryRejects(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool(t, "echo")))

	tests := []struct {
		name string
		tool Tool
	}{
		{name: "nil", tool: nil},
		{name: "duplicate", tool: echoTool(t, "echo")},
		{name: "empty name", tool: &funcTool{parameters: schema.Object(nil)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, reg.Register(tt.tool))
		})
	}
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(echoTool(t, "echo"))

	got, ok := reg.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	assert.Panics(t, func() { reg.MustRegister(echoTool(t, "echo")) })
}

func TestNewValidatesConfig(t *testing.T) {
	noop := func(ctx context.Context, args map[string]any, env *Env) (any, error) { return nil, nil }

	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(NewConfig().SetExecuteFunc(noop))
	assert.ErrorContains(t, err, "name")

	_, err = New(NewConfig().SetName("x"))
	assert.ErrorContains(t, err, "execute")

	_, err = New(NewConfig().SetName("x").SetExecuteFunc(noop).SetParameters(schema.String()))
	assert.ErrorContains(t, err, "object")

	tl, err := New(NewConfig().SetName("x").SetExecuteFunc(noop))
	require.NoError(t, err)
	assert.Equal(t, "object", tl.Parameters().Type)

	assert.Panics(t, func() { MustNew(NewConfig()) })
}
