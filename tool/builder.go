package tool

import (
	"context"
	"errors"

	"github.com/zero-day-ai/sabik/schema"
)

// ExecuteFunc is a function that implements a tool's execution logic.
type ExecuteFunc func(ctx context.Context, args map[string]any, env *Env) (any, error)

// Config holds the configuration for building a Tool.
type Config struct {
	name        string
	description string
	parameters  schema.JSON
	executeFunc ExecuteFunc
}

// NewConfig creates a new Config whose parameters default to an empty object.
func NewConfig() *Config {
	return &Config{
		parameters: schema.Object(map[string]schema.JSON{}),
	}
}

// SetName sets the tool name.
func (c *Config) SetName(name string) *Config {
	c.name = name
	return c
}

// SetDescription sets the tool description.
func (c *Config) SetDescription(desc string) *Config {
	c.description = desc
	return c
}

// SetParameters sets the argument schema.
func (c *Config) SetParameters(s schema.JSON) *Config {
	c.parameters = s
	return c
}

// SetExecuteFunc sets the execution function.
func (c *Config) SetExecuteFunc(fn ExecuteFunc) *Config {
	c.executeFunc = fn
	return c
}

type funcTool struct {
	name        string
	description string
	parameters  schema.JSON
	executeFunc ExecuteFunc
}

// New creates a Tool from the provided Config.
// Returns an error if required fields (name, executeFunc) are missing.
func New(cfg *Config) (Tool, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.name == "" {
		return nil, errors.New("tool name is required")
	}

	if cfg.executeFunc == nil {
		return nil, errors.New("execute function is required")
	}

	if cfg.parameters.Type != "object" {
		return nil, errors.New("tool parameters must be an object schema")
	}

	return &funcTool{
		name:        cfg.name,
		description: cfg.description,
		parameters:  cfg.parameters,
		executeFunc: cfg.executeFunc,
	}, nil
}

// MustNew is New that panics on error. Intended for package-level tool definitions.
func MustNew(cfg *Config) Tool {
	t, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *funcTool) Name() string {
	return t.name
}

func (t *funcTool) Description() string {
	return t.description
}

func (t *funcTool) Parameters() schema.JSON {
	return t.parameters
}

func (t *funcTool) Execute(ctx context.Context, args map[string]any, env *Env) (any, error) {
	return t.executeFunc(ctx, args, env)
}
