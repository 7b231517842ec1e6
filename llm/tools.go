package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ToolDef is a function declaration offered to the model.
type ToolDef struct {
	Name        string
	Description string

	// Parameters is the JSON Schema of the arguments object. Nil means the
	// function takes no arguments.
	Parameters map[string]any
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	// ID pairs the call with its tool message.
	ID string

	Name string

	// Arguments is the raw JSON text the model produced. It may be
	// malformed or not an object; the executor decides.
	Arguments string
}

var toolNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Validate checks the declaration against what chat completion endpoints
// accept: a name of at most 64 letters, digits, underscores or dashes and,
// when present, an object schema.
func (t ToolDef) Validate() error {
	if !toolNamePattern.MatchString(t.Name) {
		return fmt.Errorf("invalid tool name %q", t.Name)
	}
	if t.Parameters != nil {
		if typ, _ := t.Parameters["type"].(string); typ != "object" {
			return errors.New("tool parameters must be an object schema")
		}
	}
	return nil
}

// ParseArguments decodes the arguments into v. An empty string counts as
// "{}".
func (c *ToolCall) ParseArguments(v any) error {
	raw := c.Arguments
	if raw == "" {
		raw = "{}"
	}
	return json.Unmarshal([]byte(raw), v)
}

// ToolChoice tells the model whether it may, must or must not call tools.
type ToolChoice string

const (
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
)

func (tc ToolChoice) String() string {
	return string(tc)
}

// IsValid reports whether tc is one of the known choices.
func (tc ToolChoice) IsValid() bool {
	return tc == ToolChoiceNone || tc == ToolChoiceAuto || tc == ToolChoiceRequired
}
