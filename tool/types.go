package tool

import (
	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/schema"
)

// Spec describes a tool without its execution logic. It is what the model
// sees in the tool declarations of every request.
type Spec struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  schema.JSON `json:"parameters"`
}

// ToSpec extracts the Spec of a tool.
func ToSpec(t Tool) Spec {
	return Spec{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}

// Required returns the names of the required parameters.
func (s Spec) Required() []string {
	return s.Parameters.Required
}

// ToolDef converts the spec into an LLM function declaration.
func (s Spec) ToolDef() llm.ToolDef {
	return llm.ToolDef{
		Name:        s.Name,
		Description: s.Description,
		Parameters:  s.Parameters.ToMap(),
	}
}

// ToolDefs converts a list of specs.
func ToolDefs(specs []Spec) []llm.ToolDef {
	defs := make([]llm.ToolDef, len(specs))
	for i, s := range specs {
		defs[i] = s.ToolDef()
	}
	return defs
}
