package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"
	"sort"
)

// JSON is the subset of JSON Schema used to describe tool parameters.
// It is sent to the model as the function "parameters" object and used
// to check decoded arguments before a tool runs.
type JSON struct {
	Type        string          `json:"type,omitempty"`
	Description string          `json:"description,omitempty"`
	Properties  map[string]JSON `json:"properties,omitempty"`
	Required    []string        `json:"required,omitempty"`
	Items       *JSON           `json:"items,omitempty"`
	Enum        []any           `json:"enum,omitempty"`
	Default     any             `json:"default,omitempty"`
	Minimum     *float64        `json:"minimum,omitempty"`
	Maximum     *float64        `json:"maximum,omitempty"`
	MinLength   *int            `json:"minLength,omitempty"`
	MaxLength   *int            `json:"maxLength,omitempty"`
	Pattern     string          `json:"pattern,omitempty"`
}

// Any accepts every value, including null.
func Any() JSON { return JSON{} }

func String() JSON { return JSON{Type: "string"} }
func Int() JSON    { return JSON{Type: "integer"} }
func Number() JSON { return JSON{Type: "number"} }
func Bool() JSON   { return JSON{Type: "boolean"} }

// StringWithDesc is String with a description for the model.
func StringWithDesc(desc string) JSON { return String().WithDescription(desc) }

// IntWithDesc is Int with a description for the model.
func IntWithDesc(desc string) JSON { return Int().WithDescription(desc) }

// BoolWithDesc is Bool with a description for the model.
func BoolWithDesc(desc string) JSON { return Bool().WithDescription(desc) }

// Array describes a list whose elements all match items.
func Array(items JSON) JSON {
	return JSON{Type: "array", Items: &items}
}

// Object describes a tool's argument object.
func Object(properties map[string]JSON, required ...string) JSON {
	return JSON{Type: "object", Properties: properties, Required: required}
}

// Enum describes a string limited to values.
func Enum(values ...string) JSON {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return JSON{Type: "string", Enum: enum}
}

// WithDefault returns a copy carrying a default value.
func (s JSON) WithDefault(v any) JSON {
	s.Default = v
	return s
}

// WithDescription returns a copy with its description replaced.
func (s JSON) WithDescription(desc string) JSON {
	s.Description = desc
	return s
}

// ToMap renders the schema as the generic map function declarations use.
// Objects always carry a "properties" key; some endpoints reject a
// parameters object without one.
func (s JSON) ToMap() map[string]any {
	out := map[string]any{"type": "object"}
	if data, err := json.Marshal(s); err == nil {
		var m map[string]any
		if json.Unmarshal(data, &m) == nil {
			out = m
		}
	}
	if s.Type == "object" && out["properties"] == nil {
		out["properties"] = map[string]any{}
	}
	return out
}

// Validate checks a value decoded from JSON (string, float64, bool,
// []any, map[string]any or nil). Go integer kinds are accepted as numbers
// too. The first violation is returned, naming the offending property or
// item.
func (s JSON) Validate(value any) error {
	if value == nil {
		if s.Type == "" {
			return nil
		}
		return fmt.Errorf("expected %s, got null", s.Type)
	}

	switch s.Type {
	case "":
	case "string":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		if err := s.checkString(str); err != nil {
			return err
		}
	case "integer", "number":
		n, ok := asFloat(value)
		if !ok {
			return fmt.Errorf("expected %s, got %T", s.Type, value)
		}
		if s.Type == "integer" && n != math.Trunc(n) {
			return fmt.Errorf("expected integer, got %v", value)
		}
		if err := s.checkRange(n); err != nil {
			return err
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "array":
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
		if err := s.checkItems(items); err != nil {
			return err
		}
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
		if err := s.checkObject(obj); err != nil {
			return err
		}
	}

	if len(s.Enum) > 0 && !slices.ContainsFunc(s.Enum, func(e any) bool { return reflect.DeepEqual(e, value) }) {
		return fmt.Errorf("value %v is not one of %v", value, s.Enum)
	}
	return nil
}

func (s JSON) checkString(str string) error {
	if s.MinLength != nil && len(str) < *s.MinLength {
		return fmt.Errorf("string length %d is less than minimum %d", len(str), *s.MinLength)
	}
	if s.MaxLength != nil && len(str) > *s.MaxLength {
		return fmt.Errorf("string length %d is greater than maximum %d", len(str), *s.MaxLength)
	}
	if s.Pattern == "" {
		return nil
	}
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	if !re.MatchString(str) {
		return fmt.Errorf("string does not match pattern %s", s.Pattern)
	}
	return nil
}

func (s JSON) checkRange(n float64) error {
	if s.Minimum != nil && n < *s.Minimum {
		return fmt.Errorf("value %v is less than minimum %v", n, *s.Minimum)
	}
	if s.Maximum != nil && n > *s.Maximum {
		return fmt.Errorf("value %v is greater than maximum %v", n, *s.Maximum)
	}
	return nil
}

func (s JSON) checkItems(items []any) error {
	if s.Items == nil {
		return nil
	}
	for i, item := range items {
		if err := s.Items.Validate(item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func (s JSON) checkObject(obj map[string]any) error {
	for _, name := range s.Required {
		if _, ok := obj[name]; !ok {
			return fmt.Errorf("required field %s is missing", name)
		}
	}

	// Sorted so the reported violation is stable.
	names := make([]string, 0, len(obj))
	for name := range obj {
		if _, ok := s.Properties[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.Properties[name].Validate(obj[name]); err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
