// Package schema provides the JSON Schema subset Sabik uses to declare tool
// parameters.
//
// Schemas are built with small constructors and serialized into the
// "parameters" object of an LLM function declaration via ToMap:
//
//	params := schema.Object(map[string]schema.JSON{
//		"prompt": schema.StringWithDesc("Text prompt for the image"),
//		"width":  schema.IntWithDesc("Width in pixels").WithDefault(1024),
//		"voice":  schema.Enum("alloy", "echo", "nova"),
//	}, "prompt")
//
// # Validation
//
// Validate checks decoded arguments (the output of json.Unmarshal into
// map[string]any) before a tool runs. Integers may arrive as float64 and
// are accepted as long as they carry no fractional part.
//
//	err := params.Validate(map[string]any{"width": 512.0})
//	// error: required field prompt is missing
package schema
