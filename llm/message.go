package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	// RoleSystem represents system-level instructions or context.
	RoleSystem Role = "system"

	// RoleUser represents messages from the user.
	RoleUser Role = "user"

	// RoleAssistant represents messages from the AI assistant.
	RoleAssistant Role = "assistant"

	// RoleTool represents tool execution results.
	RoleTool Role = "tool"
)

// PartType identifies the kind of a multimodal content part.
type PartType string

const (
	PartText       PartType = "text"
	PartImageURL   PartType = "image_url"
	PartInputAudio PartType = "input_audio"
)

// Part is one element of a multimodal user message. Only the field that
// matches Type is meaningful.
type Part struct {
	Type PartType

	Text string

	// ImageURL is an http(s) URL or a data: URL.
	ImageURL string

	// AudioData is base64 encoded audio, AudioFormat is "mp3" or "wav".
	AudioData   string
	AudioFormat string
}

// TextPart returns a text content part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// ImagePart returns an image content part.
func ImagePart(url string) Part {
	return Part{Type: PartImageURL, ImageURL: url}
}

// AudioPart returns an input audio content part.
func AudioPart(data, format string) Part {
	return Part{Type: PartInputAudio, AudioData: data, AudioFormat: format}
}

// Message represents a single message in a conversation.
type Message struct {
	// Role indicates who sent the message (system, user, assistant, or tool).
	Role Role

	// Content is the text content of the message.
	Content string

	// Parts carries multimodal content for user messages. When set it
	// replaces Content on the wire.
	Parts []Part

	// ToolCalls contains tool invocations requested by the assistant.
	// Only valid when Role is RoleAssistant.
	ToolCalls []ToolCall

	// ToolCallID is the ID of the ToolCall a tool message answers.
	// Only valid when Role is RoleTool.
	ToolCallID string

	// Name identifies the tool that produced this message.
	// Only valid when Role is RoleTool.
	Name string
}

// SystemMessage returns a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage returns a plain-text user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant message with optional tool calls.
func AssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolMessage returns a tool message answering the call with the given ID.
func ToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, Name: name}
}

// IsValid validates that the message has appropriate fields set for its role.
func (m Message) IsValid() bool {
	switch m.Role {
	case RoleSystem:
		return m.Content != "" && len(m.ToolCalls) == 0 && m.ToolCallID == ""
	case RoleUser:
		return (m.Content != "" || len(m.Parts) > 0) && len(m.ToolCalls) == 0 && m.ToolCallID == ""
	case RoleAssistant:
		// an assistant message that only requests tools is still valid
		return m.Content != "" || len(m.ToolCalls) > 0
	case RoleTool:
		return m.ToolCallID != ""
	default:
		return false
	}
}

// Clone returns a copy of the message that shares no slices with m.
func (m Message) Clone() Message {
	out := m
	if m.Parts != nil {
		out.Parts = append([]Part(nil), m.Parts...)
	}
	if m.ToolCalls != nil {
		out.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	}
	return out
}

// String returns a string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the defined constants.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}
