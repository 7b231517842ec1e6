package agent

import "github.com/zero-day-ai/sabik/llm"

// Transcript is the ordered message history of one conversation. The
// system message, when present, is always the first entry.
type Transcript struct {
	messages []llm.Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// EnsureSystem inserts the system message at index 0 unless the
// transcript already starts with one.
func (t *Transcript) EnsureSystem(content string) {
	if len(t.messages) > 0 && t.messages[0].Role == llm.RoleSystem {
		return
	}
	t.messages = append([]llm.Message{llm.SystemMessage(content)}, t.messages...)
}

// Append adds messages to the end.
func (t *Transcript) Append(msgs ...llm.Message) {
	t.messages = append(t.messages, msgs...)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Messages returns a deep copy of the history.
func (t *Transcript) Messages() []llm.Message {
	out := make([]llm.Message, len(t.messages))
	for i, m := range t.messages {
		out[i] = m.Clone()
	}
	return out
}

// view returns the backing slice for sending to the model. Callers must
// not retain or modify it.
func (t *Transcript) view() []llm.Message {
	return t.messages[:len(t.messages):len(t.messages)]
}

// Reset drops every message.
func (t *Transcript) Reset() {
	t.messages = nil
}
