package agent

import "github.com/zero-day-ai/sabik/llm"

// Markers shown to the user in place of assistant text.
const (
	AbortMarker  = "[Agent Info: Failed to get a response from the assistant after processing.]"
	NoTextMarker = "[Agent Info: No textual content in final assistant message. Tool actions may have occurred.]"
)

// TurnStatus describes how a turn ended.
type TurnStatus string

const (
	// StatusFinal means the model answered with text.
	StatusFinal TurnStatus = "final"

	// StatusNoText means the model stopped requesting tools but gave no text.
	StatusNoText TurnStatus = "no_text"

	// StatusLoopExhausted means the model was still requesting tools when
	// the iteration cap was reached.
	StatusLoopExhausted TurnStatus = "loop_exhausted"

	// StatusAborted means the model could not be reached or returned nothing.
	StatusAborted TurnStatus = "aborted"
)

// TurnResult is the outcome of RunTurn.
type TurnResult struct {
	// Text is the final assistant text. For aborted turns it holds AbortMarker.
	Text string

	Status TurnStatus

	// Iterations is the number of tool batches executed.
	Iterations int

	// Usage is the token usage of this turn only.
	Usage llm.TokenUsage

	// Err is set for aborted turns and carries a toolerr code.
	Err error
}

// Display returns the text to show the user, substituting the no-text
// marker when the model produced none.
func (r TurnResult) Display() string {
	if r.Status == StatusNoText || (r.Status == StatusLoopExhausted && r.Text == "") {
		return NoTextMarker
	}
	return r.Text
}
