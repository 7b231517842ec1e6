package toolerr

import "fmt"

// ErrorClass says what kind of fix a failure needs. It is sent to the
// model with every failed tool result.
type ErrorClass string

const (
	// ErrorClassInfrastructure: the local environment is at fault
	// (unwritable output directory, no audio player).
	ErrorClassInfrastructure ErrorClass = "infrastructure"

	// ErrorClassSemantic: the arguments or tool name are wrong and the
	// model can correct them.
	ErrorClassSemantic ErrorClass = "semantic"

	// ErrorClassTransient: the backend timed out, was unreachable or
	// answered 5xx. The same call may work later.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassPermanent: retrying will not help.
	ErrorClassPermanent ErrorClass = "permanent"
)

// Retryable reports whether repeating the identical call can succeed.
func (c ErrorClass) Retryable() bool {
	return c == ErrorClassTransient
}

// RecoveryStrategy is the kind of action a hint proposes.
type RecoveryStrategy string

const (
	StrategyRetry          RecoveryStrategy = "retry"
	StrategyModifyParams   RecoveryStrategy = "modify_params"
	StrategyUseAlternative RecoveryStrategy = "use_alternative_tool"
	StrategySkip           RecoveryStrategy = "skip"
)

// RecoveryHint is a suggestion attached to an error for the model (and the
// console) to act on.
type RecoveryHint struct {
	Strategy RecoveryStrategy `json:"strategy"`

	// Alternative names the tool to switch to with StrategyUseAlternative.
	Alternative string `json:"alternative,omitempty"`

	// Params holds suggested argument values for StrategyModifyParams.
	Params map[string]any `json:"params,omitempty"`

	Reason string `json:"reason"`

	// Priority orders hints; lower comes first.
	Priority int `json:"priority"`
}

// String renders the hint on one line, e.g.
// "use_alternative_tool (simple_web_search): fetch the page instead".
func (h RecoveryHint) String() string {
	switch {
	case h.Alternative != "":
		return fmt.Sprintf("%s (%s): %s", h.Strategy, h.Alternative, h.Reason)
	case len(h.Params) > 0:
		return fmt.Sprintf("%s %v: %s", h.Strategy, h.Params, h.Reason)
	}
	return fmt.Sprintf("%s: %s", h.Strategy, h.Reason)
}

// DefaultClassForCode maps an error code to its class. Unknown codes are
// treated as transient.
func DefaultClassForCode(code string) ErrorClass {
	switch code {
	case CodeUnknownTool, CodeArgumentDecode, CodeArgumentShape, CodeInvalidInput:
		return ErrorClassSemantic
	case CodeFileIO:
		return ErrorClassInfrastructure
	case CodeInternalFault:
		return ErrorClassPermanent
	}
	return ErrorClassTransient
}
