package toolerr

import (
	"sync"
)

// AnyTool is the tool name under which fallback hints are registered.
// GetHints consults it when a tool has nothing specific for a code.
const AnyTool = "*"

// RecoveryRegistry stores known failure modes and recovery hints per tool.
//
// The registry uses a nested map structure:
//
//	tool -> errorCode -> []RecoveryHint
type RecoveryRegistry struct {
	mu       sync.RWMutex
	registry map[string]map[string][]RecoveryHint
}

// NewRecoveryRegistry returns an empty registry.
func NewRecoveryRegistry() *RecoveryRegistry {
	return &RecoveryRegistry{
		registry: make(map[string]map[string][]RecoveryHint),
	}
}

// globalRegistry backs the package-level Register, GetHints and EnrichError.
var globalRegistry = NewRecoveryRegistry()

// Register replaces the hints for a tool's error code.
func (r *RecoveryRegistry) Register(tool, errorCode string, hints ...RecoveryHint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registry[tool] == nil {
		r.registry[tool] = make(map[string][]RecoveryHint)
	}
	r.registry[tool][errorCode] = hints
}

// GetHints returns the hints for a tool's error code, falling back to the
// AnyTool entry. It returns nil when neither exists.
func (r *RecoveryRegistry) GetHints(tool, errorCode string) []RecoveryHint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if hints, ok := r.registry[tool][errorCode]; ok {
		return hints
	}
	if hints, ok := r.registry[AnyTool][errorCode]; ok {
		return hints
	}
	return nil
}

// EnrichError sets a default class when none is present and appends the
// registered hints for the error's tool and code.
func (r *RecoveryRegistry) EnrichError(err *Error) *Error {
	if err == nil {
		return nil
	}

	if err.Class == "" {
		err.Class = DefaultClassForCode(err.Code)
	}

	if hints := r.GetHints(err.Tool, err.Code); len(hints) > 0 {
		err.Hints = append(err.Hints, hints...)
	}

	return err
}

// Register adds hints to the package-level registry.
//
// Example:
//
//	toolerr.Register("generate_ai_image", toolerr.CodeTimeout,
//	    toolerr.RecoveryHint{
//	        Strategy: toolerr.StrategyModifyParams,
//	        Params:   map[string]any{"width": 512, "height": 512},
//	        Reason:   "smaller images render faster",
//	    })
func Register(tool, errorCode string, hints ...RecoveryHint) {
	globalRegistry.Register(tool, errorCode, hints...)
}

// GetHints looks up hints in the package-level registry.
func GetHints(tool, errorCode string) []RecoveryHint {
	return globalRegistry.GetHints(tool, errorCode)
}

// EnrichError enriches err using the package-level registry.
func EnrichError(err *Error) *Error {
	return globalRegistry.EnrichError(err)
}
