package llm

import (
	"sort"
	"sync"
)

// TokenTracker accumulates token usage per model across turns.
type TokenTracker interface {
	// Add records token usage for a model.
	Add(model string, usage TokenUsage)

	// Total returns the aggregate token usage across all models.
	Total() TokenUsage

	// ByModel returns the token usage recorded for one model.
	ByModel(model string) TokenUsage

	// Reset clears all tracked token usage.
	Reset()
}

// DefaultTokenTracker is a thread-safe implementation of TokenTracker.
type DefaultTokenTracker struct {
	mu     sync.RWMutex
	models map[string]TokenUsage
	total  TokenUsage
}

// NewTokenTracker creates a new DefaultTokenTracker.
func NewTokenTracker() *DefaultTokenTracker {
	return &DefaultTokenTracker{
		models: make(map[string]TokenUsage),
	}
}

// Add records token usage for a model.
func (t *DefaultTokenTracker) Add(model string, usage TokenUsage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.models[model] = t.models[model].Add(usage)
	t.total = t.total.Add(usage)
}

// Total returns the aggregate token usage across all models.
func (t *DefaultTokenTracker) Total() TokenUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.total
}

// ByModel returns the usage for a model, or the zero value if it was never used.
func (t *DefaultTokenTracker) ByModel(model string) TokenUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.models[model]
}

// Reset clears all tracked token usage.
func (t *DefaultTokenTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.models = make(map[string]TokenUsage)
	t.total = TokenUsage{}
}

// Snapshot is a read-only copy of tracked usage.
type Snapshot struct {
	Models map[string]TokenUsage
	Total  TokenUsage
}

// ModelNames returns the snapshot's model names in sorted order.
func (s Snapshot) ModelNames() []string {
	names := make([]string, 0, len(s.Models))
	for name := range s.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the current usage state.
func (t *DefaultTokenTracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	models := make(map[string]TokenUsage, len(t.models))
	for model, usage := range t.models {
		models[model] = usage
	}

	return Snapshot{
		Models: models,
		Total:  t.total,
	}
}
