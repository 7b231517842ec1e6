package llm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenTracker(t *testing.T) {
	tr := NewTokenTracker()

	tr.Add("openai-large", TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15})
	tr.Add("openai-large", TokenUsage{InputTokens: 1, OutputTokens: 1, TotalTokens: 2})
	tr.Add("openai-audio", TokenUsage{InputTokens: 3, TotalTokens: 3})

	assert.Equal(t, TokenUsage{InputTokens: 11, OutputTokens: 6, TotalTokens: 17}, tr.ByModel("openai-large"))
	assert.Equal(t, TokenUsage{InputTokens: 14, OutputTokens: 6, TotalTokens: 20}, tr.Total())
	assert.Equal(t, TokenUsage{}, tr.ByModel("missing"))

	snap := tr.Snapshot()
	assert.Equal(t, []string{"openai-audio", "openai-large"}, snap.ModelNames())

	tr.Reset()
	assert.Equal(t, TokenUsage{}, tr.Total())
	assert.Equal(t, TokenUsage{InputTokens: 14, OutputTokens: 6, TotalTokens: 20}, snap.Total)
}

func TestTokenTrackerConcurrent(t *testing.T) {
	tr := NewTokenTracker()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Add("m", TokenUsage{TotalTokens: 1})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Total().TotalTokens)
}
