package metrics

import "sync"

// TokenUsage captures LLM token counts used to satisfy a request.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// UsageCounter accumulates token usage across the concurrent LLM calls of one request.
type UsageCounter struct {
	mu    sync.Mutex
	total TokenUsage
	calls int
}

// Add folds one call's usage into the running total.
func (c *UsageCounter) Add(u TokenUsage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.total.PromptTokens += u.PromptTokens
	c.total.CompletionTokens += u.CompletionTokens
	c.total.TotalTokens += u.TotalTokens
}

// Snapshot returns the accumulated usage and the number of calls that produced it.
func (c *UsageCounter) Snapshot() (TokenUsage, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, c.calls
}
