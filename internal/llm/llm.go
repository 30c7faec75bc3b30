package llm

import "context"

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Completion contains the generated text and metadata like token usage.
type Completion struct {
	Text  string
	Usage TokenUsage
}

// Completer is an interface for generating text from a system and user
// prompt. A single attempt, no retry or streaming; callers parse the raw
// text themselves.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
