package llm

import "context"

// Message is a single chat-format message sent to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// CallOptions carries per-call knobs. Zero values mean "use the configured
// default".
type CallOptions struct {
	Model     string
	MaxTokens int
}

// Client is the raw transport to a hosted model: one request against one
// named model, one text reply.
type Client interface {
	Generate(ctx context.Context, model string, messages []Message, maxTokens int) (string, error)
}
