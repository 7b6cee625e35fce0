package papers

import (
	"context"
	"encoding/json"

	"paper-backend/internal/llm"
)

const chatFallbackResponse = "I'm sorry, I couldn't generate a response. Please try again."

// ChatManager answers follow-up questions about a completed analysis.
type ChatManager struct {
	Invoker StageInvoker
}

func NewChatManager(invoker StageInvoker) *ChatManager {
	return &ChatManager{Invoker: invoker}
}

// Respond asks the model about the paper and flattens the structured reply
// into display text.
func (c *ChatManager) Respond(ctx context.Context, message string, result Result, history []ChatTurn) string {
	out := c.Invoker.Invoke(ctx, chatPrompt(message, result, history), llm.CallOptions{})
	return formatChatResponse(out)
}

// formatChatResponse picks the best display text out of a model reply.
// Known answer keys win; anything else is rendered as indented JSON so the
// user still sees what came back.
func formatChatResponse(out map[string]any) string {
	if len(out) == 0 {
		return chatFallbackResponse
	}
	if answer, ok := out["answer"].(string); ok && answer != "" {
		return answer
	}
	if response, ok := out["response"].(string); ok && response != "" {
		return response
	}
	dump, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return chatFallbackResponse
	}
	return string(dump)
}
