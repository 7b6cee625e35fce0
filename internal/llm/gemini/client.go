package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"paper-backend/internal/llm"
)

// Options configures the Gemini transport.
type Options struct {
	APIKey         string
	Temperature    float64
	ThinkingBudget int
	UseGrounding   bool
	UseThinking    bool
}

// Client implements llm.Client against the Gemini API through the google
// genai SDK.
type Client struct {
	client         *genai.Client
	temperature    float32
	thinkingBudget int32
	useGrounding   bool
	useThinking    bool
}

// NewClient constructs a new Gemini client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		client:         client,
		temperature:    float32(opts.Temperature),
		thinkingBudget: int32(opts.ThinkingBudget),
		useGrounding:   opts.UseGrounding,
		useThinking:    opts.UseThinking,
	}, nil
}

// Generate sends one chat-format request to the given model. Gemini has no
// separate system channel, so system messages are rewritten to user messages
// behind a SYSTEM INSTRUCTIONS marker at their original position.
func (c *Client) Generate(ctx context.Context, model string, messages []llm.Message, maxTokens int) (string, error) {
	contents := buildContents(messages)
	if len(contents) == 0 {
		return "", fmt.Errorf("no messages to send")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temperature),
		MaxOutputTokens: int32(maxTokens),
	}
	if c.useGrounding {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if c.useThinking {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(c.thinkingBudget),
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate model=%s: %w", model, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return text, nil
}

func buildContents(messages []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.Role(genai.RoleModel)
		text := msg.Content
		switch msg.Role {
		case llm.RoleUser:
			role = genai.RoleUser
		case llm.RoleSystem:
			role = genai.RoleUser
			text = "SYSTEM INSTRUCTIONS: " + text + "\n\n"
		}
		contents = append(contents, genai.NewContentFromText(text, role))
	}
	return contents
}

var _ llm.Client = (*Client)(nil)
