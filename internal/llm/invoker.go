package llm

import (
	"context"
	"strings"
	"time"

	"paper-backend/internal/shared/telemetry"
)

// Invoker wraps a transport Client with a primary/fallback model policy and
// response normalization. Invoke never fails: an attempt whose transport
// errors, returns no usable text, or yields nothing parseable counts as
// failed, and after the single fallback retry the caller gets an empty map
// meaning "no information available".
type Invoker struct {
	Client        Client
	Model         string
	FallbackModel string
	MaxTokens     int
}

// Invoke sends the messages to the primary model and, if that attempt fails,
// once more to the fallback model with identical messages and token budget.
// The returned map is never nil.
func (inv Invoker) Invoke(ctx context.Context, messages []Message, opts CallOptions) map[string]any {
	primary := opts.Model
	if primary == "" {
		primary = inv.Model
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = inv.MaxTokens
	}

	result := inv.tryModel(ctx, primary, messages, maxTokens)
	if len(result) == 0 && inv.FallbackModel != "" && inv.FallbackModel != primary {
		telemetry.Info("llm.fallback", map[string]any{
			"primary_model":  primary,
			"fallback_model": inv.FallbackModel,
		})
		result = inv.tryModel(ctx, inv.FallbackModel, messages, maxTokens)
	}
	if result == nil {
		result = map[string]any{}
	}
	return result
}

func (inv Invoker) tryModel(ctx context.Context, model string, messages []Message, maxTokens int) map[string]any {
	start := time.Now()
	raw, err := inv.Client.Generate(ctx, model, messages, maxTokens)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		telemetry.Warn("llm.call", map[string]any{
			"model":       model,
			"duration_ms": elapsed,
			"error":       err.Error(),
		})
		return map[string]any{}
	}
	telemetry.Info("llm.call", map[string]any{
		"model":          model,
		"duration_ms":    elapsed,
		"response_chars": len(raw),
	})
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	return Normalize(raw)
}
