package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"paper-backend/internal/shared/telemetry"
)

var fencedJSONPattern = regexp.MustCompile("(?s)```json(.*?)```")

// Normalize turns raw model output into a JSON object, repairing common
// wrappers: prose around the object, markdown fences. Strategies are tried
// in order; the first success wins. Text with no recoverable object yields
// an empty map, never nil and never an error.
func Normalize(raw string) map[string]any {
	if obj, ok := parseObject(raw); ok {
		return obj
	}
	if obj, ok := parseBraceSpan(raw); ok {
		return obj
	}
	if block, ok := extractFencedJSON(raw); ok {
		if obj, ok := parseObject(block); ok {
			return obj
		}
		if obj, ok := parseBraceSpan(block); ok {
			return obj
		}
	}
	telemetry.Warn("llm.normalize.unparseable", map[string]any{
		"response_chars": len(raw),
	})
	return map[string]any{}
}

func parseObject(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	if obj == nil {
		// The literal "null" decodes without error.
		return nil, false
	}
	return obj, true
}

// parseBraceSpan parses the widest first-{ to last-} substring. Greedy and
// deliberately lossy: unrelated braces can corrupt the span.
func parseBraceSpan(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}
	return parseObject(text[start : end+1])
}

func extractFencedJSON(text string) (string, bool) {
	match := fencedJSONPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[1]), true
}
