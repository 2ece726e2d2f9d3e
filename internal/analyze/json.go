package analyze

import (
	"encoding/json"
	"errors"
	"strings"
)

// Extraction failures. Both are fatal for the attempt that produced the
// output; the invoker falls through to the next model.
var (
	ErrNoJSONObject = errors.New("no JSON object found in model response")
	ErrUnparsable   = errors.New("failed to parse JSON from model response")
)

// ExtractJSON recovers a JSON object from free-form model output. The text
// should be JSON but may be fenced, prefixed with prose, or truncated at
// the tail; extraction is deliberately permissive.
func ExtractJSON(raw string) (map[string]any, error) {
	stripped := stripFence(raw)

	var direct map[string]any
	if err := json.Unmarshal([]byte(stripped), &direct); err == nil {
		return direct, nil
	}

	start := strings.Index(stripped, "{")
	end := strings.LastIndex(stripped, "}")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoJSONObject
	}

	// Shrink from the end one character at a time. Worst-case quadratic,
	// but bounded by the prompt's output-size budget.
	candidate := stripped[start : end+1]
	for len(candidate) >= 2 {
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, nil
		}
		candidate = candidate[:len(candidate)-1]
	}
	return nil, ErrUnparsable
}

func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
