package vendors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSONReply extracts the first JSON object from a model reply and
// decodes it into v. Replies wrapped in markdown code fences are accepted.
func DecodeJSONReply(text string, v any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return fmt.Errorf("reply contains no JSON object")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

// PromptPayload renders call data as the user message of a prompt.
func PromptPayload(data map[string]any) string {
	if len(data) == 0 {
		return "{}"
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprint(data)
	}
	return string(b)
}
