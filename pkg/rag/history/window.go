package history

import (
	"strings"

	"ai-qa-rag-be/pkg/llm"
)

// Window returns at most size of the most recent turns, oldest first, with roles normalised to
// "user" and "assistant". System turns, unknown roles and blank messages are dropped so callers
// cannot inject instructions through history. The input slice is not modified.
func Window(messages []llm.Message, size int) []llm.Message {
	if size <= 0 || len(messages) == 0 {
		return []llm.Message{}
	}

	kept := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role, ok := normaliseRole(m.Role)
		if !ok {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		kept = append(kept, llm.Message{Role: role, Content: content})
	}

	if len(kept) > size {
		kept = kept[len(kept)-size:]
	}
	return kept
}

func normaliseRole(role string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user", "human":
		return "user", true
	case "assistant", "model", "bot", "ai":
		return "assistant", true
	default:
		return "", false
	}
}
