package model

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// MessageText extracts the text of a message. Plain string content wins;
// otherwise text parts of multi-part content are concatenated in order.
// Non-text parts are ignored.
func MessageText(m *schema.Message) string {
	if m == nil {
		return ""
	}
	if m.Content != "" {
		return m.Content
	}
	var b strings.Builder
	for _, part := range m.MultiContent {
		if part.Type == schema.ChatMessagePartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// LastAssistantContent returns the text of the most recent assistant message,
// or "" when there is none.
func LastAssistantContent(messages []*schema.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if m == nil || m.Role != schema.Assistant {
			continue
		}
		return MessageText(m)
	}
	return ""
}

// FirstUserContent returns the text of the earliest user message, or "".
func FirstUserContent(messages []*schema.Message) string {
	for _, m := range messages {
		if m == nil || m.Role != schema.User {
			continue
		}
		return MessageText(m)
	}
	return ""
}
