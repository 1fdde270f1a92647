// Package gate implements the smalltalk filter that runs before any real
// processing. A single classification call decides whether the request is
// pure smalltalk; if so the classifier's own reply is returned unchanged.
package gate

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mcp-orchestrator/server/internal/core/ctxkeys"
	logx "github.com/mcp-orchestrator/server/pkg/logger"
)

// FallbackReply is sent when the classifier says smalltalk but supplies no
// reply line of its own.
const FallbackReply = "Feel free to ask me about my experience, visa status, skills, or background!"

const promptTemplate = `You are an intent classifier. Reply with YES or NO on the first line.
If YES (message is only smalltalk/greeting with no real question), add a second line: a brief friendly first-person reply as %[1]s. Use this line: %[2]q (you may add a short greeting before it if you like).

YES = smalltalk/greeting only, with no real question (hi, hello, hey, how are you, what's up, good morning).
NO = asks for specific info, or a real request, or is mixed (e.g. greeting + question like "hi, what's your visa?"). If the message mixes smalltalk with any real question, reply NO.

User message:
`

// Gate classifies requests as smalltalk or not.
type Gate struct {
	model  einomodel.BaseChatModel
	prompt string
}

// New builds a gate replying in the first person as candidateName.
func New(m einomodel.BaseChatModel, candidateName string) *Gate {
	return &Gate{
		model:  m,
		prompt: fmt.Sprintf(promptTemplate, candidateName, FallbackReply),
	}
}

// Check classifies query. When it is pure smalltalk, the returned reply is
// ready to send and smalltalk is true. Empty or whitespace input is never
// smalltalk and makes no model call.
func (g *Gate) Check(ctx context.Context, query string) (reply string, smalltalk bool, err error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", false, nil
	}

	logx.Debug().
		Str("stage", "intent_gate").
		Str("request_id", ctxkeys.RequestID(ctx)).
		Str("session_id", ctxkeys.SessionID(ctx)).
		Msg("Classifying intent")

	resp, err := g.model.Generate(ctx, []*schema.Message{
		schema.UserMessage(g.prompt + trimmed),
	})
	if err != nil {
		return "", false, fmt.Errorf("intent gate: %w", err)
	}

	text := strings.TrimSpace(resp.Content)
	if !strings.HasPrefix(strings.ToUpper(text), "YES") {
		return "", false, nil
	}
	return extractReply(text), true, nil
}

// extractReply pulls the classifier's own reply (second non-empty line) from
// a YES verdict, falling back to the fixed line when it is absent.
func extractReply(text string) string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) > 1 {
		return lines[1]
	}
	return FallbackReply
}
