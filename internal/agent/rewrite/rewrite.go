// Package rewrite turns a raw user question into a retrieval-oriented one:
// a deterministic second-to-third-person substitution followed by a single
// model-assisted restatement.
package rewrite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mcp-orchestrator/server/internal/core/ctxkeys"
	logx "github.com/mcp-orchestrator/server/pkg/logger"
)

const systemPrompt = `Rewrite the user's question to be clearer and more specific for retrieval.
Keep it concise. Return only the rewritten question, nothing else.`

// pattern pairs a compiled second-person pattern with its replacement.
type pattern struct {
	re   *regexp.Regexp
	repl string
}

// Rewriter rewrites questions about the configured candidate.
type Rewriter struct {
	model    einomodel.BaseChatModel
	patterns []pattern
}

// New builds a rewriter substituting candidateName for second-person references.
func New(m einomodel.BaseChatModel, candidateName string) *Rewriter {
	return &Rewriter{
		model:    m,
		patterns: compilePatterns(candidateName),
	}
}

// compilePatterns builds the substitution list. Phrase patterns come before
// the bare "you" pattern so e.g. "are you" becomes "is <name>" instead of
// first turning into "are <name>" and never matching again. That ordering is
// a correctness requirement.
func compilePatterns(name string) []pattern {
	specs := []struct{ expr, repl string }{
		{`your`, name + "'s"},
		{`yourself`, name},
		{`are you`, "is " + name},
		{`do you`, "does " + name},
		{`have you`, "has " + name},
		{`can you`, "can " + name},
		{`you`, name},
	}
	patterns := make([]pattern, 0, len(specs))
	for _, s := range specs {
		patterns = append(patterns, pattern{
			re:   regexp.MustCompile(`(?i)\b` + s.expr + `\b`),
			repl: s.repl,
		})
	}
	return patterns
}

// ToThirdPerson applies the deterministic substitution only. Exported so the
// transformation can be exercised without a model.
func (r *Rewriter) ToThirdPerson(question string) string {
	q := question
	for _, p := range r.patterns {
		q = p.re.ReplaceAllLiteralString(q, p.repl)
	}
	return q
}

// Rewrite returns a non-empty retrieval-oriented restatement of query.
// Empty or whitespace input is returned unchanged without any model call;
// an empty model output falls back to the substituted text.
func (r *Rewriter) Rewrite(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return query, nil
	}

	substituted := r.ToThirdPerson(query)

	logx.Debug().
		Str("stage", "agent_rewrite").
		Str("request_id", ctxkeys.RequestID(ctx)).
		Str("session_id", ctxkeys.SessionID(ctx)).
		Str("substituted", substituted).
		Msg("Rewriting query")

	resp, err := r.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(substituted),
	})
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}

	if rewritten := strings.TrimSpace(resp.Content); rewritten != "" {
		return rewritten, nil
	}
	return substituted, nil
}
