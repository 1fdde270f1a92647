// Package judge scores a candidate answer against cited tool evidence and
// either approves it or returns actionable rejection feedback.
package judge

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mcp-orchestrator/server/internal/core/ctxkeys"
	logx "github.com/mcp-orchestrator/server/pkg/logger"
)

// EmptyAnswerFeedback is the fixed rejection reason for empty answers.
const EmptyAnswerFeedback = "Answer is empty."

const defaultFeedback = "Answer needs improvement."

const prompt = `You are a strict judge.

You will be given:
- Question
- Answer
- Evidence (tool outputs), numbered as [E1], [E2], ...

Pass criteria:
1) The answer addresses the question.
2) If Evidence is non-empty, every key factual claim MUST be supported by at least one citation like [E1] or [E2].
3) The answer must NOT introduce facts that are not in Evidence.
4) If Evidence is insufficient, the answer must say so and limit itself to what Evidence supports.

Return ONLY one line:
- GOOD
- NOT_GOOD: <brief reason>
`

// Verdict is the judge's decision. Feedback is set only when not passed.
type Verdict struct {
	Passed   bool
	Feedback string
}

// Judge evaluates answers with a single model call per evaluation.
type Judge struct {
	model einomodel.BaseChatModel
}

// New builds a judge backed by m.
func New(m einomodel.BaseChatModel) *Judge {
	return &Judge{model: m}
}

// Evaluate scores answer for question given the numbered evidence block
// (may be empty). An empty answer is rejected without consulting the model.
// An unparseable model verdict defaults to approved so a flaky evaluator
// cannot wedge the correction loop.
func (j *Judge) Evaluate(ctx context.Context, question, answer, evidence string) (Verdict, error) {
	if strings.TrimSpace(answer) == "" {
		return Verdict{Passed: false, Feedback: EmptyAnswerFeedback}, nil
	}

	evidenceBlock := "\n\nEvidence: (none)"
	if evidence != "" {
		evidenceBlock = "\n\nEvidence (tool outputs), numbered as [E1], [E2], ...:\n" + evidence
	}

	logx.Debug().
		Str("stage", "answer_judge").
		Str("request_id", ctxkeys.RequestID(ctx)).
		Str("session_id", ctxkeys.SessionID(ctx)).
		Msg("Judging answer")

	resp, err := j.model.Generate(ctx, []*schema.Message{
		schema.UserMessage(prompt + "\nQuestion: " + question + "\n\nAnswer: " + answer + evidenceBlock),
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("judge evaluation: %w", err)
	}

	return parseVerdict(resp.Content), nil
}

func parseVerdict(content string) Verdict {
	text := strings.TrimSpace(content)
	upper := strings.ToUpper(text)
	switch {
	case strings.HasPrefix(upper, "GOOD"):
		return Verdict{Passed: true}
	case strings.HasPrefix(upper, "NOT_GOOD"):
		reason := defaultFeedback
		if _, after, ok := strings.Cut(text, ":"); ok {
			if after = strings.TrimSpace(after); after != "" {
				reason = after
			}
		}
		return Verdict{Passed: false, Feedback: reason}
	default:
		// default pass on parse failure
		return Verdict{Passed: true}
	}
}
