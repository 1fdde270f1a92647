package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/mcp-orchestrator/server/internal/agent/judge"
	"github.com/mcp-orchestrator/server/internal/agent/model"
	logx "github.com/mcp-orchestrator/server/pkg/logger"
)

// Graph node names.
const (
	NodeLLMCall      = "llm_call"
	NodeToolExecutor = "tool_node"
	NodeJudge        = "judge"
)

// retryFeedbackFormat wraps judge feedback into the corrective user message
// injected before a retry cycle.
const retryFeedbackFormat = "The previous answer was not good enough. Reason: %s Please improve your answer."

// NewLLMCallPreHandler seeds the run history from the graph input on first
// entry; on every later entry (after tool dispatch or a judge rejection) the
// accumulated history is already current, so the incoming value is ignored
// and the model always sees the full message sequence.
func NewLLMCallPreHandler() func(context.Context, []*schema.Message, *model.AgentState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AgentState) ([]*schema.Message, error) {
		if len(state.Messages) == 0 {
			state.Messages = append(state.Messages, in...)
		}
		return state.Messages, nil
	}
}

// NewLLMCallPostHandler appends the model output to the run history.
// Providers occasionally omit tool_call ids; those are synthesized from a
// per-run sequence so tool results can be correlated.
func NewLLMCallPostHandler() func(context.Context, *schema.Message, *model.AgentState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AgentState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("model returned nil message")
		}
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}
		state.Messages = append(state.Messages, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("Candidate answer ready")
		}
		return out, nil
	}
}

// NewToolExecutorPostHandler appends tool results to the run history. The
// tools node gathers concurrent executions and hands the results over in the
// order the invocations were requested, so appending preserves request order.
func NewToolExecutorPostHandler() func(context.Context, []*schema.Message, *model.AgentState) ([]*schema.Message, error) {
	return func(ctx context.Context, out []*schema.Message, state *model.AgentState) ([]*schema.Message, error) {
		state.Messages = append(state.Messages, out...)
		return out, nil
	}
}

// NewToolDispatchCondition routes the model output: tool requests go to the
// tool executor, anything else to the judge.
func NewToolDispatchCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		if len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}
		return NodeJudge, nil
	}
}

// NewJudgeNode evaluates the latest answer. When retries are exhausted the
// evaluation is skipped entirely and the run counts as passed. A rejection
// appends the corrective user message and increments the retry counter; the
// judge condition then loops back to the model.
func NewJudgeNode(j *judge.Judge, maxRetries int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *schema.Message) ([]*schema.Message, error) {
		var out []*schema.Message
		err := compose.ProcessState(ctx, func(ctx context.Context, state *model.AgentState) error {
			if state.RetryCount >= maxRetries {
				state.JudgePassed = true
				out = state.Messages
				return nil
			}

			question, answer, evidence := collectJudgeInput(state.Messages)
			verdict, err := j.Evaluate(ctx, question, answer, evidence)
			if err != nil {
				return err
			}
			if verdict.Passed {
				state.JudgePassed = true
				out = state.Messages
				return nil
			}

			logx.Debug().
				Int("retry_count", state.RetryCount).
				Str("feedback", verdict.Feedback).
				Msg("Judge rejected answer - retrying")
			state.JudgePassed = false
			state.Messages = append(state.Messages,
				schema.UserMessage(fmt.Sprintf(retryFeedbackFormat, verdict.Feedback)))
			state.RetryCount++
			out = state.Messages
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}

// NewJudgeCondition ends the run once the judge has passed, otherwise loops
// back for another model cycle.
func NewJudgeCondition() func(context.Context, []*schema.Message) (string, error) {
	return func(ctx context.Context, _ []*schema.Message) (string, error) {
		var passed bool
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AgentState) error {
			passed = state.JudgePassed
			return nil
		})
		if err != nil {
			return "", err
		}
		if passed {
			return compose.END, nil
		}
		return NodeLLMCall, nil
	}
}

// collectJudgeInput extracts the question (first user message), the candidate
// answer (latest assistant message), and the numbered evidence block (all tool
// messages in order) from the run history.
func collectJudgeInput(messages []*schema.Message) (question, answer, evidence string) {
	question = model.FirstUserContent(messages)
	answer = model.LastAssistantContent(messages)

	var items []string
	toolIndex := 0
	for _, m := range messages {
		if m == nil || m.Role != schema.Tool {
			continue
		}
		toolIndex++
		if content := model.MessageText(m); content != "" {
			items = append(items, fmt.Sprintf("[E%d] %s", toolIndex, content))
		}
	}
	return question, answer, strings.Join(items, "\n")
}
