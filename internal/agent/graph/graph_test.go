package graph

import (
	"context"
	"fmt"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-orchestrator/server/internal/agent/judge"
	"github.com/mcp-orchestrator/server/internal/agent/model"
)

// scriptedModel returns its scripted responses in order and records the tool
// schemas bound to it.
type scriptedModel struct {
	script     []*schema.Message
	calls      int
	boundTools []*schema.ToolInfo
}

func (s *scriptedModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if s.calls >= len(s.script) {
		return nil, fmt.Errorf("unexpected model call %d", s.calls+1)
	}
	msg := s.script[s.calls]
	s.calls++
	return msg, nil
}

func (s *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := s.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (s *scriptedModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	s.boundTools = tools
	return s, nil
}

// judgeModel replies with the scripted verdict lines in order.
type judgeModel struct {
	verdicts []string
	calls    int
}

func (j *judgeModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if j.calls >= len(j.verdicts) {
		return nil, fmt.Errorf("unexpected judge call %d", j.calls+1)
	}
	v := j.verdicts[j.calls]
	j.calls++
	return schema.AssistantMessage(v, nil), nil
}

func (j *judgeModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := j.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

type searchArgs struct {
	Query string `json:"query"`
}

func searchTool(t *testing.T, result string) (tool.BaseTool, *schema.ToolInfo) {
	t.Helper()
	info := &schema.ToolInfo{
		Name: "search_profile",
		Desc: "Search the candidate profile",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "search query", Required: true},
		}),
	}
	return utils.NewTool(info, func(ctx context.Context, args *searchArgs) (string, error) {
		return result, nil
	}), info
}

func buildTestAgent(t *testing.T, m *scriptedModel, jm *judgeModel, withTool bool, maxRetries int) *Agent {
	t.Helper()
	cfg := Config{
		Model:      m,
		Judge:      judge.New(jm),
		MaxRetries: maxRetries,
	}
	if withTool {
		tl, info := searchTool(t, "Remote work: allowed, 3 days per week.")
		cfg.Tools = []tool.BaseTool{tl}
		cfg.ToolInfos = []*schema.ToolInfo{info}
	}
	agent, err := BuildAgent(context.Background(), cfg)
	require.NoError(t, err)
	return agent
}

func TestBuildAgentValidation(t *testing.T) {
	_, err := BuildAgent(context.Background(), Config{})
	require.Error(t, err)

	_, err = BuildAgent(context.Background(), Config{Model: &scriptedModel{}})
	require.Error(t, err)
}

func TestInvokeDirectAnswer(t *testing.T) {
	m := &scriptedModel{script: []*schema.Message{
		schema.AssistantMessage("Taixing Bi is available for remote work.", nil),
	}}
	jm := &judgeModel{verdicts: []string{"GOOD"}}
	agent := buildTestAgent(t, m, jm, false, 1)

	out, runID, err := agent.Invoke(context.Background(), []*schema.Message{
		schema.UserMessage("is Taixing Bi available for remote work?"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	require.Len(t, out, 2)
	assert.Equal(t, "Taixing Bi is available for remote work.", model.LastAssistantContent(out))
	assert.Equal(t, 1, m.calls)
	assert.Equal(t, 1, jm.calls)
}

func TestInvokeWithToolCall(t *testing.T) {
	m := &scriptedModel{script: []*schema.Message{
		schema.AssistantMessage("", []schema.ToolCall{{
			Function: schema.FunctionCall{
				Name:      "search_profile",
				Arguments: `{"query":"remote work"}`,
			},
		}}),
		schema.AssistantMessage("Remote work is allowed 3 days per week [E1].", nil),
	}}
	jm := &judgeModel{verdicts: []string{"GOOD"}}
	agent := buildTestAgent(t, m, jm, true, 1)

	out, runID, err := agent.Invoke(context.Background(), []*schema.Message{
		schema.UserMessage("can Taixing Bi work remotely?"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	// user, tool-calling assistant, tool result, final assistant
	require.Len(t, out, 4)
	assert.Equal(t, schema.User, out[0].Role)
	assert.Equal(t, schema.Assistant, out[1].Role)
	require.Len(t, out[1].ToolCalls, 1)
	assert.Equal(t, "call_1", out[1].ToolCalls[0].ID)
	assert.Equal(t, schema.Tool, out[2].Role)
	assert.Contains(t, out[2].Content, "Remote work: allowed")
	assert.Equal(t, "Remote work is allowed 3 days per week [E1].", model.LastAssistantContent(out))

	// Tool schemas were bound to the model.
	require.Len(t, m.boundTools, 1)
	assert.Equal(t, "search_profile", m.boundTools[0].Name)
}

func TestInvokeJudgeRejectionTriggersRetry(t *testing.T) {
	m := &scriptedModel{script: []*schema.Message{
		schema.AssistantMessage("Maybe.", nil),
		schema.AssistantMessage("Yes, relocation within the EU is possible.", nil),
	}}
	jm := &judgeModel{verdicts: []string{"NOT_GOOD: Too vague."}}
	agent := buildTestAgent(t, m, jm, false, 1)

	out, _, err := agent.Invoke(context.Background(), []*schema.Message{
		schema.UserMessage("can Taixing Bi relocate?"),
	})
	require.NoError(t, err)

	// user, rejected answer, corrective feedback, improved answer
	require.Len(t, out, 4)
	assert.Equal(t, schema.User, out[2].Role)
	assert.Equal(t,
		"The previous answer was not good enough. Reason: Too vague. Please improve your answer.",
		out[2].Content)
	assert.Equal(t, "Yes, relocation within the EU is possible.", model.LastAssistantContent(out))

	// The second pass skips evaluation because retries are exhausted.
	assert.Equal(t, 2, m.calls)
	assert.Equal(t, 1, jm.calls)
}

func TestInvokeRejectionThenApproval(t *testing.T) {
	m := &scriptedModel{script: []*schema.Message{
		schema.AssistantMessage("Vague first try.", nil),
		schema.AssistantMessage("Concrete second try.", nil),
	}}
	jm := &judgeModel{verdicts: []string{"NOT_GOOD: Cite evidence.", "GOOD"}}
	agent := buildTestAgent(t, m, jm, false, 2)

	out, _, err := agent.Invoke(context.Background(), []*schema.Message{
		schema.UserMessage("q"),
	})
	require.NoError(t, err)

	require.Len(t, out, 4)
	assert.Equal(t, "Concrete second try.", model.LastAssistantContent(out))
	assert.Equal(t, 2, m.calls)
	assert.Equal(t, 2, jm.calls)
}

func TestInvokeRetryBoundHolds(t *testing.T) {
	m := &scriptedModel{script: []*schema.Message{
		schema.AssistantMessage("First attempt.", nil),
		schema.AssistantMessage("Second attempt.", nil),
		schema.AssistantMessage("Third attempt.", nil),
	}}
	// Always rejecting; only the first two attempts may be judged.
	jm := &judgeModel{verdicts: []string{"NOT_GOOD: no", "NOT_GOOD: no", "NOT_GOOD: no"}}
	agent := buildTestAgent(t, m, jm, false, 2)

	out, _, err := agent.Invoke(context.Background(), []*schema.Message{
		schema.UserMessage("q"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, m.calls)
	assert.Equal(t, 2, jm.calls)
	assert.Equal(t, "Third attempt.", model.LastAssistantContent(out))
}

func TestInvokeNegativeRetriesUsesDefault(t *testing.T) {
	m := &scriptedModel{script: []*schema.Message{
		schema.AssistantMessage("Attempt one.", nil),
		schema.AssistantMessage("Attempt two.", nil),
	}}
	jm := &judgeModel{verdicts: []string{"NOT_GOOD: weak"}}
	agent := buildTestAgent(t, m, jm, false, -5)

	out, _, err := agent.Invoke(context.Background(), []*schema.Message{
		schema.UserMessage("q"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Attempt two.", model.LastAssistantContent(out))
}
