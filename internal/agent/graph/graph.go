package graph

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/mcp-orchestrator/server/internal/agent/graph/nodes"
	"github.com/mcp-orchestrator/server/internal/agent/graph/observers"
	"github.com/mcp-orchestrator/server/internal/agent/judge"
	"github.com/mcp-orchestrator/server/internal/agent/model"
	"github.com/mcp-orchestrator/server/internal/core/ctxkeys"
	logx "github.com/mcp-orchestrator/server/pkg/logger"
)

// Config holds everything needed to compose the agent graph end-to-end.
type Config struct {
	// Model generates assistant turns and tool-invocation requests.
	Model einomodel.ToolCallingChatModel
	// Tools are the invokable bindings executed by the tool node.
	Tools []tool.BaseTool
	// ToolInfos are the matching schemas bound to the model.
	ToolInfos []*schema.ToolInfo
	// Judge gates the final answer.
	Judge *judge.Judge
	// MaxRetries bounds judge-triggered correction cycles. Negative values
	// fall back to the default of one retry.
	MaxRetries int
}

// Agent is a compiled execution graph ready to answer one message sequence
// at a time. It is safe for concurrent invocations; each invocation owns its
// own run state.
type Agent struct {
	runnable compose.Runnable[[]*schema.Message, []*schema.Message]
}

// Invoke runs the graph on messages and returns the accumulated message
// sequence at termination together with the run's correlation id. The ctx
// deadline bounds the whole invocation.
func (a *Agent) Invoke(ctx context.Context, messages []*schema.Message) ([]*schema.Message, string, error) {
	runID := uuid.NewString()

	logx.Debug().
		Str("agent_graph_run_id", runID).
		Str("request_id", ctxkeys.RequestID(ctx)).
		Str("session_id", ctxkeys.SessionID(ctx)).
		Msg("Invoking agent graph")

	out, err := a.runnable.Invoke(ctx, messages,
		compose.WithCallbacks(observers.NewAllCallbacks(runID)))
	if err != nil {
		return nil, "", err
	}
	return out, runID, nil
}

// graphBuilder handles the construction of the agent execution graph
type graphBuilder struct {
	config *Config
	graph  *compose.Graph[[]*schema.Message, []*schema.Message]
}

// BuildAgent binds the tools to the model, composes the llm_call / tool_node /
// judge graph, and compiles it.
func BuildAgent(ctx context.Context, cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	if cfg.Judge == nil {
		return nil, fmt.Errorf("judge is nil")
	}
	cfg.MaxRetries = nodes.NormalizeMaxRetries(cfg.MaxRetries)

	builder := &graphBuilder{
		config: &cfg,
		graph: compose.NewGraph[[]*schema.Message, []*schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AgentState {
				return &model.AgentState{}
			}),
		),
	}

	if err := builder.addNodes(ctx); err != nil {
		return nil, err
	}
	builder.addEdges()
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}

	logx.Debug().Int("tool_count", len(cfg.Tools)).Msg("Agent graph built successfully")
	return &Agent{runnable: runnable}, nil
}

// addNodes adds the model, tool executor, and judge nodes to the graph
func (b *graphBuilder) addNodes(ctx context.Context) error {
	chatModel := einomodel.BaseChatModel(b.config.Model)
	if len(b.config.ToolInfos) > 0 {
		bound, err := b.config.Model.WithTools(b.config.ToolInfos)
		if err != nil {
			logx.Error().Err(err).Msg("Failed to bind tools to model")
			return fmt.Errorf("failed to bind tools to model: %w", err)
		}
		chatModel = bound
	}

	b.graph.AddChatModelNode(nodes.NodeLLMCall, chatModel,
		compose.WithStatePreHandler(nodes.NewLLMCallPreHandler()),
		compose.WithStatePostHandler(nodes.NewLLMCallPostHandler()),
	)

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools: b.config.Tools,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Gracefully handle hallucinated or malformed tool calls
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}
	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePostHandler(nodes.NewToolExecutorPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeJudge,
		nodes.NewJudgeNode(b.config.Judge, b.config.MaxRetries),
	)

	return nil
}

// addEdges creates the unconditional flow connections between nodes
func (b *graphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeLLMCall},
		{nodes.NodeToolExecutor, nodes.NodeLLMCall},
	}
	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the conditional routing branches
func (b *graphBuilder) addBranches() error {
	dispatchBranch := compose.NewGraphBranch(
		nodes.NewToolDispatchCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			nodes.NodeJudge:        true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeLLMCall, dispatchBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding tool dispatch branch")
		return fmt.Errorf("error adding tool dispatch branch: %w", err)
	}

	judgeBranch := compose.NewGraphBranch(
		nodes.NewJudgeCondition(),
		map[string]bool{
			compose.END:       true,
			nodes.NodeLLMCall: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeJudge, judgeBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding judge branch")
		return fmt.Errorf("error adding judge branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *graphBuilder) compile(ctx context.Context) (compose.Runnable[[]*schema.Message, []*schema.Message], error) {
	// Limit total run steps so branching or tool loops cannot run unbounded
	maxSteps := 20 + b.config.MaxRetries*10

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}
	return runnable, nil
}
