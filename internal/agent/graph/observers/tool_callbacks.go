package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/mcp-orchestrator/server/pkg/logger"
)

// newToolHandler builds a typed ToolCallbackHandler that logs tool lifecycle
// events for one graph run.
func newToolHandler(runID string) *callbackHelper.ToolCallbackHandler {
	return &callbackHelper.ToolCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *tool.CallbackInput) context.Context {
			ev := logx.Debug().
				Str("agent_graph_run_id", runID).
				Str("tool", info.Name)
			if input != nil {
				ev = ev.Str("arguments", input.ArgumentsInJSON)
			}
			ev.Msg("Tool call start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *tool.CallbackOutput) context.Context {
			logx.Debug().
				Str("agent_graph_run_id", runID).
				Str("tool", info.Name).
				Msg("Tool call end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().
				Str("agent_graph_run_id", runID).
				Str("tool", info.Name).
				Err(err).
				Msg("Tool call failed")
			return ctx
		},
	}
}
