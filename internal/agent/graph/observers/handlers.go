package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks aggregates the model and tool observers into one
// callbacks.Handler. Every log line carries the run's correlation id so a
// whole invocation can be traced end to end.
func NewAllCallbacks(runID string) einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler(runID)).
		Tool(newToolHandler(runID)).
		Handler()
}
