package model

import (
	"github.com/cloudwego/eino/schema"
)

// AgentState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - Each graph invocation gets a fresh AgentState; it is never shared across
//     concurrent invocations.
type AgentState struct {
	Messages      []*schema.Message // append-only run history, mutated only inside state handlers
	RetryCount    int               // judge-rejection retries so far; never exceeds the configured maximum
	JudgePassed   bool              // set by the judge node; once true the run must terminate
	ToolCallIDSeq int               // local sequence to synthesize tool_call_id when provider omits
}
