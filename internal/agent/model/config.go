package model

import "time"

// ================ Config ================

// AgentModelConfig configures the shared Gemini chat model. Temperature
// defaults to 0 so classification, rewriting, and judging stay deterministic.
type AgentModelConfig struct {
	Model       string  `envconfig:"AGENT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"AGENT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"AGENT_TEMPERATURE" default:"0"`
}

// CandidateConfig names the subject all second-person questions are rewritten
// to refer to.
type CandidateConfig struct {
	Name string `envconfig:"CANDIDATE_NAME" default:"Taixing Bi"`
}

// OrchestratorConfig configures the request pipeline: the MCP endpoint that
// provides retrieval tools (empty means the tool-augmented phase is skipped)
// and the two timeout bounds.
type OrchestratorConfig struct {
	MCPName              string  `envconfig:"MCP_NAME" default:"mcp-orchestrator"`
	AppVersion           string  `envconfig:"APP_VERSION" default:"0.1.0"`
	RAGToolURL           string  `envconfig:"MCP_TOOL_RAG_URL"`
	ToolsTimeoutSeconds  float64 `envconfig:"TOOLS_TIMEOUT_S" default:"60"`
	InvokeTimeoutSeconds float64 `envconfig:"INVOKE_TIMEOUT_S" default:"120"`
}

// ToolsTimeout bounds MCP connection and tool discovery during graph construction.
func (c OrchestratorConfig) ToolsTimeout() time.Duration {
	return time.Duration(c.ToolsTimeoutSeconds * float64(time.Second))
}

// InvokeTimeout bounds one full graph invocation.
func (c OrchestratorConfig) InvokeTimeout() time.Duration {
	return time.Duration(c.InvokeTimeoutSeconds * float64(time.Second))
}

// FeedbackConfig configures retention of submitted feedback entries.
type FeedbackConfig struct {
	TTL time.Duration `envconfig:"FEEDBACK_TTL" default:"720h"`
}
