package model

// EventType tags one streamed progress notification.
type EventType string

const (
	EventRequestID EventType = "request_id"
	EventState     EventType = "state"
	EventRewrite   EventType = "rewrite"
	EventRoute     EventType = "route"
	EventAnswer    EventType = "answer"
	EventError     EventType = "error"
)

// Pipeline phases reported through state events.
const (
	PhaseRewrite = "rewrite"
	PhaseRAG     = "rag"
	PhaseDone    = "done"
)

// RouteRAG is the tool-augmented downstream path.
const RouteRAG = "RAG"

// StreamEvent is one progress notification on the answer stream. Field names
// match the SSE wire format; only the fields relevant to the Type are set.
// Exactly one terminal event (answer followed by a done state, or a single
// error) ends a stream.
type StreamEvent struct {
	Type            EventType `json:"type"`
	RequestID       string    `json:"request_id,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	Phase           string    `json:"phase,omitempty"`
	Message         string    `json:"message,omitempty"`
	Text            string    `json:"text,omitempty"`
	Route           string    `json:"route,omitempty"`
	AgentGraphRunID string    `json:"agent_graph_run_id,omitempty"`
}

// NewRequestIDEvent is the first event of every stream.
func NewRequestIDEvent(requestID, sessionID string) StreamEvent {
	return StreamEvent{Type: EventRequestID, RequestID: requestID, SessionID: sessionID}
}

// NewStateEvent reports entry into a pipeline phase.
func NewStateEvent(phase, message string) StreamEvent {
	return StreamEvent{Type: EventState, Phase: phase, Message: message}
}

// NewRewriteEvent carries the retrieval-optimized restatement of the question.
func NewRewriteEvent(text string) StreamEvent {
	return StreamEvent{Type: EventRewrite, Text: text}
}

// NewRouteEvent names the chosen downstream path.
func NewRouteEvent(route string) StreamEvent {
	return StreamEvent{Type: EventRoute, Route: route}
}

// NewAnswerEvent carries the final answer text and, when the tool-augmented
// graph produced it, the correlation id of the underlying run.
func NewAnswerEvent(text, agentGraphRunID string) StreamEvent {
	return StreamEvent{Type: EventAnswer, Text: text, AgentGraphRunID: agentGraphRunID}
}

// NewErrorEvent is the sole terminal event on failure.
func NewErrorEvent(text string) StreamEvent {
	return StreamEvent{Type: EventError, Text: text}
}
