// Package orchestrator sequences the request pipeline — smalltalk gate,
// query rewrite, route, tool-augmented execution graph — and streams ordered
// progress events with uniform error reporting.
package orchestrator

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/mcp-orchestrator/server/internal/agent/gate"
	"github.com/mcp-orchestrator/server/internal/agent/graph"
	"github.com/mcp-orchestrator/server/internal/agent/model"
	"github.com/mcp-orchestrator/server/internal/agent/rewrite"
	"github.com/mcp-orchestrator/server/internal/core/ctxkeys"
	errx "github.com/mcp-orchestrator/server/internal/core/error"
	logx "github.com/mcp-orchestrator/server/pkg/logger"
)

// Request is one inbound question with optional caller-supplied identifiers.
type Request struct {
	Question  string
	SessionID string
	RequestID string
}

// Orchestrator drives the pipeline for one request at a time per stream.
// It holds no per-request state; concurrent streams are independent.
type Orchestrator struct {
	gate     *gate.Gate
	rewriter *rewrite.Rewriter
	cache    *graph.Cache
	cfg      model.OrchestratorConfig
}

// New wires the pipeline stages together.
func New(g *gate.Gate, r *rewrite.Rewriter, cache *graph.Cache, cfg model.OrchestratorConfig) *Orchestrator {
	return &Orchestrator{gate: g, rewriter: r, cache: cache, cfg: cfg}
}

// Stream answers req, delivering events in pipeline order on the returned
// channel. The channel is closed after exactly one terminal event: an answer
// followed by a done state, or a single error. Cancelling ctx abandons the
// stream.
func (o *Orchestrator) Stream(ctx context.Context, req Request) <-chan model.StreamEvent {
	events := make(chan model.StreamEvent)
	go func() {
		defer close(events)
		o.run(ctx, req, events)
	}()
	return events
}

// Answer runs the pipeline to completion and returns the final answer text.
// Consumes Stream so there is a single code path.
func (o *Orchestrator) Answer(ctx context.Context, req Request) string {
	var answer string
	for ev := range o.Stream(ctx, req) {
		switch ev.Type {
		case model.EventAnswer:
			answer = ev.Text
		case model.EventError:
			return ev.Text
		}
	}
	return answer
}

func (o *Orchestrator) run(ctx context.Context, req Request, out chan<- model.StreamEvent) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = ctxkeys.WithRequestID(ctx, requestID)
	if req.SessionID != "" {
		ctx = ctxkeys.WithSessionID(ctx, req.SessionID)
	}

	// emit delivers one event, giving up when the caller is gone. Once it
	// returns false no further event may be sent.
	emit := func(ev model.StreamEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(err error) {
		text := errx.Format(err)
		logx.Error().Err(err).Str("request_id", requestID).Msg("Pipeline failed")
		emit(model.NewErrorEvent(text))
	}

	if !emit(model.NewRequestIDEvent(requestID, req.SessionID)) {
		return
	}

	reply, smalltalk, err := o.gate.Check(ctx, req.Question)
	if err != nil {
		fail(err)
		return
	}
	if smalltalk {
		if !emit(model.NewAnswerEvent(reply, "")) {
			return
		}
		emit(model.NewStateEvent(model.PhaseDone, "Complete"))
		return
	}

	if !emit(model.NewStateEvent(model.PhaseRewrite, "Rewriting question...")) {
		return
	}
	rewritten, err := o.rewriter.Rewrite(ctx, req.Question)
	if err != nil {
		fail(err)
		return
	}
	if !emit(model.NewRewriteEvent(rewritten)) {
		return
	}
	if !emit(model.NewRouteEvent(model.RouteRAG)) {
		return
	}

	messages := []*schema.Message{schema.UserMessage(rewritten)}
	var runID string
	if o.cfg.RAGToolURL != "" {
		if !emit(model.NewStateEvent(model.PhaseRAG, "Running RAG phase...")) {
			return
		}
		agent, err := o.cache.GetOrBuild(ctx, o.cfg.RAGToolURL, o.cfg.ToolsTimeout())
		if err != nil {
			fail(err)
			return
		}

		invokeCtx, cancel := context.WithTimeout(ctx, o.cfg.InvokeTimeout())
		messages, runID, err = agent.Invoke(invokeCtx, messages)
		cancel()
		if err != nil {
			fail(err)
			return
		}
	}

	if content := model.LastAssistantContent(messages); content != "" {
		if !emit(model.NewAnswerEvent(content, runID)) {
			return
		}
	}
	emit(model.NewStateEvent(model.PhaseDone, "Complete"))
}
