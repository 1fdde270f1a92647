// Package server exposes the pipeline over HTTP: a streaming answer endpoint
// using server-sent events, a feedback endpoint, and a health probe.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mcp-orchestrator/server/internal/agent/model"
	"github.com/mcp-orchestrator/server/internal/agent/orchestrator"
	errx "github.com/mcp-orchestrator/server/internal/core/error"
	"github.com/mcp-orchestrator/server/internal/feedback"
	logx "github.com/mcp-orchestrator/server/pkg/logger"
)

// Server routes HTTP traffic to the orchestrator and the feedback store.
type Server struct {
	orc   *orchestrator.Orchestrator
	store *feedback.RedisStore
	cfg   model.OrchestratorConfig
}

func New(orc *orchestrator.Orchestrator, store *feedback.RedisStore, cfg model.OrchestratorConfig) *Server {
	return &Server{orc: orc, store: store, cfg: cfg}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	router.POST("/orchestrator/stream-answer", s.handleStreamAnswer)
	router.POST("/feedback", s.handleFeedback)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"mcp_name":    s.cfg.MCPName,
		"app_version": s.cfg.AppVersion,
	})
}

type streamAnswerRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
	RequestID string `json:"request_id"`
}

// handleStreamAnswer writes pipeline events as SSE data frames. The stream
// always terminates with either a done state or a single error event.
func (s *Server) handleStreamAnswer(c *gin.Context) {
	var req streamAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	events := s.orc.Stream(c.Request.Context(), orchestrator.Request{
		Question:  req.Question,
		SessionID: req.SessionID,
		RequestID: req.RequestID,
	})

	// The orchestrator closes the channel after the terminal event; a client
	// disconnect cancels the request context and unblocks the stream.
	for ev := range events {
		writeSSE(c.Writer, ev)
		c.Writer.Flush()
	}
}

func writeSSE(w io.Writer, ev model.StreamEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to encode stream event")
		return
	}
	w.Write([]byte("data: "))
	w.Write(payload)
	w.Write([]byte("\n\n"))
}

type feedbackRequest struct {
	AgentGraphRunID string `json:"agent_graph_run_id"`
	RequestID       string `json:"request_id"`
	Question        string `json:"question"`
	AnswerSnippet   string `json:"answer_snippet"`
	Rating          string `json:"rating" binding:"required"`
	FeedbackType    string `json:"feedback_type"`
	Comment         string `json:"comment"`
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating is required"})
		return
	}

	// The answer event carries agent_graph_run_id only when the graph ran;
	// the request id keys feedback for smalltalk and degraded answers.
	runID := req.AgentGraphRunID
	if runID == "" {
		runID = req.RequestID
	}
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agent_graph_run_id or request_id is required"})
		return
	}

	err := s.store.Submit(c.Request.Context(), feedback.Entry{
		RunID:         runID,
		RequestID:     req.RequestID,
		Question:      req.Question,
		AnswerSnippet: req.AnswerSnippet,
		Rating:        req.Rating,
		FeedbackType:  req.FeedbackType,
		Comment:       req.Comment,
	})
	if err != nil {
		var appErr *errx.AppError
		status := http.StatusInternalServerError
		message := errx.SystemErrorMessage
		if errors.As(err, &appErr) {
			status = appErr.Status
			message = appErr.Message
		}
		// Storage failures should not look like a broken request to the
		// client; only reject on validation errors.
		if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
			logx.Error().Err(err).Str("run_id", runID).Msg("Failed to store feedback")
			c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Feedback received"})
			return
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Feedback received"})
}
