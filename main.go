package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/mcp-orchestrator/server/internal/agent/gate"
	"github.com/mcp-orchestrator/server/internal/agent/graph"
	"github.com/mcp-orchestrator/server/internal/agent/graph/nodes"
	"github.com/mcp-orchestrator/server/internal/agent/judge"
	"github.com/mcp-orchestrator/server/internal/agent/mcptools"
	"github.com/mcp-orchestrator/server/internal/agent/model"
	"github.com/mcp-orchestrator/server/internal/agent/orchestrator"
	"github.com/mcp-orchestrator/server/internal/agent/rewrite"
	"github.com/mcp-orchestrator/server/internal/core"
	"github.com/mcp-orchestrator/server/internal/feedback"
	"github.com/mcp-orchestrator/server/internal/server"
	logx "github.com/mcp-orchestrator/server/pkg/logger"
	pkgredis "github.com/mcp-orchestrator/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"APP_ENV" default:"development"`
	ListenAddr  string           `envconfig:"LISTEN_ADDR" default:":8080"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Pipeline configs
	Agent        model.AgentModelConfig
	Candidate    model.CandidateConfig
	Orchestrator model.OrchestratorConfig
	Feedback     model.FeedbackConfig

	MaxRetries int `envconfig:"MAX_RETRIES" default:"1"`
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: cfg.Environment})

	rdb, err := cfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	models, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Agent:   &cfg.Agent,
	})
	if err != nil {
		log.Fatalf("Failed to create chat models: %v", err)
	}

	smalltalkGate := gate.New(models.Utility, cfg.Candidate.Name)
	rewriter := rewrite.New(models.Utility, cfg.Candidate.Name)
	answerJudge := judge.New(models.Utility)

	cache := graph.NewCache(func(ctx context.Context, endpoint string) (*graph.Agent, error) {
		client, err := mcptools.Connect(ctx, endpoint, cfg.Orchestrator.MCPName)
		if err != nil {
			return nil, err
		}
		return graph.BuildAgent(ctx, graph.Config{
			Model:      models.Agent,
			Tools:      client.Tools(),
			ToolInfos:  client.ToolInfos(),
			Judge:      answerJudge,
			MaxRetries: cfg.MaxRetries,
		})
	})

	orc := orchestrator.New(smalltalkGate, rewriter, cache, cfg.Orchestrator)
	store := feedback.NewRedisStore(rdb, cfg.Feedback.TTL)

	srv := server.New(orc, store, cfg.Orchestrator)
	logx.Info().
		Str("addr", cfg.ListenAddr).
		Str("model", models.ModelName).
		Str("rag_tool_url", cfg.Orchestrator.RAGToolURL).
		Msg("Starting server")

	if err := srv.Router().Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
