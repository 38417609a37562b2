package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/guardrails-agent/internal/api"
	chatapi "github.com/futig/guardrails-agent/internal/api/chat"
	"github.com/futig/guardrails-agent/internal/config"
	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/futig/guardrails-agent/internal/integration/llm"
	"github.com/futig/guardrails-agent/internal/pkg/logger"
	"github.com/futig/guardrails-agent/internal/pkg/validator"
	"github.com/futig/guardrails-agent/internal/telegram"
	"github.com/futig/guardrails-agent/internal/usecase/chat"
	"github.com/futig/guardrails-agent/internal/usecase/guardrail"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Core holds the dependencies shared by every entry point
type Core struct {
	Config *config.Config
	Logger *zap.Logger
	ChatUC *chat.Usecase
	db     *pgxpool.Pool
}

// Close releases the database pool and flushes the logger
func (c *Core) Close() {
	if c.db != nil {
		c.Logger.Info("closing database connections")
		c.db.Close()
	}
	_ = c.Logger.Sync()
}

// BuildCore loads configuration and wires the guarded chat use case.
// A missing model API key fails here, before anything else is started.
func BuildCore(environment string) (*Core, error) {
	cfg, err := config.LoadConfig(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	return buildCore(context.Background(), cfg, log)
}

func buildCore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Core, error) {
	log.Info("building application",
		zap.String("environment", cfg.Environment),
		zap.String("model", cfg.LLMConnectorCfg.Model),
		zap.Bool("mocks", cfg.EnableMocks),
	)

	db, audit, err := setupAudit(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var llmConnector guardrail.LLMConnector
	if cfg.EnableMocks {
		log.Info("using mock connector for the language model")
		llmConnector = llm.NewMockConnector(log)
	} else {
		log.Info("using real connector for the language model", zap.String("url", cfg.LLMConnectorCfg.Url))
		llmConnector = llm.NewConnector(cfg.LLMConnectorCfg, cfg.APIKey, log)
	}

	pipeline := guardrail.NewGuardedPipeline(llmConnector, pipelineAgents(cfg))

	chatValidator := validator.NewChatValidator(cfg.ChatCfg)

	var recorder chat.AuditRecorder
	if audit != nil {
		recorder = audit
	}

	chatUC := chat.NewUsecase(pipeline, chatValidator, recorder, cfg.Agents.Greeting, log)
	log.Info("use cases initialized")

	return &Core{
		Config: cfg,
		Logger: log,
		ChatUC: chatUC,
		db:     db,
	}, nil
}

func pipelineAgents(cfg *config.Config) guardrail.Agents {
	agents := cfg.Agents
	return guardrail.Agents{
		InputGuard: entity.AgentConfig{
			Name:         agents.InputGuard.Name,
			Instructions: agents.InputGuard.Instructions,
		},
		Responder: entity.AgentConfig{
			Name:         agents.Responder.Name,
			Instructions: agents.Responder.Instructions,
		},
		OutputGuard: entity.AgentConfig{
			Name:         agents.OutputGuard.Name,
			Instructions: agents.OutputGuard.Instructions,
		},
		InputRefusal:  agents.InputGuard.Refusal,
		OutputRefusal: agents.OutputGuard.Refusal,
	}
}

// Build creates the HTTP chat API application
func Build(environment string) (*App, error) {
	core, err := BuildCore(environment)
	if err != nil {
		return nil, err
	}

	router := api.SetupRouter(chatapi.NewHandler(core.ChatUC), core.Logger)
	core.Logger.Info("HTTP router configured")

	server := &http.Server{
		Addr:              core.Config.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Three model calls may run before the response is written
		WriteTimeout: api.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	core.Logger.Info("application built successfully",
		zap.String("environment", core.Config.Environment),
		zap.String("server_addr", core.Config.ServerAddr),
	)

	return &App{
		server: server,
		core:   core,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot(environment string) (telegram.Bot, *Core, error) {
	core, err := BuildCore(environment)
	if err != nil {
		return nil, nil, err
	}

	bot, err := telegram.NewBot(core.Config, core.ChatUC, core.Logger)
	if err != nil {
		core.Close()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	core.Logger.Info("telegram bot built successfully",
		zap.String("environment", core.Config.Environment),
	)

	return bot, core, nil
}
