package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/futig/guardrails-agent/internal/config"
	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/futig/guardrails-agent/internal/integration/common"
	"github.com/futig/guardrails-agent/internal/pkg/logger"
	pkghttp "github.com/futig/guardrails-agent/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector talks to an OpenAI-compatible chat completions endpoint.
// One method call is exactly one HTTP request; nothing is retried or cached.
type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	apiKey string,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, apiKey, logger),
		config:    cfg,
		logger:    logger,
	}
}

// GenerateText answers the request under the agent's instructions
func (c *Connector) GenerateText(ctx context.Context, agent entity.AgentConfig, req entity.Request) (string, error) {
	ctx = logger.Ensure(ctx, c.logger)
	ctxzap.Info(ctx, "generating answer via LLM service", zap.String("agent", agent.Name))

	messages := make([]entity.LLMMessage, 0, len(req.Turns)+1)
	messages = append(messages, entity.LLMMessage{Role: "system", Content: agent.Instructions})
	for _, turn := range req.Turns {
		messages = append(messages, entity.LLMMessage{Role: string(turn.Role), Content: turn.Content})
	}

	content, err := c.complete(ctx, agent, messages, nil)
	if err != nil {
		return "", fmt.Errorf("generate text failed: %w", err)
	}

	ctxzap.Info(ctx, "answer generated successfully",
		zap.String("agent", agent.Name),
		zap.Int("result_length", len(content)),
	)

	return content, nil
}

// GenerateVerdict asks the agent to classify input and returns its structured verdict
func (c *Connector) GenerateVerdict(ctx context.Context, agent entity.AgentConfig, input string) (*entity.ValidationVerdict, error) {
	ctx = logger.Ensure(ctx, c.logger)
	ctxzap.Info(ctx, "requesting verdict via LLM service", zap.String("agent", agent.Name))

	messages := []entity.LLMMessage{
		{Role: "system", Content: agent.Instructions},
		{Role: "user", Content: input},
	}

	format := &entity.LLMResponseFormat{
		Type: "json_schema",
		JSONSchema: &entity.LLMJSONSchema{
			Name:   entity.VerdictSchemaName,
			Strict: true,
			Schema: entity.VerdictSchema,
		},
	}

	content, err := c.complete(ctx, agent, messages, format)
	if err != nil {
		return nil, fmt.Errorf("generate verdict failed: %w", err)
	}

	verdict, err := decodeVerdict(content)
	if err != nil {
		return nil, fmt.Errorf("generate verdict failed: %w", err)
	}

	ctxzap.Info(ctx, "verdict received",
		zap.String("agent", agent.Name),
		zap.Bool("passed", verdict.Passed),
	)

	return verdict, nil
}

func (c *Connector) complete(
	ctx context.Context,
	agent entity.AgentConfig,
	messages []entity.LLMMessage,
	format *entity.LLMResponseFormat,
) (string, error) {
	model := agent.Model
	if model == "" {
		model = c.config.Model
	}

	req := &entity.LLMChatCompletionRequest{
		Model:          model,
		Messages:       messages,
		Temperature:    c.config.Temperature,
		ResponseFormat: format,
	}

	var resp entity.LLMChatCompletionResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.ChatCompletionsEndpoint, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", entity.ErrEmptyGeneration)
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", entity.ErrEmptyGeneration
	}

	return content, nil
}

// decodeVerdict reads the structured output. Models occasionally wrap JSON
// in a markdown fence even in schema mode.
func decodeVerdict(content string) (*entity.ValidationVerdict, error) {
	raw := strings.TrimSpace(content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMalformedGeneration, err)
	}

	if _, ok := fields["is_related"]; !ok {
		return nil, fmt.Errorf("%w: is_related is missing", entity.ErrMalformedGeneration)
	}

	var verdict entity.ValidationVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrMalformedGeneration, err)
	}

	return &verdict, nil
}
