package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/futig/guardrails-agent/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// pythonKeywords drive the mock verdicts
var pythonKeywords = []string{
	"python", "pip", "django", "flask", "pandas", "numpy", "pytest", "asyncio",
	"walrus", "list comprehension", "decorator", "virtualenv", "venv", "pep",
	"def ", "lambda", "dict", "tuple", "generator", ".py",
}

// MockConnector is a deterministic stand-in for the model, used with ENABLE_MOCKS
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// GenerateText returns a canned answer that quotes the question
func (m *MockConnector) GenerateText(ctx context.Context, agent entity.AgentConfig, req entity.Request) (string, error) {
	ctx = logger.Ensure(ctx, m.logger)
	ctxzap.Info(ctx, "[MOCK] generating answer via LLM", zap.String("agent", agent.Name))

	question := strings.TrimSpace(req.Text())
	answer := fmt.Sprintf("(mock) Here is how Python handles it: %q is best answered by checking the Python documentation at https://docs.python.org/3/.", question)

	ctxzap.Info(ctx, "[MOCK] answer generated", zap.Int("result_length", len(answer)))
	return answer, nil
}

// GenerateVerdict passes input that mentions a Python keyword
func (m *MockConnector) GenerateVerdict(ctx context.Context, agent entity.AgentConfig, input string) (*entity.ValidationVerdict, error) {
	ctx = logger.Ensure(ctx, m.logger)
	ctxzap.Info(ctx, "[MOCK] requesting verdict via LLM", zap.String("agent", agent.Name))

	lowered := strings.ToLower(input)
	for _, kw := range pythonKeywords {
		if strings.Contains(lowered, kw) {
			return &entity.ValidationVerdict{
				Passed:    true,
				Rationale: fmt.Sprintf("mentions %q", strings.TrimSpace(kw)),
			}, nil
		}
	}

	return &entity.ValidationVerdict{
		Passed:    false,
		Rationale: "no Python-related terms found",
	}, nil
}
