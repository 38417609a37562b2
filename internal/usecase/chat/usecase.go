package chat

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/futig/guardrails-agent/internal/pkg/logger"
	"github.com/futig/guardrails-agent/internal/pkg/validator"
	"github.com/futig/guardrails-agent/internal/usecase/guardrail"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Usecase answers chat messages through the guarded pipeline
type Usecase struct {
	pipeline  Pipeline
	validator *validator.Validator
	audit     AuditRecorder
	greeting  string
	logger    *zap.Logger
}

// NewUsecase creates a chat use case. audit may be nil.
func NewUsecase(
	pipeline Pipeline,
	validator *validator.Validator,
	audit AuditRecorder,
	greeting string,
	logger *zap.Logger,
) *Usecase {
	return &Usecase{
		pipeline:  pipeline,
		validator: validator,
		audit:     audit,
		greeting:  greeting,
		logger:    logger,
	}
}

// Greeting is the fixed text shown when a conversation starts
func (uc *Usecase) Greeting() string {
	return uc.greeting
}

// StartSession opens a conversation. Sessions are not stored: the id only
// correlates log lines of one client.
func (uc *Usecase) StartSession(ctx context.Context) *entity.StartChatResponse {
	ctx = logger.Ensure(ctx, uc.logger)
	sessionID := uuid.New().String()

	ctxzap.Info(ctx, "chat session started", zap.String("session_id", sessionID))

	return &entity.StartChatResponse{
		SessionID: sessionID,
		Message:   uc.greeting,
	}
}

// HandleMessage produces exactly one reply for one incoming message.
// Validation errors are returned before anything is sent to the model.
// An upstream failure is returned as an error and never as a reply.
func (uc *Usecase) HandleMessage(ctx context.Context, channel entity.Channel, req *entity.ChatMessageRequest) (*entity.Reply, error) {
	// Boundaries without a request logger (the CLI) log through the service logger
	ctx = logger.Ensure(ctx, uc.logger)

	if err := uc.validator.ValidateChatMessage(req); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	ctx = logger.AddFields(ctx,
		zap.String("request_id", requestID),
		zap.String("channel", string(channel)),
	)

	ctxzap.Info(ctx, "processing chat message",
		zap.Int("message_chars", utf8.RuneCountInString(req.Message)),
		zap.Int("history_turns", len(req.History)),
	)

	result, runErr := uc.pipeline.Run(ctx, req.ToRequest())

	uc.record(ctx, requestID, channel, req.Message, result)

	if runErr != nil {
		return nil, fmt.Errorf("run pipeline: %w", runErr)
	}

	reply := &entity.Reply{
		RequestID: requestID,
		Text:      result.Text(),
		Status:    replyStatus(result),
	}

	ctxzap.Info(ctx, "chat message processed",
		zap.String("status", string(reply.Status)),
		zap.Duration("duration", result.Duration),
	)

	return reply, nil
}

func (uc *Usecase) record(ctx context.Context, requestID string, channel entity.Channel, message string, result *guardrail.Result) {
	if uc.audit == nil || result == nil {
		return
	}

	event := entity.AuditEvent{
		ID:            uuid.New().String(),
		RequestID:     requestID,
		Channel:       channel,
		Status:        replyStatus(result),
		RejectedStage: result.RejectedBy(),
		Rationale:     result.Outcome.Rationale,
		InputChars:    utf8.RuneCountInString(message),
		Duration:      result.Duration,
		CreatedAt:     time.Now().UTC(),
	}

	if err := uc.audit.RecordEvent(ctx, event); err != nil {
		ctxzap.Warn(ctx, "failed to record audit event", zap.Error(err))
	}
}

func replyStatus(result *guardrail.Result) entity.ReplyStatus {
	switch result.State {
	case entity.StateDelivered:
		return entity.ReplyStatusDelivered
	case entity.StateRejected:
		if result.RejectedBy() == entity.StageOutputGuard {
			return entity.ReplyStatusOutputRejected
		}
		return entity.ReplyStatusInputRejected
	default:
		return entity.ReplyStatusFailed
	}
}
