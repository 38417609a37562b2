package chat

import (
	"context"

	"github.com/futig/guardrails-agent/internal/entity"
)

type ChatUsecase interface {
	StartSession(ctx context.Context) *entity.StartChatResponse
	HandleMessage(ctx context.Context, channel entity.Channel, req *entity.ChatMessageRequest) (*entity.Reply, error)
}
