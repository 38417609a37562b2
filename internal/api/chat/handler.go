package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/futig/guardrails-agent/internal/pkg/logger"
	"github.com/futig/guardrails-agent/internal/pkg/response"
	"github.com/futig/guardrails-agent/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// maxBodyBytes bounds the JSON body; the validator enforces the real limits
const maxBodyBytes = 1 << 20

type Handler struct {
	usecase ChatUsecase
}

func NewHandler(usecase ChatUsecase) *Handler {
	return &Handler{
		usecase: usecase,
	}
}

// StartSession handles POST /chat/sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartSession")

	response.Created(w, h.usecase.StartSession(ctx))
}

// SendMessage handles POST /chat/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SendMessage")

	var req entity.ChatMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	reply, err := h.usecase.HandleMessage(ctx, entity.ChannelHTTP, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.ChatMessageResponse{
		RequestID: reply.RequestID,
		Message:   reply.Text,
		Status:    reply.Status,
	})
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case validator.IsValidationError(err), errors.Is(err, entity.ErrEmptyRequest):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case isTimeout(err):
		// Checked before upstream: a model call cut by the deadline is a timeout
		h.respondError(ctx, w, http.StatusGatewayTimeout, "request timed out", err)
	case entity.IsUpstreamFailure(err):
		h.respondError(ctx, w, http.StatusBadGateway, "the language model is unavailable, please try again later", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
