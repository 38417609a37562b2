package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/futig/guardrails-agent/internal/telegram/render"
	pkgHTTP "github.com/futig/guardrails-agent/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
)

// String returns string representation of error severity
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// HandlerError represents a structured error with user message and logging info
type HandlerError struct {
	Err         error
	UserMessage string
	LogMessage  string
	Severity    ErrorSeverity
}

// classifyHandlerError maps an error to the message shown in chat.
// The text never contains model output or internal details.
func classifyHandlerError(err error, maxMessageChars int) *HandlerError {
	if err == nil {
		return &HandlerError{
			UserMessage: render.ErrGeneric,
			LogMessage:  "unknown error",
			Severity:    SeverityWarning,
		}
	}

	// Input problems are the user's to fix
	switch {
	case errors.Is(err, entity.ErrMessageTooLong):
		return &HandlerError{
			Err:         err,
			UserMessage: render.RenderMessageTooLong(maxMessageChars),
			LogMessage:  "message too long",
			Severity:    SeverityWarning,
		}
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrEmptyRequest):
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrEmptyMessage,
			LogMessage:  "empty message",
			Severity:    SeverityWarning,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrTimeout,
			LogMessage:  "operation timed out",
			Severity:    SeverityError,
		}
	}

	var httpErr *pkgHTTP.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.IsQuota():
			return &HandlerError{
				Err:         err,
				UserMessage: render.ErrQuotaExceeded,
				LogMessage:  "model quota exceeded",
				Severity:    SeverityError,
			}
		case httpErr.StatusCode >= http.StatusInternalServerError:
			return &HandlerError{
				Err:         err,
				UserMessage: render.ErrServiceUnavailable,
				LogMessage:  "model service unavailable",
				Severity:    SeverityError,
			}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &HandlerError{
				Err:         err,
				UserMessage: render.ErrTimeout,
				LogMessage:  "network timeout",
				Severity:    SeverityError,
			}
		}
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrNetworkIssue,
			LogMessage:  "network error",
			Severity:    SeverityError,
		}
	}

	var networkErr *pkgHTTP.NetworkError
	if errors.As(err, &networkErr) {
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrNetworkIssue,
			LogMessage:  "network error",
			Severity:    SeverityError,
		}
	}

	if entity.IsUpstreamFailure(err) {
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrServiceUnavailable,
			LogMessage:  "model call failed",
			Severity:    SeverityError,
		}
	}

	return &HandlerError{
		Err:         err,
		UserMessage: render.ErrGeneric,
		LogMessage:  "handler error",
		Severity:    SeverityError,
	}
}

// HandleError logs the error with its severity and sends a user-friendly message
func (h *BaseHandler) HandleError(ctx context.Context, chatID int64, err error, maxMessageChars int) {
	if err == nil {
		return
	}

	handlerErr := classifyHandlerError(err, maxMessageChars)

	switch handlerErr.Severity {
	case SeverityError:
		ctxzap.Error(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.Int64("chat_id", chatID),
		)
	case SeverityWarning:
		ctxzap.Warn(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.Int64("chat_id", chatID),
		)
	}

	_ = h.sendMessage(ctx, chatID, handlerErr.UserMessage)
}
