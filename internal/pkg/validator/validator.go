package validator

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/guardrails-agent/internal/config"
	"github.com/futig/guardrails-agent/internal/entity"
)

// Validator checks chat input against the configured limits
type Validator struct {
	cfg config.ChatConfig
}

func NewChatValidator(cfg config.ChatConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateMessage checks a single user message
func (v *Validator) ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message", entity.ErrMissingField)
	}

	if n := utf8.RuneCountInString(message); n > v.cfg.MaxMessageChars {
		return fmt.Errorf("%w: %d characters (max %d)", entity.ErrMessageTooLong, n, v.cfg.MaxMessageChars)
	}

	return nil
}

// ValidateChatMessage checks the message and its history
func (v *Validator) ValidateChatMessage(req *entity.ChatMessageRequest) error {
	if err := v.ValidateMessage(req.Message); err != nil {
		return err
	}

	if len(req.History) > v.cfg.MaxHistoryTurns {
		return fmt.Errorf("%w: %d turns (max %d)", entity.ErrTooManyTurns, len(req.History), v.cfg.MaxHistoryTurns)
	}

	for i, turn := range req.History {
		if !turn.Role.IsValid() {
			return fmt.Errorf("%w: history[%d].role %q (allowed: user, assistant)", entity.ErrInvalidParameter, i, turn.Role)
		}
		if strings.TrimSpace(turn.Content) == "" {
			return fmt.Errorf("%w: history[%d].content", entity.ErrMissingField, i)
		}
		if n := utf8.RuneCountInString(turn.Content); n > v.cfg.MaxMessageChars {
			return fmt.Errorf("%w: history[%d] is %d characters (max %d)", entity.ErrMessageTooLong, i, n, v.cfg.MaxMessageChars)
		}
	}

	return nil
}

// IsValidationError reports whether err was produced by the validator
func IsValidationError(err error) bool {
	for _, target := range []error{
		entity.ErrMissingField,
		entity.ErrMessageTooLong,
		entity.ErrTooManyTurns,
		entity.ErrInvalidParameter,
		entity.ErrInvalidFormat,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
