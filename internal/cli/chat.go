package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/futig/guardrails-agent/internal/entity"
)

const (
	prompt       = "> "
	maxLineBytes = 64 * 1024
)

// runChat reads one message per line until EOF or ctx is done.
// A failed message is reported and the loop continues.
// historyTurns bounds the turns sent along with each message.
func runChat(ctx context.Context, svc ChatService, in io.Reader, out, errOut io.Writer, historyTurns int) error {
	writeLine(out, svc.StartSession(ctx).Message)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	var history []entity.Turn

	for {
		_, _ = fmt.Fprint(out, prompt)

		if !scanner.Scan() {
			writeLine(out, "")
			return scanner.Err()
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reply, err := svc.HandleMessage(ctx, entity.ChannelCLI, &entity.ChatMessageRequest{
			Message: line,
			History: history,
		})
		if err != nil {
			writeLine(errOut, "error: "+err.Error())
			continue
		}

		writeLine(out, reply.Text)

		// Refusals stay out of the context sent to the model
		if reply.Status == entity.ReplyStatusDelivered {
			history = appendHistory(history, historyTurns,
				entity.Turn{Role: entity.TurnRoleUser, Content: line},
				entity.Turn{Role: entity.TurnRoleAssistant, Content: reply.Text},
			)
		}
	}
}

// historyLimit turns an exchange count into a turn budget the service accepts.
// The budget is even so the history always opens with a user turn.
func historyLimit(exchanges, maxTurns int) int {
	limit := min(2*exchanges, maxTurns)
	return limit - limit%2
}

// appendHistory adds one exchange and drops the oldest whole exchanges beyond limit
func appendHistory(history []entity.Turn, limit int, user, assistant entity.Turn) []entity.Turn {
	history = append(history, user, assistant)
	for len(history) > limit && len(history) >= 2 {
		history = history[2:]
	}
	return history
}
