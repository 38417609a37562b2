package render

import "fmt"

const (
	MsgUnknownCommand = `❓ Unknown command. Use /help to see what I can do.`
	MsgTextOnly       = `✍️ I can only read text messages. Please type your Python question.`

	// Rate limit warnings, escalating
	MsgRateLimitFirst  = `⚠️ Too many messages. Please wait a moment.`
	MsgRateLimitSecond = `⚠️ Rate limit exceeded. Wait about 30 seconds before the next question.`
	MsgRateLimitFinal  = `🛑 You are sending messages too often. Please wait a minute.`
)

// Errors
const (
	ErrGeneric            = `❌ Something went wrong. Please try again.`
	ErrNetworkIssue       = `❌ Connection problem. Please try again a bit later.`
	ErrServiceUnavailable = `❌ The language model is temporarily unavailable. Please try again in a few minutes.`
	ErrTimeout            = `❌ The request took too long. Please try again.`
	ErrQuotaExceeded      = `❌ The language model quota is exhausted. Please wait a little.`
	ErrEmptyMessage       = `❌ The message is empty. Please type your Python question.`
	ErrMessageTooLong     = `❌ The message is too long (max %d characters). Please shorten it.`
)

// RenderMessageTooLong formats the message length error
func RenderMessageTooLong(maxChars int) string {
	return fmt.Sprintf(ErrMessageTooLong, maxChars)
}

// RenderRateLimitWarning picks the warning text for the n-th consecutive warning
func RenderRateLimitWarning(n int) string {
	switch {
	case n <= 1:
		return MsgRateLimitFirst
	case n == 2:
		return MsgRateLimitSecond
	default:
		return MsgRateLimitFinal
	}
}

// MaxMessageRunes is the longest text Telegram accepts in one message
const MaxMessageRunes = 4096

// SplitMessage cuts text into parts of at most limit runes. A cut falls on a
// line break when one exists in the second half of the part.
func SplitMessage(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}

	return parts
}
