package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/spf13/cobra"
)

// ChatService answers chat messages
type ChatService interface {
	StartSession(ctx context.Context) *entity.StartChatResponse
	HandleMessage(ctx context.Context, channel entity.Channel, req *entity.ChatMessageRequest) (*entity.Reply, error)
}

// Runtime is the chat service built for one command run
type Runtime struct {
	Chat ChatService
	// MaxHistoryTurns is the most history turns the service accepts
	MaxHistoryTurns int
	Close           func()
}

// Factory builds the runtime for an environment
type Factory func(environment string) (*Runtime, error)

type options struct {
	environment string
	history     int
}

// NewRootCommand creates the guardrails-cli command tree
func NewRootCommand(factory Factory) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "guardrails-cli",
		Short:         "Ask the guarded Python assistant from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.environment, "env", "e", "local", "environment: selects the .env.<env> file")

	root.AddCommand(newAskCommand(factory, opts))
	root.AddCommand(newChatCommand(factory, opts))

	return root
}

func newAskCommand(factory Factory, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "ask <question>",
		Short:   "Ask a single question and print the reply",
		Example: `  guardrails-cli ask "How do I reverse a list in Python?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := factory(opts.environment)
			if err != nil {
				return err
			}
			defer rt.Close()

			reply, err := rt.Chat.HandleMessage(cmd.Context(), entity.ChannelCLI, &entity.ChatMessageRequest{
				Message: strings.Join(args, " "),
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			return err
		},
	}
}

func newChatCommand(factory Factory, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.history < 0 {
				return fmt.Errorf("--history must not be negative, got %d", opts.history)
			}

			rt, err := factory(opts.environment)
			if err != nil {
				return err
			}
			defer rt.Close()

			limit := historyLimit(opts.history, rt.MaxHistoryTurns)

			return runChat(cmd.Context(), rt.Chat, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), limit)
		},
	}

	cmd.Flags().IntVar(&opts.history, "history", 10, "number of previous exchanges sent with each message, capped by CHAT_MAX_HISTORY_TURNS")

	return cmd
}

// writeLine ignores write errors: a closed terminal ends the loop on the next read
func writeLine(w io.Writer, text string) {
	_, _ = fmt.Fprintln(w, text)
}
