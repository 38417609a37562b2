package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/futig/guardrails-agent/internal/builder"
	"github.com/futig/guardrails-agent/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := func(environment string) (*cli.Runtime, error) {
		core, err := builder.BuildCore(environment)
		if err != nil {
			return nil, err
		}
		return &cli.Runtime{
			Chat:            core.ChatUC,
			MaxHistoryTurns: core.Config.ChatCfg.MaxHistoryTurns,
			Close:           core.Close,
		}, nil
	}

	if err := cli.NewRootCommand(factory).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
