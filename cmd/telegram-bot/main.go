package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/futig/guardrails-agent/internal/builder"
	"go.uber.org/zap"
)

func main() {
	env := flag.String("env", "local", "environment: selects the .env.<env> file")
	flag.Parse()

	bot, core, err := builder.BuildTelegramBot(*env)
	if err != nil {
		log.Fatal("Failed to build telegram bot: ", err)
	}
	defer core.Close()

	logger := core.Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := bot.Start(ctx); err != nil {
		logger.Error("telegram bot error", zap.Error(err))
		return
	}

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	if err := bot.Stop(); err != nil {
		logger.Error("error stopping bot", zap.Error(err))
		return
	}

	logger.Info("telegram bot stopped gracefully")
}
