package builder

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// App is the HTTP chat API process
type App struct {
	server *http.Server
	core   *Core
}

// Run serves until SIGINT/SIGTERM or a server error
func (a *App) Run() error {
	logger := a.core.Logger

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		logger.Error("server error", zap.Error(err))
		a.core.Close()
		return err
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger := a.core.Logger
	logger.Info("shutting down server gracefully")

	err := a.server.Shutdown(ctx)
	if err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	a.core.Close()
	logger.Info("application stopped")

	return err
}
