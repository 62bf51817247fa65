package httpx

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// GracefulShutdown handles graceful shutdown of HTTP server
func GracefulShutdown(server *http.Server, logger *zap.Logger, timeout time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("Starting graceful shutdown", zap.Duration("timeout", timeout))
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
		return
	}

	logger.Info("Server shutdown completed")
}

// StartServerWithGracefulShutdown starts server and handles graceful shutdown
func StartServerWithGracefulShutdown(server *http.Server, logger *zap.Logger, shutdownTimeout time.Duration) {
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	GracefulShutdown(server, logger, shutdownTimeout)
}
