package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coderunr/editor/internal/config"
	"github.com/coderunr/editor/internal/executor"
	"github.com/coderunr/editor/internal/handler"
	"github.com/coderunr/editor/internal/session"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	// Set up logging
	logger := cfg.NewLogger()

	logger.WithFields(logrus.Fields{
		"execution_url":    cfg.ExecutionURL,
		"default_language": cfg.DefaultLanguage,
	}).Info("Starting CodeRunr Editor")

	sessions, server := newServer(cfg, logger)

	// Start server in a goroutine
	go func() {
		logger.Infof("Editor server starting on %s", cfg.GetBindAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		os.Exit(1)
	}

	sessions.CloseAll()
	logger.Info("Server exited")
}

// newServer wires the execution client, the session manager and the router
func newServer(cfg *config.Config, logger *logrus.Logger) (*session.Manager, *http.Server) {
	client := executor.NewHTTPClient(cfg.ExecutionURL, cfg.ExecutionTimeout, logger)

	sessions := session.NewManager(client, session.Options{
		Language:             cfg.DefaultLanguage,
		NotificationDuration: cfg.NotificationDuration,
		Logger:               logger,
	})

	h := handler.NewHandler(sessions, logger)

	server := &http.Server{
		Addr:              cfg.GetBindAddress(),
		Handler:           h.Router(cfg.RequestBodyLimit),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return sessions, server
}
