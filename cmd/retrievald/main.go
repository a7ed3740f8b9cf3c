// cmd/retrievald/main.go
// Package main implements the entry point for the retrieval service.
// It initializes all components and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EdgeVision/edgevision-retrieval-go/internal/config"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/console"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/event"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/retrieval"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/server"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/telemetry"
)

// main is the entry point for the retrieval service. It initializes all
// components, starts the HTTP server, and handles graceful shutdown.
func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging for the application
	logLevel := slog.LevelInfo
	if cfg.Env == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	_, err = telemetry.InitTracer("retrieval-service")
	if err != nil {
		logger.Error("failed to initialize OpenTelemetry tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.ShutdownTracer(ctx)
	}()

	// Initialize the management console client
	consoleClient, err := console.New(console.Options{
		BaseURL:      cfg.ConsoleBaseURL,
		TokenURL:     cfg.ConsoleTokenURL,
		ClientID:     cfg.ConsoleClientID,
		ClientSecret: cfg.ConsoleClientSecret,
	})
	if err != nil {
		logger.Error("failed to initialize console client", "error", err)
		os.Exit(1)
	}

	// Initialize event publisher (NATS JetStream or no-op)
	pub := event.NewPublisherFromEnv()
	defer pub.Close()

	// Assemble the retrieval pipeline and HTTP mux
	svc := retrieval.New(consoleClient, pub)
	mux := server.NewMux(svc, cfg.DefaultImageCount, cfg.CORSAllowedOrigins)

	// Create HTTP server with timeout configuration. The write timeout is
	// generous: one request fans out into several console calls that carry
	// inline image contents.
	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	// Start server in a separate goroutine
	go func() {
		logger.Info("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Handle graceful shutdown
	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
