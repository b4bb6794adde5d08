// Command mock-vendor runs a deterministic server that speaks the
// streaming protocols of all four vendors, for local runs without API
// keys. Point the adapters at it with:
//
//	OPENAI_BASE_URL=http://localhost:9090/v1
//	ANTHROPIC_BASE_URL=http://localhost:9090
//	XAI_API_BASE=http://localhost:9090/v1
//	GEMINI_BASE_URL=http://localhost:9090/v1beta
//
// Configuration:
//
//	MOCK_PORT        - Listen port (default: 9090)
//	MOCK_TOKEN_DELAY - Delay before every fragment (default: 0)
//	MOCK_SLOW_DELAY  - Extra delay for models named "slow" (default: 30s)
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

	"github.com/rhuss/vendorbench/pkg/mockvendor"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mock vendor failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := envOrDefault("MOCK_PORT", "9090")

	tokenDelay, err := time.ParseDuration(envOrDefault("MOCK_TOKEN_DELAY", "0s"))
	if err != nil {
		return fmt.Errorf("invalid MOCK_TOKEN_DELAY: %w", err)
	}
	slowDelay, err := time.ParseDuration(envOrDefault("MOCK_SLOW_DELAY", "30s"))
	if err != nil {
		return fmt.Errorf("invalid MOCK_SLOW_DELAY: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mockvendor.Handler(mockvendor.Options{TokenDelay: tokenDelay, SlowDelay: slowDelay}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("mock vendor starting", "port", port, "token_delay", tokenDelay)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("mock vendor shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
