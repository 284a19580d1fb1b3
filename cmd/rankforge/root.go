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

	"github.com/rankforge/rankforge/internal/api"
	"github.com/rankforge/rankforge/internal/auth"
	"github.com/rankforge/rankforge/internal/config"
	"github.com/rankforge/rankforge/internal/credentials"
	"github.com/rankforge/rankforge/internal/generate"
	"github.com/rankforge/rankforge/internal/provider"
	"github.com/rankforge/rankforge/internal/secrets"
	"github.com/rankforge/rankforge/internal/store"
	"github.com/rankforge/rankforge/internal/types"
	"github.com/rankforge/rankforge/internal/wordpress"
	"github.com/rankforge/rankforge/internal/worker"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "rankforge",
	Short: "RankForge - SEO content generation service",
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	// Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	slog.Info("configuration loaded", "level", cfg.Log.Level, "format", cfg.Log.Format)

	// Initialize store (migrations, WAL mode)
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	// API key encryption at rest
	cipher, err := secrets.NewCipher(cfg.Secrets.EncryptionSecret)
	if err != nil {
		return err
	}

	// Generation pipeline: per-user credentials resolved from the store,
	// adapters built per request for the user's configured provider.
	resolver := credentials.NewResolver(db, cipher)
	providerClient := &http.Client{Timeout: time.Duration(cfg.Providers.RequestTimeout)}
	generator := generate.NewService(resolver, provider.Options{
		BaseURLs:   providerBaseURLs(cfg.Providers),
		HTTPClient: providerClient,
	}, logger)
	slog.Info("generation service initialized")

	publisher := wordpress.NewClient(&http.Client{Timeout: time.Duration(cfg.WordPress.Timeout)})
	batches := worker.NewBatchRunner(db, generator)

	verifier := auth.NewVerifier(cfg.Auth.SigningSecret)
	if cfg.Auth.APIKey != "" {
		verifier.SetStaticKey(cfg.Auth.APIKey)
	}

	// HTTP router
	handler := api.NewHandler(db, cipher, generator, publisher, batches, Version)
	router := api.NewRouter(handler, verifier)
	slog.Info("router initialized")

	// Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		// Any other error indicates an actual server failure that should trigger shutdown.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Wait for in-flight batch generation runs to settle their article
	// statuses before the store closes under them.
	batches.Wait()

	// Close store
	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newLogger builds the process logger from config. Format "text" is for
// local development; everything else gets JSON.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// providerBaseURLs collects non-empty endpoint overrides from config.
func providerBaseURLs(cfg config.ProvidersConfig) map[types.Provider]string {
	urls := make(map[types.Provider]string)
	if cfg.OpenAIBaseURL != "" {
		urls[types.ProviderOpenAI] = cfg.OpenAIBaseURL
	}
	if cfg.GeminiBaseURL != "" {
		urls[types.ProviderGemini] = cfg.GeminiBaseURL
	}
	if cfg.DeepSeekBaseURL != "" {
		urls[types.ProviderDeepSeek] = cfg.DeepSeekBaseURL
	}
	if cfg.QwenBaseURL != "" {
		urls[types.ProviderQwen] = cfg.QwenBaseURL
	}
	return urls
}
