// Package main implements agentd, a local stand-in for the managed agent
// runtime. It serves the runtime wire protocol with a deterministic agent
// behind it, so the API server can run end-to-end without cloud access.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/viper"

	"github.com/valro-hq/valro-api/internal/agentstub"
	"github.com/valro-hq/valro-api/internal/config"
	"github.com/valro-hq/valro-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("agentd failed: %v", err)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg)
	appLogger = appLogger.With("service", "agentd")

	agent := agentstub.NewAgent(appLogger)
	handler := agentstub.NewHandler(agent, appLogger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/", handler.Invoke)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			appLogger.Error("failed to write health check response", "error", err)
		}
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("starting agent runtime stub", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-shutdownCh:
		appLogger.Info("shutting down agent runtime stub")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	appLogger.Info("agent runtime stub shutdown completed")
	return nil
}

// loadConfig reads the stub's small configuration surface from the
// environment: VALRO_AGENTD_PORT and VALRO_AGENTD_LOG_LEVEL.
func loadConfig() (config.ServerConfig, error) {
	v := viper.New()
	v.SetDefault("port", 9090)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("VALRO_AGENTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{"port", "log_level"} {
		if err := v.BindEnv(key); err != nil {
			return config.ServerConfig{}, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg config.ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return config.ServerConfig{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}
