package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmtabletop/encounter-api/internal/clients/lookup"
	"github.com/dmtabletop/encounter-api/internal/config"
	v1 "github.com/dmtabletop/encounter-api/internal/handlers/api/v1"
	"github.com/dmtabletop/encounter-api/internal/notify"
	encounterorc "github.com/dmtabletop/encounter-api/internal/orchestrators/encounter"
	sessionorc "github.com/dmtabletop/encounter-api/internal/orchestrators/session"
	"github.com/dmtabletop/encounter-api/internal/pkg/clock"
	"github.com/dmtabletop/encounter-api/internal/pkg/idgen"
	"github.com/dmtabletop/encounter-api/internal/redis"
	"github.com/dmtabletop/encounter-api/internal/repositories/encounters"
	"github.com/dmtabletop/encounter-api/internal/repositories/sessions"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	Long:  `Start the encounter API HTTP server with all configured services.`,
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, gracefully stopping")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	redisClient, err := redis.NewClient(cfg.RedisAddress, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			slog.Warn("Failed to close redis client", "error", closeErr)
		}
	}()

	realClock := clock.New()

	definitionRepo, err := encounters.NewRedisRepository(&encounters.Config{
		Client: redisClient,
		Clock:  realClock,
	})
	if err != nil {
		return fmt.Errorf("failed to create encounter repository: %w", err)
	}

	sessionRepo, err := sessions.NewRedisRepository(&sessions.Config{
		Client: redisClient,
	})
	if err != nil {
		return fmt.Errorf("failed to create session repository: %w", err)
	}

	srdClient, err := lookup.NewSRDClient(&lookup.SRDConfig{
		BaseURL:  cfg.SRDBaseURL,
		CacheTTL: cfg.SRDCacheTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create SRD lookup client: %w", err)
	}

	hub := notify.NewHub()

	encounterService, err := encounterorc.NewOrchestrator(&encounterorc.Config{
		Repository: definitionRepo,
		Lookup:     srdClient,
	})
	if err != nil {
		return fmt.Errorf("failed to create encounter service: %w", err)
	}

	sessionService, err := sessionorc.NewOrchestrator(&sessionorc.Config{
		Definitions:      definitionRepo,
		Sessions:         sessionRepo,
		Lookup:           srdClient,
		Notifier:         hub,
		IDGenerator:      idgen.NewUUID("combatant"),
		EventIDGenerator: idgen.NewUUID("event"),
		Clock:            realClock,
	})
	if err != nil {
		return fmt.Errorf("failed to create session service: %w", err)
	}

	handler, err := v1.NewHandler(&v1.Config{
		Encounters: encounterService,
		Sessions:   sessionService,
		Subscribe:  hub.HandleSubscribe,
	})
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddress,
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", cfg.HTTPAddress)
		if serveErr := srv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			errChan <- fmt.Errorf("failed to serve: %w", serveErr)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			slog.Warn("Graceful shutdown timeout exceeded, forcing close")
			return srv.Close()
		}

		slog.Info("Server stopped gracefully")
		return nil
	case err := <-errChan:
		return err
	}
}
