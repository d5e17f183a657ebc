package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courtside/go/internal/feedserver"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	port := getEnv("FEED_PORT", "8081")
	natsURL := getEnv("NATS_URL", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := feedserver.New(feedserver.DefaultConfig())
	go server.Start(ctx)

	// The relay is optional: without NATS the feed only echoes client
	// actions, which is enough for local client development.
	if natsURL != "" {
		relayCfg := feedserver.DefaultRelayConfig()
		relayCfg.URL = natsURL
		relay, err := feedserver.NewRelay(server, relayCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start feed relay")
		}
		defer relay.Stop()
		go func() {
			if err := relay.Start(ctx); err != nil {
				log.Error().Err(err).Msg("feed relay stopped")
			}
		}()
	}

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: cors.Default().Handler(mux),
	}

	go func() {
		log.Info().Str("port", port).Msg("feed server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("feed server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("feed server shutdown failed")
	}
	log.Info().Msg("feed server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
