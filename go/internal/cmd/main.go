package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courtside/go/clients/gameapi"
	"github.com/mcdev12/courtside/go/internal/live"
	"github.com/mcdev12/courtside/go/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if getEnv("LOG_LEVEL", "") == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	configPath := flag.String("config", "", "path to yaml config file")
	gameID := flag.String("game", "", "game ID to follow")
	flag.Parse()

	if *gameID == "" {
		log.Fatal().Msg("-game is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	api := gameapi.NewClient(cfg.API.BaseURL)
	feed := live.NewManager(live.Config{
		URL:          cfg.Feed.URL,
		BaseDelay:    cfg.BaseDelay(),
		MaxAttempts:  cfg.Feed.MaxAttempts,
		PingInterval: cfg.PingInterval(),
	})

	gameStore := store.New(api, feed)
	gameStore.OnChange(func() {
		game, ok := gameStore.Game()
		if !ok {
			return
		}
		log.Info().
			Str("status", string(game.Status)).
			Int("quarter", game.CurrentQuarter).
			Int("seconds_left", game.TimeRemainingSeconds).
			Int("home", game.HomeScore).
			Int("away", game.AwayScore).
			Msg("game state")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := gameStore.ConnectToGame(ctx, *gameID); err != nil {
		log.Fatal().Err(err).Str("game_id", *gameID).Msg("failed to connect to game")
	}

	log.Info().
		Str("game_id", *gameID).
		Str("api", cfg.API.BaseURL).
		Str("feed", cfg.Feed.URL).
		Msg("following live game")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	gameStore.DisconnectFromGame()
	log.Info().Msg("disconnected")
}
