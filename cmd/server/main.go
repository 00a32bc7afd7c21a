package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridpulse/gridpulse/internal/api"
	"github.com/gridpulse/gridpulse/internal/baselines"
	"github.com/gridpulse/gridpulse/internal/cache"
	"github.com/gridpulse/gridpulse/internal/config"
	"github.com/gridpulse/gridpulse/internal/griddata"
	"github.com/gridpulse/gridpulse/internal/history"
	"github.com/gridpulse/gridpulse/internal/llm"
	"github.com/gridpulse/gridpulse/internal/observability"
	"github.com/gridpulse/gridpulse/internal/provider/gridstatus"
	"github.com/gridpulse/gridpulse/internal/weather"
	"github.com/gridpulse/gridpulse/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	lvl, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	provider := gridstatus.NewClient(gridstatus.ClientOptions{
		APIKey:         cfg.GridAPIKey,
		BaseURL:        cfg.GridAPIBaseURL,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.RequestsPerSec,
	})

	metrics := observability.NewMetrics()
	store := cache.New()
	grid := griddata.NewService(store, provider, metrics)
	baselineStore := baselines.NewStore(grid)
	weatherSvc := weather.NewService(store)
	historySvc := history.NewService(provider)

	var completion models.CompletionClient
	if cfg.OpenAIAPIKey != "" {
		completion = llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, AI routes disabled")
	}

	server := api.NewServer(grid, baselineStore, weatherSvc, historySvc, completion, metrics)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("Starting gridpulse server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
