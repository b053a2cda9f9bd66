// Package main provides the noteagent HTTP service entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	"github.com/lifebit/noteagent/internal/config"
	db "github.com/lifebit/noteagent/internal/db/gorm"
	"github.com/lifebit/noteagent/internal/llm"
	"github.com/lifebit/noteagent/internal/normalize"
	"github.com/lifebit/noteagent/internal/nutrition"
	"github.com/lifebit/noteagent/internal/persist"
	"github.com/lifebit/noteagent/internal/server"
	"github.com/lifebit/noteagent/internal/session"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *debug || cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gormLevel := logger.Silent
	if cfg.Debug {
		gormLevel = logger.Warn
	}
	store, err := db.NewStore(db.Config{
		Driver:   cfg.DB.Driver,
		Path:     cfg.DB.Path,
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		LogLevel: gormLevel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer store.Close()

	client := llm.NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)

	overrides, err := normalize.LoadOverrides(cfg.OverridesPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.OverridesPath).Msg("Failed to load normalizer overrides, continuing without")
		overrides = nil
	}

	pool := nutrition.NewPool(cfg.RedisAddr)
	if pool != nil {
		defer pool.Close()
	}

	persister := persist.New(
		db.NewExerciseStore(store),
		db.NewMealStore(store),
		normalize.NewGramEstimator(client, overrides),
		nutrition.NewLookup(client, pool),
	)
	engine := session.NewEngine(client, persister)
	svc := server.New(engine, store)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.ListenAndServe(gctx, cfg.ListenAddr)
	})
	if overrides != nil && cfg.OverridesPath != "" {
		g.Go(func() error {
			return overrides.Watch(gctx)
		})
	}

	log.Info().Str("addr", cfg.ListenAddr).Str("version", Version).Msg("noteagent started")

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Service error")
	}
	log.Info().Msg("Shutting down")
}
