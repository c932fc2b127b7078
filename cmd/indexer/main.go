package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrisense/backend/internal/adapters/cache"
	"github.com/agrisense/backend/internal/adapters/database"
	"github.com/agrisense/backend/internal/adapters/search"
	"github.com/agrisense/backend/internal/application/services"
	"github.com/agrisense/backend/internal/domain/providers"
	"github.com/agrisense/backend/internal/infrastructure/clients/postgres"
	"github.com/agrisense/backend/internal/infrastructure/clients/redis"
	"github.com/agrisense/backend/internal/infrastructure/clients/typesense"
	"github.com/agrisense/backend/internal/infrastructure/observability"
	"github.com/agrisense/backend/pkg/config"
)

// indexer rebuilds the Typesense disease catalog and, with -knowledge,
// fills the treatment knowledge store for every label.
func main() {
	var reset, knowledge bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the diseases collection before reindexing")
	flag.BoolVar(&knowledge, "knowledge", false, "also warm the treatment knowledge store")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("plant-disease-indexer", cfg.Server.Env, cfg.Server.Debug)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}
		if knowledge {
			if err := warmKnowledge(ctx, cfg); err != nil {
				log.Error().Err(err).Msg("Knowledge warming failed")
			}
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("interval", interval).Msg("Reindex complete, waiting for next run")

		select {
		case <-ctx.Done():
			log.Info().Msg("Indexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}
	catalog := search.NewDiseaseCatalogAdapter(tsClient)

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Msg("Deleting diseases collection")
		if err := catalog.DropSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	if err := catalog.InitSchema(ctx); err != nil {
		return err
	}

	start := time.Now()
	if err := services.NewCatalogService(catalog).Seed(ctx); err != nil {
		return err
	}
	log.Info().Dur("took", time.Since(start)).Msg("Indexed disease catalog")
	return nil
}

func warmKnowledge(ctx context.Context, cfg *config.Config) error {
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	adapter := database.NewKnowledgeAdapter(pgClient, nil)
	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	var cacheProvider providers.CacheProvider = cache.NewMemoryAdapter()
	if cfg.Redis.Enabled {
		if redisClient, err := redis.NewClient(ctx, &cfg.Redis); err == nil {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
		} else {
			log.Warn().Err(err).Msg("Redis unavailable, warming the database only")
		}
	}

	knowledgeService := services.NewKnowledgeService(database.NewCachedKnowledgeAdapter(adapter, cacheProvider), nil)
	stats, err := services.NewKnowledgeWarmingService(knowledgeService).WarmCache(ctx)
	log.Info().
		Int("fresh", stats.Fresh).
		Int("computed", stats.Computed).
		Int("degraded", stats.Degraded).
		Msg("Knowledge warming finished")
	return err
}
