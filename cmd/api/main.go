package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrisense/backend/internal/adapters/cache"
	"github.com/agrisense/backend/internal/adapters/database"
	"github.com/agrisense/backend/internal/adapters/encyclopedia"
	"github.com/agrisense/backend/internal/adapters/inference"
	"github.com/agrisense/backend/internal/adapters/search"
	"github.com/agrisense/backend/internal/api/handlers"
	"github.com/agrisense/backend/internal/api/middleware"
	"github.com/agrisense/backend/internal/api/routes"
	"github.com/agrisense/backend/internal/application/services"
	"github.com/agrisense/backend/internal/domain/providers"
	"github.com/agrisense/backend/internal/domain/repositories"
	"github.com/agrisense/backend/internal/infrastructure/clients/mediawiki"
	"github.com/agrisense/backend/internal/infrastructure/clients/postgres"
	"github.com/agrisense/backend/internal/infrastructure/clients/redis"
	"github.com/agrisense/backend/internal/infrastructure/clients/tfserving"
	"github.com/agrisense/backend/internal/infrastructure/clients/typesense"
	"github.com/agrisense/backend/internal/infrastructure/observability"
	"github.com/agrisense/backend/pkg/config"
)

// knowledgeWarmInterval keeps every label's entry well inside its TTL.
const knowledgeWarmInterval = 6 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env, cfg.Server.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Hot cache: Redis when reachable, otherwise in-process.
	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis cache initialized")
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter()
	}

	// Knowledge store. Without PostgreSQL every lookup degrades to defaults.
	var knowledgeRepo repositories.KnowledgeRepository
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("PostgreSQL unavailable, treatment knowledge will not be stored")
	} else {
		defer pgClient.Close()
		knowledgeAdapter := database.NewKnowledgeAdapter(pgClient, metrics)
		if err := knowledgeAdapter.InitSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize knowledge schema")
		}
		knowledgeRepo = database.NewCachedKnowledgeAdapter(knowledgeAdapter, cacheProvider)
	}

	var engine providers.InferenceEngine
	if cfg.Model.ServingURL != "" {
		client := tfserving.NewClient(cfg.Model.ServingURL, cfg.Model.Name, config.OutboundRequestTimeout)
		engine = inference.NewTFServingAdapter(client)
		readyCtx, readyCancel := context.WithTimeout(ctx, config.OutboundRequestTimeout)
		if err := engine.Ready(readyCtx); err != nil {
			log.Warn().Err(err).Str("model", cfg.Model.Name).Msg("Model not ready yet, serving demo predictions until it loads")
		} else {
			log.Info().Str("model", cfg.Model.Name).Msg("Model loaded")
		}
		readyCancel()
	} else {
		log.Warn().Msg("MODEL_SERVING_URL not set, serving demo predictions")
	}

	wikiClient := mediawiki.NewClient(cfg.Wikipedia.APIURL, cfg.Wikipedia.UserAgent, config.OutboundRequestTimeout)
	encyclopediaProvider := encyclopedia.NewWikipediaAdapter(wikiClient, wikiClient.APIURL())

	var catalog providers.DiseaseCatalog
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, catalog search runs in memory")
		} else {
			adapter := search.NewDiseaseCatalogAdapter(tsClient)
			if err := adapter.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to init Typesense schema")
			} else {
				catalog = adapter
			}
		}
	}

	catalogService := services.NewCatalogService(catalog)
	if catalog != nil {
		if err := catalogService.Seed(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to seed disease catalog")
		}
	}

	knowledgeService := services.NewKnowledgeService(knowledgeRepo, metrics)
	if knowledgeRepo != nil {
		services.NewKnowledgeWarmingService(knowledgeService).StartPeriodicWarming(ctx, knowledgeWarmInterval)
	}

	diagnosisService := services.NewDiagnosisService(
		services.NewPredictionService(engine, nil, metrics),
		knowledgeService,
		services.NewEncyclopediaService(encyclopediaProvider, metrics),
		services.NewTreatmentPlanComposer(),
	)

	router := routes.NewRouter(
		handlers.NewDiagnosisHandler(diagnosisService),
		handlers.NewHealthHandler(diagnosisService, cfg.Server.Debug),
		handlers.NewDiseaseSearchHandler(catalogService),
		middleware.NewResponseCache(cacheProvider),
		cfg.CORS.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Bool("debug", cfg.Server.Debug).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
