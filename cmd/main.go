package main

import (
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	rediscache "github.com/seovimalraj/cnc-quote-sub009/internal/cache/redis"

	"github.com/seovimalraj/cnc-quote-sub009/internal/cache/memory"
	"github.com/seovimalraj/cnc-quote-sub009/internal/catalog"
	"github.com/seovimalraj/cnc-quote-sub009/internal/config"
	"github.com/seovimalraj/cnc-quote-sub009/internal/http"
	"github.com/seovimalraj/cnc-quote-sub009/internal/http/middleware"
	"github.com/seovimalraj/cnc-quote-sub009/internal/observability"
	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing"
	"github.com/seovimalraj/cnc-quote-sub009/internal/pricing/factors"
	"github.com/seovimalraj/cnc-quote-sub009/internal/rationale"
)

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(observability.NewEventBus); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Pricing catalog
	if err := container.Provide(func(cfg *config.CatalogConfig) (*catalog.Store, error) {
		return catalog.NewStore(cfg.Path)
	}); err != nil {
		log.Fatalf("Failed to provide catalog store: %v", err)
	}

	// Cache adapter: Redis when a URL is configured, in-memory otherwise.
	if err := container.Provide(func(cfg *config.CacheConfig, events *observability.EventBus) (pricing.CacheAdapter, error) {
		if cfg.RedisURL == "" {
			return memory.NewCache(), nil
		}

		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}

		return rediscache.NewCache(goredis.NewClient(opts), events), nil
	}); err != nil {
		log.Fatalf("Failed to provide cache adapter: %v", err)
	}

	// Pricing orchestrator over the fixed factor chain.
	if err := container.Provide(func(
		store *catalog.Store,
		cacheCfg *config.CacheConfig,
		cache pricing.CacheAdapter,
	) (*pricing.Orchestrator, error) {
		return pricing.NewOrchestrator(store, factors.Chain(), pricing.Options{
			Cache:          cache,
			CacheTTL:       time.Duration(cacheCfg.TTLSeconds) * time.Second,
			CacheNamespace: cacheCfg.Namespace,
		})
	}); err != nil {
		log.Fatalf("Failed to provide orchestrator: %v", err)
	}

	// Rationale generation is optional; without an API key the endpoint
	// reports itself unconfigured.
	if err := container.Provide(func(cfg *rationale.Config) *rationale.Service {
		if cfg.APIKey == "" {
			return nil
		}

		svc, err := rationale.NewService(*cfg)
		if err != nil {
			log.Printf("Rationale service disabled: %v", err)
			return nil
		}
		return svc
	}); err != nil {
		log.Fatalf("Failed to provide rationale service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
