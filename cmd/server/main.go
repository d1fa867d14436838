package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prompt2insight/backend/config"
	httpDelivery "github.com/prompt2insight/backend/internal/delivery/http"
	"github.com/prompt2insight/backend/internal/domain"
	"github.com/prompt2insight/backend/internal/infrastructure/aigen"
	"github.com/prompt2insight/backend/internal/infrastructure/amazon"
	"github.com/prompt2insight/backend/internal/infrastructure/audit"
	"github.com/prompt2insight/backend/internal/infrastructure/cache"
	"github.com/prompt2insight/backend/internal/infrastructure/charts"
	"github.com/prompt2insight/backend/internal/infrastructure/flipkart"
	"github.com/prompt2insight/backend/internal/infrastructure/websearch"
	"github.com/prompt2insight/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger := newLogger(cfg.Server.Environment)
	defer logger.Sync()

	logger.Info("starting prompt2insight backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.Strings("source_priority", cfg.Sources.Priority))

	// Source adapters
	scraperClient := flipkart.NewClient(
		cfg.Scraper.BaseURL,
		cfg.Scraper.Site,
		cfg.Sources.MaxProductsPerQuery,
		cfg.Sources.ScraperTimeout,
		logger.Named("scraper"),
	)
	searchClient := websearch.NewClient(
		cfg.WebSearch.BaseURL,
		cfg.Sources.SearchResults,
		cfg.Sources.WebSearchTimeout,
		logger.Named("websearch"),
	)
	aiClient, err := aigen.NewClient(
		context.Background(),
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		cfg.Sources.MaxProductsPerQuery,
		logger.Named("aigen"),
	)
	if err != nil {
		logger.Fatal("failed to create AI generator", zap.Error(err))
	}
	amazonClient := amazon.NewClient(cfg.Amazon.BaseURL, cfg.Sources.AmazonTimeout, logger.Named("amazon"))

	// Pipeline collaborators
	memoryCache := cache.NewMemoryCache()
	quotaGuard := usecase.NewDailyQuotaGuard(usecase.QuotaConfig{
		DailyLimits: map[domain.SourceID]int{
			domain.SourceScraper:   cfg.Quota.ScraperDaily,
			domain.SourceWebSearch: cfg.Quota.WebSearchDaily,
			domain.SourceAI:        cfg.Quota.AIDaily,
			domain.SourceAmazon:    cfg.Quota.AmazonDaily,
		},
	})
	recorder := audit.NewRecorder(logger.Named("audit"))
	builder := usecase.NewAmazonQueryBuilder(cfg.Sources.MaxProductsPerQuery)

	priority := make([]domain.SourceID, 0, len(cfg.Sources.Priority))
	for _, source := range cfg.Sources.Priority {
		priority = append(priority, domain.SourceID(source))
	}

	resolver := usecase.NewResolverService(
		[]domain.SourceAdapter{searchClient, scraperClient, aiClient},
		amazonClient,
		builder,
		memoryCache,
		quotaGuard,
		recorder,
		usecase.ResolverConfig{
			Priority: priority,
			SourceTimeouts: map[domain.SourceID]time.Duration{
				domain.SourceScraper:   cfg.Sources.ScraperTimeout,
				domain.SourceWebSearch: cfg.Sources.WebSearchTimeout,
				domain.SourceAI:        cfg.Sources.AITimeout,
				domain.SourceAmazon:    cfg.Sources.AmazonTimeout,
			},
			CacheTTL: cfg.Cache.TTL,
		},
		logger.Named("resolver"),
	)

	renderer := charts.NewClient(cfg.Charts.BaseURL, cfg.Charts.Timeout)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(resolver, renderer, logger.Named("http"))

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger.Named("http"))

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(environment string) *zap.Logger {
	if environment == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
