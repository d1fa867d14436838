package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prompt2insight/backend/internal/domain"
	"github.com/prompt2insight/backend/internal/normalize"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// ResolverConfig holds configuration for the resolver service. Priority is a
// config value on purpose: the preferred source order has changed before and
// must not be baked into the state machine.
type ResolverConfig struct {
	Priority       []domain.SourceID
	SourceTimeouts map[domain.SourceID]time.Duration
	CacheTTL       time.Duration
}

// Per-source timeout defaults: scraping is far slower than search or
// generation.
var defaultTimeouts = map[domain.SourceID]time.Duration{
	domain.SourceScraper:   60 * time.Second,
	domain.SourceWebSearch: 10 * time.Second,
	domain.SourceAI:        30 * time.Second,
	domain.SourceAmazon:    60 * time.Second,
}

// ResolverService is the multi-source resolution pipeline. For one query it
// tries the configured sources strictly in order, normalizes whatever the
// first accepted source returned, and assembles the result envelope. It
// never returns an error for a valid query: the degenerate empty envelope is
// the documented worst case. The only exception is caller cancellation,
// which aborts the resolution without emitting a partial envelope.
type ResolverService struct {
	adapters map[domain.SourceID]domain.SourceAdapter
	amazon   domain.AmazonAdapter
	builder  *AmazonQueryBuilder
	cache    domain.CacheRepository
	quota    domain.QuotaGuard
	audit    domain.AuditRecorder
	priority []domain.SourceID
	timeouts map[domain.SourceID]time.Duration
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewResolverService creates the pipeline with its collaborators. Adapters
// are looked up by their own IDs, so the slice order is irrelevant; only the
// configured priority decides the fallback order.
func NewResolverService(
	adapters []domain.SourceAdapter,
	amazon domain.AmazonAdapter,
	builder *AmazonQueryBuilder,
	cache domain.CacheRepository,
	quota domain.QuotaGuard,
	audit domain.AuditRecorder,
	config ResolverConfig,
	logger *zap.Logger,
) *ResolverService {
	byID := make(map[domain.SourceID]domain.SourceAdapter, len(adapters))
	for _, adapter := range adapters {
		byID[adapter.ID()] = adapter
	}

	priority := config.Priority
	if len(priority) == 0 {
		priority = []domain.SourceID{domain.SourceWebSearch, domain.SourceScraper, domain.SourceAI}
	}

	timeouts := make(map[domain.SourceID]time.Duration, len(defaultTimeouts))
	for source, timeout := range defaultTimeouts {
		timeouts[source] = timeout
	}
	for source, timeout := range config.SourceTimeouts {
		if timeout > 0 {
			timeouts[source] = timeout
		}
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &ResolverService{
		adapters: byID,
		amazon:   amazon,
		builder:  builder,
		cache:    cache,
		quota:    quota,
		audit:    audit,
		priority: priority,
		timeouts: timeouts,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Resolve runs the fallback state machine for one query.
//
// With forceAI the chain is skipped and only the AI generator runs, flagged
// as a fallback regardless of outcome. Otherwise sources run in priority
// order; the first source whose normalized result is non-empty wins. A
// source failure of any kind falls through to the next source. When every
// source is exhausted the empty envelope is returned, not an error.
func (s *ResolverService) Resolve(ctx context.Context, query *domain.Query, forceAI bool) (*domain.ResultEnvelope, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	cacheKey := s.cacheKey(query, forceAI)

	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		s.logger.Debug("resolution served from cache", zap.String("key", cacheKey))
		return cached, nil
	}

	order := s.priority
	if forceAI {
		order = []domain.SourceID{domain.SourceAI}
	}
	primary := s.priority[0]

	attempts := make([]domain.SourceResult, 0, len(order))

	for _, source := range order {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		adapter, ok := s.adapters[source]
		if !ok {
			s.logger.Warn("no adapter registered for source", zap.String("source", string(source)))
			continue
		}

		if s.quota != nil && !s.quota.Allow(source) {
			s.logger.Warn("source denied by quota guard", zap.String("source", string(source)))
			attempts = append(attempts, domain.SourceResult{
				SourceID:  source,
				ErrorKind: domain.ErrorKindQuotaExceeded,
			})
			continue
		}

		records, result := s.trySource(ctx, adapter, query)
		attempts = append(attempts, result)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !result.Succeeded {
			continue
		}

		envelope := &domain.ResultEnvelope{
			SourceUsed:    source,
			Products:      records,
			OriginalQuery: query.RawText,
			IsFallback:    forceAI || source != primary,
		}
		s.attachAmazonPayload(envelope, query)
		s.finish(ctx, query, envelope, attempts, start)
		s.toCache(ctx, cacheKey, envelope)
		return envelope, nil
	}

	// Every source exhausted: the empty envelope is a result, not an error.
	envelope := &domain.ResultEnvelope{
		SourceUsed:    domain.SourceAI,
		Products:      []domain.ProductRecord{},
		OriginalQuery: query.RawText,
		IsFallback:    true,
	}
	s.attachAmazonPayload(envelope, query)
	s.finish(ctx, query, envelope, attempts, start)
	return envelope, nil
}

// ResolveAmazon runs the on-demand Amazon enrichment. Same normalize and
// quality-gate contract as the fallback chain, but Amazon has no substitute
// source: a failed scrape yields an empty envelope.
func (s *ResolverService) ResolveAmazon(ctx context.Context, payload *domain.AmazonQueryPayload) (*domain.ResultEnvelope, error) {
	if payload == nil || len(payload.Products) == 0 {
		return nil, domain.ErrInvalidQuery
	}

	start := time.Now()
	originalQuery := strings.Join(payload.Products, ", ")
	envelope := &domain.ResultEnvelope{
		SourceUsed:    domain.SourceAmazon,
		Products:      []domain.ProductRecord{},
		OriginalQuery: originalQuery,
	}

	attempt := domain.SourceResult{SourceID: domain.SourceAmazon}

	if s.quota != nil && !s.quota.Allow(domain.SourceAmazon) {
		attempt.ErrorKind = domain.ErrorKindQuotaExceeded
		s.finishAmazon(ctx, originalQuery, envelope, attempt, start)
		return envelope, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeouts[domain.SourceAmazon])
	items, err := s.amazon.Scrape(fetchCtx, payload)
	cancel()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		s.logger.Warn("amazon scrape failed", zap.Error(err))
		attempt.ErrorKind = domain.ClassifyError(err)
		s.finishAmazon(ctx, originalQuery, envelope, attempt, start)
		return envelope, nil
	}

	records := normalize.Records(items, domain.SourceAmazon)
	if len(records) == 0 {
		attempt.ErrorKind = domain.ErrorKindEmptyResult
		s.finishAmazon(ctx, originalQuery, envelope, attempt, start)
		return envelope, nil
	}

	attempt.Succeeded = true
	attempt.ItemCount = len(records)
	envelope.Products = records
	s.finishAmazon(ctx, originalQuery, envelope, attempt, start)
	return envelope, nil
}

// trySource invokes one adapter under its own timeout, normalizes its items
// and applies the quality gate. The gate checks count, not content richness:
// one all-defaults record is still an accepted result.
func (s *ResolverService) trySource(ctx context.Context, adapter domain.SourceAdapter, query *domain.Query) ([]domain.ProductRecord, domain.SourceResult) {
	source := adapter.ID()
	result := domain.SourceResult{SourceID: source}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeouts[source])
	items, err := adapter.Fetch(fetchCtx, query)
	cancel()

	if err != nil {
		s.logger.Warn("source fetch failed, falling through",
			zap.String("source", string(source)),
			zap.Error(err))
		result.ErrorKind = domain.ClassifyError(err)
		return nil, result
	}

	records := normalize.Records(items, source)
	if len(records) == 0 {
		result.ErrorKind = domain.ErrorKindEmptyResult
		return nil, result
	}

	result.Succeeded = true
	result.ItemCount = len(records)
	return records, result
}

// attachAmazonPayload marks the envelope ready for the user-triggered Amazon
// enrichment whenever a payload could be derived, even on total failure of
// the primary chain.
func (s *ResolverService) attachAmazonPayload(envelope *domain.ResultEnvelope, query *domain.Query) {
	if s.builder == nil {
		return
	}
	payload := s.builder.Build(query)
	if payload != nil && len(payload.Products) > 0 {
		envelope.AmazonReady = true
		envelope.AmazonQueryPayload = payload
	}
}

func (s *ResolverService) finish(ctx context.Context, query *domain.Query, envelope *domain.ResultEnvelope, attempts []domain.SourceResult, start time.Time) {
	if s.audit == nil {
		return
	}
	s.audit.RecordResolution(ctx, domain.ResolutionAudit{
		Query:      query.RawText,
		Intent:     query.Intent,
		SourceUsed: envelope.SourceUsed,
		IsFallback: envelope.IsFallback,
		Attempts:   attempts,
		Products:   len(envelope.Products),
		Duration:   time.Since(start),
	})
}

func (s *ResolverService) finishAmazon(ctx context.Context, originalQuery string, envelope *domain.ResultEnvelope, attempt domain.SourceResult, start time.Time) {
	if s.audit == nil {
		return
	}
	s.audit.RecordResolution(ctx, domain.ResolutionAudit{
		Query:      originalQuery,
		Intent:     domain.IntentSearch,
		SourceUsed: envelope.SourceUsed,
		Attempts:   []domain.SourceResult{attempt},
		Products:   len(envelope.Products),
		Duration:   time.Since(start),
	})
}

// cacheKey builds a normalized cache key from the query.
// Format: "resolve:{intent}:{normalized_text}:{mode}"
func (s *ResolverService) cacheKey(query *domain.Query, forceAI bool) string {
	mode := "chain"
	if forceAI {
		mode = "ai"
	}
	return fmt.Sprintf("resolve:%s:%s:%s", query.Intent, normalizeForCacheKey(query.RawText), mode)
}

// normalizeForCacheKey lowercases, strips special characters and collapses
// whitespace so trivially different spellings share a cache entry.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

func (s *ResolverService) fromCache(ctx context.Context, key string) *domain.ResultEnvelope {
	if s.cache == nil {
		return nil
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	envelope, ok := value.(*domain.ResultEnvelope)
	if !ok {
		return nil
	}
	return envelope
}

// toCache stores only useful envelopes: an empty result should be retried on
// the next request, not remembered.
func (s *ResolverService) toCache(ctx context.Context, key string, envelope *domain.ResultEnvelope) {
	if s.cache == nil || len(envelope.Products) == 0 {
		return
	}
	if err := s.cache.Set(ctx, key, envelope, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache envelope", zap.String("key", key), zap.Error(err))
	}
}
