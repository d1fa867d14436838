package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prompt2insight/backend/internal/domain"
	"github.com/prompt2insight/backend/internal/infrastructure/cache"
)

// fakeAdapter is a scriptable source adapter recording how it was invoked.
type fakeAdapter struct {
	id       domain.SourceID
	items    []domain.RawItem
	err      error
	calls    int
	taskType domain.TaskType
}

func (f *fakeAdapter) ID() domain.SourceID {
	return f.id
}

func (f *fakeAdapter) Fetch(ctx context.Context, query *domain.Query) ([]domain.RawItem, error) {
	f.calls++
	f.taskType = query.TaskType()
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeAmazon struct {
	items []domain.RawItem
	err   error
	calls int
}

func (f *fakeAmazon) Scrape(ctx context.Context, payload *domain.AmazonQueryPayload) ([]domain.RawItem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

// denyQuota denies exactly the listed sources.
type denyQuota map[domain.SourceID]bool

func (d denyQuota) Allow(source domain.SourceID) bool {
	return !d[source]
}

func newTestResolver(adapters []domain.SourceAdapter, amazon domain.AmazonAdapter, quota domain.QuotaGuard, priority []domain.SourceID) *ResolverService {
	return NewResolverService(
		adapters,
		amazon,
		NewAmazonQueryBuilder(5),
		cache.NewMemoryCache(),
		quota,
		nil,
		ResolverConfig{Priority: priority},
		zap.NewNop(),
	)
}

func searchQuery(text string) *domain.Query {
	return &domain.Query{
		RawText:  text,
		Intent:   domain.IntentSearch,
		Products: []string{text},
	}
}

func TestResolve_PrimarySucceeds(t *testing.T) {
	search := &fakeAdapter{
		id:    domain.SourceWebSearch,
		items: []domain.RawItem{domain.SearchItem{Title: "Poco X5", URL: "https://x"}},
	}
	scraper := &fakeAdapter{id: domain.SourceScraper}
	ai := &fakeAdapter{id: domain.SourceAI}

	resolver := newTestResolver([]domain.SourceAdapter{search, scraper, ai}, nil, nil, nil)
	envelope, err := resolver.Resolve(context.Background(), searchQuery("poco x5"), false)

	require.NoError(t, err)
	assert.Equal(t, domain.SourceWebSearch, envelope.SourceUsed)
	assert.False(t, envelope.IsFallback)
	assert.Len(t, envelope.Products, 1)
	assert.Equal(t, 0, scraper.calls)
	assert.Equal(t, 0, ai.calls)
}

func TestResolve_FallthroughOrdering(t *testing.T) {
	// WebSearch comes back empty; the scraper's two items win and the
	// envelope is flagged as a fallback.
	search := &fakeAdapter{id: domain.SourceWebSearch, err: domain.ErrEmptyResult}
	scraper := &fakeAdapter{
		id: domain.SourceScraper,
		items: []domain.RawItem{
			domain.ScraperItem{Title: "iPhone 14", Price: "₹59999"},
			domain.ScraperItem{Title: "Poco X5 5G", Price: "₹16999"},
		},
	}
	ai := &fakeAdapter{id: domain.SourceAI}

	resolver := newTestResolver([]domain.SourceAdapter{search, scraper, ai}, nil, nil, nil)
	envelope, err := resolver.Resolve(context.Background(), searchQuery("phones under 60000"), false)

	require.NoError(t, err)
	assert.Equal(t, domain.SourceScraper, envelope.SourceUsed)
	assert.True(t, envelope.IsFallback)
	assert.Len(t, envelope.Products, 2)
	assert.Equal(t, 1, search.calls)
	assert.Equal(t, 0, ai.calls)
}

func TestResolve_QualityGateChecksCountNotContent(t *testing.T) {
	// One item that normalizes to all defaults is still a non-empty
	// result: the pipeline stops instead of falling through to AI.
	scraper := &fakeAdapter{
		id:    domain.SourceScraper,
		items: []domain.RawItem{domain.ScraperItem{}},
	}
	ai := &fakeAdapter{id: domain.SourceAI}

	resolver := newTestResolver(
		[]domain.SourceAdapter{scraper, ai}, nil, nil,
		[]domain.SourceID{domain.SourceScraper, domain.SourceAI},
	)
	envelope, err := resolver.Resolve(context.Background(), searchQuery("anything"), false)

	require.NoError(t, err)
	assert.Equal(t, domain.SourceScraper, envelope.SourceUsed)
	assert.False(t, envelope.IsFallback)
	require.Len(t, envelope.Products, 1)
	assert.Equal(t, domain.UnknownProductName, envelope.Products[0].Name)
	assert.Equal(t, 0, ai.calls)
}

func TestResolve_TotalFailureYieldsEmptyEnvelope(t *testing.T) {
	search := &fakeAdapter{id: domain.SourceWebSearch, err: domain.ErrSourceUnavailable}
	scraper := &fakeAdapter{id: domain.SourceScraper, err: domain.ErrSourceUnavailable}
	ai := &fakeAdapter{id: domain.SourceAI, err: domain.ErrMalformedResponse}

	resolver := newTestResolver([]domain.SourceAdapter{search, scraper, ai}, nil, nil, nil)
	envelope, err := resolver.Resolve(context.Background(), searchQuery("doomed"), false)

	require.NoError(t, err)
	assert.Empty(t, envelope.Products)
	assert.True(t, envelope.IsFallback)
	assert.Equal(t, domain.SourceAI, envelope.SourceUsed)
}

func TestResolve_ForceAISkipsChain(t *testing.T) {
	search := &fakeAdapter{
		id:    domain.SourceWebSearch,
		items: []domain.RawItem{domain.SearchItem{Title: "would win"}},
	}
	scraper := &fakeAdapter{id: domain.SourceScraper}
	ai := &fakeAdapter{
		id:    domain.SourceAI,
		items: []domain.RawItem{domain.AIItem{Name: "Poco X5", PriceValue: 16999}},
	}

	resolver := newTestResolver([]domain.SourceAdapter{search, scraper, ai}, nil, nil, nil)
	envelope, err := resolver.Resolve(context.Background(), searchQuery("poco"), true)

	require.NoError(t, err)
	assert.Equal(t, domain.SourceAI, envelope.SourceUsed)
	assert.True(t, envelope.IsFallback)
	assert.Equal(t, 0, search.calls)
	assert.Equal(t, 0, scraper.calls)
	assert.Equal(t, 1, ai.calls)
}

func TestResolve_CompareScenario(t *testing.T) {
	query := &domain.Query{
		RawText:  "compare iPhone 14 and Poco X5 under ₹20000",
		Intent:   domain.IntentCompare,
		Products: []string{"iPhone 14", "Poco X5"},
		Filters:  domain.QueryFilters{Price: "under ₹20000"},
	}

	search := &fakeAdapter{id: domain.SourceWebSearch, err: domain.ErrEmptyResult}
	scraper := &fakeAdapter{
		id: domain.SourceScraper,
		items: []domain.RawItem{
			domain.ScraperItem{Title: "iPhone 14", Price: "₹59999"},
			domain.ScraperItem{Title: "Poco X5 5G", Price: "₹16999"},
		},
	}
	ai := &fakeAdapter{id: domain.SourceAI}

	resolver := newTestResolver([]domain.SourceAdapter{search, scraper, ai}, nil, nil, nil)
	envelope, err := resolver.Resolve(context.Background(), query, false)

	require.NoError(t, err)
	assert.Equal(t, domain.SourceScraper, envelope.SourceUsed)
	assert.True(t, envelope.IsFallback)
	require.Len(t, envelope.Products, 2)
	assert.Equal(t, 59999.0, envelope.Products[0].PriceValue)
	assert.Equal(t, 16999.0, envelope.Products[1].PriceValue)

	// Compare intent scrapes detail pages, not listings.
	assert.Equal(t, domain.TaskTypeDetail, scraper.taskType)
}

func TestResolve_QuotaDeniedFallsThrough(t *testing.T) {
	search := &fakeAdapter{
		id:    domain.SourceWebSearch,
		items: []domain.RawItem{domain.SearchItem{Title: "should not be used"}},
	}
	scraper := &fakeAdapter{
		id:    domain.SourceScraper,
		items: []domain.RawItem{domain.ScraperItem{Title: "Poco X5"}},
	}
	ai := &fakeAdapter{id: domain.SourceAI}

	quota := denyQuota{domain.SourceWebSearch: true}
	resolver := newTestResolver([]domain.SourceAdapter{search, scraper, ai}, nil, quota, nil)
	envelope, err := resolver.Resolve(context.Background(), searchQuery("poco"), false)

	require.NoError(t, err)
	assert.Equal(t, domain.SourceScraper, envelope.SourceUsed)
	assert.True(t, envelope.IsFallback)
	assert.Equal(t, 0, search.calls)
}

func TestResolve_SuccessfulEnvelopeIsCached(t *testing.T) {
	search := &fakeAdapter{
		id:    domain.SourceWebSearch,
		items: []domain.RawItem{domain.SearchItem{Title: "Poco X5"}},
	}

	resolver := newTestResolver([]domain.SourceAdapter{search}, nil, nil,
		[]domain.SourceID{domain.SourceWebSearch})

	first, err := resolver.Resolve(context.Background(), searchQuery("poco x5"), false)
	require.NoError(t, err)

	second, err := resolver.Resolve(context.Background(), searchQuery("poco x5"), false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, search.calls)
}

func TestResolve_EmptyEnvelopeIsNotCached(t *testing.T) {
	search := &fakeAdapter{id: domain.SourceWebSearch, err: domain.ErrSourceUnavailable}

	resolver := newTestResolver([]domain.SourceAdapter{search}, nil, nil,
		[]domain.SourceID{domain.SourceWebSearch})

	_, err := resolver.Resolve(context.Background(), searchQuery("flaky"), false)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), searchQuery("flaky"), false)
	require.NoError(t, err)

	assert.Equal(t, 2, search.calls)
}

func TestResolve_InvalidQuery(t *testing.T) {
	resolver := newTestResolver([]domain.SourceAdapter{&fakeAdapter{id: domain.SourceAI}}, nil, nil, nil)

	tests := []struct {
		name  string
		query *domain.Query
	}{
		{"no products", &domain.Query{RawText: "x", Intent: domain.IntentSearch}},
		{"unknown intent", &domain.Query{RawText: "x", Intent: "browse", Products: []string{"x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.Resolve(context.Background(), tt.query, false)
			assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		})
	}
}

func TestResolve_CancelledContextAborts(t *testing.T) {
	search := &fakeAdapter{
		id:    domain.SourceWebSearch,
		items: []domain.RawItem{domain.SearchItem{Title: "never seen"}},
	}
	resolver := newTestResolver([]domain.SourceAdapter{search}, nil, nil,
		[]domain.SourceID{domain.SourceWebSearch})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	envelope, err := resolver.Resolve(ctx, searchQuery("abandoned"), false)
	assert.Nil(t, envelope)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_AttachesAmazonPayload(t *testing.T) {
	search := &fakeAdapter{
		id:    domain.SourceWebSearch,
		items: []domain.RawItem{domain.SearchItem{Title: "Poco X5"}},
	}

	resolver := newTestResolver([]domain.SourceAdapter{search}, nil, nil,
		[]domain.SourceID{domain.SourceWebSearch})

	envelope, err := resolver.Resolve(context.Background(), searchQuery("poco x5 under 20000"), false)

	require.NoError(t, err)
	assert.True(t, envelope.AmazonReady)
	require.NotNil(t, envelope.AmazonQueryPayload)
	assert.Equal(t, []string{"poco x5 under 20000"}, envelope.AmazonQueryPayload.Products)
}

func TestResolveAmazon_Success(t *testing.T) {
	amazon := &fakeAmazon{
		items: []domain.RawItem{
			domain.AmazonItem{Name: "Poco X5 5G", Price: "₹16,999", Rating: "4.2 out of 5 stars"},
		},
	}
	resolver := newTestResolver(nil, amazon, nil, nil)

	envelope, err := resolver.ResolveAmazon(context.Background(), &domain.AmazonQueryPayload{
		Intent:              "search",
		Products:            []string{"poco x5"},
		MaxProductsPerQuery: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.SourceAmazon, envelope.SourceUsed)
	assert.False(t, envelope.IsFallback)
	require.Len(t, envelope.Products, 1)
	assert.Equal(t, 16999.0, envelope.Products[0].PriceValue)
	assert.Equal(t, 4.2, envelope.Products[0].Rating)
}

func TestResolveAmazon_FailureYieldsEmptyEnvelope(t *testing.T) {
	// Amazon has no substitute source: a failed scrape is an empty
	// envelope, never an error.
	amazon := &fakeAmazon{err: domain.ErrSourceUnavailable}
	resolver := newTestResolver(nil, amazon, nil, nil)

	envelope, err := resolver.ResolveAmazon(context.Background(), &domain.AmazonQueryPayload{
		Products: []string{"poco x5"},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.SourceAmazon, envelope.SourceUsed)
	assert.Empty(t, envelope.Products)
}

func TestResolveAmazon_InvalidPayload(t *testing.T) {
	resolver := newTestResolver(nil, &fakeAmazon{}, nil, nil)

	_, err := resolver.ResolveAmazon(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)

	_, err = resolver.ResolveAmazon(context.Background(), &domain.AmazonQueryPayload{})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestResolveAmazon_QuotaDenied(t *testing.T) {
	amazon := &fakeAmazon{
		items: []domain.RawItem{domain.AmazonItem{Name: "never fetched"}},
	}
	quota := denyQuota{domain.SourceAmazon: true}
	resolver := newTestResolver(nil, amazon, quota, nil)

	envelope, err := resolver.ResolveAmazon(context.Background(), &domain.AmazonQueryPayload{
		Products: []string{"poco x5"},
	})

	require.NoError(t, err)
	assert.Empty(t, envelope.Products)
	assert.Equal(t, 0, amazon.calls)
}
