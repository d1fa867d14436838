package domain

import (
	"context"
	"time"
)

// SourceAdapter is the common "fetch candidates for query" contract all
// three interchangeable sources implement. A failed fetch returns one of the
// sentinel errors; adapters never retry internally, retry policy belongs to
// the pipeline.
type SourceAdapter interface {
	ID() SourceID
	Fetch(ctx context.Context, query *Query) ([]RawItem, error)
}

// AmazonAdapter is the on-demand secondary source. It follows the same
// normalize and quality-gate contract but has no substitute source, so it
// sits outside the fallback chain.
type AmazonAdapter interface {
	Scrape(ctx context.Context, payload *AmazonQueryPayload) ([]RawItem, error)
}

// QuotaGuard is queried before each source invocation. The pipeline never
// mutates quota state directly; a denied source is treated like a
// quota-exceeded transport failure and the chain falls through.
type QuotaGuard interface {
	Allow(source SourceID) bool
}

// CacheRepository defines the interface for caching resolved envelopes
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ResolutionAudit is one session/task audit entry describing a completed
// resolution: which sources were attempted, in order, and what came back.
type ResolutionAudit struct {
	Query      string         `json:"query"`
	Intent     Intent         `json:"intent"`
	SourceUsed SourceID       `json:"source_used"`
	IsFallback bool           `json:"is_fallback"`
	Attempts   []SourceResult `json:"attempts"`
	Products   int            `json:"products"`
	Duration   time.Duration  `json:"duration"`
}

// AuditRecorder persists resolution audit entries. Recording is best effort;
// a recorder failure never affects the resolution outcome.
type AuditRecorder interface {
	RecordResolution(ctx context.Context, entry ResolutionAudit)
}

// ChartRenderer turns a normalized product list into chart image bytes.
// Its internal algorithm is a black box to this service.
type ChartRenderer interface {
	RenderPriceChart(ctx context.Context, products []ProductRecord) ([]byte, error)
}
