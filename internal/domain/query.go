package domain

// Intent classifies what the user wants from a shopping query.
// It is produced by the external intent classifier, never inferred here.
type Intent string

const (
	IntentCompare   Intent = "compare"
	IntentSearch    Intent = "search"
	IntentRecommend Intent = "recommend"
)

// TaskType selects the scraper backend request shape.
// Comparisons need product detail pages, everything else a listing scrape.
type TaskType string

const (
	TaskTypeDetail  TaskType = "detail"
	TaskTypeListing TaskType = "listing"
)

// SourceID identifies one upstream data provider.
type SourceID string

const (
	SourceScraper   SourceID = "scraper"
	SourceWebSearch SourceID = "websearch"
	SourceAI        SourceID = "ai"
	SourceAmazon    SourceID = "amazon"
	SourceAnalysis  SourceID = "analysis"
)

// QueryFilters holds the optional constraints extracted from the user's text.
type QueryFilters struct {
	Price string `json:"price,omitempty"`
	Brand string `json:"brand,omitempty"`
}

// Query is one parsed shopping query. Immutable once built by the
// intent classifier; the pipeline only reads it.
type Query struct {
	RawText    string       `json:"raw_text"`
	Intent     Intent       `json:"intent"`
	Products   []string     `json:"products"`
	Filters    QueryFilters `json:"filters,omitempty"`
	Attributes []string     `json:"attributes,omitempty"`
}

// Validate checks the invariants the pipeline relies on.
func (q *Query) Validate() error {
	if q == nil || len(q.Products) == 0 {
		return ErrInvalidQuery
	}
	switch q.Intent {
	case IntentCompare, IntentSearch, IntentRecommend:
		return nil
	default:
		return ErrInvalidQuery
	}
}

// TaskType maps the intent onto the scraper request shape. Compare queries
// scrape product detail pages; search and recommend scrape listings.
func (q *Query) TaskType() TaskType {
	if q.Intent == IntentCompare {
		return TaskTypeDetail
	}
	return TaskTypeListing
}

// ErrorKind categorizes why a source attempt failed. All kinds are
// recoverable at the pipeline level.
type ErrorKind string

const (
	ErrorKindNone              ErrorKind = ""
	ErrorKindSourceUnavailable ErrorKind = "source_unavailable"
	ErrorKindEmptyResult       ErrorKind = "empty_result"
	ErrorKindMalformedResponse ErrorKind = "malformed_response"
	ErrorKindQuotaExceeded     ErrorKind = "quota_exceeded"
)

// SourceResult records the outcome of one adapter invocation. It lives only
// for the duration of a single resolution and ends up in the audit trail.
type SourceResult struct {
	SourceID  SourceID  `json:"source_id"`
	Succeeded bool      `json:"succeeded"`
	ItemCount int       `json:"item_count"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}
