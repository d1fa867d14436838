package domain

// Canonical spec keys every source's specifications are coalesced onto.
const (
	SpecKeyRAM     = "ram_gb"
	SpecKeyStorage = "storage_gb"
	SpecKeyBattery = "battery_mah"
)

// Defaults applied by the normalizer when a source omits a field.
const (
	UnknownProductName = "Unknown Product"
	PriceNotAvailable  = "Price not available"
)

// ProductRecord is the canonical product shape every raw source item is
// normalized into. Records are immutable after normalization; the envelope
// owns them. PriceValue is 0 when no numeric price could be derived from
// the source payload and is never fabricated from the product name.
type ProductRecord struct {
	Name         string            `json:"name"`
	PriceDisplay string            `json:"price_display"`
	PriceValue   float64           `json:"price_value"`
	Rating       float64           `json:"rating,omitempty"`
	ImageURL     string            `json:"image_url,omitempty"`
	DetailURL    string            `json:"detail_url,omitempty"`
	Description  string            `json:"description,omitempty"`
	Specs        map[string]string `json:"specs,omitempty"`
	SourceID     SourceID          `json:"source_id"`
}

// AmazonQueryPayload is the structured request the on-demand Amazon adapter
// accepts. It mirrors the Amazon scraper backend contract exactly.
type AmazonQueryPayload struct {
	Intent              string       `json:"intent"`
	Products            []string     `json:"products"`
	Filters             QueryFilters `json:"filters"`
	Attributes          []string     `json:"attributes"`
	MaxProductsPerQuery int          `json:"max_products_per_query"`
}

// ResultEnvelope is the single contract surface returned to the UI layer.
// An empty Products slice is the documented worst case, not an error.
// Invariant: IsFallback implies SourceUsed is not the configured primary
// source for the query's intent.
type ResultEnvelope struct {
	SourceUsed         SourceID            `json:"source_used"`
	Products           []ProductRecord     `json:"products"`
	OriginalQuery      string              `json:"original_query"`
	IsFallback         bool                `json:"is_fallback"`
	AmazonReady        bool                `json:"amazon_ready"`
	AmazonQueryPayload *AmazonQueryPayload `json:"amazon_query_payload,omitempty"`
}
