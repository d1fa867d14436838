package domain

// RawItem is the tagged union of source-specific wire shapes. Each adapter
// decodes its backend payload into its own typed item; the normalizer
// pattern-matches on the concrete type instead of probing untyped JSON.
type RawItem interface {
	rawItem()
}

// ScraperItem is one product entry from the Flipkart scraper microservice.
// The backend is loose about which fields it fills per task type, so every
// field the service has ever emitted is represented here.
type ScraperItem struct {
	Title          string                 `json:"title"`
	Name           string                 `json:"name"`
	Price          string                 `json:"price"`
	PriceDisplay   string                 `json:"price_display"`
	PriceValue     float64                `json:"price_value"`
	Rating         string                 `json:"rating"`
	Link           string                 `json:"link"`
	URL            string                 `json:"url"`
	ProductURL     string                 `json:"productUrl"`
	Image          string                 `json:"image"`
	Description    string                 `json:"description"`
	Specifications map[string]interface{} `json:"specifications"`
}

// SearchItem is one result from the web-search backend (Google CSE wrapper).
type SearchItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Snippet     string `json:"snippet"`
	Image       string `json:"image"`
	Source      string `json:"source"`
}

// AIItem is one product suggestion from the AI generator's structured output.
type AIItem struct {
	Name         string                 `json:"name"`
	PriceValue   float64                `json:"price_value"`
	PriceDisplay string                 `json:"price_display"`
	Specs        map[string]interface{} `json:"specs"`
	PurchaseURL  string                 `json:"purchase_url"`
}

// AmazonItem is one product entry from the on-demand Amazon scraper.
type AmazonItem struct {
	Name   string `json:"name"`
	Price  string `json:"price"`
	Link   string `json:"link"`
	Image  string `json:"image"`
	Rating string `json:"rating"`
}

func (ScraperItem) rawItem() {}
func (SearchItem) rawItem() {}
func (AIItem) rawItem() {}
func (AmazonItem) rawItem() {}
