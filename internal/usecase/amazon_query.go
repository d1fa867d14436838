package usecase

import (
	"regexp"
	"strings"

	"github.com/prompt2insight/backend/internal/domain"
)

// pricePatterns match budget constraints in raw query text, e.g. "under
// 20000", "below ₹60000"
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)under\s*₹?\s*([\d,]+)`),
	regexp.MustCompile(`(?i)below\s*₹?\s*([\d,]+)`),
	regexp.MustCompile(`(?i)less than\s*₹?\s*([\d,]+)`),
	regexp.MustCompile(`(?i)budget\s*₹?\s*([\d,]+)`),
}

// commonBrands are the brands worth pinning an Amazon search to
var commonBrands = []string{
	"hp", "dell", "lenovo", "asus", "acer", "apple", "samsung",
	"oneplus", "xiaomi", "realme", "poco", "vivo", "oppo", "boat", "sony",
}

// commonAttributes are descriptive keywords the Amazon scraper can use to
// refine its search query
var commonAttributes = []string{
	"gaming", "office", "student", "professional", "lightweight",
	"premium", "budget", "wireless", "flagship",
}

// AmazonQueryBuilder derives the structured Amazon scraper payload from a
// parsed query. The builder only restructures data already present in the
// query or its raw text; it never calls out to a model.
type AmazonQueryBuilder struct {
	maxProductsPerQuery int
}

// NewAmazonQueryBuilder creates a payload builder.
func NewAmazonQueryBuilder(maxProductsPerQuery int) *AmazonQueryBuilder {
	if maxProductsPerQuery <= 0 {
		maxProductsPerQuery = 5
	}
	return &AmazonQueryBuilder{maxProductsPerQuery: maxProductsPerQuery}
}

// Build produces the Amazon scraper payload for a query, or nil when the
// query has nothing Amazon could search for.
func (b *AmazonQueryBuilder) Build(query *domain.Query) *domain.AmazonQueryPayload {
	if query == nil || len(query.Products) == 0 {
		return nil
	}

	return &domain.AmazonQueryPayload{
		Intent:   string(domain.IntentSearch),
		Products: query.Products,
		Filters: domain.QueryFilters{
			Price: resolvePriceFilter(query),
			Brand: resolveBrandFilter(query),
		},
		Attributes:          resolveAttributes(query),
		MaxProductsPerQuery: b.maxProductsPerQuery,
	}
}

// resolvePriceFilter prefers the classifier's price filter and otherwise
// scans the raw text for a budget constraint. "any" is the scraper's
// explicit no-filter value.
func resolvePriceFilter(query *domain.Query) string {
	if query.Filters.Price != "" {
		return query.Filters.Price
	}

	for _, pattern := range pricePatterns {
		if match := pattern.FindStringSubmatch(query.RawText); match != nil {
			return "under ₹" + strings.ReplaceAll(match[1], ",", "")
		}
	}
	return "any"
}

func resolveBrandFilter(query *domain.Query) string {
	if query.Filters.Brand != "" {
		return query.Filters.Brand
	}

	text := strings.ToLower(query.RawText)
	for _, brand := range commonBrands {
		if containsWord(text, brand) {
			return brand
		}
	}
	return "any"
}

func resolveAttributes(query *domain.Query) []string {
	if len(query.Attributes) > 0 {
		return query.Attributes
	}

	text := strings.ToLower(query.RawText)
	attributes := []string{}
	for _, attr := range commonAttributes {
		if containsWord(text, attr) {
			attributes = append(attributes, attr)
		}
	}
	return attributes
}

// containsWord checks for a whole-word match so "hp" does not fire inside
// "iphone".
func containsWord(text, word string) bool {
	for _, field := range strings.Fields(text) {
		if strings.Trim(field, ",.!?;:-'\"") == word {
			return true
		}
	}
	return false
}
