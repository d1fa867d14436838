// Package normalize converts source-specific raw items into canonical
// ProductRecords. Every function here is total: absent or malformed fields
// coerce to their documented defaults and never surface as errors.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/prompt2insight/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	numberPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	keyCleanup    = regexp.MustCompile(`[^a-z0-9]+`)
)

// specSynonyms maps the spelling variants the backends emit onto the
// canonical spec keys the chart layer expects
var specSynonyms = map[string]string{
	"ram":              domain.SpecKeyRAM,
	"ram_gb":           domain.SpecKeyRAM,
	"memory":           domain.SpecKeyRAM,
	"storage":          domain.SpecKeyStorage,
	"storage_gb":       domain.SpecKeyStorage,
	"rom":              domain.SpecKeyStorage,
	"internal_storage": domain.SpecKeyStorage,
	"battery":          domain.SpecKeyBattery,
	"battery_mah":      domain.SpecKeyBattery,
	"battery_capacity": domain.SpecKeyBattery,
}

// Records normalizes every raw item from one adapter invocation.
func Records(items []domain.RawItem, source domain.SourceID) []domain.ProductRecord {
	records := make([]domain.ProductRecord, 0, len(items))
	for _, item := range items {
		records = append(records, Record(item, source))
	}
	return records
}

// Record converts one raw item into a ProductRecord. The zero value of every
// field has a documented fallback, so normalization always succeeds.
func Record(item domain.RawItem, source domain.SourceID) domain.ProductRecord {
	var rec domain.ProductRecord

	switch it := item.(type) {
	case domain.ScraperItem:
		rec = fromScraper(it)
	case domain.SearchItem:
		rec = fromSearch(it)
	case domain.AIItem:
		rec = fromAI(it)
	case domain.AmazonItem:
		rec = fromAmazon(it)
	}

	if rec.Name == "" {
		rec.Name = domain.UnknownProductName
	}
	if rec.PriceDisplay == "" {
		rec.PriceDisplay = domain.PriceNotAvailable
	}
	if rec.PriceValue < 0 {
		rec.PriceValue = 0
	}
	rec.SourceID = source
	return rec
}

func fromScraper(it domain.ScraperItem) domain.ProductRecord {
	specs := flattenSpecs(it.Specifications)

	description := it.Description
	if description == "" {
		description = specsSummary(specs)
	}

	return domain.ProductRecord{
		Name:         firstNonEmpty(it.Title, it.Name),
		PriceDisplay: firstNonEmpty(it.Price, it.PriceDisplay),
		PriceValue:   resolvePrice(it.PriceValue, firstNonEmpty(it.Price, it.PriceDisplay)),
		Rating:       parseRating(it.Rating),
		ImageURL:     it.Image,
		DetailURL:    firstNonEmpty(it.Link, it.URL, it.ProductURL),
		Description:  description,
		Specs:        specs,
	}
}

func fromSearch(it domain.SearchItem) domain.ProductRecord {
	return domain.ProductRecord{
		Name:        it.Title,
		ImageURL:    it.Image,
		DetailURL:   it.URL,
		Description: firstNonEmpty(it.Description, it.Snippet),
	}
}

func fromAI(it domain.AIItem) domain.ProductRecord {
	return domain.ProductRecord{
		Name:         it.Name,
		PriceDisplay: it.PriceDisplay,
		PriceValue:   resolvePrice(it.PriceValue, it.PriceDisplay),
		Specs:        flattenSpecs(it.Specs),
	}
}

func fromAmazon(it domain.AmazonItem) domain.ProductRecord {
	return domain.ProductRecord{
		Name:         it.Name,
		PriceDisplay: it.Price,
		PriceValue:   resolvePrice(0, it.Price),
		Rating:       parseRating(it.Rating),
		ImageURL:     it.Image,
		DetailURL:    it.Link,
	}
}

// resolvePrice prefers an explicit numeric price from the source. When the
// source only sent a display string, the number is parsed out of it; for a
// range the lower bound wins. No price is ever guessed from the product name.
func resolvePrice(priceValue float64, display string) float64 {
	if priceValue > 0 {
		return priceValue
	}
	if display == "" || display == domain.PriceNotAvailable {
		return 0
	}

	cleaned := strings.ReplaceAll(display, ",", "")
	match := numberPattern.FindString(cleaned)
	if match == "" {
		return 0
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// parseRating extracts the leading decimal from rating strings like
// "4.3 out of 5 stars". Anything unparseable is 0 (unknown).
func parseRating(s string) float64 {
	match := numberPattern.FindString(s)
	if match == "" {
		return 0
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// flattenSpecs flattens a possibly nested specifications object into a flat
// string map. Known synonyms collapse onto the canonical keys; unknown keys
// pass through with normalized spelling.
func flattenSpecs(raw map[string]interface{}) map[string]string {
	if len(raw) == 0 {
		return nil
	}

	specs := make(map[string]string)
	flattenInto(specs, raw)
	if len(specs) == 0 {
		return nil
	}
	return specs
}

func flattenInto(specs map[string]string, raw map[string]interface{}) {
	for key, value := range raw {
		if nested, ok := value.(map[string]interface{}); ok {
			flattenInto(specs, nested)
			continue
		}

		text := stringifySpec(value)
		if text == "" {
			continue
		}
		specs[canonicalSpecKey(key)] = text
	}
}

// canonicalSpecKey lowercases and snake_cases a spec key, then applies the
// synonym table.
func canonicalSpecKey(key string) string {
	normalized := keyCleanup.ReplaceAllString(strings.ToLower(strings.TrimSpace(key)), "_")
	normalized = strings.Trim(normalized, "_")
	if canonical, ok := specSynonyms[normalized]; ok {
		return canonical
	}
	return normalized
}

func stringifySpec(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// specsSummary renders flattened specs as a deterministic "key: value" line,
// used when a scraped detail page has specifications but no prose description.
func specsSummary(specs map[string]string) string {
	if len(specs) == 0 {
		return ""
	}

	keys := make([]string, 0, len(specs))
	for key := range specs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+specs[key])
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
