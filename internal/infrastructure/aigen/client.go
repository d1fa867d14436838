// Package aigen implements the AI generator source adapter on top of the
// Gemini API. It is the terminal fallback of the resolution chain: the model
// is always reachable in the sense that a degraded answer is still an answer,
// but a malformed generation is reported as a failure, never as a panic.
package aigen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/prompt2insight/backend/internal/domain"
)

// textGenerator is the narrow seam between the adapter and the Gemini SDK,
// kept small so tests can inject canned generations.
type textGenerator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g *genaiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Client generates structured product suggestions for a query.
type Client struct {
	generator   textGenerator
	maxProducts int
	logger      *zap.Logger
}

// NewClient creates a Gemini-backed AI generator adapter.
func NewClient(ctx context.Context, apiKey, model string, maxProducts int, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return newClientWithGenerator(&genaiGenerator{client: client, model: model}, maxProducts, logger), nil
}

func newClientWithGenerator(generator textGenerator, maxProducts int, logger *zap.Logger) *Client {
	if maxProducts <= 0 {
		maxProducts = 5
	}
	return &Client{
		generator:   generator,
		maxProducts: maxProducts,
		logger:      logger,
	}
}

// ID returns the source identifier for the fallback chain.
func (c *Client) ID() domain.SourceID {
	return domain.SourceAI
}

// Fetch asks the model for product suggestions matching the raw query text.
// The generation is parsed defensively; anything that does not decode to at
// least one suggestion is a failed fetch, not a crash.
func (c *Client) Fetch(ctx context.Context, query *domain.Query) ([]domain.RawItem, error) {
	text, err := c.generator.generate(ctx, buildPrompt(query.RawText, c.maxProducts))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	suggestions, err := parseSuggestions(text)
	if err != nil {
		c.logger.Warn("AI generation did not parse", zap.Error(err))
		return nil, err
	}
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("%w: model suggested no products", domain.ErrEmptyResult)
	}

	items := make([]domain.RawItem, 0, len(suggestions))
	for _, suggestion := range suggestions {
		items = append(items, suggestion)
	}
	return items, nil
}

// buildPrompt mirrors the extraction rules the product discoverer has always
// used: numeric price_value (lower bound for ranges), zeroed specs when a
// value is unknown, at most maxProducts entries.
func buildPrompt(query string, maxProducts int) string {
	return fmt.Sprintf(`You are an expert data extraction agent for the Indian market. Find products matching the user's query and respond with ONLY a JSON array, no markdown, no explanation.

User Query: %q

Each array element must have this exact shape:
{"name": "...", "price_value": 0, "price_display": "...", "specs": {"ram_gb": 0, "storage_gb": 0, "battery_mah": 0}, "purchase_url": "site name"}

Rules:
- Return at most %d products.
- price_display is the price as shown (e.g., "₹58,990"). price_value is a single number with currency symbols and commas removed; for a range like "₹55,000 - ₹60,000" use the lower number.
- specs values are numbers; use 0 when a spec is not known.
- purchase_url is only the site name where the product is typically available (e.g., "Flipkart", "Amazon.in", "Croma").`, query, maxProducts)
}

// suggestionWrapper accepts the {"products": [...]} shape some generations
// wrap the array in.
type suggestionWrapper struct {
	Products []domain.AIItem `json:"products"`
}

// parseSuggestions decodes a generation into AI items. Markdown fences and
// surrounding prose are stripped by slicing between the outermost brackets
// before decoding.
func parseSuggestions(text string) ([]domain.AIItem, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]"); start != -1 && end > start {
		var items []domain.AIItem
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &items); err == nil {
			return items, nil
		}
	}

	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start != -1 && end > start {
		var wrapped suggestionWrapper
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &wrapped); err == nil {
			return wrapped.Products, nil
		}
	}

	return nil, fmt.Errorf("%w: no JSON product array in generation", domain.ErrMalformedResponse)
}
