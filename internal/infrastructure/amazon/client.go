// Package amazon implements the on-demand Amazon adapter. It follows the
// same normalize and quality-gate contract as the fallback sources but is
// only ever invoked explicitly by the user, and has no substitute source.
package amazon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/prompt2insight/backend/internal/domain"
)

// Client handles communication with the Amazon scraper backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient creates a new Amazon scraper backend client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

type scrapeResponse struct {
	Success       bool                `json:"success"`
	SearchQuery   string              `json:"search_query"`
	TargetURL     string              `json:"target_url"`
	ProductsFound int                 `json:"products_found"`
	Products      []domain.AmazonItem `json:"products"`
	Error         string              `json:"error"`
}

// Scrape posts the structured payload to the Amazon scraper and returns its
// product entries as raw items.
func (c *Client) Scrape(ctx context.Context, payload *domain.AmazonQueryPayload) ([]domain.RawItem, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode amazon request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scraper/amazon", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: amazon scraper status %d: %s", domain.ErrSourceUnavailable, resp.StatusCode, string(payload))
	}

	var decoded scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	if !decoded.Success || len(decoded.Products) == 0 {
		if decoded.Error != "" {
			c.logger.Warn("amazon scraper reported failure", zap.String("error", decoded.Error))
		}
		return nil, fmt.Errorf("%w: amazon scrape found nothing", domain.ErrEmptyResult)
	}

	items := make([]domain.RawItem, 0, len(decoded.Products))
	for _, product := range decoded.Products {
		items = append(items, product)
	}
	return items, nil
}
