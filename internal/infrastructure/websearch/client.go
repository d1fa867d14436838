// Package websearch implements the web-search source adapter against the
// Google Custom Search wrapper service.
package websearch

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

// Client handles communication with the search backend. A single request is
// issued for the raw query text.
type Client struct {
	httpClient *http.Client
	baseURL    string
	numResults int
	logger     *zap.Logger
}

// NewClient creates a new web-search backend client.
func NewClient(baseURL string, numResults int, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if numResults <= 0 {
		numResults = 5
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		numResults: numResults,
		logger:     logger,
	}
}

// ID returns the source identifier for the fallback chain.
func (c *Client) ID() domain.SourceID {
	return domain.SourceWebSearch
}

type searchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
}

type searchResponse struct {
	Success      bool                `json:"success"`
	ResultsFound int                 `json:"results_found"`
	Results      []domain.SearchItem `json:"results"`
}

// Fetch runs one product search for the query's raw text. HTTP failure maps
// to ErrSourceUnavailable, a well-formed but empty payload to ErrEmptyResult.
func (c *Client) Fetch(ctx context.Context, query *domain.Query) ([]domain.RawItem, error) {
	body, err := json.Marshal(searchRequest{
		Query:      query.RawText,
		NumResults: c.numResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/google-search", bytes.NewReader(body))
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
		c.logger.Warn("search backend error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload))
		return nil, fmt.Errorf("%w: search status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	if len(decoded.Results) == 0 {
		return nil, fmt.Errorf("%w: search found nothing for %q", domain.ErrEmptyResult, query.RawText)
	}

	items := make([]domain.RawItem, 0, len(decoded.Results))
	for _, result := range decoded.Results {
		items = append(items, result)
	}
	return items, nil
}
