// Package charts is a thin client for the chart rendering service. The
// renderer is a black box that accepts a product array and returns image
// bytes; nothing about its internals is modeled here.
package charts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prompt2insight/backend/internal/domain"
)

// Client handles communication with the chart rendering service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new chart renderer client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

type renderRequest struct {
	Products []domain.ProductRecord `json:"products"`
}

// RenderPriceChart posts the normalized products and returns the rendered
// chart image bytes as-is.
func (c *Client) RenderPriceChart(ctx context.Context, products []domain.ProductRecord) ([]byte, error) {
	body, err := json.Marshal(renderRequest{Products: products})
	if err != nil {
		return nil, fmt.Errorf("failed to encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-chart", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChartRenderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: renderer status %d: %s", domain.ErrChartRenderFailure, resp.StatusCode, string(payload))
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChartRenderFailure, err)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: renderer returned empty image", domain.ErrChartRenderFailure)
	}
	return image, nil
}
