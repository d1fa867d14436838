// Package flipkart implements the scraper source adapter against the
// Flipkart scraper microservice.
package flipkart

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

// Client handles communication with the scraper microservice. One scrape
// request is issued per product name in the query; the client never retries
// internally because retry and fallback policy live in the pipeline.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	site        string
	maxProducts int
	logger      *zap.Logger
}

// NewClient creates a new scraper backend client.
func NewClient(baseURL, site string, maxProducts int, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxProducts <= 0 {
		maxProducts = 5
	}
	if site == "" {
		site = "flipkart"
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		site:        site,
		maxProducts: maxProducts,
		logger:      logger,
	}
}

// ID returns the source identifier for the fallback chain.
func (c *Client) ID() domain.SourceID {
	return domain.SourceScraper
}

// scrapeTaskFilters mirrors the microservice filter shape.
type scrapeTaskFilters struct {
	Price string `json:"price,omitempty"`
	Brand string `json:"brand,omitempty"`
}

type scrapeTask struct {
	ProductName string             `json:"productName"`
	Site        string             `json:"site"`
	TaskType    string             `json:"taskType"`
	Filters     *scrapeTaskFilters `json:"filters,omitempty"`
	Attributes  []string           `json:"attributes,omitempty"`
	MaxProducts int                `json:"max_products_per_query"`
}

type scrapeRequest struct {
	Tasks []scrapeTask `json:"tasks"`
}

// scrapeTaskResult tolerates the item-list key drifting between backend
// versions: results, data and products have all been observed.
type scrapeTaskResult struct {
	Success  bool                 `json:"success"`
	Results  []domain.ScraperItem `json:"results"`
	Data     []domain.ScraperItem `json:"data"`
	Products []domain.ScraperItem `json:"products"`
}

func (r *scrapeTaskResult) items() []domain.ScraperItem {
	if len(r.Results) > 0 {
		return r.Results
	}
	if len(r.Data) > 0 {
		return r.Data
	}
	return r.Products
}

type scrapeResponse struct {
	Success bool               `json:"success"`
	Results []scrapeTaskResult `json:"results"`
	Data    []scrapeTaskResult `json:"data"`
}

func (r *scrapeResponse) taskResults() []scrapeTaskResult {
	if len(r.Results) > 0 {
		return r.Results
	}
	return r.Data
}

// Fetch scrapes every product named in the query. The fetch succeeds if at
// least one sub-request yields a non-empty item list; an all-empty outcome is
// ErrEmptyResult and an all-failed outcome is ErrSourceUnavailable.
func (c *Client) Fetch(ctx context.Context, query *domain.Query) ([]domain.RawItem, error) {
	taskType := string(query.TaskType())

	var items []domain.RawItem
	var lastErr error
	responded := false

	for _, product := range query.Products {
		scraped, err := c.scrapeProduct(ctx, query, product, taskType)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("scrape sub-request failed",
				zap.String("product", product),
				zap.Error(err))
			lastErr = err
			continue
		}

		responded = true
		for _, item := range scraped {
			items = append(items, item)
		}
	}

	if len(items) > 0 {
		return items, nil
	}
	if responded {
		return nil, fmt.Errorf("%w: scraper returned no products", domain.ErrEmptyResult)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, lastErr)
	}
	return nil, domain.ErrEmptyResult
}

func (c *Client) scrapeProduct(ctx context.Context, query *domain.Query, product, taskType string) ([]domain.ScraperItem, error) {
	task := scrapeTask{
		ProductName: product,
		Site:        c.site,
		TaskType:    taskType,
		Attributes:  query.Attributes,
		MaxProducts: c.maxProducts,
	}
	if query.Filters.Price != "" || query.Filters.Brand != "" {
		task.Filters = &scrapeTaskFilters{
			Price: query.Filters.Price,
			Brand: query.Filters.Brand,
		}
	}

	body, err := json.Marshal(scrapeRequest{Tasks: []scrapeTask{task}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("scraper status %d: %s", resp.StatusCode, string(payload))
	}

	var decoded scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	var scraped []domain.ScraperItem
	for _, result := range decoded.taskResults() {
		scraped = append(scraped, result.items()...)
	}
	return scraped, nil
}
