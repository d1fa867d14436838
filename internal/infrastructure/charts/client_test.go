package charts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompt2insight/backend/internal/domain"
)

func testProducts() []domain.ProductRecord {
	return []domain.ProductRecord{
		{Name: "iPhone 14", PriceValue: 59999, PriceDisplay: "₹59,999"},
		{Name: "Poco X5 5G", PriceValue: 16999, PriceDisplay: "₹16,999"},
	}
}

func TestRenderPriceChart_Success(t *testing.T) {
	image := []byte{0x89, 'P', 'N', 'G'}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate-chart", r.URL.Path)

		var req renderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Products, 2)

		w.Header().Set("Content-Type", "image/png")
		w.Write(image)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	got, err := client.RenderPriceChart(context.Background(), testProducts())

	require.NoError(t, err)
	assert.Equal(t, image, got)
}

func TestRenderPriceChart_RendererError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "matplotlib exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.RenderPriceChart(context.Background(), testProducts())

	assert.ErrorIs(t, err, domain.ErrChartRenderFailure)
}

func TestRenderPriceChart_EmptyImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.RenderPriceChart(context.Background(), testProducts())

	assert.ErrorIs(t, err, domain.ErrChartRenderFailure)
}

func TestRenderPriceChart_UnreachableRenderer(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)
	_, err := client.RenderPriceChart(context.Background(), testProducts())

	assert.ErrorIs(t, err, domain.ErrChartRenderFailure)
}
