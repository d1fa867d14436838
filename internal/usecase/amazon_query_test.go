package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompt2insight/backend/internal/domain"
)

func TestAmazonQueryBuilder_Build(t *testing.T) {
	builder := NewAmazonQueryBuilder(5)

	tests := []struct {
		name       string
		query      *domain.Query
		wantNil    bool
		wantPrice  string
		wantBrand  string
		wantAttrs  []string
		wantIntent string
	}{
		{
			name:    "nil query",
			query:   nil,
			wantNil: true,
		},
		{
			name:    "no products",
			query:   &domain.Query{RawText: "something", Intent: domain.IntentSearch},
			wantNil: true,
		},
		{
			name: "classifier filters pass through",
			query: &domain.Query{
				RawText:  "gaming laptops",
				Intent:   domain.IntentRecommend,
				Products: []string{"gaming laptop"},
				Filters:  domain.QueryFilters{Price: "under ₹80000", Brand: "asus"},
			},
			wantPrice:  "under ₹80000",
			wantBrand:  "asus",
			wantAttrs:  []string{"gaming"},
			wantIntent: "search",
		},
		{
			name: "price extracted from raw text",
			query: &domain.Query{
				RawText:  "phones under ₹20,000",
				Intent:   domain.IntentSearch,
				Products: []string{"phone"},
			},
			wantPrice:  "under ₹20000",
			wantBrand:  "any",
			wantAttrs:  []string{},
			wantIntent: "search",
		},
		{
			name: "brand detected as whole word",
			query: &domain.Query{
				RawText:  "best budget poco phones",
				Intent:   domain.IntentSearch,
				Products: []string{"poco phone"},
			},
			wantPrice:  "any",
			wantBrand:  "poco",
			wantAttrs:  []string{"budget"},
			wantIntent: "search",
		},
		{
			name: "hp does not match inside iphone",
			query: &domain.Query{
				RawText:  "iphone 14 price",
				Intent:   domain.IntentSearch,
				Products: []string{"iPhone 14"},
			},
			wantPrice:  "any",
			wantBrand:  "any",
			wantAttrs:  []string{},
			wantIntent: "search",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := builder.Build(tt.query)

			if tt.wantNil {
				assert.Nil(t, payload)
				return
			}

			require.NotNil(t, payload)
			assert.Equal(t, tt.wantIntent, payload.Intent)
			assert.Equal(t, tt.query.Products, payload.Products)
			assert.Equal(t, tt.wantPrice, payload.Filters.Price)
			assert.Equal(t, tt.wantBrand, payload.Filters.Brand)
			assert.Equal(t, tt.wantAttrs, payload.Attributes)
			assert.Equal(t, 5, payload.MaxProductsPerQuery)
		})
	}
}

func TestAmazonQueryBuilder_ExplicitAttributesPassThrough(t *testing.T) {
	builder := NewAmazonQueryBuilder(5)

	payload := builder.Build(&domain.Query{
		RawText:    "laptops",
		Intent:     domain.IntentSearch,
		Products:   []string{"laptop"},
		Attributes: []string{"touchscreen"},
	})

	require.NotNil(t, payload)
	assert.Equal(t, []string{"touchscreen"}, payload.Attributes)
}

func TestAmazonQueryBuilder_DefaultMaxProducts(t *testing.T) {
	builder := NewAmazonQueryBuilder(0)

	payload := builder.Build(&domain.Query{
		RawText:  "laptops",
		Intent:   domain.IntentSearch,
		Products: []string{"laptop"},
	})

	require.NotNil(t, payload)
	assert.Equal(t, 5, payload.MaxProductsPerQuery)
}
