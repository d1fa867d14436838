package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prompt2insight/backend/internal/domain"
)

// statusClientClosedRequest reports an abandoned resolution; there is no
// stdlib constant for nginx's 499.
const statusClientClosedRequest = 499

// QueryResolver is the resolution pipeline surface the handlers depend on.
type QueryResolver interface {
	Resolve(ctx context.Context, query *domain.Query, forceAI bool) (*domain.ResultEnvelope, error)
	ResolveAmazon(ctx context.Context, payload *domain.AmazonQueryPayload) (*domain.ResultEnvelope, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver QueryResolver
	renderer domain.ChartRenderer
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(resolver QueryResolver, renderer domain.ChartRenderer, logger *zap.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		renderer: renderer,
		logger:   logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "prompt2insight-backend",
		"version": "1.0.0",
	})
}

type resolveRequest struct {
	Query   domain.Query `json:"query"`
	ForceAI bool         `json:"force_ai"`
}

// ResolveQuery runs the resolution pipeline for a parsed query. A valid
// query always gets a 200 with an envelope; an empty product list is a
// result, not an error.
func (h *Handler) ResolveQuery(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	envelope, err := h.resolver.Resolve(c.Request.Context(), &req.Query, req.ForceAI)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Resolution only errors on caller cancellation.
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	c.JSON(http.StatusOK, envelope)
}

// ScrapeAmazon runs the user-triggered Amazon enrichment for a payload the
// pipeline attached to an earlier envelope.
func (h *Handler) ScrapeAmazon(c *gin.Context) {
	var payload domain.AmazonQueryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	envelope, err := h.resolver.ResolveAmazon(c.Request.Context(), &payload)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	c.JSON(http.StatusOK, envelope)
}

type renderChartRequest struct {
	Products []domain.ProductRecord `json:"products"`
}

// RenderPriceChart proxies a normalized product list to the chart renderer
// and streams the image back. Renderer failure is the renderer's problem,
// reported as a bad gateway.
func (h *Handler) RenderPriceChart(c *gin.Context) {
	var req renderChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one product is required"})
		return
	}

	image, err := h.renderer.RenderPriceChart(c.Request.Context(), req.Products)
	if err != nil {
		h.logger.Warn("chart render failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "chart renderer unavailable"})
		return
	}

	c.Data(http.StatusOK, "image/png", image)
}
