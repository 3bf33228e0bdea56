package api

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/disaster-dashboard/internal/models"
	"github.com/mr1hm/disaster-dashboard/internal/observability"
	"github.com/mr1hm/disaster-dashboard/internal/repository"
	"github.com/mr1hm/disaster-dashboard/internal/views"
)

type Handler struct {
	repo    repository.RecordRepository
	ds      *models.Dataset
	density *views.DensityBuilder
	metrics *observability.Metrics
	logger  *slog.Logger
	page    *template.Template
}

func NewHandler(repo repository.RecordRepository, ds *models.Dataset, density *views.DensityBuilder, metrics *observability.Metrics, logger *slog.Logger) *Handler {
	if metrics == nil {
		metrics = observability.NewUnregisteredMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if density == nil {
		density = views.NewDensityBuilder(nil, nil, views.DensityConfig{}, logger, metrics)
	}
	return &Handler{
		repo:    repo,
		ds:      ds,
		density: density,
		metrics: metrics,
		logger:  logger,
		page:    pageTemplate,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.getPage)
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/view", h.getView)
	api.GET("/summary", h.getSummary)
	api.GET("/records", h.getRecords)
	api.GET("/heatmap", h.getHeatmap)
	api.GET("/heatmap.geojson", h.getHeatmapGeoJSON)
	api.GET("/categories", h.getCategories)
}

// ViewPayload is the content of one navigation target. Exactly one of the
// view-specific fields is set.
type ViewPayload struct {
	View       models.View    `json:"view"`
	Title      string         `json:"title"`
	Summary    *views.Summary `json:"summary,omitempty"`
	Page       *views.Page    `json:"page,omitempty"`
	Heatmap    *views.Density `json:"heatmap,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	About      string         `json:"about,omitempty"`
}

type viewRequest struct {
	nav      string
	page     int
	category string
}

func parseViewRequest(c *gin.Context) viewRequest {
	return viewRequest{
		nav:      c.Query("nav"),
		page:     parsePage(c.Query("page")),
		category: c.Query("category"),
	}
}

// parsePage treats anything that is not an integer as page 1; range
// clamping happens in the browser view.
func parsePage(s string) int {
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return n
}

func (h *Handler) buildView(ctx context.Context, req viewRequest) (ViewPayload, error) {
	view, ok := models.ParseView(req.nav)
	if !ok && req.nav != "" {
		h.logger.Debug("unknown navigation selection, showing dashboard", "nav", req.nav)
	}
	h.metrics.ViewRequests.WithLabelValues(string(view)).Inc()

	payload := ViewPayload{View: view, Title: viewTitles[view]}

	switch view {
	case models.ViewDataset:
		page, err := h.repo.Page(ctx, req.page)
		if err != nil {
			return payload, fmt.Errorf("load records page: %w", err)
		}
		payload.Page = &page
	case models.ViewHeatmap:
		density := h.density.Build(ctx, h.ds, req.category)
		payload.Heatmap = &density
		payload.Categories = views.Categories(h.ds)
	case models.ViewAbout:
		payload.About = aboutText
	default:
		summary, err := h.repo.Summary(ctx)
		if err != nil {
			return payload, fmt.Errorf("load summary: %w", err)
		}
		payload.Summary = &summary
	}

	return payload, nil
}

func (h *Handler) getView(c *gin.Context) {
	payload, err := h.buildView(c.Request.Context(), parseViewRequest(c))
	if err != nil {
		h.logger.Error("failed to build view", "view", payload.View, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to build view",
		})
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *Handler) getPage(c *gin.Context) {
	req := parseViewRequest(c)
	payload, err := h.buildView(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("failed to build view", "view", payload.View, "error", err)
		c.String(http.StatusInternalServerError, "failed to build view")
		return
	}

	data := pageData{
		ViewPayload: payload,
		Nav:         models.AllViews,
		Category:    req.category,
	}
	if payload.Heatmap != nil {
		data.Features = toGeoJSON(*payload.Heatmap, h.ds).Features
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.page.Execute(c.Writer, data); err != nil {
		h.logger.Error("failed to render page", "view", payload.View, "error", err)
	}
}

func (h *Handler) getSummary(c *gin.Context) {
	summary, err := h.repo.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to compute summary", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to compute summary",
		})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) getRecords(c *gin.Context) {
	page, err := h.repo.Page(c.Request.Context(), parsePage(c.Query("page")))
	if err != nil {
		h.logger.Error("failed to fetch records", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch records",
		})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) getHeatmap(c *gin.Context) {
	density := h.density.Build(c.Request.Context(), h.ds, c.Query("category"))
	c.JSON(http.StatusOK, density)
}

func (h *Handler) getHeatmapGeoJSON(c *gin.Context) {
	density := h.density.Build(c.Request.Context(), h.ds, c.Query("category"))

	fc := toGeoJSON(density, h.ds)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": views.Categories(h.ds)})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"records": h.ds.Len(),
	})
}
