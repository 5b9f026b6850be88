package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiaocarreiro/top5/internal/domain"
	"github.com/tiaocarreiro/top5/internal/repository"
	"github.com/tiaocarreiro/top5/internal/service"
	"github.com/tiaocarreiro/top5/pkg"
	"github.com/tiaocarreiro/top5/pkg/logger"
)

// AdminService defines the moderation handler's dependency contract.
type AdminService interface {
	PendingSuggestions(ctx context.Context, page, perPage int) (repository.Page, error)
	Approve(ctx context.Context, id int64) (domain.Music, error)
	Reject(ctx context.Context, id int64) (domain.Music, error)
	Create(ctx context.Context, in service.CreateInput) (domain.Music, error)
	Update(ctx context.Context, id int64, in service.UpdateInput) (domain.Music, error)
	Delete(ctx context.Context, id int64) error
	RefreshViewCount(ctx context.Context, id int64) (domain.Music, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
}

// AdminHandler handles the moderation and catalog management routes.
type AdminHandler struct {
	svc AdminService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

type pendingQueryParams struct {
	Page    int `form:"page,default=1"`
	PerPage int `form:"per_page,default=15"`
}

// Suggestions lists pending suggestions, oldest first.
func (h *AdminHandler) Suggestions(c *gin.Context) {
	var q pendingQueryParams
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, pkg.FailWith("invalid query parameters", err.Error()))
		return
	}
	page, err := h.svc.PendingSuggestions(c.Request.Context(), q.Page, q.PerPage)
	if err != nil {
		respondError(c, "list pending suggestions", err)
		return
	}
	c.JSON(http.StatusOK, pkg.OKPage(domain.MusicsToResponse(page.Items), toPkgPagination(page.Pagination), ""))
}

// Approve moves a pending suggestion into the public catalog.
func (h *AdminHandler) Approve(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	m, err := h.svc.Approve(ctx, id)
	if err != nil {
		respondError(c, "approve music", err)
		return
	}
	logger.With(ctx, map[string]any{"id": m.ID}).Info("music approved")
	c.JSON(http.StatusOK, pkg.OK(domain.MusicToResponse(m), "Music approved successfully."))
}

// Reject declines a pending suggestion.
func (h *AdminHandler) Reject(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	m, err := h.svc.Reject(ctx, id)
	if err != nil {
		respondError(c, "reject music", err)
		return
	}
	logger.With(ctx, map[string]any{"id": m.ID}).Info("music rejected")
	c.JSON(http.StatusOK, pkg.OK(domain.MusicToResponse(m), "Music rejected."))
}

// Create adds a catalog entry directly, bypassing the suggestion flow.
func (h *AdminHandler) Create(c *gin.Context) {
	var req domain.CreateMusicRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.FailWith("invalid request", err.Error()))
		return
	}
	m, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		Title:           req.Title,
		Artist:          req.Artist,
		YouTubeURL:      req.YouTubeURL,
		ViewCount:       req.ViewCount,
		ThumbnailURL:    req.ThumbnailURL,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		respondError(c, "create music", err)
		return
	}
	c.JSON(http.StatusCreated, pkg.OK(domain.MusicToResponse(m), "Music created successfully."))
}

// Update edits a catalog entry's details.
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req domain.UpdateMusicRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.FailWith("invalid request", err.Error()))
		return
	}
	m, err := h.svc.Update(c.Request.Context(), id, service.UpdateInput{
		Title:           req.Title,
		Artist:          req.Artist,
		YouTubeURL:      req.YouTubeURL,
		ViewCount:       req.ViewCount,
		ThumbnailURL:    req.ThumbnailURL,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		respondError(c, "update music", err)
		return
	}
	c.JSON(http.StatusOK, pkg.OK(domain.MusicToResponse(m), "Music updated successfully."))
}

// Delete removes a catalog entry.
func (h *AdminHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.svc.Delete(ctx, id); err != nil {
		respondError(c, "delete music", err)
		return
	}
	logger.With(ctx, map[string]any{"id": id}).Info("music deleted")
	c.JSON(http.StatusOK, pkg.OK(nil, "Music deleted successfully."))
}

// RefreshViews re-reads the current view count from the video source.
func (h *AdminHandler) RefreshViews(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	m, err := h.svc.RefreshViewCount(c.Request.Context(), id)
	if err != nil {
		respondError(c, "refresh view count", err)
		return
	}
	c.JSON(http.StatusOK, pkg.OK(domain.MusicToResponse(m), "View count refreshed."))
}

// Statistics reports catalog-wide aggregates for the dashboard.
func (h *AdminHandler) Statistics(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, "catalog statistics", err)
		return
	}
	c.JSON(http.StatusOK, pkg.OK(domain.StatisticsToResponse(stats), ""))
}
