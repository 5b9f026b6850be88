// Package handler provides HTTP handler functions for the Top 5 API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tiaocarreiro/top5/internal/domain"
	"github.com/tiaocarreiro/top5/internal/repository"
	"github.com/tiaocarreiro/top5/internal/service"
	"github.com/tiaocarreiro/top5/pkg"
	"github.com/tiaocarreiro/top5/pkg/ctxutil"
	"github.com/tiaocarreiro/top5/pkg/logger"
)

// MusicService defines the public handler's dependency contract.
type MusicService interface {
	Suggest(ctx context.Context, rawURL string, userID *int64) (domain.Music, error)
	TopApproved(ctx context.Context, limit int) ([]domain.Music, error)
	List(ctx context.Context, q service.ListQuery) (repository.Page, error)
	Get(ctx context.Context, id int64) (domain.Music, error)
	RegisterPlay(ctx context.Context, id int64) (domain.Music, error)
}

// MusicHandler handles public catalog requests.
type MusicHandler struct {
	svc MusicService
}

// NewMusicHandler constructs a MusicHandler.
func NewMusicHandler(svc MusicService) *MusicHandler {
	return &MusicHandler{svc: svc}
}

func toPkgPagination(p repository.Pagination) pkg.Pagination {
	return pkg.Pagination{
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		Total:       p.Total,
		TotalPages:  p.TotalPages,
		HasNext:     p.HasNext,
		HasPrevious: p.HasPrevious,
	}
}

// respondError maps service errors onto HTTP statuses and the standard
// envelope. Unknown errors are logged and returned as opaque 500s.
func respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, pkg.Fail(err.Error()))
	case errors.Is(err, service.ErrMusicNotFound):
		c.JSON(http.StatusNotFound, pkg.Fail("music not found"))
	case errors.Is(err, service.ErrDuplicateSuggestion),
		errors.Is(err, service.ErrDuplicateReference):
		c.JSON(http.StatusConflict, pkg.Fail(err.Error()))
	case errors.Is(err, service.ErrInvalidFilter),
		errors.Is(err, service.ErrArtistMismatch),
		errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrInactiveUser):
		c.JSON(http.StatusUnprocessableEntity, pkg.Fail(err.Error()))
	case errors.Is(err, service.ErrMetadataUnavailable):
		c.JSON(http.StatusServiceUnavailable, pkg.Fail("could not resolve video metadata, try again later"))
	default:
		logger.With(c.Request.Context(), map[string]any{"op": op}).Errorf("unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, pkg.Fail("internal server error"))
	}
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, pkg.Fail("invalid id"))
		return 0, false
	}
	return id, true
}

// Top5 returns the most viewed approved items.
func (h *MusicHandler) Top5(c *gin.Context) {
	ctx := c.Request.Context()
	limit := service.DefaultTopN
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			c.JSON(http.StatusBadRequest, pkg.Fail("limit must be a positive integer"))
			return
		}
		limit = v
	}
	items, err := h.svc.TopApproved(ctx, limit)
	if err != nil {
		respondError(c, "top approved", err)
		return
	}
	c.JSON(http.StatusOK, pkg.OK(domain.MusicsToResponse(items), ""))
}

type listQueryParams struct {
	Page           int    `form:"page,default=1"`
	PerPage        int    `form:"per_page,default=15"`
	Status         string `form:"status"`
	Search         string `form:"search" binding:"omitempty,max=255"`
	OrderBy        string `form:"order_by"`
	OrderDirection string `form:"order_direction"`
}

// List returns a filtered, paginated catalog page.
func (h *MusicHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var q listQueryParams
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, pkg.FailWith("invalid query parameters", err.Error()))
		return
	}
	page, err := h.svc.List(ctx, service.ListQuery{
		Page:           q.Page,
		PerPage:        q.PerPage,
		Status:         q.Status,
		Search:         q.Search,
		OrderBy:        q.OrderBy,
		OrderDirection: q.OrderDirection,
	})
	if err != nil {
		respondError(c, "list musics", err)
		return
	}
	c.JSON(http.StatusOK, pkg.OKPage(domain.MusicsToResponse(page.Items), toPkgPagination(page.Pagination), ""))
}

// Statuses returns the moderation status metadata table.
func (h *MusicHandler) Statuses(c *gin.Context) {
	c.JSON(http.StatusOK, pkg.OK(domain.AllStatuses(), ""))
}

// Get returns one item by ID.
func (h *MusicHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	m, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get music", err)
		return
	}
	c.JSON(http.StatusOK, pkg.OK(domain.MusicToResponse(m), ""))
}

// Suggest handles the public suggestion flow.
func (h *MusicHandler) Suggest(c *gin.Context) {
	ctx := c.Request.Context()
	var req domain.SuggestMusicRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.FailWith("invalid request", err.Error()))
		return
	}
	if req.UserID != nil {
		ctx = ctxutil.WithUserID(ctx, *req.UserID)
	}
	m, err := h.svc.Suggest(ctx, req.YouTubeURL, req.UserID)
	if err != nil {
		respondError(c, "suggest music", err)
		return
	}
	logger.With(ctx, map[string]any{"id": m.ID, "video_id": m.Video.ID()}).Info("music suggested")
	c.JSON(http.StatusCreated, pkg.OK(domain.MusicToResponse(m), "Music suggested successfully. Awaiting admin approval."))
}

// Play registers one playback, bumping the view count atomically.
func (h *MusicHandler) Play(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	m, err := h.svc.RegisterPlay(c.Request.Context(), id)
	if err != nil {
		respondError(c, "register play", err)
		return
	}
	c.JSON(http.StatusOK, pkg.OK(domain.MusicToResponse(m), ""))
}
