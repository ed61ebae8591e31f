package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klaape/klaape-api/internal/config"
	"github.com/klaape/klaape-api/internal/domain/catalog"
	"github.com/klaape/klaape-api/internal/http/middlewares"
	"github.com/klaape/klaape-api/internal/utils"
)

type CategoryLister interface {
	List(ctx context.Context) ([]catalog.Category, error)
	Create(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error)
}

type CatalogReader interface {
	ListVideos(ctx context.Context, f catalog.VideoFilter, afterCreatedAt time.Time, afterID int64) ([]catalog.Video, bool, error)
	GetVideo(ctx context.Context, id int64) (catalog.Video, error)
	ListKlaapenings(ctx context.Context, f catalog.KlaapeningFilter) ([]catalog.Klaapening, error)
	ListLiveSessions(ctx context.Context, activeOnly bool) ([]catalog.LiveSession, error)
	ListPurchasesByBuyer(ctx context.Context, buyerID int64) ([]catalog.Purchase, error)
	ListBookingsByUser(ctx context.Context, userID int64) ([]catalog.LiveSessionBooking, error)
	ListReviewsForCreator(ctx context.Context, creatorID int64) ([]catalog.Review, error)
}

type CatalogHandler struct {
	categories CategoryLister
	repo       CatalogReader
}

func NewCatalogHandler(categories CategoryLister, repo CatalogReader) *CatalogHandler {
	return &CatalogHandler{categories: categories, repo: repo}
}

// GET /api/categories/
func (h *CatalogHandler) ListCategories(ctx *gin.Context) {
	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, err := h.categories.List(cctx)
	if err != nil {
		RespondServiceError(ctx, err, "Not found")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

// POST /api/categories/ (staff)
func (h *CatalogHandler) CreateCategory(ctx *gin.Context) {
	var req catalog.CreateCategoryRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	c, err := h.categories.Create(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Not found")
		return
	}
	ctx.JSON(http.StatusCreated, c)
}

// GET /api/videos/?category_id=&creator_id=&limit=&cursor=
func (h *CatalogHandler) ListVideos(ctx *gin.Context) {
	limit := parseIntDefault(ctx.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		RespondBadRequest(ctx, "Invalid query", gin.H{"limit": "must be between 1 and 100"})
		return
	}

	categoryID, ok := queryID(ctx, "category_id")
	if !ok {
		RespondBadRequest(ctx, "Invalid query", gin.H{"category_id": "must be a positive integer"})
		return
	}
	creatorID, ok := queryID(ctx, "creator_id")
	if !ok {
		RespondBadRequest(ctx, "Invalid query", gin.H{"creator_id": "must be a positive integer"})
		return
	}

	var afterCreatedAt time.Time
	var afterID int64

	if cursor := ctx.Query("cursor"); cursor != "" {
		cur, err := utils.DecodeVideoCursor(cursor)
		if err != nil {
			RespondBadRequest(ctx, "Invalid query", gin.H{"cursor": "is invalid"})
			return
		}
		afterCreatedAt = cur.CreatedAt
		afterID = cur.ID
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, hasMore, err := h.repo.ListVideos(cctx, catalog.VideoFilter{
		CategoryID: categoryID,
		CreatorID:  creatorID,
		Limit:      limit,
	}, afterCreatedAt, afterID)
	if err != nil {
		RespondServiceError(ctx, err, "Not found")
		return
	}

	var next *string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		c, err := utils.EncodeVideoCursor(last.CreatedAt, last.ID)
		if err != nil {
			RespondServiceError(ctx, err, "Not found")
			return
		}
		next = &c
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"limit":      limit,
		"count":      len(items),
		"items":      items,
		"hasMore":    hasMore,
		"nextCursor": next,
	})
}

// GET /api/videos/:id/
func (h *CatalogHandler) GetVideo(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		RespondNotFound(ctx, "Video not found")
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	v, err := h.repo.GetVideo(cctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			RespondNotFound(ctx, "Video not found")
			return
		}
		RespondServiceError(ctx, err, "Video not found")
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, v)
}

// GET /api/klaapenings/?content_type=&creator_id=
func (h *CatalogHandler) ListKlaapenings(ctx *gin.Context) {
	f := catalog.KlaapeningFilter{Limit: parseIntDefault(ctx.Query("limit"), 50)}
	if f.Limit < 1 || f.Limit > 100 {
		RespondBadRequest(ctx, "Invalid query", gin.H{"limit": "must be between 1 and 100"})
		return
	}

	if raw := ctx.Query("content_type"); raw != "" {
		t := catalog.KlaapeningType(raw)
		if !t.Valid() {
			RespondBadRequest(ctx, "Invalid query", gin.H{"content_type": "must be one of quick_tip, question, showcase, challenge, poll"})
			return
		}
		f.ContentType = &t
	}

	creatorID, ok := queryID(ctx, "creator_id")
	if !ok {
		RespondBadRequest(ctx, "Invalid query", gin.H{"creator_id": "must be a positive integer"})
		return
	}
	f.CreatorID = creatorID

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.repo.ListKlaapenings(cctx, f)
	if err != nil {
		RespondServiceError(ctx, err, "Not found")
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, items)
}

// GET /api/live-sessions/?active=true
func (h *CatalogHandler) ListLiveSessions(ctx *gin.Context) {
	activeOnly := ctx.Query("active") == "true"

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.repo.ListLiveSessions(cctx, activeOnly)
	if err != nil {
		RespondServiceError(ctx, err, "Not found")
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, items)
}

// GET /api/purchases/ (own)
func (h *CatalogHandler) ListPurchases(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.repo.ListPurchasesByBuyer(cctx, actor.ID)
	if err != nil {
		RespondServiceError(ctx, err, "Not found")
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, items)
}

// GET /api/bookings/ (own)
func (h *CatalogHandler) ListBookings(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.repo.ListBookingsByUser(cctx, actor.ID)
	if err != nil {
		RespondServiceError(ctx, err, "Not found")
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, items)
}

// GET /api/reviews/?creator_id=
func (h *CatalogHandler) ListReviews(ctx *gin.Context) {
	creatorID, ok := queryID(ctx, "creator_id")
	if !ok || creatorID == nil {
		RespondBadRequest(ctx, "Invalid query", gin.H{"creator_id": "is required"})
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.repo.ListReviewsForCreator(cctx, *creatorID)
	if err != nil {
		RespondServiceError(ctx, err, "Not found")
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, items)
}
