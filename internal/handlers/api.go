package handlers

import (
	"context"
	"net/http"

	"atfinder/internal/middleware"
	"atfinder/internal/models"
	"atfinder/internal/store"
	"atfinder/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Querier API 层依赖的查询面，方便测试时替身
type Querier interface {
	ListRequests(ctx context.Context, scope models.Scope, sort store.SortMode, limit, offset int) ([]models.AttributionRequest, int64, *store.Error)
	ListRequestsByStatus(ctx context.Context, scope models.Scope, status models.RequestStatus, sort store.SortMode, limit, offset int) ([]models.AttributionRequest, *store.Error)
	GetRequestByID(ctx context.Context, scope models.Scope, id uuid.UUID) (*models.AttributionRequest, *store.Error)
	ListAnswers(ctx context.Context, scope models.Scope, requestID uuid.UUID) ([]models.Answer, *store.Error)
	ListComments(ctx context.Context, scope models.Scope, targetType models.TargetType, targetID uuid.UUID) ([]models.Comment, *store.Error)
	CreateRequest(ctx context.Context, scope models.Scope, fields store.RequestFields) (*models.AttributionRequest, *store.Error)
	CastVote(ctx context.Context, scope models.Scope, targetType models.TargetType, targetID uuid.UUID, userID string, value int) (int, *store.Error)
}

// APIHandler JSON 接口，返回 {data, error, count} 信封
type APIHandler struct {
	store Querier
}

func NewAPIHandler(q Querier) *APIHandler {
	return &APIHandler{store: q}
}

func apiOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data, "error": nil})
}

func apiCount(c *gin.Context, data interface{}, count int64) {
	c.JSON(http.StatusOK, gin.H{"data": data, "error": nil, "count": count})
}

func apiError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"data": nil, "error": msg})
}

func apiStoreError(c *gin.Context, serr *store.Error) {
	switch serr.Kind {
	case store.KindNotFound:
		apiError(c, http.StatusNotFound, serr.Message)
	case store.KindNetwork:
		apiError(c, http.StatusServiceUnavailable, serr.Message)
	default:
		apiError(c, http.StatusBadRequest, serr.Message)
	}
}

// ListRequests GET /api/requests?sort=&status=&limit=&offset=
// 无状态筛选时带总数，便于分页
func (h *APIHandler) ListRequests(c *gin.Context) {
	scope := middleware.GetScope(c)
	ctx := c.Request.Context()

	sort := store.SortRecent
	if c.Query("sort") == string(store.SortPopular) {
		sort = store.SortPopular
	}
	limit := utils.StringToInt(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := utils.StringToInt(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	if raw := c.Query("status"); raw != "" {
		status := models.RequestStatus(raw)
		if !status.Valid() {
			apiError(c, http.StatusBadRequest, "invalid status: "+raw)
			return
		}
		items, serr := h.store.ListRequestsByStatus(ctx, scope, status, sort, limit, offset)
		if serr != nil {
			apiStoreError(c, serr)
			return
		}
		apiOK(c, items)
		return
	}

	items, total, serr := h.store.ListRequests(ctx, scope, sort, limit, offset)
	if serr != nil {
		apiStoreError(c, serr)
		return
	}
	apiCount(c, items, total)
}

// GetRequest GET /api/requests/:id
func (h *APIHandler) GetRequest(c *gin.Context) {
	scope := middleware.GetScope(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusNotFound, "request not found")
		return
	}

	item, serr := h.store.GetRequestByID(c.Request.Context(), scope, id)
	if serr != nil {
		apiStoreError(c, serr)
		return
	}
	apiOK(c, item)
}

// ListAnswers GET /api/requests/:id/answers
func (h *APIHandler) ListAnswers(c *gin.Context) {
	scope := middleware.GetScope(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusNotFound, "request not found")
		return
	}

	items, serr := h.store.ListAnswers(c.Request.Context(), scope, id)
	if serr != nil {
		apiStoreError(c, serr)
		return
	}
	apiOK(c, items)
}

// ListComments GET /api/comments/:type/:id
func (h *APIHandler) ListComments(c *gin.Context) {
	scope := middleware.GetScope(c)
	targetType := models.TargetType(c.Param("type"))
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || !targetType.Valid() {
		apiError(c, http.StatusNotFound, "target not found")
		return
	}

	items, serr := h.store.ListComments(c.Request.Context(), scope, targetType, id)
	if serr != nil {
		apiStoreError(c, serr)
		return
	}
	apiOK(c, items)
}

// createRequestBody POST /api/requests 的请求体
type createRequestBody struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	MediaURL    string `json:"media_url"`
	MediaType   string `json:"media_type"`
	RepostURL   string `json:"repost_url"`
	Platform    string `json:"platform"`
}

// CreateRequest POST /api/requests（需要作用域令牌）
func (h *APIHandler) CreateRequest(c *gin.Context) {
	scope := middleware.GetScope(c)

	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	item, serr := h.store.CreateRequest(c.Request.Context(), scope, store.RequestFields{
		Title:       body.Title,
		Description: body.Description,
		MediaURL:    body.MediaURL,
		MediaType:   models.MediaType(body.MediaType),
		RepostURL:   body.RepostURL,
		Platform:    models.Platform(body.Platform),
		SubmittedBy: middleware.GetUserID(c),
	})
	if serr != nil {
		apiStoreError(c, serr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": item, "error": nil})
}

// upvoteBody POST /api/requests/:id/upvote 的请求体，delta 缺省 +1
type upvoteBody struct {
	Delta int `json:"delta"`
}

// Upvote POST /api/requests/:id/upvote（需要作用域令牌）。
// 以令牌 subject 作为投票人写入投票记录，计数与投票表保持一致，
// 重复投同向票即撤回
func (h *APIHandler) Upvote(c *gin.Context) {
	scope := middleware.GetScope(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusNotFound, "request not found")
		return
	}

	body := upvoteBody{Delta: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			apiError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	if body.Delta != 1 && body.Delta != -1 {
		apiError(c, http.StatusBadRequest, "delta must be +1 or -1")
		return
	}

	count, serr := h.store.CastVote(c.Request.Context(), scope, models.TargetRequest, id, middleware.GetUserID(c), body.Delta)
	if serr != nil {
		apiStoreError(c, serr)
		return
	}
	apiOK(c, gin.H{"id": id, "upvotes": count})
}
