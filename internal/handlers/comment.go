package handlers

import (
	"net/http"
	"strconv"

	"atfinder/internal/middleware"
	"atfinder/internal/models"
	"atfinder/internal/services"
	"atfinder/internal/store"
	"atfinder/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CommentHandler 求证帖与回答下的讨论
type CommentHandler struct {
	store     *store.Store
	cache     *utils.Cache
	reconcile *services.Reconciler
}

func NewCommentHandler(st *store.Store, cache *utils.Cache, rec *services.Reconciler) *CommentHandler {
	return &CommentHandler{store: st, cache: cache, reconcile: rec}
}

// Create 给目标追加评论，目标是回答时同步刷新父帖缓存
func (h *CommentHandler) Create(c *gin.Context) {
	scope := middleware.GetScope(c)
	targetType := models.TargetType(c.Param("type"))
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil || !targetType.Valid() {
		RenderError(c, http.StatusNotFound, "target not found")
		return
	}

	userID := middleware.GetUserID(c)
	fields := store.CommentFields{
		Content:    c.PostForm("content"),
		UserID:     userID,
		UserHandle: c.PostForm("user_handle"),
	}
	if fields.UserHandle == "" {
		fields.UserHandle = userID
	}

	_, serr := h.store.CreateComment(c.Request.Context(), scope, targetType, targetID, fields)
	if serr != nil {
		if store.IsNotFound(serr) {
			RenderError(c, http.StatusNotFound, "target not found")
			return
		}
		RenderError(c, http.StatusBadRequest, serr.Message)
		return
	}

	requestID := h.parentRequestID(c, scope, targetType, targetID)
	if requestID != uuid.Nil {
		h.cache.Delete(detailCacheKey(scope, requestID))
	}
	if targetType == models.TargetAnswer {
		h.reconcile.ScheduleAnswer(targetID)
	} else {
		h.reconcile.ScheduleRequest(targetID)
	}

	if requestID != uuid.Nil {
		HtmxRedirect(c, "/r/"+requestID.String())
		return
	}
	HtmxRedirect(c, "/")
}

// Upvote 评论点赞，返回最新计数（HTMX 就地替换）
func (h *CommentHandler) Upvote(c *gin.Context) {
	scope := middleware.GetScope(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, "0")
		return
	}

	count, serr := h.store.AdjustCommentUpvote(c.Request.Context(), scope, id, 1)
	if serr != nil {
		c.String(http.StatusNotFound, "0")
		return
	}
	c.String(http.StatusOK, strconv.Itoa(count))
}

// parentRequestID 评论目标所属的求证帖。目标本身是帖子时就是它自己
func (h *CommentHandler) parentRequestID(c *gin.Context, scope models.Scope, targetType models.TargetType, targetID uuid.UUID) uuid.UUID {
	if targetType == models.TargetRequest {
		return targetID
	}
	answer, serr := h.store.GetAnswerByID(c.Request.Context(), scope, targetID)
	if serr != nil {
		return uuid.Nil
	}
	return answer.RequestID
}
