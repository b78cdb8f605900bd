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

// VoteHandler 求证帖与回答的顶/踩。
// 同向重复投票视为撤销，反向投票直接翻转。
type VoteHandler struct {
	store     *store.Store
	cache     *utils.Cache
	reconcile *services.Reconciler
}

func NewVoteHandler(st *store.Store, cache *utils.Cache, rec *services.Reconciler) *VoteHandler {
	return &VoteHandler{store: st, cache: cache, reconcile: rec}
}

// Up 顶一票，响应体就是最新计数，前端原地替换
func (h *VoteHandler) Up(c *gin.Context) {
	h.cast(c, 1)
}

// Down 踩一票
func (h *VoteHandler) Down(c *gin.Context) {
	h.cast(c, -1)
}

func (h *VoteHandler) cast(c *gin.Context, value int) {
	scope := middleware.GetScope(c)
	targetType := models.TargetType(c.Param("type"))
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil || !targetType.Valid() {
		c.String(http.StatusNotFound, "0")
		return
	}

	count, serr := h.store.CastVote(c.Request.Context(), scope, targetType, targetID, middleware.GetUserID(c), value)
	if serr != nil {
		if store.IsNotFound(serr) {
			c.String(http.StatusNotFound, "0")
			return
		}
		c.String(http.StatusInternalServerError, "0")
		return
	}

	// 投票影响排序和详情展示，缓存与对账都要跟上
	if targetType == models.TargetAnswer {
		h.reconcile.ScheduleAnswer(targetID)
		if answer, aerr := h.store.GetAnswerByID(c.Request.Context(), scope, targetID); aerr == nil {
			h.cache.Delete(detailCacheKey(scope, answer.RequestID))
		}
	} else {
		h.reconcile.ScheduleRequest(targetID)
		h.cache.Delete(detailCacheKey(scope, targetID))
	}

	c.String(http.StatusOK, strconv.Itoa(count))
}
