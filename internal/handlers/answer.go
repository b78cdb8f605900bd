package handlers

import (
	"net/http"

	"atfinder/internal/config"
	"atfinder/internal/middleware"
	"atfinder/internal/models"
	"atfinder/internal/services"
	"atfinder/internal/store"
	"atfinder/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AnswerHandler 归属回答的提交与验证
type AnswerHandler struct {
	store     *store.Store
	cache     *utils.Cache
	reconcile *services.Reconciler
	cfg       config.Config
}

func NewAnswerHandler(st *store.Store, cache *utils.Cache, rec *services.Reconciler, cfg config.Config) *AnswerHandler {
	return &AnswerHandler{store: st, cache: cache, reconcile: rec, cfg: cfg}
}

// Create 给求证帖提交一条归属回答
func (h *AnswerHandler) Create(c *gin.Context) {
	scope := middleware.GetScope(c)
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "request not found")
		return
	}

	fields := store.AnswerFields{
		CreatorHandle:   c.PostForm("creator_handle"),
		CreatorPlatform: models.Platform(c.PostForm("creator_platform")),
		ProofURL:        c.PostForm("proof_url"),
		Explanation:     c.PostForm("explanation"),
		SubmittedBy:     middleware.GetUserID(c),
	}

	_, serr := h.store.CreateAnswer(c.Request.Context(), scope, requestID, fields)
	if serr != nil {
		if store.IsNotFound(serr) {
			RenderError(c, http.StatusNotFound, "request not found")
			return
		}
		RenderError(c, http.StatusBadRequest, serr.Message)
		return
	}

	h.cache.Delete(detailCacheKey(scope, requestID))
	h.reconcile.ScheduleRequest(requestID)
	HtmxRedirect(c, "/r/"+requestID.String())
}

// Verify 版主校验回答。一次成功后父帖转为 solved，重复验证直接拒绝
func (h *AnswerHandler) Verify(c *gin.Context) {
	scope := middleware.GetScope(c)
	answerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "answer not found")
		return
	}

	key := c.PostForm("moderator_key")
	if key == "" || h.cfg.ModeratorKeyHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(h.cfg.ModeratorKeyHash), []byte(key)) != nil {
		RenderError(c, http.StatusForbidden, "invalid moderator key")
		return
	}

	answer, serr := h.store.VerifyAnswer(c.Request.Context(), scope, answerID, middleware.GetUserID(c))
	if serr != nil {
		if store.IsNotFound(serr) {
			RenderError(c, http.StatusNotFound, "answer not found")
			return
		}
		RenderError(c, http.StatusConflict, serr.Message)
		return
	}

	h.cache.Delete(detailCacheKey(scope, answer.RequestID))
	HtmxRedirect(c, "/r/"+answer.RequestID.String())
}
