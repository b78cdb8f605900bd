package handlers

import (
	"html/template"
	"net/http"
	"time"

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

// RequestHandler 归属求证帖的页面逻辑
type RequestHandler struct {
	store     *store.Store
	cache     *utils.Cache
	reconcile *services.Reconciler
	cfg       config.Config
}

func NewRequestHandler(st *store.Store, cache *utils.Cache, rec *services.Reconciler, cfg config.Config) *RequestHandler {
	return &RequestHandler{store: st, cache: cache, reconcile: rec, cfg: cfg}
}

// detailCacheKey 详情页缓存键，按作用域隔离
func detailCacheKey(scope models.Scope, id uuid.UUID) string {
	return "request:detail:" + scope.TenantID + ":" + scope.ProjectID + ":" + id.String()
}

// detailView 详情页的渲染数据，作为整体缓存
type detailView struct {
	Request         *models.AttributionRequest
	DescriptionHTML template.HTML
	Answers         []models.Answer
	Comments        []models.Comment
}

func (h *RequestHandler) loadDetail(c *gin.Context, scope models.Scope, id uuid.UUID) (*detailView, *store.Error) {
	key := detailCacheKey(scope, id)
	if cached := h.cache.Get(key); cached != nil {
		if view, ok := cached.(*detailView); ok {
			return view, nil
		}
	}

	ctx := c.Request.Context()
	req, serr := h.store.GetRequestByID(ctx, scope, id)
	if serr != nil {
		return nil, serr
	}
	answers, serr := h.store.ListAnswers(ctx, scope, id)
	if serr != nil {
		return nil, serr
	}
	comments, serr := h.store.ListComments(ctx, scope, models.TargetRequest, id)
	if serr != nil {
		return nil, serr
	}

	view := &detailView{
		Request:         req,
		DescriptionHTML: utils.RenderMarkdown(req.Description),
		Answers:         answers,
		Comments:        comments,
	}
	// 详情页短缓存，写操作会主动失效
	h.cache.Set(key, view, time.Minute)
	return view, nil
}

// invalidateDetail 写操作后失效详情缓存
func (h *RequestHandler) invalidateDetail(scope models.Scope, id uuid.UUID) {
	h.cache.Delete(detailCacheKey(scope, id))
}

// Detail 求证帖详情页：帖子 + 回答（已验证优先）+ 帖子评论
func (h *RequestHandler) Detail(c *gin.Context) {
	scope := middleware.GetScope(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "request not found")
		return
	}

	view, serr := h.loadDetail(c, scope, id)
	if serr != nil {
		if store.IsNotFound(serr) {
			RenderError(c, http.StatusNotFound, "request not found")
			return
		}
		RenderError(c, http.StatusInternalServerError, serr.Message)
		return
	}

	Render(c, http.StatusOK, "feed/detail.html", gin.H{
		"Title":           view.Request.Title,
		"Request":         view.Request,
		"DescriptionHTML": view.DescriptionHTML,
		"Answers":         view.Answers,
		"Comments":        view.Comments,
	})
}

// Overlay 回答浮层局部（HTMX 弹出）
func (h *RequestHandler) Overlay(c *gin.Context) {
	scope := middleware.GetScope(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	view, serr := h.loadDetail(c, scope, id)
	if serr != nil {
		c.Status(http.StatusNotFound)
		return
	}

	Render(c, http.StatusOK, "feed/overlay.html", gin.H{
		"Request":  view.Request,
		"Answers":  view.Answers,
		"Comments": view.Comments,
	})
}

// ShowCreate 发帖表单
func (h *RequestHandler) ShowCreate(c *gin.Context) {
	Render(c, http.StatusOK, "feed/create.html", gin.H{
		"Title":      "Submit a Request",
		"Platforms":  models.Platforms,
		"MediaTypes": models.MediaTypes,
	})
}

// Create 提交新的求证帖，成功后跳到详情页
func (h *RequestHandler) Create(c *gin.Context) {
	scope := middleware.GetScope(c)

	fields := store.RequestFields{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		MediaURL:    c.PostForm("media_url"),
		MediaType:   models.MediaType(c.PostForm("media_type")),
		RepostURL:   c.PostForm("repost_url"),
		Platform:    models.Platform(c.PostForm("platform")),
		SubmittedBy: middleware.GetUserID(c),
	}

	req, serr := h.store.CreateRequest(c.Request.Context(), scope, fields)
	if serr != nil {
		Render(c, http.StatusBadRequest, "feed/create.html", gin.H{
			"Title":      "Submit a Request",
			"Platforms":  models.Platforms,
			"MediaTypes": models.MediaTypes,
			"Error":      serr.Message,
			"Form":       fields,
		})
		return
	}

	HtmxRedirect(c, "/r/"+req.ID.String())
}

// canModerate 版主口令校验。帖主本人对自己的帖子同样放行
func (h *RequestHandler) canModerate(c *gin.Context, ownerID string) bool {
	if ownerID != "" && ownerID == middleware.GetUserID(c) {
		return true
	}
	key := c.PostForm("moderator_key")
	if key == "" || h.cfg.ModeratorKeyHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.cfg.ModeratorKeyHash), []byte(key)) == nil
}

// Close 关闭求证帖（终态，幂等）
func (h *RequestHandler) Close(c *gin.Context) {
	scope := middleware.GetScope(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "request not found")
		return
	}

	req, serr := h.store.GetRequestByID(c.Request.Context(), scope, id)
	if serr != nil {
		RenderError(c, http.StatusNotFound, "request not found")
		return
	}
	if !h.canModerate(c, req.SubmittedBy) {
		RenderError(c, http.StatusForbidden, "not allowed to close this request")
		return
	}

	if _, serr := h.store.CloseRequest(c.Request.Context(), scope, id); serr != nil {
		RenderError(c, http.StatusInternalServerError, serr.Message)
		return
	}
	h.invalidateDetail(scope, id)
	HtmxRedirect(c, "/r/"+id.String())
}

// Delete 级联删除求证帖及其回答、投票、评论
func (h *RequestHandler) Delete(c *gin.Context) {
	scope := middleware.GetScope(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "request not found")
		return
	}

	req, serr := h.store.GetRequestByID(c.Request.Context(), scope, id)
	if serr != nil {
		RenderError(c, http.StatusNotFound, "request not found")
		return
	}
	if !h.canModerate(c, req.SubmittedBy) {
		RenderError(c, http.StatusForbidden, "not allowed to delete this request")
		return
	}

	if serr := h.store.DeleteRequest(c.Request.Context(), scope, id); serr != nil {
		RenderError(c, http.StatusInternalServerError, serr.Message)
		return
	}
	h.invalidateDetail(scope, id)
	HtmxRedirect(c, "/")
}
