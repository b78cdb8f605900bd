package handlers

import (
	"net/http"

	"atfinder/internal/feed"
	"atfinder/internal/middleware"
	"atfinder/internal/models"
	"atfinder/internal/store"
	"atfinder/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// FeedHandler 发现页信息流。每个会话一个状态控制器，
// 筛选/排序/缓存/下拉刷新都由控制器管，handler 只做翻译。
type FeedHandler struct {
	store   *store.Store
	manager *feed.Manager
}

func NewFeedHandler(st *store.Store) *FeedHandler {
	return &FeedHandler{
		store:   st,
		manager: feed.NewManager(1024),
	}
}

// controller 取当前会话（及作用域）的信息流控制器
func (h *FeedHandler) controller(c *gin.Context) *feed.Controller {
	scope := middleware.GetScope(c)
	key := feedSessionID(c) + "|" + scope.TenantID + "|" + scope.ProjectID
	prefs := feed.NewSessionPrefs(sessions.Default(c))
	source := feed.NewStoreSource(h.store, scope)
	return h.manager.Get(key, source, prefs)
}

// feedData 信息流模板的渲染数据
func feedData(ctrl *feed.Controller) gin.H {
	banner := ctrl.Banner()
	return gin.H{
		"Items":         ctrl.Items(),
		"Total":         ctrl.Total(),
		"Sort":          ctrl.Sort(),
		"Status":        ctrl.Status(),
		"Platform":      ctrl.Platform(),
		"Platforms":     models.Platforms,
		"Banner":        banner,
		"BannerMessage": banner.Message(),
		"ShowSkeleton":  !ctrl.Loaded() && banner == feed.BannerNone,
		"Refreshing":    ctrl.Phase() == feed.PhaseRefreshing && ctrl.Loading(),
	}
}

// Index 发现页。首屏只出骨架，不在本请求里拉数据，
// 列表由页面加载后的 HTMX 跟进请求填充
func (h *FeedHandler) Index(c *gin.Context) {
	ctrl := h.controller(c)

	data := feedData(ctrl)
	data["Title"] = "@ Discovery Feed"
	Render(c, http.StatusOK, "feed/list.html", data)
}

// Items 列表局部刷新（HTMX 目标）。首屏骨架的跟进请求
// 落在这里，首次拉取也在这里发
func (h *FeedHandler) Items(c *gin.Context) {
	ctrl := h.controller(c)
	ctrl.Load(c.Request.Context())
	Render(c, http.StatusOK, "feed/items.html", feedData(ctrl))
}

// Filter 变更排序 / 状态 / 平台筛选后重渲列表。
// 排序和状态会触发重拉，平台只做客户端过滤。
func (h *FeedHandler) Filter(c *gin.Context) {
	ctrl := h.controller(c)
	ctx := c.Request.Context()

	if v := c.PostForm("sort"); v != "" {
		ctrl.SetSort(ctx, store.SortMode(v))
	}
	if v := c.PostForm("status"); v != "" {
		ctrl.SetStatus(ctx, feed.StatusFilter(v))
	}
	if v := c.PostForm("platform"); v != "" {
		ctrl.SetPlatform(feed.PlatformFilter(v))
	}

	Render(c, http.StatusOK, "feed/items.html", feedData(ctrl))
}

// Refresh 手动刷新按钮
func (h *FeedHandler) Refresh(c *gin.Context) {
	ctrl := h.controller(c)
	ctrl.Refresh(c.Request.Context())
	Render(c, http.StatusOK, "feed/items.html", feedData(ctrl))
}

// Pull 下拉手势事件。客户端把触摸阶段转发过来，
// 状态机在服务端判定是否触发刷新。
func (h *FeedHandler) Pull(c *gin.Context) {
	ctrl := h.controller(c)

	switch c.PostForm("phase") {
	case "start":
		armed := ctrl.PullStart(utils.StringToFloat(c.PostForm("scroll_top")))
		c.JSON(http.StatusOK, gin.H{"armed": armed})
	case "move":
		offset := ctrl.PullMove(utils.StringToFloat(c.PostForm("dy")))
		c.JSON(http.StatusOK, gin.H{"offset": offset})
	case "cancel":
		ctrl.PullCancel()
		c.Status(http.StatusNoContent)
	case "end":
		if ctrl.PullRelease(c.Request.Context()) {
			Render(c, http.StatusOK, "feed/items.html", feedData(ctrl))
			return
		}
		c.Status(http.StatusNoContent)
	default:
		c.Status(http.StatusBadRequest)
	}
}
