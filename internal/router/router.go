package router

import (
	"atfinder/internal/config"
	"atfinder/internal/handlers"
	"atfinder/internal/middleware"
	"atfinder/internal/services"
	"atfinder/internal/store"
	"atfinder/internal/utils"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 装配所有 handler 并注册路由。
// 依赖全部显式传入，路由表就是整个站点的地图。
func RegisterRoutes(r *gin.Engine, cfg config.Config, st *store.Store, cache *utils.Cache, rec *services.Reconciler) {
	// Handlers
	feedHandler := handlers.NewFeedHandler(st)
	requestHandler := handlers.NewRequestHandler(st, cache, rec, cfg)
	answerHandler := handlers.NewAnswerHandler(st, cache, rec, cfg)
	commentHandler := handlers.NewCommentHandler(st, cache, rec)
	voteHandler := handlers.NewVoteHandler(st, cache, rec)
	apiHandler := handlers.NewAPIHandler(st)

	// 所有请求先解析作用域（Bearer 令牌或默认作用域 + 访客会话）
	r.Use(middleware.LoadScope(cfg))

	// 页面路由 (HTML Routes)
	r.GET("/", feedHandler.Index)                   // 发现页信息流
	r.GET("/r/:id", requestHandler.Detail)          // 求证帖详情页
	r.GET("/r/:id/overlay", requestHandler.Overlay) // 回答浮层局部
	r.GET("/submit", requestHandler.ShowCreate)     // 发帖页面
	r.POST("/submit", requestHandler.Create)        // 提交新帖

	// 信息流局部刷新 (Feed Partials)
	feed := r.Group("/feed")
	{
		feed.GET("/items", feedHandler.Items)      // 列表局部
		feed.POST("/filter", feedHandler.Filter)   // 变更筛选
		feed.POST("/refresh", feedHandler.Refresh) // 手动刷新
		feed.POST("/pull", feedHandler.Pull)       // 下拉手势事件
	}

	// 交互路由 (Interaction Routes)
	r.POST("/r/:id/answers", answerHandler.Create)        // 提交归属回答
	r.POST("/answers/:id/verify", answerHandler.Verify)   // 版主验证回答
	r.POST("/r/:id/close", requestHandler.Close)          // 关闭求证帖
	r.DELETE("/r/:id", requestHandler.Delete)             // 删除求证帖
	r.POST("/comments/:type/:id", commentHandler.Create) // 发表评论
	r.POST("/comment/:id/upvote", commentHandler.Upvote) // 评论点赞
	r.POST("/vote/:type/:id", voteHandler.Up)             // 顶
	r.POST("/vote/:type/:id/down", voteHandler.Down)      // 踩

	// JSON 接口 (API Routes)，写操作要求作用域令牌
	api := r.Group("/api")
	{
		api.GET("/requests", apiHandler.ListRequests)
		api.GET("/requests/:id", apiHandler.GetRequest)
		api.GET("/requests/:id/answers", apiHandler.ListAnswers)
		api.GET("/comments/:type/:id", apiHandler.ListComments)

		authed := api.Group("/")
		authed.Use(middleware.TokenRequired())
		{
			authed.POST("/requests", apiHandler.CreateRequest)
			authed.POST("/requests/:id/upvote", apiHandler.Upvote)
		}
	}
}
