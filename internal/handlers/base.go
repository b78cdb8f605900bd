package handlers

import (
	"net/http"

	"atfinder/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const feedSessionKey = "feed_sid"

// Render helper to inject common variables
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	obj["Scope"] = middleware.GetScope(c)
	obj["UserID"] = middleware.GetUserID(c)
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// HTMX Redirect helper，普通表单提交按 302 处理
func HtmxRedirect(c *gin.Context, path string) {
	if c.GetHeader("HX-Request") != "" {
		c.Header("HX-Redirect", path)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, path)
}

// feedSessionID 会话里的信息流控制器标识，没有就发一个
func feedSessionID(c *gin.Context) string {
	session := sessions.Default(c)
	if v := session.Get(feedSessionKey); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	id := uuid.NewString()
	session.Set(feedSessionKey, id)
	if err := session.Save(); err != nil {
		log.Debug().Err(err).Msg("failed to persist feed session id")
	}
	return id
}
