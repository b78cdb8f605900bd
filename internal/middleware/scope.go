package middleware

import (
	"net/http"
	"strings"

	"atfinder/internal/config"
	"atfinder/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	ScopeKey  = "scope"
	UserIDKey = "user_id"
	AuthedKey = "authed"

	visitorSessionKey = "visitor_id"
)

// scopeClaims 作用域 Bearer Token 携带的租户/项目声明
type scopeClaims struct {
	TenantID  string `json:"tenant_id"`
	ProjectID string `json:"project_id"`
	jwt.RegisteredClaims
}

// LoadScope 解析请求的租户/项目作用域并注入上下文。
// 带合法 Bearer Token 的请求按 Token 里的声明定作用域；
// 匿名请求回落到配置的默认作用域，身份用会话里的访客 ID。
func LoadScope(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := models.Scope{
			TenantID:  cfg.DefaultTenantID,
			ProjectID: cfg.DefaultProjectID,
		}
		authed := false
		userID := ""

		if token := bearerToken(c); token != "" {
			claims := &scopeClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(cfg.ScopeJWTSecret), nil
			})
			if err == nil && parsed.Valid && claims.TenantID != "" && claims.ProjectID != "" {
				scope.TenantID = claims.TenantID
				scope.ProjectID = claims.ProjectID
				authed = true
				userID = claims.Subject
			} else {
				log.Debug().Err(err).Msg("scope token rejected, falling back to anonymous")
			}
		}

		if userID == "" {
			userID = visitorID(c)
		}

		c.Set(ScopeKey, scope)
		c.Set(UserIDKey, userID)
		c.Set(AuthedKey, authed)
		c.Next()
	}
}

// TokenRequired API 写路径要求带合法作用域 Token（对应托管库里
// "匿名只读、认证可写"的行级策略）
func TokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authed, ok := c.Get(AuthedKey); !ok || !authed.(bool) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"data":  nil,
				"error": "scoped bearer token required",
			})
			return
		}
		c.Next()
	}
}

// GetScope 取当前请求作用域
func GetScope(c *gin.Context) models.Scope {
	if v, ok := c.Get(ScopeKey); ok {
		return v.(models.Scope)
	}
	return models.Scope{}
}

// GetUserID 取当前请求的用户/访客标识
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		return v.(string)
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// visitorID 会话里的匿名访客标识，投票去重用。没有就发一个
func visitorID(c *gin.Context) string {
	session := sessions.Default(c)
	if v := session.Get(visitorSessionKey); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	id := "visitor_" + uuid.NewString()
	session.Set(visitorSessionKey, id)
	if err := session.Save(); err != nil {
		log.Debug().Err(err).Msg("failed to persist visitor id")
	}
	return id
}
