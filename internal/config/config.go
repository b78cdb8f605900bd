package config

import (
	"os"
)

// Config 服务运行配置，启动时一次性从环境变量读取后显式注入，
// 不再依赖散落各处的 os.Getenv。
type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	// 作用域 Bearer Token 的签名密钥（tenant_id / project_id claims）
	ScopeJWTSecret string
	// 无 Token 匿名访问时回落的租户/项目作用域
	DefaultTenantID  string
	DefaultProjectID string
	// 认证回答用的管理员口令 bcrypt 哈希
	ModeratorKeyHash string
	SiteURL          string
}

func Load() Config {
	return Config{
		Port:             getenv("PORT", "8080"),
		DatabaseURL:      getenv("DATABASE_URL", ""),
		SessionSecret:    getenv("SESSION_SECRET", "secret_key_change_me"),
		ScopeJWTSecret:   getenv("SCOPE_JWT_SECRET", "atfinder-dev-secret"),
		DefaultTenantID:  getenv("DEFAULT_TENANT_ID", "demo-tenant"),
		DefaultProjectID: getenv("DEFAULT_PROJECT_ID", "demo-project"),
		ModeratorKeyHash: getenv("MODERATOR_KEY_HASH", ""),
		SiteURL:          getenv("SITE_URL", "http://localhost:8080"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
