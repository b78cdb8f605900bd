package main

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"atfinder/internal/config"
	"atfinder/internal/db"
	"atfinder/internal/logger"
	"atfinder/internal/router"
	"atfinder/internal/services"
	"atfinder/internal/store"
	"atfinder/internal/utils"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, finding env vars from system")
	}

	level, err := zerolog.ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger.Configure(level)

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	// Initialize Database
	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	db.ApplyPolicies(gdb)

	st := store.New(gdb)

	// 详情页短缓存
	cache, err := utils.NewCache(2048)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create cache")
	}

	// 初始化异步计数对账服务
	rec := services.NewReconciler(gdb)
	rec.Start()

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("atfinder_session", sessionStore))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	r.HTMLRender = loadTemplates("./web/templates")

	// Static Assets
	r.Static("/static", "./web/static")

	router.RegisterRoutes(r, cfg, st, cache, rec)

	log.Info().Str("port", cfg.Port).Str("site", cfg.SiteURL).Msg("AtFinder server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	// Helper to assemble files
	assemble := func(view string) []string {
		files := make([]string, 0)
		files = append(files, layouts...)
		files = append(files, view)
		return files
	}

	// FuncMap
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t interface{}) string {
			var timeVal time.Time
			switch v := t.(type) {
			case time.Time:
				timeVal = v
			default:
				return ""
			}

			duration := time.Since(timeVal)
			seconds := int(duration.Seconds())

			if seconds < 60 {
				return fmt.Sprintf("%ds ago", seconds)
			} else if seconds < 3600 {
				return fmt.Sprintf("%dm ago", seconds/60)
			} else if seconds < 86400 {
				return fmt.Sprintf("%dh ago", seconds/3600)
			} else if seconds < 2592000 {
				return fmt.Sprintf("%dd ago", seconds/86400)
			} else if seconds < 31536000 {
				return fmt.Sprintf("%dmo ago", seconds/2592000)
			}
			return fmt.Sprintf("%dy ago", seconds/31536000)
		},
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"markdown": utils.RenderMarkdown,
	}

	// Manual registration to ensure keys match handler expectation
	// 列表页把 items 片段一并编进模板集，首屏直接内联
	listFiles := append(assemble(templatesDir+"/views/feed/list.html"), templatesDir+"/views/feed/items.html")
	r.AddFromFilesFuncs("feed/list.html", funcMap, listFiles...)
	r.AddFromFilesFuncs("feed/detail.html", funcMap, assemble(templatesDir+"/views/feed/detail.html")...)
	r.AddFromFilesFuncs("feed/create.html", funcMap, assemble(templatesDir+"/views/feed/create.html")...)
	r.AddFromFilesFuncs("error.html", funcMap, assemble(templatesDir+"/views/error.html")...)

	// 局部片段不套布局，HTMX 直接替换
	r.AddFromFilesFuncs("feed/items.html", funcMap, templatesDir+"/views/feed/items.html")
	r.AddFromFilesFuncs("feed/overlay.html", funcMap, templatesDir+"/views/feed/overlay.html")

	return r
}
