package api

import (
	"fmt"
	"net/http"
	"time"

	"perfect-recipe/internal/api/handlers/health"
	mealplanHandler "perfect-recipe/internal/api/handlers/mealplan"
	recipeHandler "perfect-recipe/internal/api/handlers/recipe"
	sessionHandler "perfect-recipe/internal/api/handlers/session"
	"perfect-recipe/internal/api/middleware"
	"perfect-recipe/internal/infrastructure/config"
	"perfect-recipe/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 120 * time.Second
	// 附件之外的表單欄位空間 (1MB)
	formOverhead = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc *Services) (*gin.Engine, error) {
	if svc == nil || svc.Client == nil || svc.Recipes == nil || svc.Plans == nil {
		return nil, fmt.Errorf("services are not initialized")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件；requestid 需在 Logger 之前
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(corsConfig(cfg.Server.AllowOrigins)))

	// 請求體大小限制：圖片與影片可同時上傳
	maxBodySize := cfg.Media.MaxImageBytes + cfg.Media.MaxVideoBytes + formOverhead
	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled && cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window > 0 {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	router.Use(middleware.RequestContext(timeoutDuration))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrNotFound.ToResponse())
	})

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, svc.Store, svc.Cache)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// 送出類請求去重，避免連點造成重複建立
	dedup := middleware.NewDeduplicator(cfg.DedupWindow).Handler()

	api := router.Group("/api/v1")
	{
		sessions := sessionHandler.NewHandler(svc.Client, svc.Plans.Reset)
		sessionGroup := api.Group("/session")
		{
			sessionGroup.POST("", sessions.Login)
			sessionGroup.GET("", sessions.Status)
			sessionGroup.DELETE("", sessions.Logout)
		}

		recipes := recipeHandler.NewHandler(svc.Recipes, svc.Media)
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.POST("/validate", recipes.Validate)
			recipeGroup.POST("", dedup, recipes.Create)
			recipeGroup.GET("/:slug/draft", recipes.Draft)
			recipeGroup.PATCH("/:slug", dedup, recipes.Update)
		}

		plans := mealplanHandler.NewHandler(svc.Plans)
		planGroup := api.Group("/meal-plans")
		{
			planGroup.GET("/current", plans.Current)
			planGroup.POST("", dedup, plans.Generate)
			planGroup.GET("/shopping-list", plans.ShoppingList)
			planGroup.PUT("/entries/:id", plans.EditEntry)
			planGroup.DELETE("/entries/:id", plans.DeleteEntry)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("credential_store", cfg.Credentials.Store),
		zap.Bool("cache_enabled", svc.Cache != nil),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}

// corsConfig 未設定來源時允許全部來源，但不帶憑證
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}
