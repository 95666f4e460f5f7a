package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"perfect-recipe/internal/core/auth"
	"perfect-recipe/internal/core/cache"
	"perfect-recipe/internal/infrastructure/config"
	"perfect-recipe/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status          string                 `json:"status"`
	Timestamp       time.Time              `json:"timestamp"`
	Version         string                 `json:"version"`
	Backend         string                 `json:"backend"`
	CredentialStore string                 `json:"credential_store"`
	Runtime         map[string]interface{} `json:"runtime"`
	Cache           map[string]interface{} `json:"cache"`
}

// Handler 健康檢查處理器
type Handler struct {
	cfg   *config.Config
	store auth.Store
	cache *cache.CacheManager
}

// NewHandler 創建健康檢查處理器；cacheManager 可為 nil
func NewHandler(cfg *config.Config, store auth.Store, cacheManager *cache.CacheManager) *Handler {
	return &Handler{
		cfg:   cfg,
		store: store,
		cache: cacheManager,
	}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:          "ok",
		Timestamp:       time.Now(),
		Version:         h.cfg.App.Version,
		Backend:         h.cfg.Backend.BaseURL,
		CredentialStore: h.cfg.Credentials.Store,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Cache: h.cache.GetStats(),
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：憑證儲存必須可讀
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if _, err := h.store.Access(ctx); err != nil {
		common.LogWarn("Credential store not ready", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "credential store unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
