package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"perfect-recipe/internal/api"
	"perfect-recipe/internal/core/auth"
	"perfect-recipe/internal/core/cache"
	"perfect-recipe/internal/infrastructure/config"
	"perfect-recipe/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("backend_base_url", cfg.Backend.BaseURL),
		zap.String("auth_scheme", cfg.Backend.AuthScheme),
		zap.String("credential_store", cfg.Credentials.Store),
	)

	// 初始化憑證儲存
	store, err := openStore(cfg.Credentials)
	if err != nil {
		common.LogFatal("Failed to open credential store", zap.Error(err))
	}
	defer store.Close()

	// 初始化快取；停用時為 nil
	cacheManager := cache.NewManager(cfg.Cache)
	defer cacheManager.Close()

	// 設置路由
	router, err := api.SetupRouter(cfg, api.NewServices(cfg, store, cacheManager))
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("name", cfg.App.Name),
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}

// openStore 依設定選擇憑證儲存
func openStore(cfg config.CredentialsConfig) (auth.Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return auth.NewRedisStore(ctx, cfg)
	case config.StoreSQLite:
		return auth.NewSQLiteStore(cfg.SQLitePath)
	case config.StoreMemory, "":
		return auth.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.Store)
	}
}
