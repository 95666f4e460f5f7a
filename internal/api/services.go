package api

import (
	"perfect-recipe/internal/core/auth"
	"perfect-recipe/internal/core/backend"
	"perfect-recipe/internal/core/cache"
	"perfect-recipe/internal/core/mealplan"
	"perfect-recipe/internal/core/media"
	"perfect-recipe/internal/core/recipe"
	"perfect-recipe/internal/infrastructure/config"
)

// Services 路由使用的服務
type Services struct {
	Store   auth.Store
	Client  *backend.Client
	Recipes *recipe.Service
	Media   *media.Service
	Plans   *mealplan.Holder
	Cache   *cache.CacheManager
}

// NewServices 以憑證儲存與快取建立全部服務
// 後端判定工作階段失效時，規劃工作階段隨之重置
func NewServices(cfg *config.Config, store auth.Store, cacheManager *cache.CacheManager) *Services {
	client := backend.NewClient(cfg.Backend, store)
	holder := mealplan.NewHolder(mealplan.NewService(client, cacheManager))
	client.OnSessionExpired(holder.OnSessionExpired)

	return &Services{
		Store:   store,
		Client:  client,
		Recipes: recipe.NewService(client),
		Media:   media.NewService(cfg.Media.MaxImageBytes, cfg.Media.MaxVideoBytes),
		Plans:   holder,
		Cache:   cacheManager,
	}
}
