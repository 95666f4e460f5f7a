package mealplan

import (
	"context"
	"fmt"
	"net/http"

	"perfect-recipe/internal/core/backend"
	"perfect-recipe/internal/core/cache"
	"perfect-recipe/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	mealPlansPath   = "/api/meal-plans/"
	currentPlanPath = "/api/meal-plans/current/"
	entriesPath     = "/api/meal-plans/entries/%d/"
	shoppingPath    = "/api/meal-plans/%d/shopping-list/"
)

// Service 餐點計畫後端服務
type Service struct {
	client *backend.Client
	cache  *cache.CacheManager
}

// NewService 創建新的餐點計畫服務；cacheManager 可為 nil
func NewService(client *backend.Client, cacheManager *cache.CacheManager) *Service {
	return &Service{
		client: client,
		cache:  cacheManager,
	}
}

// Current 取得目前的計畫；尚未建立計畫時回傳 nil, nil
func (s *Service) Current(ctx context.Context) (*MealPlan, error) {
	call := backend.Call{Name: "mealplan.current", Method: http.MethodGet, Path: currentPlanPath}

	resp, err := s.client.Do(ctx, call, func(req *resty.Request) (*resty.Response, error) {
		return req.Get(call.Path)
	})
	if err != nil {
		if common.HasCode(err, common.ErrCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return decodePlan(resp.Body())
}

// Generate 依偏好產生新計畫
func (s *Service) Generate(ctx context.Context, prefs Preferences) (*MealPlan, error) {
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	call := backend.Call{Name: "mealplan.generate", Method: http.MethodPost, Path: mealPlansPath}
	resp, err := s.client.Do(ctx, call, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]interface{}{"preferences": prefs}).
			Post(call.Path)
	})
	if err != nil {
		return nil, err
	}

	plan, err := decodePlan(resp.Body())
	if err != nil {
		return nil, err
	}

	common.LogInfo("Meal plan generated",
		zap.Int64("plan_id", plan.ID),
		zap.Int("entries", len(plan.Entries)),
		zap.Int("num_days", prefs.NumDays),
	)
	return plan, nil
}

// ShoppingList 取得計畫的購物清單；有快取時優先使用
func (s *Service) ShoppingList(ctx context.Context, planID int64) (*ShoppingList, error) {
	list, cached, err := s.loadShoppingList(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !cached {
		s.cacheShoppingList(ctx, planID, list)
	}
	return list, nil
}

// loadShoppingList 先查快取再向後端取得；不寫入快取，由呼叫端決定
func (s *Service) loadShoppingList(ctx context.Context, planID int64) (*ShoppingList, bool, error) {
	key := shoppingListKey(planID)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var list ShoppingList
		if err := common.ParseJSON(cached, &list); err == nil {
			common.LogCacheHit("shopping_list", key)
			return &list, true, nil
		}
		s.cache.Delete(ctx, key)
	}
	common.LogCacheMiss("shopping_list", key)

	call := backend.Call{Name: "mealplan.shopping_list", Method: http.MethodGet, Path: fmt.Sprintf(shoppingPath, planID)}
	resp, err := s.client.Do(ctx, call, func(req *resty.Request) (*resty.Response, error) {
		return req.Get(call.Path)
	})
	if err != nil {
		return nil, false, err
	}

	var list ShoppingList
	if err := common.ParseJSONBytes(resp.Body(), &list); err != nil {
		return nil, false, common.ErrServerError.Wrap(fmt.Errorf("invalid shopping list body: %w", err))
	}
	if list.Ingredients == nil {
		list.Ingredients = []string{}
	}
	return &list, false, nil
}

func (s *Service) cacheShoppingList(ctx context.Context, planID int64, list *ShoppingList) {
	data, err := common.ToJSON(list)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, shoppingListKey(planID), data); err != nil && !common.HasCode(err, common.ErrCacheDisabled.Code) {
		common.LogWarn("Failed to cache shopping list", zap.Int64("plan_id", planID), zap.Error(err))
	}
}

// InvalidateShoppingList 清除計畫的購物清單快取
func (s *Service) InvalidateShoppingList(ctx context.Context, planID int64) {
	s.cache.Delete(ctx, shoppingListKey(planID))
}

// UpdateEntry 更新餐點項目
// 後端不支援部分更新，未變動的日期與食譜也要一併送出
func (s *Service) UpdateEntry(ctx context.Context, entry Entry) (*Entry, error) {
	call := backend.Call{Name: "mealplan.update_entry", Method: http.MethodPut, Path: fmt.Sprintf(entriesPath, entry.ID)}

	body := map[string]interface{}{
		"meal_type": entry.MealType,
		"recipe_id": entry.Recipe.ID,
		"date":      entry.Date,
	}
	resp, err := s.client.Do(ctx, call, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Put(call.Path)
	})
	if err != nil {
		return nil, err
	}

	// 後端回傳更新後的項目時以其為準
	var updated Entry
	if err := common.ParseJSONBytes(resp.Body(), &updated); err == nil && updated.ID == entry.ID {
		if updated.Recipe.ID == 0 {
			updated.Recipe = entry.Recipe
		}
		if updated.Date == "" {
			updated.Date = entry.Date
		}
		return &updated, nil
	}
	return &entry, nil
}

// DeleteEntry 刪除餐點項目；項目已不存在也視為成功
func (s *Service) DeleteEntry(ctx context.Context, entryID int64) error {
	call := backend.Call{Name: "mealplan.delete_entry", Method: http.MethodDelete, Path: fmt.Sprintf(entriesPath, entryID)}

	_, err := s.client.Do(ctx, call, func(req *resty.Request) (*resty.Response, error) {
		return req.Delete(call.Path)
	})
	if err != nil && !common.HasCode(err, common.ErrCodeNotFound) {
		return err
	}
	return nil
}

func decodePlan(body []byte) (*MealPlan, error) {
	var plan MealPlan
	if err := common.ParseJSONBytes(body, &plan); err != nil {
		return nil, common.ErrServerError.Wrap(fmt.Errorf("invalid meal plan body: %w", err))
	}
	if plan.Entries == nil {
		plan.Entries = []Entry{}
	}
	return &plan, nil
}

func shoppingListKey(planID int64) string {
	return fmt.Sprintf("shopping-list:%d", planID)
}
