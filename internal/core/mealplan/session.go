package mealplan

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"perfect-recipe/internal/pkg/common"

	"go.uber.org/zap"
)

// Session 單一規劃頁面持有的計畫狀態
// 網路呼叫期間不持有鎖；Close 之後抵達的回應一律捨棄並回傳 SESSION_CLOSED
type Session struct {
	svc *Service

	mu      sync.Mutex
	plan    *MealPlan
	list    *ShoppingList
	stale   bool // 計畫被修改後，購物清單需重新取得
	version int  // 計畫每次替換或修改都遞增
	closed  bool
}

// NewSession 創建規劃工作階段
func NewSession(svc *Service) *Session {
	return &Session{
		svc:   svc,
		stale: true,
	}
}

// Load 載入目前的計畫；沒有計畫時回傳 nil, nil
func (s *Session) Load(ctx context.Context) (*MealPlan, error) {
	plan, err := s.svc.Current(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.replacePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Generate 產生新計畫並取代目前的計畫
func (s *Session) Generate(ctx context.Context, prefs Preferences) (*MealPlan, error) {
	plan, err := s.svc.Generate(ctx, prefs)
	if err != nil {
		return nil, err
	}
	if err := s.replacePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Session) replacePlan(plan *MealPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return common.ErrSessionClosed
	}
	s.plan = plan
	s.list = nil
	s.stale = true
	s.version++
	return nil
}

// Plan 目前計畫的複本
func (s *Session) Plan() *MealPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return nil
	}
	cp := *s.plan
	cp.Entries = append([]Entry(nil), s.plan.Entries...)
	return &cp
}

// Groups 依日期分組的目前計畫
func (s *Session) Groups() []DayGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return []DayGroup{}
	}
	return GroupByDate(s.plan.Entries)
}

// Stale 購物清單是否需要重新取得
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// lookup 找出項目與所屬計畫 ID
func (s *Session) lookup(entryID int64) (Entry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Entry{}, 0, common.ErrSessionClosed
	}
	if s.plan == nil {
		return Entry{}, 0, common.ErrNotFound.Wrap(fmt.Errorf("no meal plan loaded"))
	}
	for _, e := range s.plan.Entries {
		if e.ID == entryID {
			return e, s.plan.ID, nil
		}
	}
	return Entry{}, 0, common.ErrNotFound.Wrap(fmt.Errorf("entry %d not in plan", entryID))
}

// EditEntry 變更餐點項目的餐別，其餘欄位維持原值
func (s *Session) EditEntry(ctx context.Context, entryID int64, mealType string) (*Entry, error) {
	if mealType == "" || !IsValidMealType(mealType) {
		return nil, common.NewFieldError(common.ErrCodeValidation, common.ErrValidation.Message, http.StatusBadRequest,
			map[string]string{"meal_type": "Choose one of Breakfast, Lunch, Dinner or Snack"})
	}

	entry, planID, err := s.lookup(entryID)
	if err != nil {
		return nil, err
	}
	entry.MealType = mealType

	updated, err := s.svc.UpdateEntry(ctx, entry)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, common.ErrSessionClosed
	}
	if s.plan != nil && s.plan.ID == planID {
		for i := range s.plan.Entries {
			if s.plan.Entries[i].ID == entryID {
				s.plan.Entries[i] = *updated
				break
			}
		}
	}
	s.markStale(ctx, planID)
	return updated, nil
}

// DeleteEntry 刪除餐點項目並自本地計畫移除
func (s *Session) DeleteEntry(ctx context.Context, entryID int64) error {
	_, planID, err := s.lookup(entryID)
	if err != nil {
		return err
	}

	if err := s.svc.DeleteEntry(ctx, entryID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return common.ErrSessionClosed
	}
	if s.plan != nil && s.plan.ID == planID {
		kept := s.plan.Entries[:0]
		for _, e := range s.plan.Entries {
			if e.ID != entryID {
				kept = append(kept, e)
			}
		}
		s.plan.Entries = kept
	}
	s.markStale(ctx, planID)
	return nil
}

// markStale 呼叫端須持有鎖
func (s *Session) markStale(ctx context.Context, planID int64) {
	s.stale = true
	s.list = nil
	s.version++
	s.svc.InvalidateShoppingList(ctx, planID)
	common.LogDebug("Shopping list marked stale", zap.Int64("plan_id", planID))
}

// ShoppingList 目前計畫的購物清單；計畫被修改過時重新取得
func (s *Session) ShoppingList(ctx context.Context) (*ShoppingList, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, common.ErrSessionClosed
	}
	if s.plan == nil {
		s.mu.Unlock()
		return &ShoppingList{Ingredients: []string{}}, nil
	}
	if !s.stale && s.list != nil {
		list := s.list
		s.mu.Unlock()
		return list, nil
	}
	planID := s.plan.ID
	version := s.version
	s.mu.Unlock()

	list, cached, err := s.svc.loadShoppingList(ctx, planID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, common.ErrSessionClosed
	}
	// 取得期間計畫被替換或修改，這份清單已過期，本地與共用快取都不寫回
	if s.version == version {
		s.list = list
		s.stale = false
		if !cached {
			s.svc.cacheShoppingList(ctx, planID, list)
		}
	}
	return list, nil
}

// Close 結束工作階段；之後抵達的回應都會被捨棄
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.plan = nil
	s.list = nil
}

// Closed 是否已結束
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
