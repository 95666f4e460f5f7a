package mealplan

import (
	"context"
	"sync"

	"perfect-recipe/internal/pkg/common"
)

// Holder 持有目前的規劃工作階段
// 登出或工作階段失效時以 Reset 換成新的，舊的隨即關閉
type Holder struct {
	svc *Service

	mu      sync.Mutex
	current *Session
}

// NewHolder 創建工作階段持有者
func NewHolder(svc *Service) *Holder {
	return &Holder{
		svc:     svc,
		current: NewSession(svc),
	}
}

// Session 目前的工作階段
func (h *Holder) Session() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Reset 關閉目前的工作階段並換上新的
func (h *Holder) Reset() {
	h.mu.Lock()
	old := h.current
	h.current = NewSession(h.svc)
	h.mu.Unlock()

	old.Close()
	common.LogInfo("Planning session reset")
}

// OnSessionExpired 可直接註冊為 backend.Client 的失效通知
func (h *Holder) OnSessionExpired(ctx context.Context) {
	h.Reset()
}
