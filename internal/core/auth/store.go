package auth

import (
	"context"
	"sync"
)

// 憑證在持久儲存中的固定鍵名
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// Store 憑證提供者
// 存取憑證只能由刷新流程或登入寫入；讀取端每次呼叫都要重新讀取，不可快取舊值。
// 不存在的憑證以空字串表示，不視為錯誤。
type Store interface {
	// Access 讀取目前的存取憑證
	Access(ctx context.Context) (string, error)

	// Refresh 讀取刷新憑證
	Refresh(ctx context.Context) (string, error)

	// SetAccess 寫入新的存取憑證
	SetAccess(ctx context.Context, token string) error

	// Save 同時寫入存取與刷新憑證（登入）
	Save(ctx context.Context, access, refresh string) error

	// Clear 清除全部憑證（登出）
	Clear(ctx context.Context) error

	// Close 關閉底層連線
	Close() error
}

// MemoryStore 以記憶體保存憑證
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

// NewMemoryStore 創建記憶體憑證儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Access(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, nil
}

func (s *MemoryStore) Refresh(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh, nil
}

func (s *MemoryStore) SetAccess(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = token
	return nil
}

func (s *MemoryStore) Save(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
