package common

import (
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// ShortID 截取 ID 前 8 碼（用於日誌）
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
