package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expiry 讀取 JWT 的 exp 宣告（不驗證簽章，簽章由後端負責）
// 無法解析或沒有 exp 時回傳 ok=false
func Expiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// ExpiresWithin 判斷憑證是否會在 skew 之內到期
// 非 JWT 的不透明憑證一律視為未到期，由後端 401 決定是否刷新
func ExpiresWithin(token string, skew time.Duration, now time.Time) bool {
	exp, ok := Expiry(token)
	if !ok {
		return false
	}
	return exp.Before(now.Add(skew))
}

// UserID 讀取 JWT 中的 user_id 宣告（登入狀態顯示用）
func UserID(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	switch v := claims["user_id"].(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(v), nil
	}
}
