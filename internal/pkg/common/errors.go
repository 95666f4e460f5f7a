package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code     string            `json:"code"`               // 錯誤代碼
	Message  string            `json:"message"`            // 錯誤信息
	Fields   map[string]string `json:"fields,omitempty"`   // 欄位錯誤
	Redirect string            `json:"redirect,omitempty"` // 需要導向的頁面（如登入頁）
	Details  string            `json:"details,omitempty"`  // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string            // 錯誤代碼
	Message string            // 錯誤信息
	Err     error             // 原始錯誤
	Status  int               // HTTP 狀態碼
	Fields  map[string]string // 依欄位分類的錯誤信息
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 支援 errors.Is / errors.As
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓預定義錯誤可直接用 errors.Is 判斷
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// NewFieldError 創建帶有欄位錯誤的自定義錯誤
func NewFieldError(code string, message string, status int, fields map[string]string) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Fields:  fields,
	}
}

// Wrap 以預定義錯誤為範本，附上原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     err,
		Fields:  e.Fields,
	}
}

// AsCustomError 取出錯誤鏈中的 CustomError
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// HasCode 檢查錯誤鏈中是否有指定代碼的 CustomError
func HasCode(err error, code string) bool {
	ce, ok := AsCustomError(err)
	return ok && ce.Code == code
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	return HasCode(err, ErrCodeValidation)
}

// ToResponse 轉換為 API 錯誤響應
func (e *CustomError) ToResponse() ErrorResponse {
	resp := ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Fields:  e.Fields,
	}
	if e.Code == ErrCodeSessionExpired {
		resp.Redirect = "/login"
	}
	return resp
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest   = "INVALID_REQUEST"    // 400
	ErrCodeValidation       = "VALIDATION_ERROR"   // 400
	ErrCodeUnauthorized     = "UNAUTHORIZED"       // 401
	ErrCodeAuthExpired      = "AUTH_EXPIRED"       // 401
	ErrCodeSessionExpired   = "SESSION_EXPIRED"    // 401
	ErrCodeForbidden        = "FORBIDDEN"          // 403
	ErrCodeNotFound         = "NOT_FOUND"          // 404
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED" // 405
	ErrCodeRequestTimeout   = "REQUEST_TIMEOUT"    // 408
	ErrCodeConflict         = "CONFLICT"           // 409
	ErrCodeSessionClosed    = "SESSION_CLOSED"     // 409
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"  // 413
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"  // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServerError        = "SERVER_ERROR"        // 502
	ErrCodeNetworkError       = "NETWORK_ERROR"       // 503
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest   = NewError(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest, nil)
	ErrValidation       = NewError(ErrCodeValidation, "Please fix the errors in the form", http.StatusBadRequest, nil)
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "Not signed in", http.StatusUnauthorized, nil)
	ErrAuthExpired      = NewError(ErrCodeAuthExpired, "Access token expired", http.StatusUnauthorized, nil)
	ErrSessionExpired   = NewError(ErrCodeSessionExpired, "Your session has expired. Please log in again.", http.StatusUnauthorized, nil)
	ErrForbidden        = NewError(ErrCodeForbidden, "You are not authorized to perform this action.", http.StatusForbidden, nil)
	ErrNotFound         = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound, nil)
	ErrMethodNotAllowed = NewError(ErrCodeMethodNotAllowed, "Method not allowed", http.StatusMethodNotAllowed, nil)
	ErrRequestTimeout   = NewError(ErrCodeRequestTimeout, "Request timeout", http.StatusRequestTimeout, nil)
	ErrConflict         = NewError(ErrCodeConflict, "A submission for this draft is already in progress", http.StatusConflict, nil)
	ErrSessionClosed    = NewError(ErrCodeSessionClosed, "Planning session is closed", http.StatusConflict, nil)
	ErrPayloadTooLarge  = NewError(ErrCodePayloadTooLarge, "Request body too large", http.StatusRequestEntityTooLarge, nil)
	ErrTooManyRequests  = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrServerError        = NewError(ErrCodeServerError, "Server error. Please try again later.", http.StatusBadGateway, nil)
	ErrNetworkError       = NewError(ErrCodeNetworkError, "Network error. Please check your connection and try again.", http.StatusServiceUnavailable, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "Service unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "Gateway timeout", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrInvalidImageFormat = NewError("INVALID_IMAGE_FORMAT", "Invalid image format", http.StatusBadRequest, nil)
	ErrInvalidImageSize   = NewError("INVALID_IMAGE_SIZE", "Image exceeds the size limit", http.StatusBadRequest, nil)
	ErrInvalidVideoType   = NewError("INVALID_VIDEO_TYPE", "Unsupported video type", http.StatusBadRequest, nil)
	ErrInvalidVideoSize   = NewError("INVALID_VIDEO_SIZE", "Video exceeds the size limit", http.StatusBadRequest, nil)
	ErrCacheFull          = NewError("CACHE_FULL", "Cache is full", http.StatusServiceUnavailable, nil)
	ErrCacheDisabled      = NewError("CACHE_DISABLED", "Cache is disabled", http.StatusServiceUnavailable, nil)
	ErrCacheMiss          = NewError("CACHE_MISS", "Cache miss", http.StatusNotFound, nil)
)
