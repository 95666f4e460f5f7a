package handlers

import (
	"errors"
	"net/http"

	"perfect-recipe/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 將錯誤轉成 {code, message, fields?, redirect?} 回應
// 非 CustomError 一律視為內部錯誤，不外洩原始訊息
func RespondError(c *gin.Context, err error) {
	ce, ok := common.AsCustomError(err)
	if !ok {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ce = common.ErrPayloadTooLarge.Wrap(err)
		} else {
			ce = common.ErrInternalError.Wrap(err)
		}
	}

	status := ce.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		common.LogError("Request failed",
			zap.String("code", ce.Code),
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ce.ToResponse())
}

// BindJSON 解析 JSON 請求體，失敗時回傳 INVALID_REQUEST
func BindJSON(c *gin.Context, v interface{}) error {
	if err := common.DecodeJSON(c.Request.Body, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.ErrPayloadTooLarge.Wrap(err)
		}
		return common.ErrInvalidRequest.Wrap(err)
	}
	return nil
}
