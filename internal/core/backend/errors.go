package backend

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"perfect-recipe/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// 後端錯誤內容中的特殊鍵
const (
	keyDetail         = "detail"
	keyError          = "error"
	keyNonFieldErrors = "non_field_errors"
)

// classify 將非 2xx、非 401 的回應轉為錯誤分類
func classify(resp *resty.Response, call Call) *common.CustomError {
	status := resp.StatusCode()
	body := parseErrorBody(resp.Body())

	switch {
	case status == http.StatusBadRequest:
		fields := fieldErrors(body)
		msg := firstMessage(body)
		if msg == "" && len(fields) > 0 {
			msg = joinFields(fields)
		}
		if msg == "" {
			msg = common.ErrValidation.Message
		}
		return common.NewFieldError(common.ErrCodeValidation, msg, http.StatusBadRequest, fields)

	case status == http.StatusForbidden:
		msg := firstMessage(body)
		if msg == "" {
			msg = call.Forbidden
		}
		if msg == "" {
			msg = common.ErrForbidden.Message
		}
		return common.NewError(common.ErrCodeForbidden, msg, http.StatusForbidden, nil)

	case status == http.StatusNotFound:
		msg := firstMessage(body)
		if msg == "" {
			msg = common.ErrNotFound.Message
		}
		return common.NewError(common.ErrCodeNotFound, msg, http.StatusNotFound, nil)

	case status == http.StatusTooManyRequests:
		return common.ErrTooManyRequests.Wrap(fmt.Errorf("%s: backend throttled", call.Name))

	case status >= 500:
		return common.NewError(common.ErrCodeServerError,
			fmt.Sprintf("Server error (%d). Please try again.", status),
			http.StatusBadGateway,
			fmt.Errorf("%s: backend returned %d", call.Name, status))

	default:
		msg := firstMessage(body)
		if msg == "" {
			msg = common.ErrInvalidRequest.Message
		}
		return common.NewError(common.ErrCodeInvalidRequest, msg, http.StatusBadRequest,
			fmt.Errorf("%s: backend returned %d", call.Name, status))
	}
}

// parseErrorBody 解析錯誤內容；不是 JSON 物件時回傳 nil
func parseErrorBody(data []byte) map[string]interface{} {
	if len(data) == 0 {
		return nil
	}
	var body map[string]interface{}
	if err := common.ParseJSONBytes(data, &body); err != nil {
		return nil
	}
	return body
}

// firstMessage 依序取 detail、error、non_field_errors 的第一則訊息
func firstMessage(body map[string]interface{}) string {
	if body == nil {
		return ""
	}
	for _, key := range []string{keyDetail, keyError, keyNonFieldErrors} {
		if msg := messageOf(body[key]); msg != "" {
			return msg
		}
	}
	return ""
}

// fieldErrors 將 {"field": ["msg", ...]} 轉為每欄位一則訊息
func fieldErrors(body map[string]interface{}) map[string]string {
	if body == nil {
		return nil
	}
	fields := map[string]string{}
	for key, value := range body {
		if key == keyDetail || key == keyError || key == keyNonFieldErrors {
			continue
		}
		if msg := messageOf(value); msg != "" {
			fields[key] = msg
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// messageOf 取字串本身或陣列的第一個元素
func messageOf(v interface{}) string {
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if msg := strings.TrimSpace(messageOf(item)); msg != "" {
				return msg
			}
		}
		return ""
	default:
		return strings.TrimSpace(common.Stringify(t))
	}
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
