package session

import (
	"net/http"
	"strings"
	"time"

	"perfect-recipe/internal/api/handlers"
	"perfect-recipe/internal/core/auth"
	"perfect-recipe/internal/core/backend"
	"perfect-recipe/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoginRequest 登入後取得的憑證
type LoginRequest struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// StatusResponse 目前的登入狀態
type StatusResponse struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"user_id,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// Handler 工作階段處理器
type Handler struct {
	client  *backend.Client
	onReset func()
}

// NewHandler 創建工作階段處理器；onReset 在登入與登出時呼叫
func NewHandler(client *backend.Client, onReset func()) *Handler {
	return &Handler{
		client:  client,
		onReset: onReset,
	}
}

// Login 儲存憑證
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err)
		return
	}

	req.Access = strings.TrimSpace(req.Access)
	req.Refresh = strings.TrimSpace(req.Refresh)
	if req.Access == "" {
		handlers.RespondError(c, common.NewFieldError(common.ErrCodeValidation, common.ErrValidation.Message,
			http.StatusBadRequest, map[string]string{"access": "Access token is required"}))
		return
	}

	ctx := c.Request.Context()
	if err := h.client.Login(ctx, req.Access, req.Refresh); err != nil {
		handlers.RespondError(c, common.ErrInternalError.Wrap(err))
		return
	}
	if h.onReset != nil {
		h.onReset()
	}

	common.LogInfo("Credentials stored", zap.Bool("has_refresh", req.Refresh != ""))
	c.JSON(http.StatusOK, status(req.Access, req.Refresh))
}

// Status 查詢登入狀態
func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	store := h.client.Store()

	access, err := store.Access(ctx)
	if err != nil {
		handlers.RespondError(c, common.ErrInternalError.Wrap(err))
		return
	}
	refresh, err := store.Refresh(ctx)
	if err != nil {
		handlers.RespondError(c, common.ErrInternalError.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, status(access, refresh))
}

// Logout 清除憑證並結束規劃工作階段
func (h *Handler) Logout(c *gin.Context) {
	h.client.Logout(c.Request.Context())
	if h.onReset != nil {
		h.onReset()
	}
	c.Status(http.StatusNoContent)
}

// status 有刷新憑證時即使存取憑證已過期也算登入中
func status(access, refresh string) StatusResponse {
	resp := StatusResponse{Authenticated: access != "" || refresh != ""}
	if exp, ok := auth.Expiry(access); ok {
		resp.ExpiresAt = &exp
	}
	if id, err := auth.UserID(access); err == nil {
		resp.UserID = id
	}
	return resp
}
