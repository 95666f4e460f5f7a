package mealplan

import (
	"context"
	"net/http"
	"strconv"

	"perfect-recipe/internal/api/handlers"
	"perfect-recipe/internal/core/mealplan"
	"perfect-recipe/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// PlanResponse 計畫與依日期的分組；沒有計畫時 plan 為 null
type PlanResponse struct {
	Plan   *mealplan.MealPlan  `json:"plan"`
	Groups []mealplan.DayGroup `json:"groups"`
}

// EditEntryRequest 變更餐點項目
type EditEntryRequest struct {
	MealType string `json:"meal_type"`
}

// Handler 餐點計畫處理器
type Handler struct {
	holder *mealplan.Holder
}

// NewHandler 創建餐點計畫處理器
func NewHandler(holder *mealplan.Holder) *Handler {
	return &Handler{holder: holder}
}

// Current 目前的計畫
func (h *Handler) Current(c *gin.Context) {
	s := h.holder.Session()
	if _, err := s.Load(c.Request.Context()); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, planResponse(s))
}

// Generate 依偏好產生新計畫
func (h *Handler) Generate(c *gin.Context) {
	prefs := mealplan.DefaultPreferences()
	if c.Request.ContentLength != 0 {
		if err := handlers.BindJSON(c, &prefs); err != nil {
			handlers.RespondError(c, err)
			return
		}
	}

	s := h.holder.Session()
	if _, err := s.Generate(c.Request.Context(), prefs); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, planResponse(s))
}

// ShoppingList 目前計畫的購物清單
func (h *Handler) ShoppingList(c *gin.Context) {
	s, err := h.loaded(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	list, err := s.ShoppingList(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// EditEntry 變更餐點項目的餐別
func (h *Handler) EditEntry(c *gin.Context) {
	id, err := entryID(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	var req EditEntryRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err)
		return
	}

	s, err := h.loaded(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	entry, err := s.EditEntry(c.Request.Context(), id, req.MealType)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entry":  entry,
		"groups": s.Groups(),
	})
}

// DeleteEntry 刪除餐點項目
func (h *Handler) DeleteEntry(c *gin.Context) {
	id, err := entryID(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	s, err := h.loaded(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	if err := s.DeleteEntry(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, planResponse(s))
}

// loaded 取得已載入計畫的工作階段；尚未載入時先向後端取得
func (h *Handler) loaded(ctx context.Context) (*mealplan.Session, error) {
	s := h.holder.Session()
	if s.Plan() == nil {
		if _, err := s.Load(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func entryID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewFieldError(common.ErrCodeInvalidRequest, common.ErrInvalidRequest.Message,
			http.StatusBadRequest, map[string]string{"id": "Entry id must be a positive integer"})
	}
	return id, nil
}

func planResponse(s *mealplan.Session) PlanResponse {
	return PlanResponse{
		Plan:   s.Plan(),
		Groups: s.Groups(),
	}
}
