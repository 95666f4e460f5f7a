package recipe

import (
	"net/http"
	"sort"
	"strings"

	"perfect-recipe/internal/api/handlers"
	"perfect-recipe/internal/core/media"
	recipeService "perfect-recipe/internal/core/recipe"
	"perfect-recipe/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ValidateResponse 草稿檢查結果
type ValidateResponse struct {
	Valid       bool                           `json:"valid"`
	Errors      recipeService.ValidationErrors `json:"errors"`
	Dropped     map[string][]int               `json:"dropped"`
	Ingredients []recipeService.Ingredient     `json:"ingredients"`
	Steps       []recipeService.Step           `json:"steps"`
	Tips        []recipeService.Tip            `json:"tips"`
	Fields      map[string]string              `json:"fields,omitempty"` // 將送出的欄位
	Files       []string                       `json:"files,omitempty"`
	Preview     map[string]string              `json:"preview,omitempty"` // 附件的 data URL 預覽
}

// Handler 食譜處理器
type Handler struct {
	svc   *recipeService.Service
	media *media.Service
}

// NewHandler 創建食譜處理器
func NewHandler(svc *recipeService.Service, mediaSvc *media.Service) *Handler {
	return &Handler{
		svc:   svc,
		media: mediaSvc,
	}
}

// Validate 正規化並檢查草稿，不送出
func (h *Handler) Validate(c *gin.Context) {
	d, err := h.readDraft(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	prepared, err := recipeService.Prepare(d)
	if err != nil && !common.IsValidationError(err) {
		handlers.RespondError(c, err)
		return
	}

	resp := ValidateResponse{
		Valid:  err == nil,
		Errors: prepared.Errors,
		Dropped: map[string][]int{
			string(recipeService.SectionIngredients): nonNil(prepared.Ingredients.Dropped),
			string(recipeService.SectionSteps):       nonNil(prepared.Steps.Dropped),
			string(recipeService.SectionTips):        nonNil(prepared.Tips.Dropped),
		},
		Ingredients: prepared.Ingredients.Entries,
		Steps:       prepared.Steps.Entries,
		Tips:        prepared.Tips.Entries,
	}
	if resp.Errors == nil {
		resp.Errors = recipeService.ValidationErrors{}
	}

	if p := prepared.Payload; p != nil {
		resp.Fields = p.Fields
		resp.Preview = make(map[string]string, len(p.Files))
		for name, file := range p.Files {
			resp.Files = append(resp.Files, name)
			resp.Preview[name] = media.PreviewURL(file)
		}
		sort.Strings(resp.Files)
	}

	c.JSON(http.StatusOK, resp)
}

// Create 送出新食譜
func (h *Handler) Create(c *gin.Context) {
	d, err := h.readDraft(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	d.Slug = ""

	h.submit(c, d, http.StatusCreated)
}

// Update 更新既有食譜
func (h *Handler) Update(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		handlers.RespondError(c, common.ErrInvalidRequest)
		return
	}

	d, err := h.readDraft(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	d.Slug = slug

	h.submit(c, d, http.StatusOK)
}

func (h *Handler) submit(c *gin.Context, d *recipeService.Draft, status int) {
	result, err := h.svc.Submit(c.Request.Context(), d)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("食譜已送出",
		zap.String("draft_id", d.ID),
		zap.String("slug", result.Slug),
		zap.Bool("created", result.Created),
	)
	c.JSON(status, result)
}

// Draft 載入既有食譜作為編輯草稿
func (h *Handler) Draft(c *gin.Context) {
	d, err := h.svc.Load(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func nonNil(indices []int) []int {
	if indices == nil {
		return []int{}
	}
	return indices
}
