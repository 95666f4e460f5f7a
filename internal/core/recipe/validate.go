package recipe

import (
	"net/http"
	"strings"

	"perfect-recipe/internal/pkg/common"
)

// ValidationErrors 依欄位分類的錯誤訊息；有任何鍵即不可送出
type ValidationErrors map[string]string

// 欄位錯誤訊息
const (
	msgTitleRequired       = "Title is required"
	msgDescriptionRequired = "Description is required"
	msgCategoryRequired    = "Category is required"
	msgPrepTimeRequired    = "Preparation time must be greater than 0"
	msgCookTimeRequired    = "Cooking time must be greater than 0"
	msgServingsRequired    = "Servings must be greater than 0"
	msgIngredientsRequired = "At least one ingredient with name and amount is required"
	msgStepsRequired       = "At least one step is required"
	msgDifficultyInvalid   = "Difficulty must be one of Easy, Medium, Hard or Expert"
	msgCaloriesInvalid     = "Calories cannot be negative"
)

// Validate 檢查草稿是否可送出
// 每條規則各自檢查，所有違規同時回報
func Validate(d *Draft, ingredients []Ingredient, steps []Step) ValidationErrors {
	errs := ValidationErrors{}

	if strings.TrimSpace(d.Title) == "" {
		errs["title"] = msgTitleRequired
	}
	if strings.TrimSpace(d.Description) == "" {
		errs["description"] = msgDescriptionRequired
	}
	if strings.TrimSpace(d.Category) == "" {
		errs["category"] = msgCategoryRequired
	}
	if d.PreparationTime <= 0 {
		errs["preparation_time"] = msgPrepTimeRequired
	}
	if d.CookingTime <= 0 {
		errs["cooking_time"] = msgCookTimeRequired
	}
	if d.Servings <= 0 {
		errs["servings"] = msgServingsRequired
	}
	if len(ingredients) == 0 {
		errs["ingredients"] = msgIngredientsRequired
	}
	if len(steps) == 0 {
		errs["steps"] = msgStepsRequired
	}

	// 空白難度由組裝時補上預設值
	if d.Difficulty != "" && !d.Difficulty.Valid() {
		errs["difficulty"] = msgDifficultyInvalid
	}
	if d.Calories < 0 {
		errs["calories"] = msgCaloriesInvalid
	}

	return errs
}

// Err 轉為 VALIDATION_ERROR；沒有錯誤時回傳 nil
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return common.NewFieldError(common.ErrCodeValidation, common.ErrValidation.Message, http.StatusBadRequest, map[string]string(v))
}
