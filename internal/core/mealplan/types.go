package mealplan

import (
	"fmt"
	"net/http"
	"strings"

	"perfect-recipe/internal/pkg/common"
)

// RecipeRef 餐點所引用的食譜
type RecipeRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
}

// Entry 餐點項目
type Entry struct {
	ID       int64     `json:"id"`
	Date     string    `json:"date"`
	MealType string    `json:"meal_type"`
	Recipe   RecipeRef `json:"recipe"`
}

// MealPlan 多日餐點計畫
type MealPlan struct {
	ID        int64   `json:"id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Entries   []Entry `json:"entries"`
}

// ShoppingList 後端依計畫彙整的去重食材清單
type ShoppingList struct {
	Ingredients []string `json:"ingredients"`
}

// 可選餐別
const (
	MealBreakfast = "Breakfast"
	MealLunch     = "Lunch"
	MealDinner    = "Dinner"
	MealSnack     = "Snack"
)

// MealTypes 全部餐別
var MealTypes = []string{MealBreakfast, MealLunch, MealDinner, MealSnack}

// 計畫天數範圍
const (
	DefaultNumDays = 7
	MaxNumDays     = 30
)

// Preferences 產生計畫的偏好
type Preferences struct {
	NumDays        int      `json:"num_days"`
	MealTypes      []string `json:"meal_types"`
	Categories     []string `json:"categories,omitempty"`
	Difficulty     string   `json:"difficulty,omitempty"`
	MaxCookingTime int      `json:"max_cooking_time,omitempty"`
	DietaryNeeds   []string `json:"dietary_needs,omitempty"`
}

// DefaultPreferences 預設偏好：七天、早午晚餐
func DefaultPreferences() Preferences {
	return Preferences{
		NumDays:   DefaultNumDays,
		MealTypes: []string{MealBreakfast, MealLunch, MealDinner},
	}
}

// IsValidMealType 是否為已知餐別
func IsValidMealType(mealType string) bool {
	for _, t := range MealTypes {
		if t == mealType {
			return true
		}
	}
	return false
}

// Validate 檢查偏好；錯誤依欄位回報
func (p Preferences) Validate() error {
	fields := map[string]string{}

	if p.NumDays < 1 || p.NumDays > MaxNumDays {
		fields["num_days"] = fmt.Sprintf("Number of days must be between 1 and %d", MaxNumDays)
	}

	if len(p.MealTypes) == 0 {
		fields["meal_types"] = "Select at least one meal type"
	} else {
		var invalid []string
		for _, t := range p.MealTypes {
			if !IsValidMealType(t) {
				invalid = append(invalid, t)
			}
		}
		if len(invalid) > 0 {
			fields["meal_types"] = "Invalid meal types: " + strings.Join(invalid, ", ")
		}
	}

	if p.MaxCookingTime < 0 {
		fields["max_cooking_time"] = "Maximum cooking time cannot be negative"
	}

	if len(fields) == 0 {
		return nil
	}
	return common.NewFieldError(common.ErrCodeValidation, common.ErrValidation.Message, http.StatusBadRequest, fields)
}
