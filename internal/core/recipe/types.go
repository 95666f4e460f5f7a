package recipe

import (
	"perfect-recipe/internal/pkg/common"
)

// Difficulty 難度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
	DifficultyExpert Difficulty = "Expert"
)

// Difficulties 可選難度（依顯示順序）
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}

// Valid 是否為已知難度
func (d Difficulty) Valid() bool {
	for _, known := range Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

// Recipe 後端回傳的食譜明細（編輯時載入）
type Recipe struct {
	ID              interface{}   `json:"id"`
	Slug            string        `json:"slug"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Image           string        `json:"image"`
	Video           string        `json:"video"`
	PreparationTime int           `json:"preparation_time"`
	CookingTime     int           `json:"cooking_time"`
	Servings        int           `json:"servings"`
	Difficulty      string        `json:"difficulty"`
	Calories        *int          `json:"calories"`
	Category        interface{}   `json:"category"` // 字串或 {id,name,slug}
	Ingredients     []RawEntry    `json:"ingredients"`
	Steps           []RawEntry    `json:"steps"`
	Tips            []RawEntry    `json:"tips"`
	Tags            []interface{} `json:"tags"` // 字串或 {id,name,slug}
}

// Result 送出成功後後端指定的識別資訊
type Result struct {
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Created bool   `json:"created"`
}

// nameOf 取出字串值或物件的 name 欄位
func nameOf(v interface{}) string {
	if obj, ok := v.(map[string]interface{}); ok {
		return common.Stringify(obj["name"])
	}
	return common.Stringify(v)
}
