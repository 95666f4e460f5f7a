package recipe

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"perfect-recipe/internal/core/media"
)

// 表單欄位名稱
const (
	FieldTitle           = "title"
	FieldDescription     = "description"
	FieldPreparationTime = "preparation_time"
	FieldCookingTime     = "cooking_time"
	FieldServings        = "servings"
	FieldCalories        = "calories"
	FieldDifficulty      = "difficulty"
	FieldCategory        = "category"
	FieldIngredients     = "ingredients"
	FieldSteps           = "steps"
	FieldTips            = "tips"
	FieldTags            = "tags"
	FieldImage           = "image"
	FieldVideo           = "video"
)

// Payload 可直接以 multipart 送出的內容
type Payload struct {
	Fields map[string]string
	Files  map[string]*media.Attachment
}

// Has 是否含有指定欄位（一般欄位或附件）
func (p *Payload) Has(name string) bool {
	if _, ok := p.Fields[name]; ok {
		return true
	}
	_, ok := p.Files[name]
	return ok
}

// FieldNames 已排序的欄位名稱（記錄用）
func (p *Payload) FieldNames() []string {
	names := make([]string, 0, len(p.Fields)+len(p.Files))
	for k := range p.Fields {
		names = append(names, k)
	}
	for k := range p.Files {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// AssemblePayload 組裝送出內容
// 不做任何驗證，只讀取傳入的參數
func AssemblePayload(d *Draft, ingredients []Ingredient, steps []Step, tips []Tip) (*Payload, error) {
	p := &Payload{
		Fields: map[string]string{},
		Files:  map[string]*media.Attachment{},
	}

	difficulty := d.Difficulty
	if difficulty == "" {
		difficulty = DifficultyEasy
	}

	p.Fields[FieldTitle] = strings.TrimSpace(d.Title)
	p.Fields[FieldDescription] = strings.TrimSpace(d.Description)
	p.Fields[FieldPreparationTime] = strconv.Itoa(d.PreparationTime)
	p.Fields[FieldCookingTime] = strconv.Itoa(d.CookingTime)
	p.Fields[FieldServings] = strconv.Itoa(d.Servings)
	p.Fields[FieldDifficulty] = string(difficulty)
	p.Fields[FieldCategory] = d.Category

	if d.Calories > 0 {
		p.Fields[FieldCalories] = strconv.Itoa(d.Calories)
	}

	if d.Image != nil {
		p.Files[FieldImage] = d.Image
	}
	if d.Video != nil {
		p.Files[FieldVideo] = d.Video
	}

	if ingredients == nil {
		ingredients = []Ingredient{}
	}
	if err := setJSON(p, FieldIngredients, ingredients); err != nil {
		return nil, err
	}
	if steps == nil {
		steps = []Step{}
	}
	if err := setJSON(p, FieldSteps, steps); err != nil {
		return nil, err
	}

	if len(tips) > 0 {
		if err := setJSON(p, FieldTips, tips); err != nil {
			return nil, err
		}
	}
	if len(d.Tags) > 0 {
		if err := setJSON(p, FieldTags, d.Tags); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func setJSON(p *Payload, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	p.Fields[name] = string(data)
	return nil
}
