package recipe

import (
	"strings"

	"perfect-recipe/internal/pkg/common"
)

// Ingredient 正規化後的食材
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// Step 正規化後的步驟
type Step struct {
	Description string `json:"description"`
}

// Tip 正規化後的小技巧
type Tip struct {
	Description string `json:"description"`
}

// 各類項目依序嘗試的鍵名
var (
	ingredientNameKeys   = []string{"name", "ingredient"}
	ingredientAmountKeys = []string{"amount", "quantity"}
	stepKeys             = []string{"description", "instruction", "step"}
	tipKeys              = []string{"description", "tip"}
)

// Normalized 正規化結果
// Dropped 記錄被捨棄項目在原始序列中的索引，由呼叫端決定是否提示使用者
type Normalized[T any] struct {
	Entries []T
	Dropped []int
}

// NormalizeIngredients 正規化食材
// 物件取 name/ingredient 與 amount/quantity；字串以第一個冒號切成名稱與份量
// 任一欄位為空即捨棄，輸出順序與輸入相同
func NormalizeIngredients(raw []RawEntry) Normalized[Ingredient] {
	out := Normalized[Ingredient]{Entries: make([]Ingredient, 0, len(raw))}

	for i, entry := range raw {
		var name, amount string

		switch entry.Kind() {
		case EntryObject:
			name = resolve(entry.Object(), ingredientNameKeys)
			amount = resolve(entry.Object(), ingredientAmountKeys)
		case EntryString:
			before, after, found := strings.Cut(entry.Text(), ":")
			if found {
				name = strings.TrimSpace(before)
				amount = strings.TrimSpace(after)
			}
		}

		if name == "" || amount == "" {
			out.Dropped = append(out.Dropped, i)
			continue
		}
		out.Entries = append(out.Entries, Ingredient{Name: name, Amount: amount})
	}

	return out
}

// NormalizeSteps 正規化步驟
func NormalizeSteps(raw []RawEntry) Normalized[Step] {
	out := Normalized[Step]{Entries: make([]Step, 0, len(raw))}
	for i, entry := range raw {
		desc := describe(entry, stepKeys)
		if desc == "" {
			out.Dropped = append(out.Dropped, i)
			continue
		}
		out.Entries = append(out.Entries, Step{Description: desc})
	}
	return out
}

// NormalizeTips 正規化小技巧；全部為空時回傳空序列，不視為錯誤
func NormalizeTips(raw []RawEntry) Normalized[Tip] {
	out := Normalized[Tip]{Entries: make([]Tip, 0, len(raw))}
	for i, entry := range raw {
		desc := describe(entry, tipKeys)
		if desc == "" {
			out.Dropped = append(out.Dropped, i)
			continue
		}
		out.Entries = append(out.Entries, Tip{Description: desc})
	}
	return out
}

// describe 取出步驟或小技巧的文字
func describe(entry RawEntry, keys []string) string {
	switch entry.Kind() {
	case EntryObject:
		return resolve(entry.Object(), keys)
	case EntryString:
		return strings.TrimSpace(entry.Text())
	default:
		return ""
	}
}

// resolve 依序嘗試鍵名，回傳第一個轉字串並去除空白後不為空的值
// 巢狀物件與陣列不是有效值
func resolve(fields map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(common.Stringify(fields[key])); v != "" {
			return v
		}
	}
	return ""
}
