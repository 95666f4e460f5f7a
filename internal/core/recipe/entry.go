package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"

	"perfect-recipe/internal/pkg/common"
)

// EntryKind 原始項目的形狀
type EntryKind int

const (
	EntryInvalid EntryKind = iota // 無法辨識（數字、陣列、null 等）
	EntryObject                   // 物件：以鍵名取值
	EntryString                   // 字串
)

func (k EntryKind) String() string {
	switch k {
	case EntryObject:
		return "object"
	case EntryString:
		return "string"
	default:
		return "invalid"
	}
}

// RawEntry 食材、步驟、小技巧的原始項目
// 表單與舊資料的形狀不一，先解碼成這個標記聯合，再由正規化函式依形狀取值
type RawEntry struct {
	kind   EntryKind
	object map[string]interface{}
	text   string
	raw    json.RawMessage // 僅 EntryInvalid 保留原始內容
}

// ObjectEntry 建立物件形狀的項目
func ObjectEntry(fields map[string]interface{}) RawEntry {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	return RawEntry{kind: EntryObject, object: fields}
}

// StringEntry 建立字串形狀的項目
func StringEntry(text string) RawEntry {
	return RawEntry{kind: EntryString, text: text}
}

// Kind 項目形狀
func (e RawEntry) Kind() EntryKind {
	return e.kind
}

// Object 物件欄位；非物件形狀回傳 nil
func (e RawEntry) Object() map[string]interface{} {
	return e.object
}

// Text 字串內容；非字串形狀回傳空字串
func (e RawEntry) Text() string {
	return e.text
}

// UnmarshalJSON 依 JSON 值的型別決定形狀
func (e *RawEntry) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := common.ParseJSONBytes(data, &v); err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}

	switch t := v.(type) {
	case map[string]interface{}:
		*e = ObjectEntry(t)
	case string:
		*e = StringEntry(t)
	default:
		*e = RawEntry{kind: EntryInvalid, raw: append(json.RawMessage(nil), bytes.TrimSpace(data)...)}
	}
	return nil
}

// MarshalJSON 還原成原本的形狀
func (e RawEntry) MarshalJSON() ([]byte, error) {
	switch e.kind {
	case EntryObject:
		return json.Marshal(e.object)
	case EntryString:
		return json.Marshal(e.text)
	default:
		if len(e.raw) > 0 {
			return e.raw, nil
		}
		return []byte("null"), nil
	}
}

// Entries 以多個值建立項目序列（測試與轉換資料時使用）
func Entries(values ...interface{}) []RawEntry {
	out := make([]RawEntry, 0, len(values))
	for _, v := range values {
		switch t := v.(type) {
		case RawEntry:
			out = append(out, t)
		case map[string]interface{}:
			out = append(out, ObjectEntry(t))
		case string:
			out = append(out, StringEntry(t))
		default:
			data, err := json.Marshal(t)
			if err != nil {
				out = append(out, RawEntry{})
				continue
			}
			out = append(out, RawEntry{kind: EntryInvalid, raw: data})
		}
	}
	return out
}
