package mealplan

import "strings"

// DayGroup 同一天的餐點
type DayGroup struct {
	Date    string  `json:"date"`
	Entries []Entry `json:"entries"`
}

// DateKey 取出時間字串的日期部分（"2024-03-20T08:00:00" -> "2024-03-20"）
func DateKey(date string) string {
	date = strings.TrimSpace(date)
	if i := strings.IndexAny(date, "T "); i >= 0 {
		return date[:i]
	}
	return date
}

// GroupByDate 依日期分組
// 沒有日期的項目不出現在任何分組中；分組依首次出現的順序排列，組內保持原本順序
func GroupByDate(entries []Entry) []DayGroup {
	groups := make([]DayGroup, 0)
	index := make(map[string]int)

	for _, e := range entries {
		key := DateKey(e.Date)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Date: key})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}

	return groups
}
