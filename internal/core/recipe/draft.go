package recipe

import (
	"fmt"
	"strings"

	"perfect-recipe/internal/core/media"
	"perfect-recipe/internal/pkg/common"

	"github.com/google/uuid"
)

// Draft 編輯中的食譜
// 新增時為空白草稿；編輯時由 Hydrate 從後端資料建立，Slug 不為空
type Draft struct {
	ID              string     `json:"id"`
	Slug            string     `json:"slug,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Difficulty      Difficulty `json:"difficulty"`
	PreparationTime int        `json:"preparation_time"`
	CookingTime     int        `json:"cooking_time"`
	Servings        int        `json:"servings"`
	Calories        int        `json:"calories"`
	Ingredients     []RawEntry `json:"ingredients"`
	Steps           []RawEntry `json:"steps"`
	Tips            []RawEntry `json:"tips"`
	Tags            []string   `json:"tags"`

	// 附件各自獨立，移除其中一個不影響另一個
	Image *media.Attachment `json:"-"`
	Video *media.Attachment `json:"-"`

	// 編輯模式下後端既有的媒體網址
	ImageURL string `json:"image_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

// NewDraft 建立空白草稿
func NewDraft() *Draft {
	return &Draft{
		ID:          uuid.New().String(),
		Difficulty:  DifficultyEasy,
		Ingredients: []RawEntry{},
		Steps:       []RawEntry{},
		Tips:        []RawEntry{},
		Tags:        []string{},
	}
}

// Hydrate 由後端食譜建立編輯用草稿
func Hydrate(r *Recipe) *Draft {
	d := NewDraft()
	d.Slug = r.Slug
	d.Title = r.Title
	d.Description = r.Description
	d.Category = nameOf(r.Category)
	if diff := Difficulty(r.Difficulty); diff.Valid() {
		d.Difficulty = diff
	}
	d.PreparationTime = r.PreparationTime
	d.CookingTime = r.CookingTime
	d.Servings = r.Servings
	if r.Calories != nil {
		d.Calories = *r.Calories
	}
	d.Ingredients = append(d.Ingredients, r.Ingredients...)
	d.Steps = append(d.Steps, r.Steps...)
	d.Tips = append(d.Tips, r.Tips...)
	for _, tag := range r.Tags {
		d.AddTag(nameOf(tag))
	}
	d.ImageURL = r.Image
	d.VideoURL = r.Video
	return d
}

// IsEdit 是否為編輯既有食譜
func (d *Draft) IsEdit() bool {
	return d.Slug != ""
}

// Section 草稿中的項目序列
type Section string

const (
	SectionIngredients Section = "ingredients"
	SectionSteps       Section = "steps"
	SectionTips        Section = "tips"
)

func (d *Draft) section(s Section) (*[]RawEntry, error) {
	switch s {
	case SectionIngredients:
		return &d.Ingredients, nil
	case SectionSteps:
		return &d.Steps, nil
	case SectionTips:
		return &d.Tips, nil
	default:
		return nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("unknown section: %s", s))
	}
}

// Add 在序列尾端加入項目
func (d *Draft) Add(s Section, entry RawEntry) error {
	list, err := d.section(s)
	if err != nil {
		return err
	}
	*list = append(*list, entry)
	return nil
}

// Update 取代指定位置的項目
func (d *Draft) Update(s Section, index int, entry RawEntry) error {
	list, err := d.section(s)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*list) {
		return common.ErrInvalidRequest.Wrap(fmt.Errorf("%s index %d out of range", s, index))
	}
	(*list)[index] = entry
	return nil
}

// Remove 移除指定位置的項目，其餘項目保持順序
func (d *Draft) Remove(s Section, index int) error {
	list, err := d.section(s)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*list) {
		return common.ErrInvalidRequest.Wrap(fmt.Errorf("%s index %d out of range", s, index))
	}
	*list = append((*list)[:index], (*list)[index+1:]...)
	return nil
}

// AddTag 加入標籤；空白或重複的標籤會被忽略
func (d *Draft) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, existing := range d.Tags {
		if existing == tag {
			return false
		}
	}
	d.Tags = append(d.Tags, tag)
	return true
}

// NormalizeTags 整理直接寫入的標籤：去除空白、空字串與重複，保留首次出現的順序
func (d *Draft) NormalizeTags() {
	tags := d.Tags
	d.Tags = make([]string, 0, len(tags))
	for _, tag := range tags {
		d.AddTag(tag)
	}
}

// RemoveTag 移除標籤
func (d *Draft) RemoveTag(tag string) bool {
	for i, existing := range d.Tags {
		if existing == tag {
			d.Tags = append(d.Tags[:i], d.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// SetImage 設定圖片附件
func (d *Draft) SetImage(a *media.Attachment) {
	d.Image = a
}

// RemoveImage 移除圖片附件與既有圖片網址
func (d *Draft) RemoveImage() {
	d.Image = nil
	d.ImageURL = ""
}

// SetVideo 設定影片附件
func (d *Draft) SetVideo(a *media.Attachment) {
	d.Video = a
}

// RemoveVideo 移除影片附件與既有影片網址
func (d *Draft) RemoveVideo() {
	d.Video = nil
	d.VideoURL = ""
}

// Normalize 正規化三個序列
func (d *Draft) Normalize() (Normalized[Ingredient], Normalized[Step], Normalized[Tip]) {
	return NormalizeIngredients(d.Ingredients), NormalizeSteps(d.Steps), NormalizeTips(d.Tips)
}
