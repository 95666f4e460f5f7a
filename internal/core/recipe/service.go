package recipe

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"perfect-recipe/internal/core/backend"
	"perfect-recipe/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	recipesPath        = "/api/recipes/"
	forbiddenToPublish = "You are not authorized to create recipes."
)

// Prepared 正規化、驗證與組裝的結果
type Prepared struct {
	Ingredients Normalized[Ingredient]
	Steps       Normalized[Step]
	Tips        Normalized[Tip]
	Errors      ValidationErrors
	Payload     *Payload // 驗證未通過時為 nil
}

// DroppedCount 被捨棄的項目總數
func (p *Prepared) DroppedCount() int {
	return len(p.Ingredients.Dropped) + len(p.Steps.Dropped) + len(p.Tips.Dropped)
}

// Service 食譜送出服務
type Service struct {
	client *backend.Client

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService 創建新的食譜服務
func NewService(client *backend.Client) *Service {
	return &Service{
		client:   client,
		inflight: make(map[string]struct{}),
	}
}

// Prepare 正規化並驗證草稿，通過後組裝送出內容
// 驗證失敗時回傳 VALIDATION_ERROR，Prepared 仍含有錯誤與捨棄索引
func Prepare(d *Draft) (*Prepared, error) {
	d.NormalizeTags()
	ingredients, steps, tips := d.Normalize()

	p := &Prepared{
		Ingredients: ingredients,
		Steps:       steps,
		Tips:        tips,
		Errors:      Validate(d, ingredients.Entries, steps.Entries),
	}
	if err := p.Errors.Err(); err != nil {
		return p, err
	}

	payload, err := AssemblePayload(d, ingredients.Entries, steps.Entries, tips.Entries)
	if err != nil {
		return p, common.ErrInternalError.Wrap(err)
	}
	p.Payload = payload
	return p, nil
}

// Submit 送出草稿；新草稿使用 POST，編輯既有食譜使用 PATCH
// 同一份草稿同時只允許一個送出
func (s *Service) Submit(ctx context.Context, d *Draft) (*Result, error) {
	if !s.acquire(d.ID) {
		return nil, common.ErrConflict
	}
	defer s.release(d.ID)

	prepared, err := Prepare(d)
	if err != nil {
		return nil, err
	}

	if n := prepared.DroppedCount(); n > 0 {
		common.LogWarn("部分項目因內容不完整被略過",
			zap.String("draft_id", d.ID),
			zap.Ints("ingredients", prepared.Ingredients.Dropped),
			zap.Ints("steps", prepared.Steps.Dropped),
			zap.Ints("tips", prepared.Tips.Dropped),
		)
	}

	call := backend.Call{
		Name:      "recipe.create",
		Method:    http.MethodPost,
		Path:      recipesPath,
		Forbidden: forbiddenToPublish,
	}
	if d.IsEdit() {
		call.Name = "recipe.update"
		call.Method = http.MethodPatch
		call.Path = recipesPath + url.PathEscape(d.Slug) + "/"
	}

	payload := prepared.Payload
	resp, err := s.client.Do(ctx, call, func(req *resty.Request) (*resty.Response, error) {
		req.SetMultipartFormData(payload.Fields)
		for name, file := range payload.Files {
			req.SetMultipartField(name, file.FileName, file.ContentType, bytes.NewReader(file.Data))
		}
		return req.Execute(call.Method, call.Path)
	})
	if err != nil {
		common.LogError("Recipe submission failed",
			zap.String("draft_id", d.ID),
			zap.String("call", call.Name),
			zap.Error(err),
		)
		return nil, err
	}

	result, err := parseResult(resp.Body())
	if err != nil {
		return nil, err
	}
	result.Created = !d.IsEdit()

	common.LogInfo("Recipe submitted",
		zap.String("draft_id", d.ID),
		zap.String("recipe_id", result.ID),
		zap.String("slug", result.Slug),
		zap.Strings("fields", payload.FieldNames()),
	)
	return result, nil
}

// Load 載入既有食譜作為編輯草稿
func (s *Service) Load(ctx context.Context, slug string) (*Draft, error) {
	call := backend.Call{
		Name:   "recipe.get",
		Method: http.MethodGet,
		Path:   recipesPath + url.PathEscape(slug) + "/",
	}

	resp, err := s.client.Do(ctx, call, func(req *resty.Request) (*resty.Response, error) {
		return req.Get(call.Path)
	})
	if err != nil {
		return nil, err
	}

	var r Recipe
	if err := common.ParseJSONBytes(resp.Body(), &r); err != nil {
		return nil, common.ErrServerError.Wrap(fmt.Errorf("invalid recipe body: %w", err))
	}
	if r.Slug == "" {
		r.Slug = slug
	}
	return Hydrate(&r), nil
}

// parseResult 取出後端指定的 id/slug；兩者皆無視為格式錯誤的成功回應
func parseResult(body []byte) (*Result, error) {
	var raw map[string]interface{}
	if err := common.ParseJSONBytes(body, &raw); err != nil {
		return nil, common.ErrServerError.Wrap(fmt.Errorf("invalid response body: %w", err))
	}

	result := &Result{
		ID:   common.Stringify(raw["id"]),
		Slug: common.Stringify(raw["slug"]),
	}
	if result.ID == "" && result.Slug == "" {
		return nil, common.ErrServerError.Wrap(fmt.Errorf("response has neither id nor slug"))
	}
	return result, nil
}

func (s *Service) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}
