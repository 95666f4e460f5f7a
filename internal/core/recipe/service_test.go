package recipe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"perfect-recipe/internal/core/auth"
	"perfect-recipe/internal/core/backend"
	"perfect-recipe/internal/core/media"
	"perfect-recipe/internal/infrastructure/config"
	"perfect-recipe/internal/pkg/common"
)

type recordedRequest struct {
	method   string
	path     string
	fields   map[string]string
	files    map[string]string
	fileData map[string][]byte
}

func newRecipeBackend(t *testing.T, status int, body string) (*Service, *atomic.Int32, chan recordedRequest) {
	t.Helper()

	var hits atomic.Int32
	requests := make(chan recordedRequest, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		rec := recordedRequest{
			method:   r.Method,
			path:     r.URL.Path,
			fields:   map[string]string{},
			files:    map[string]string{},
			fileData: map[string][]byte{},
		}
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				rec.fields[k] = v[0]
			}
			for k, v := range r.MultipartForm.File {
				rec.files[k] = v[0].Filename
				f, _ := v[0].Open()
				rec.fileData[k], _ = io.ReadAll(f)
				f.Close()
			}
		}
		requests <- rec

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	store := auth.NewMemoryStore()
	_ = store.Save(context.Background(), "A1", "R1")
	client := backend.NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, AuthScheme: "Token"}, store)
	return NewService(client), &hits, requests
}

func TestServiceSubmitCreate(t *testing.T) {
	svc, hits, requests := newRecipeBackend(t, http.StatusCreated, `{"id":5,"slug":"soup"}`)

	d := validDraft()
	d.SetImage(&media.Attachment{Kind: media.KindImage, FileName: "soup.png", ContentType: "image/png", Data: []byte("png-bytes")})

	result, err := svc.Submit(context.Background(), d)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.ID != "5" || result.Slug != "soup" || !result.Created {
		t.Errorf("Result = %+v", result)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d", hits.Load())
	}

	rec := <-requests
	if rec.method != http.MethodPost || rec.path != "/api/recipes/" {
		t.Errorf("request = %s %s", rec.method, rec.path)
	}
	if rec.fields[FieldTitle] != "Soup" || rec.fields[FieldIngredients] != `[{"name":"Water","amount":"1L"}]` {
		t.Errorf("fields = %v", rec.fields)
	}
	if _, ok := rec.fields[FieldTips]; ok {
		t.Error("tips must not be sent when empty")
	}
	if rec.files[FieldImage] != "soup.png" || string(rec.fileData[FieldImage]) != "png-bytes" {
		t.Errorf("files = %v", rec.files)
	}
}

func TestServiceSubmitEditUsesPatch(t *testing.T) {
	svc, _, requests := newRecipeBackend(t, http.StatusOK, `{"slug":"tomato-soup"}`)

	d := validDraft()
	d.Slug = "tomato-soup"

	result, err := svc.Submit(context.Background(), d)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Created || result.Slug != "tomato-soup" {
		t.Errorf("Result = %+v", result)
	}

	rec := <-requests
	if rec.method != http.MethodPatch || rec.path != "/api/recipes/tomato-soup/" {
		t.Errorf("request = %s %s", rec.method, rec.path)
	}
}

func TestServiceSubmitInvalidDraftMakesNoRequest(t *testing.T) {
	svc, hits, _ := newRecipeBackend(t, http.StatusCreated, `{"id":1}`)

	d := validDraft()
	d.Steps = nil

	_, err := svc.Submit(context.Background(), d)
	ce, ok := common.AsCustomError(err)
	if !ok || ce.Code != common.ErrCodeValidation || ce.Fields["steps"] == "" {
		t.Fatalf("Submit() error = %v, want steps validation error", err)
	}
	if hits.Load() != 0 {
		t.Errorf("backend called %d times for an invalid draft", hits.Load())
	}
}

func TestServiceSubmitMalformedSuccess(t *testing.T) {
	svc, _, _ := newRecipeBackend(t, http.StatusCreated, `{"ok":true}`)

	_, err := svc.Submit(context.Background(), validDraft())
	if !common.HasCode(err, common.ErrCodeServerError) {
		t.Errorf("Submit() error = %v, want SERVER_ERROR", err)
	}
}

func TestServiceSubmitInFlightGuard(t *testing.T) {
	svc, hits, _ := newRecipeBackend(t, http.StatusCreated, `{"id":1}`)

	d := validDraft()
	if !svc.acquire(d.ID) {
		t.Fatal("acquire() failed on idle draft")
	}

	_, err := svc.Submit(context.Background(), d)
	if !common.HasCode(err, common.ErrCodeConflict) {
		t.Errorf("Submit() error = %v, want CONFLICT", err)
	}
	if hits.Load() != 0 {
		t.Errorf("duplicate submission reached the backend")
	}

	svc.release(d.ID)
	if _, err := svc.Submit(context.Background(), d); err != nil {
		t.Errorf("Submit() after release error = %v", err)
	}
}

func TestServiceLoad(t *testing.T) {
	svc, _, requests := newRecipeBackend(t, http.StatusOK, `{
		"slug": "tomato-soup",
		"title": "Tomato Soup",
		"description": "Rich",
		"category": {"name": "Dinner"},
		"difficulty": "Hard",
		"preparation_time": 5,
		"cooking_time": 10,
		"servings": 2,
		"ingredients": [{"name": "Tomato", "amount": "3"}],
		"steps": [{"description": "Simmer"}],
		"tags": []
	}`)

	d, err := svc.Load(context.Background(), "tomato-soup")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.Title != "Tomato Soup" || d.Category != "Dinner" || !d.IsEdit() {
		t.Errorf("Draft = %+v", d)
	}

	rec := <-requests
	if rec.method != http.MethodGet || rec.path != "/api/recipes/tomato-soup/" {
		t.Errorf("request = %s %s", rec.method, rec.path)
	}
}
