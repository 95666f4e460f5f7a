package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"perfect-recipe/internal/core/auth"
	"perfect-recipe/internal/core/cache"
	"perfect-recipe/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

const draftJSON = `{
	"id": "draft-1",
	"title": "Tomato Soup",
	"description": "Simple",
	"category": "Dinner",
	"preparation_time": 10,
	"cooking_time": 20,
	"servings": 2,
	"ingredients": [{"name": "Tomato", "amount": "2"}, {"amount": "1 tsp"}],
	"steps": [{"instruction": "Boil"}, {"description": ""}]
}`

const planJSON = `{
	"id": 1,
	"start_date": "2024-03-20",
	"end_date": "2024-03-21",
	"entries": [
		{"id": 11, "date": "2024-03-20T00:00:00", "meal_type": "Breakfast", "recipe": {"id": 101, "title": "Oats"}},
		{"id": 12, "date": "2024-03-20T08:00:00", "meal_type": "Lunch", "recipe": {"id": 102, "title": "Salad"}},
		{"id": 13, "date": "2024-03-21T00:00:00", "meal_type": "Dinner", "recipe": {"id": 103, "title": "Soup"}}
	]
}`

type fakeBackend struct {
	unauthorized bool

	recipeHits  atomic.Int32
	refreshHits atomic.Int32

	mu     sync.Mutex
	fields map[string]string
	files  map[string]string
	auth   string
	reqID  string
}

func (fb *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		fb.refreshHits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/recipes/", func(w http.ResponseWriter, r *http.Request) {
		fb.recipeHits.Add(1)
		if fb.unauthorized {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"id": 9, "slug": "tomato-soup", "title": "Tomato Soup", "category": {"id": 1, "name": "Dinner"},
				"ingredients": ["Tomato: 2"], "steps": ["Boil"], "tags": [{"name": "quick"}]}`))
			return
		}

		fb.mu.Lock()
		fb.fields = map[string]string{}
		fb.files = map[string]string{}
		fb.auth = r.Header.Get("Authorization")
		fb.reqID = r.Header.Get("X-Request-ID")
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				fb.fields[k] = v[0]
			}
			for k, v := range r.MultipartForm.File {
				fb.files[k] = v[0].Header.Get("Content-Type")
			}
		}
		fb.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 9, "slug": "tomato-soup"}`))
	})
	mux.HandleFunc("/api/meal-plans/current/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(planJSON))
	})
	mux.HandleFunc("/api/meal-plans/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/shopping-list/"):
			_, _ = w.Write([]byte(`{"ingredients": ["oats", "lettuce"]}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})
	return mux
}

func newTestRouter(t *testing.T, fb *fakeBackend) (*gin.Engine, *Services) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		App:         config.AppConfig{Version: "test", Debug: true},
		Server:      config.ServerConfig{AllowOrigins: []string{"http://localhost:5173"}},
		Backend:     config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, AuthScheme: "Bearer"},
		Credentials: config.CredentialsConfig{Store: config.StoreMemory},
		Cache:       config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute, CleanupInterval: time.Minute},
		Media:       config.MediaConfig{MaxImageBytes: 1 << 20, MaxVideoBytes: 1 << 20},
		DedupWindow: time.Minute,
	}

	mgr := cache.NewManager(cfg.Cache)
	t.Cleanup(func() { _ = mgr.Close() })

	svc := NewServices(cfg, auth.NewMemoryStore(), mgr)
	router, err := SetupRouter(cfg, svc)
	if err != nil {
		t.Fatalf("SetupRouter() error = %v", err)
	}
	return router, svc
}

func do(r http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", "test-request")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return out
}

func login(t *testing.T, r http.Handler, access, refresh string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"access": access, "refresh": refresh})
	if w := do(r, http.MethodPost, "/api/v1/session", "application/json", body); w.Code != http.StatusOK {
		t.Fatalf("login = %d %s", w.Code, w.Body.String())
	}
}

func TestHealthRoutes(t *testing.T) {
	r, _ := newTestRouter(t, &fakeBackend{})

	for _, path := range []string{"/health", "/ready", "/live"} {
		if w := do(r, http.MethodGet, path, "", nil); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}
	if w := do(r, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d", w.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	r, svc := newTestRouter(t, &fakeBackend{})

	w := do(r, http.MethodPost, "/api/v1/session", "application/json", []byte(`{"refresh":"R1"}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("login without access = %d", w.Code)
	}

	login(t, r, "A1", "R1")
	if got := decode(t, do(r, http.MethodGet, "/api/v1/session", "", nil)); got["authenticated"] != true {
		t.Errorf("status after login = %v", got)
	}

	if w := do(r, http.MethodDelete, "/api/v1/session", "", nil); w.Code != http.StatusNoContent {
		t.Errorf("logout = %d", w.Code)
	}
	if got := decode(t, do(r, http.MethodGet, "/api/v1/session", "", nil)); got["authenticated"] != false {
		t.Errorf("status after logout = %v", got)
	}
	if access, _ := svc.Store.Access(context.Background()); access != "" {
		t.Errorf("access token after logout = %q", access)
	}
}

func TestValidateRecipe(t *testing.T) {
	r, _ := newTestRouter(t, &fakeBackend{})

	w := do(r, http.MethodPost, "/api/v1/recipes/validate", "application/json", []byte(draftJSON))
	if w.Code != http.StatusOK {
		t.Fatalf("validate = %d %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["valid"] != true {
		t.Errorf("valid = %v, errors = %v", got["valid"], got["errors"])
	}
	dropped := got["dropped"].(map[string]interface{})
	if ings := dropped["ingredients"].([]interface{}); len(ings) != 1 || ings[0] != float64(1) {
		t.Errorf("dropped ingredients = %v", ings)
	}
	fields := got["fields"].(map[string]interface{})
	if fields["difficulty"] != "Easy" || fields["ingredients"] != `[{"name":"Tomato","amount":"2"}]` {
		t.Errorf("fields = %v", fields)
	}

	w = do(r, http.MethodPost, "/api/v1/recipes/validate", "application/json", []byte(`{"title":"  "}`))
	got = decode(t, w)
	errs := got["errors"].(map[string]interface{})
	if got["valid"] != false || errs["title"] == nil || errs["ingredients"] == nil || errs["steps"] == nil {
		t.Errorf("invalid draft response = %v", got)
	}
}

func TestCreateRecipeJSON(t *testing.T) {
	fb := &fakeBackend{}
	r, _ := newTestRouter(t, fb)
	login(t, r, "A1", "R1")

	w := do(r, http.MethodPost, "/api/v1/recipes", "application/json", []byte(draftJSON))
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	if got := decode(t, w); got["slug"] != "tomato-soup" || got["created"] != true {
		t.Errorf("result = %v", got)
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.auth != "Bearer A1" || fb.reqID != "test-request" {
		t.Errorf("headers auth=%q request_id=%q", fb.auth, fb.reqID)
	}
	if fb.fields["title"] != "Tomato Soup" || fb.fields["steps"] != `[{"description":"Boil"}]` {
		t.Errorf("fields = %v", fb.fields)
	}
	if _, ok := fb.fields["tips"]; ok {
		t.Error("empty tips must be omitted")
	}
}

func TestCreateRecipeMultipartWithImage(t *testing.T) {
	fb := &fakeBackend{}
	r, _ := newTestRouter(t, fb)
	login(t, r, "A1", "R1")

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var pngData bytes.Buffer
	if err := png.Encode(&pngData, img); err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("draft", draftJSON)
	part, _ := mw.CreateFormFile("image", "soup.png")
	_, _ = part.Write(pngData.Bytes())
	_ = mw.Close()

	w := do(r, http.MethodPost, "/api/v1/recipes", mw.FormDataContentType(), body.Bytes())
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.files["image"] != "image/png" {
		t.Errorf("files = %v", fb.files)
	}
	if _, ok := fb.files["video"]; ok {
		t.Error("video must be omitted when absent")
	}
}

func TestCreateRecipeDuplicateRejected(t *testing.T) {
	fb := &fakeBackend{}
	r, _ := newTestRouter(t, fb)
	login(t, r, "A1", "R1")

	if w := do(r, http.MethodPost, "/api/v1/recipes", "application/json", []byte(draftJSON)); w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/v1/recipes", "application/json", []byte(draftJSON)); w.Code != http.StatusTooManyRequests {
		t.Errorf("duplicate create = %d, want 429", w.Code)
	}
	if got := fb.recipeHits.Load(); got != 1 {
		t.Errorf("backend hits = %d, want 1", got)
	}
}

func TestCreateRecipeInvalidMakesNoRequest(t *testing.T) {
	fb := &fakeBackend{}
	r, _ := newTestRouter(t, fb)
	login(t, r, "A1", "R1")

	w := do(r, http.MethodPost, "/api/v1/recipes", "application/json", []byte(`{"title":"Soup"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["code"] != "VALIDATION_ERROR" || got["fields"] == nil {
		t.Errorf("response = %v", got)
	}
	if fb.recipeHits.Load() != 0 {
		t.Error("invalid draft reached the backend")
	}
}

func TestSessionExpiredRedirectsAndResetsPlanning(t *testing.T) {
	fb := &fakeBackend{unauthorized: true}
	r, svc := newTestRouter(t, fb)
	login(t, r, "A1", "")

	before := svc.Plans.Session()

	w := do(r, http.MethodPost, "/api/v1/recipes", "application/json", []byte(draftJSON))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["code"] != "SESSION_EXPIRED" || got["redirect"] != "/login" {
		t.Errorf("response = %v", got)
	}
	if fb.recipeHits.Load() != 1 || fb.refreshHits.Load() != 0 {
		t.Errorf("recipe hits = %d, refresh hits = %d", fb.recipeHits.Load(), fb.refreshHits.Load())
	}
	if !before.Closed() || svc.Plans.Session() == before {
		t.Error("planning session must be reset on expiry")
	}
}

func TestLoadRecipeDraft(t *testing.T) {
	r, _ := newTestRouter(t, &fakeBackend{})
	login(t, r, "A1", "R1")

	w := do(r, http.MethodGet, "/api/v1/recipes/tomato-soup/draft", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("draft = %d %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["slug"] != "tomato-soup" || got["category"] != "Dinner" {
		t.Errorf("draft = %v", got)
	}
}

func TestMealPlanRoutes(t *testing.T) {
	r, _ := newTestRouter(t, &fakeBackend{})
	login(t, r, "A1", "R1")

	w := do(r, http.MethodGet, "/api/v1/meal-plans/current", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("current = %d %s", w.Code, w.Body.String())
	}
	if groups := decode(t, w)["groups"].([]interface{}); len(groups) != 2 {
		t.Errorf("groups = %v", groups)
	}

	w = do(r, http.MethodGet, "/api/v1/meal-plans/shopping-list", "", nil)
	if items := decode(t, w)["ingredients"].([]interface{}); len(items) != 2 {
		t.Errorf("shopping list = %v", items)
	}

	w = do(r, http.MethodDelete, "/api/v1/meal-plans/entries/13", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete = %d %s", w.Code, w.Body.String())
	}
	if groups := decode(t, w)["groups"].([]interface{}); len(groups) != 1 {
		t.Errorf("groups after delete = %v", groups)
	}

	if w := do(r, http.MethodPut, "/api/v1/meal-plans/entries/abc", "application/json", []byte(`{"meal_type":"Lunch"}`)); w.Code != http.StatusBadRequest {
		t.Errorf("bad entry id = %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/api/v1/meal-plans/entries/11", "application/json", []byte(`{"meal_type":"Brunch"}`)); w.Code != http.StatusBadRequest {
		t.Errorf("bad meal type = %d", w.Code)
	}
}
