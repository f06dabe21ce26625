package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/beatstudio/internal/db"
	"github.com/beatstudio/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type countingRunner struct {
	calls  int
	inputs []service.DraftRunInput
	result service.DraftRunResult
	err    error
}

func (r *countingRunner) Run(_ context.Context, input service.DraftRunInput) (service.DraftRunResult, error) {
	r.calls++
	r.inputs = append(r.inputs, input)
	return r.result, r.err
}

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	if err := db.EnsureUser(gdb, "admin", "secret-pass"); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}
	return gdb
}

func newTestEngine(api *API) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("beatstudio_session", cookie.NewStore([]byte("test-secret"))))

	r.POST("/admin/login", api.Login)
	r.GET("/admin/logout", api.Logout)
	auth := r.Group("/admin/api")
	auth.Use(AuthRequired())
	auth.POST("/drafts/generate", api.DraftRateLimit(), api.GenerateDrafts)
	auth.GET("/drafts", api.ListDrafts)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func loginCookies(t *testing.T, r http.Handler) []*http.Cookie {
	t.Helper()

	rr := doJSON(t, r, http.MethodPost, "/admin/login", gin.H{"username": "admin", "password": "secret-pass"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rr.Code, rr.Body.String())
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}
	return cookies
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestGenerateDraftsRejectsUnauthenticated(t *testing.T) {
	runner := &countingRunner{}
	r := newTestEngine(NewAPI(setupHandlerTestDB(t), runner))

	rr := doJSON(t, r, http.MethodPost, "/admin/api/drafts/generate", gin.H{"source": "reddit", "limit": 3}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "unauthorized" {
		t.Fatalf("unexpected body %v", body)
	}
	if runner.calls != 0 {
		t.Fatalf("expected no pipeline work, got %d runs", runner.calls)
	}
}

func TestGenerateDraftsReturnsPersistedItems(t *testing.T) {
	runner := &countingRunner{result: service.DraftRunResult{
		Drafts: 1,
		Items:  []db.BlogPost{{Title: "Mixing 101", Slug: "mixing-101-abc", Status: db.BlogPostStatusDraft}},
	}}
	r := newTestEngine(NewAPI(setupHandlerTestDB(t), runner))
	cookies := loginCookies(t, r)

	rr := doJSON(t, r, http.MethodPost, "/admin/api/drafts/generate", gin.H{
		"source":     " reddit ",
		"limit":      3,
		"categories": []string{"Gear Reviews"},
	}, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	if body["success"] != true || body["drafts"] != float64(1) {
		t.Fatalf("unexpected body %v", body)
	}
	items, ok := body["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected items %v", body["items"])
	}

	if runner.calls != 1 {
		t.Fatalf("expected 1 run, got %d", runner.calls)
	}
	input := runner.inputs[0]
	if input.Source != "reddit" || input.Limit != 3 || len(input.Categories) != 1 {
		t.Fatalf("unexpected run input %+v", input)
	}
}

func TestGenerateDraftsEmptyResultUsesEmptyList(t *testing.T) {
	r := newTestEngine(NewAPI(setupHandlerTestDB(t), &countingRunner{}))
	cookies := loginCookies(t, r)

	rr := doJSON(t, r, http.MethodPost, "/admin/api/drafts/generate", gin.H{}, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if items, ok := body["items"].([]interface{}); !ok || len(items) != 0 {
		t.Fatalf("expected empty items list, got %v", body["items"])
	}
}

func TestGenerateDraftsValidatesPayload(t *testing.T) {
	runner := &countingRunner{}
	r := newTestEngine(NewAPI(setupHandlerTestDB(t), runner))
	cookies := loginCookies(t, r)

	rr := doJSON(t, r, http.MethodPost, "/admin/api/drafts/generate", gin.H{"limit": 11}, cookies)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error"] != "limit must be at most 10" {
		t.Fatalf("unexpected error %v", body["error"])
	}

	rr = doJSON(t, r, http.MethodPost, "/admin/api/drafts/generate", gin.H{"limit": "three"}, cookies)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed payload, got %d", rr.Code)
	}
	if runner.calls != 0 {
		t.Fatalf("expected no runs for invalid payloads, got %d", runner.calls)
	}
}

func TestGenerateDraftsMapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "unknown source", err: service.ErrUnknownSource, status: http.StatusBadRequest},
		{name: "internal", err: fmt.Errorf("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestEngine(NewAPI(setupHandlerTestDB(t), &countingRunner{err: tt.err}))
			cookies := loginCookies(t, r)

			rr := doJSON(t, r, http.MethodPost, "/admin/api/drafts/generate", gin.H{"source": "x"}, cookies)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			if body := decodeBody(t, rr); body["error"] == nil {
				t.Fatalf("expected error body, got %v", body)
			}
		})
	}
}

func TestGenerateDraftsRateLimited(t *testing.T) {
	runner := &countingRunner{}
	api := NewAPI(setupHandlerTestDB(t), runner)
	api.SetDraftLimiter(rate.NewLimiter(rate.Every(time.Hour), 1))
	r := newTestEngine(api)
	cookies := loginCookies(t, r)

	first := doJSON(t, r, http.MethodPost, "/admin/api/drafts/generate", gin.H{}, cookies)
	if first.Code != http.StatusOK {
		t.Fatalf("expected first run to pass, got %d", first.Code)
	}
	second := doJSON(t, r, http.MethodPost, "/admin/api/drafts/generate", gin.H{}, cookies)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if runner.calls != 1 {
		t.Fatalf("expected 1 run, got %d", runner.calls)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	r := newTestEngine(NewAPI(setupHandlerTestDB(t), &countingRunner{}))

	rr := doJSON(t, r, http.MethodPost, "/admin/login", gin.H{"username": "admin", "password": "nope"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	rr = doJSON(t, r, http.MethodPost, "/admin/login", gin.H{"username": "admin"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", rr.Code)
	}
}

func TestListDraftsReturnsGeneratedPosts(t *testing.T) {
	gdb := setupHandlerTestDB(t)
	posts := []db.BlogPost{
		{Title: "AI draft", Slug: "ai-draft", Status: db.BlogPostStatusDraft, AIGenerated: true},
		{Title: "Manual draft", Slug: "manual-draft", Status: db.BlogPostStatusDraft},
	}
	if err := gdb.Create(&posts).Error; err != nil {
		t.Fatalf("seed posts: %v", err)
	}

	r := newTestEngine(NewAPI(gdb, &countingRunner{}))
	cookies := loginCookies(t, r)

	rr := doJSON(t, r, http.MethodGet, "/admin/api/drafts", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["total"] != float64(1) {
		t.Fatalf("expected 1 generated draft, got %v", body["total"])
	}
}

func TestLogoutClearsSession(t *testing.T) {
	r := newTestEngine(NewAPI(setupHandlerTestDB(t), &countingRunner{}))
	cookies := loginCookies(t, r)

	rr := doJSON(t, r, http.MethodGet, "/admin/logout", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = doJSON(t, r, http.MethodGet, "/admin/api/drafts", nil, rr.Result().Cookies())
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rr.Code)
	}
}
