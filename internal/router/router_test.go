package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/beatstudio/internal/db"
	"github.com/beatstudio/internal/handler"
	"github.com/beatstudio/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type noopRunner struct {
	calls int
}

func (r *noopRunner) Run(context.Context, service.DraftRunInput) (service.DraftRunResult, error) {
	r.calls++
	return service.DraftRunResult{}, nil
}

func setupRouterTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	return gdb
}

func TestSetupRouterPing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := SetupRouter("test-secret", handler.NewAPI(setupRouterTestDB(t), &noopRunner{}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "pong") {
		t.Fatalf("unexpected body, got %q", rr.Body.String())
	}
}

func TestSetupRouterProtectsDraftRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	runner := &noopRunner{}
	r := SetupRouter("", handler.NewAPI(setupRouterTestDB(t), runner))

	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodPost, path: "/admin/api/drafts/generate"},
		{method: http.MethodGet, path: "/admin/api/drafts"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{"source":"reddit","limit":3}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tt.method, tt.path, rr.Code)
		}
	}
	if runner.calls != 0 {
		t.Fatalf("expected no pipeline runs, got %d", runner.calls)
	}
}
