package route

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"detectview/internal/config"
	"detectview/internal/logger"
	"detectview/internal/middleware"
	"detectview/internal/repository/sqlite"
	"detectview/internal/service"
	"detectview/internal/service/analysis"
	"detectview/internal/service/editor"
	"detectview/internal/service/render"
	"detectview/internal/service/storage"
	"detectview/internal/service/websocket"
)

func setupRouter(t *testing.T) (http.Handler, *middleware.LoginStore) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Password:       "secret",
		LogDirectory:   filepath.Join(dir, "logs"),
		ImageDirectory: filepath.Join(dir, "images"),
		DisplayWidth:   32,
		DisplayHeight:  24,
	}

	db, err := sqlite.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	images := sqlite.NewImageRepository(db)
	detections := sqlite.NewDetectionRepository(db)

	StaticDirectory = filepath.Join(dir, "static")
	os.MkdirAll(StaticDirectory, 0755)
	os.WriteFile(filepath.Join(StaticDirectory, "index.html"), []byte("<html>index</html>"), 0644)
	t.Cleanup(func() { StaticDirectory = "static" })

	log := logger.NewDiscard()
	manager := service.NewManager(cfg, log, websocket.NewHubService(log),
		storage.NewBufferService(cfg, log, images, detections),
		editor.NewStore(time.Minute, render.BasicMeasurer{}),
		analysis.NewClient("http://127.0.0.1:1/analyze", time.Second))

	logins := middleware.NewLoginStore(time.Hour)
	return SetupRoutes(manager, cfg, log, logins, images, detections), logins
}

func TestSetupRoutes(t *testing.T) {
	router, logins := setupRouter(t)
	token := logins.Issue()

	tests := []struct {
		name     string
		method   string
		path     string
		auth     bool
		expected int
	}{
		{"index page", http.MethodGet, "/", true, http.StatusOK},
		{"unknown page", http.MethodGet, "/nothing", true, http.StatusNotFound},
		{"analyses", http.MethodGet, "/api/analyses", true, http.StatusOK},
		{"labels", http.MethodGet, "/api/analyses/labels", true, http.StatusOK},
		{"overlay", http.MethodGet, "/api/stream/overlay", true, http.StatusOK},
		{"editor without id", http.MethodGet, "/api/editor", true, http.StatusBadRequest},
		{"editor render unknown", http.MethodGet, "/api/editor/render?id=x", true, http.StatusNotFound},
		{"analyze requires post", http.MethodGet, "/api/analyze", true, http.StatusMethodNotAllowed},
		{"logout", http.MethodGet, "/auth/logout", true, http.StatusSeeOther},
		{"api without auth", http.MethodGet, "/api/analyses", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth {
				req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: token})
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.expected {
				t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.expected, rr.Code)
			}
		})
	}
}

func TestLoginFlow(t *testing.T) {
	router, _ := setupRouter(t)

	get := func(cookie *http.Cookie) int {
		req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := get(&http.Cookie{Name: middleware.AuthCookie, Value: "true"}); code != http.StatusUnauthorized {
		t.Errorf("Expected a forged cookie to get 401, got %d", code)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("password=secret"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("Expected login redirect, got %d", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value == "true" {
		t.Fatalf("Expected one random token cookie, got %+v", cookies)
	}
	session := cookies[0]

	if code := get(session); code != http.StatusOK {
		t.Errorf("Expected the issued token to be accepted, got %d", code)
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(session)
	router.ServeHTTP(httptest.NewRecorder(), req)

	if code := get(session); code != http.StatusUnauthorized {
		t.Errorf("Expected the token to be revoked by logout, got %d", code)
	}
}
