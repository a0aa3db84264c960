package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webapp-skeleton/cms/internal/config"
	"github.com/webapp-skeleton/cms/internal/database/dbtest"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/auth/token"
	"github.com/webapp-skeleton/cms/internal/pkg/jwt"
	pkgredis "github.com/webapp-skeleton/cms/internal/pkg/redis"
	"go.uber.org/zap"
)

const testSecret = "app-test-secret"

type harness struct {
	app  *App
	full string
	read string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := pkgredis.Connect(t.Context(), "redis://"+mr.Addr())
	require.NoError(t, err)

	cfg := &config.AppConfig{
		Port:      8080,
		Env:       "production",
		JWTSecret: testSecret,
		PublicURL: "http://cms.test",
		Paths:     config.RuntimePathsConfig{Static: t.TempDir()},
		Site:      config.SiteConfig{URL: "https://blog.test", Title: "Test blog"},
		Cache:     config.CacheConfig{TTLSeconds: 60},
		RateLimit: config.RateLimitConfig{Requests: 1000, WindowSeconds: 60},
		Upload:    config.UploadConfig{Provider: "local", MaxSizeMB: 1},
		AllowedOrigins: []string{
			"https://blog.test",
		},
	}
	db := dbtest.Open(t)
	a, err := Assemble(zap.NewNop(), cfg, db, rc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	tokens := token.NewService(db, jwt.NewSigner(testSecret))
	full, err := tokens.Create(t.Context(), token.CreateInput{Name: "writer", Type: models.TokenFullAccess})
	require.NoError(t, err)
	read, err := tokens.Create(t.Context(), token.CreateInput{Name: "reader"})
	require.NoError(t, err)
	return &harness{app: a, full: full.AccessKey, read: read.AccessKey}
}

func (h *harness) do(method, path, bearer, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.app.Router().ServeHTTP(w, req)
	return w
}

func errorStatus(t *testing.T, w *httptest.ResponseRecorder) (int, string) {
	t.Helper()
	var env struct {
		Data  any `json:"data"`
		Error struct {
			Status int    `json:"status"`
			Name   string `json:"name"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Nil(t, env.Data)
	return env.Error.Status, env.Error.Name
}

func TestHealthAndFallbacks(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/_health", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(http.MethodGet, "/api/nothing-here", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	status, name := errorStatus(t, w)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NotFoundError", name)

	w = h.do(http.MethodPatch, "/_health", "", "")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	status, _ = errorStatus(t, w)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestWritesRequireFullAccessToken(t *testing.T) {
	h := newHarness(t)
	body := `{"data":{"title":"Hello","slug":"hello"}}`

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/articles", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/articles", "garbage", body).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/articles", h.read, body).Code)

	w := h.do(http.MethodPost, "/api/articles", h.full, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/api/articles/slug/hello", h.read, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"hello"`)
}

func TestWritePurgesResponseCache(t *testing.T) {
	h := newHarness(t)

	first := h.do(http.MethodGet, "/api/articles", "", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "miss", first.Header().Get("x-cms-cache"))

	second := h.do(http.MethodGet, "/api/articles", "", "")
	assert.Equal(t, "hit", second.Header().Get("x-cms-cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	w := h.do(http.MethodPost, "/api/articles", h.full, `{"data":{"title":"Fresh","slug":"fresh"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	third := h.do(http.MethodGet, "/api/articles", "", "")
	assert.Equal(t, "miss", third.Header().Get("x-cms-cache"))
	assert.Contains(t, third.Body.String(), `"slug":"fresh"`)
}

func TestSyndicationRoutes(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodPost, "/api/articles", h.full, `{"data":{"title":"Syndicated","slug":"syndicated","publishDate":"2024-05-01T10:00:00.000Z"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/sitemap.xml", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://blog.test/blog/syndicated")

	w = h.do(http.MethodGet, "/feed.xml", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Syndicated</title>")
}

func TestCORSAllowList(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/_health", nil)
	req.Header.Set("Origin", "https://blog.test")
	w := httptest.NewRecorder()
	h.app.Router().ServeHTTP(w, req)
	assert.Equal(t, "https://blog.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/_health", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	h.app.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOriginList(t *testing.T) {
	cases := []struct {
		pattern string
		host    string
		want    bool
	}{
		{"blog.test", "blog.test", true},
		{"https://blog.test", "blog.test", true},
		{"*.example.com", "www.example.com", true},
		{"*.example.com", "example.com", false},
		{"localhost:*", "localhost:3000", true},
		{"localhost:*", "localhost.evil.com", false},
		{"blog.test", "other.test", false},
		{"", "blog.test", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, compileOrigins([]string{tc.pattern}).allows("https://"+tc.host), "%s vs %s", tc.pattern, tc.host)
	}
	assert.Equal(t, "blog.test:8080", originHost("http://blog.test:8080"))
}
