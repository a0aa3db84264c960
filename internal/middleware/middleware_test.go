package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webapp-skeleton/cms/internal/database/dbtest"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/pkg/jwt"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

type tokenFixture struct {
	db     *gorm.DB
	auth   *TokenAuth
	signer *jwt.Signer
}

func newTokenFixture(t *testing.T) tokenFixture {
	t.Helper()
	db := dbtest.Open(t)
	signer := jwt.NewSigner("test-secret")
	return tokenFixture{db: db, auth: NewTokenAuth(db, signer, nil), signer: signer}
}

func (f tokenFixture) issue(t *testing.T, name, typ string, mutate func(*models.APIToken)) string {
	t.Helper()
	row := models.APIToken{Name: name, Type: typ}
	if mutate != nil {
		mutate(&row)
	}
	require.NoError(t, f.db.Create(&row).Error)
	token, err := f.signer.Sign(row.DocumentID, row.Type, row.ExpiresAt)
	require.NoError(t, err)
	return token
}

func serve(router *gin.Engine, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireFullAccess(t *testing.T) {
	f := newTokenFixture(t)
	full := f.issue(t, "deploy", models.TokenFullAccess, nil)
	readOnly := f.issue(t, "site", models.TokenReadOnly, nil)
	revoked := f.issue(t, "old", models.TokenFullAccess, func(r *models.APIToken) {
		now := time.Now()
		r.RevokedAt = &now
	})
	deleted := f.issue(t, "gone", models.TokenFullAccess, nil)
	require.NoError(t, f.db.Where("name = ?", "gone").Delete(&models.APIToken{}).Error)
	forged, err := jwt.NewSigner("other").Sign("whatever", models.TokenFullAccess, nil)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/write", f.auth.RequireFullAccess(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentToken(c).Name)
	})

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"full access", full, http.StatusOK},
		{"read only", readOnly, http.StatusForbidden},
		{"missing", "", http.StatusUnauthorized},
		{"revoked", revoked, http.StatusUnauthorized},
		{"row deleted", deleted, http.StatusUnauthorized},
		{"forged", forged, http.StatusUnauthorized},
		{"garbage", "abc", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, "/write", tc.token)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	var row models.APIToken
	require.NoError(t, f.db.Where("name = ?", "deploy").Take(&row).Error)
	assert.NotNil(t, row.LastUsedAt)
}

func TestExpiredRowIsRejected(t *testing.T) {
	f := newTokenFixture(t)
	token := f.issue(t, "soon", models.TokenFullAccess, func(r *models.APIToken) {
		exp := time.Now().Add(time.Hour)
		r.ExpiresAt = &exp
	})
	f.auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := f.auth.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenUnusable)
}

func TestOptionalAuth(t *testing.T) {
	f := newTokenFixture(t)
	readOnly := f.issue(t, "site", models.TokenReadOnly, nil)

	router := gin.New()
	router.Use(f.auth.Optional())
	router.GET("/public", func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.String(http.StatusOK, "token")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	rec := serve(router, http.MethodGet, "/public", "")
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = serve(router, http.MethodGet, "/public", readOnly)
	assert.Equal(t, "token", rec.Body.String())

	rec = serve(router, http.MethodGet, "/public", "broken")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"UnauthorizedError"`)
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", NormalizeToken("  Bearer abc "))
	assert.Equal(t, "abc", NormalizeToken("bearer abc"))
	assert.Equal(t, "abc", NormalizeToken("abc"))
	assert.Equal(t, "", NormalizeToken("   "))
}

func TestHTTPCache(t *testing.T) {
	_, rdb := newRedis(t)
	f := newTokenFixture(t)
	token := f.issue(t, "site", models.TokenReadOnly, nil)

	var hits atomic.Int32
	router := gin.New()
	router.Use(f.auth.Optional(), HTTPCache(rdb, HTTPCacheOptions{TTL: time.Minute, SkipPaths: []string{"/api/upload*"}}))
	router.GET("/api/articles", func(c *gin.Context) {
		n := hits.Add(1)
		c.JSON(http.StatusOK, gin.H{"n": n})
	})
	router.GET("/api/upload/files", func(c *gin.Context) {
		hits.Add(1)
		c.JSON(http.StatusOK, gin.H{})
	})
	router.GET("/api/missing", func(c *gin.Context) {
		hits.Add(1)
		c.JSON(http.StatusNotFound, gin.H{})
	})

	first := serve(router, http.MethodGet, "/api/articles", "")
	assert.Equal(t, "miss", first.Header().Get("x-cms-cache"))
	second := serve(router, http.MethodGet, "/api/articles", "")
	assert.Equal(t, "hit", second.Header().Get("x-cms-cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 1, hits.Load())

	authed := serve(router, http.MethodGet, "/api/articles", token)
	assert.JSONEq(t, `{"n":2}`, authed.Body.String())
	assert.Contains(t, authed.Header().Get("cache-control"), "private")

	serve(router, http.MethodGet, "/api/articles?ts=1", "")
	assert.EqualValues(t, 3, hits.Load())

	serve(router, http.MethodGet, "/api/upload/files", "")
	serve(router, http.MethodGet, "/api/upload/files", "")
	serve(router, http.MethodGet, "/api/missing", "")
	serve(router, http.MethodGet, "/api/missing", "")
	assert.EqualValues(t, 7, hits.Load())

	n, err := PurgeHTTPCache(context.Background(), rdb)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	after := serve(router, http.MethodGet, "/api/articles", "")
	assert.Equal(t, "miss", after.Header().Get("x-cms-cache"))
	assert.EqualValues(t, 8, hits.Load())
}

func TestHTTPCacheWithoutRedis(t *testing.T) {
	router := gin.New()
	router.Use(HTTPCache(nil, HTTPCacheOptions{}))
	router.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := serve(router, http.MethodGet, "/x", "")
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("x-cms-cache"))

	n, err := PurgeHTTPCache(context.Background(), nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestRateLimit(t *testing.T) {
	_, rdb := newRedis(t)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := fixed

	router := gin.New()
	router.Use(RateLimit(rdb, RateLimitOptions{Requests: 2, Window: time.Minute, now: func() time.Time { return now }}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/x", "").Code)
	rec := serve(router, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(router, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"RateLimitError"`)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	now = fixed.Add(time.Minute)
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/x", "").Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	router := gin.New()
	router.Use(RateLimit(rdb, RateLimitOptions{Requests: 1}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/x", "").Code)
	}
}

func TestIdempotence(t *testing.T) {
	_, rdb := newRedis(t)
	var calls atomic.Int32
	status := http.StatusCreated

	router := gin.New()
	router.Use(Idempotence(rdb))
	router.POST("/x", func(c *gin.Context) {
		calls.Add(1)
		c.Status(status)
	})

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{}"))
		if key != "" {
			req.Header.Set(IdempotencyHeader, key)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send("k1"))
	assert.Equal(t, http.StatusConflict, send("k1"))
	assert.Equal(t, http.StatusCreated, send("k2"))
	assert.Equal(t, http.StatusCreated, send(""))
	assert.Equal(t, http.StatusCreated, send(""))
	assert.EqualValues(t, 4, calls.Load())

	status = http.StatusBadRequest
	assert.Equal(t, http.StatusBadRequest, send("k3"))
	assert.Equal(t, http.StatusBadRequest, send("k3"), "failed requests release the key")
}

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(Logger(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(router, http.MethodGet, "/ok?x=1", "")
	serve(router, http.MethodGet, "/bad", "")
	serve(router, http.MethodGet, "/boom", "")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "x=1", entries[0].ContextMap()["query"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
}
