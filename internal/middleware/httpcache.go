package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	redispkg "github.com/webapp-skeleton/cms/internal/pkg/redis"
	"go.uber.org/zap"
)

const (
	APICachePrefix = "cms-api-cache:"
	// CacheStateHeader is "hit" or "miss" on cacheable responses.
	CacheStateHeader = "x-cms-cache"

	defaultHTTPCacheTTL     = 15 * time.Second
	defaultHTTPCacheMaxBody = 1 << 20
	staleWhileRevalidate    = 60
)

// HTTPCacheOptions tunes the public response cache. SkipPaths entries match
// exactly or, with a trailing `*`, by prefix.
type HTTPCacheOptions struct {
	TTL          time.Duration
	Disable      bool
	SkipPaths    []string
	MaxBodyBytes int
	// CDNHeaders adds s-maxage style headers for a shared cache in front.
	CDNHeaders bool
	Log        *zap.Logger
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// recorder tees the body into a bounded buffer and lets the cache set its
// headers right before the first byte goes out.
type recorder struct {
	gin.ResponseWriter
	buf      []byte
	limit    int
	overflow bool
	onStart  func(status int, h http.Header)
	started  bool
}

func (r *recorder) Write(p []byte) (int, error) {
	r.begin()
	r.keep(p)
	return r.ResponseWriter.Write(p)
}

func (r *recorder) WriteString(s string) (int, error) {
	r.begin()
	r.keep([]byte(s))
	return r.ResponseWriter.WriteString(s)
}

func (r *recorder) begin() {
	if !r.started {
		r.started = true
		r.onStart(r.Status(), r.Header())
	}
}

func (r *recorder) keep(p []byte) {
	if r.overflow {
		return
	}
	if len(r.buf)+len(p) > r.limit {
		r.overflow, r.buf = true, nil
		return
	}
	r.buf = append(r.buf, p...)
}

type responseCache struct {
	rdb  *redis.Client
	opts HTTPCacheOptions
}

// HTTPCache serves repeated anonymous GETs from redis. Requests that carry a
// valid token, or a cache-busting timestamp parameter, skip it. It must run
// after TokenAuth.Optional so that authenticated requests can be told apart.
func HTTPCache(rdb *redis.Client, opts HTTPCacheOptions) gin.HandlerFunc {
	if opts.TTL <= 0 {
		opts.TTL = defaultHTTPCacheTTL
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultHTTPCacheMaxBody
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	rc := &responseCache{rdb: rdb, opts: opts}

	return func(c *gin.Context) {
		if opts.Disable || rdb == nil || c.Request.Method != http.MethodGet ||
			skipPath(c.Request.URL.Path, opts.SkipPaths) || cacheBusted(c.Request) {
			c.Next()
			return
		}
		if IsAuthenticated(c) {
			noStore(c.Writer.Header())
			c.Next()
			return
		}

		key := APICachePrefix + c.Request.URL.RequestURI()
		ctx := c.Request.Context()
		if hit, ok := rc.load(ctx, key); ok {
			rc.stamp(c.Writer.Header(), "hit")
			c.Data(hit.Status, hit.ContentType, hit.Body)
			c.Abort()
			return
		}

		rec := &recorder{
			ResponseWriter: c.Writer,
			limit:          opts.MaxBodyBytes,
			onStart: func(status int, h http.Header) {
				if cacheable(status, h) {
					rc.stamp(h, "miss")
				}
			},
		}
		c.Writer = rec
		c.Next()

		if rec.overflow || len(rec.buf) == 0 || !cacheable(rec.Status(), rec.Header()) {
			return
		}
		rc.store(ctx, key, cachedResponse{
			Status:      rec.Status(),
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.buf,
		})
	}
}

func (rc *responseCache) load(ctx context.Context, key string) (cachedResponse, bool) {
	raw, err := rc.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			rc.opts.Log.Warn("read cached response", zap.String("key", key), zap.Error(err))
		}
		return cachedResponse{}, false
	}
	var hit cachedResponse
	if err := json.Unmarshal(raw, &hit); err != nil || hit.Status == 0 {
		return cachedResponse{}, false
	}
	if hit.ContentType == "" {
		hit.ContentType = gin.MIMEJSON + "; charset=utf-8"
	}
	return hit, true
}

func (rc *responseCache) store(ctx context.Context, key string, resp cachedResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := rc.rdb.Set(ctx, key, raw, rc.opts.TTL).Err(); err != nil {
		rc.opts.Log.Warn("store cached response", zap.String("key", key), zap.Error(err))
	}
}

func (rc *responseCache) stamp(h http.Header, state string) {
	h.Set(CacheStateHeader, state)
	if !rc.opts.CDNHeaders {
		return
	}
	ttl := int(rc.opts.TTL / time.Second)
	shared := fmt.Sprintf("max-age=%d, stale-while-revalidate=%d", ttl, staleWhileRevalidate)
	h.Set("CDN-Cache-Control", shared)
	if h.Get("Cache-Control") == "" {
		h.Set("Cache-Control", fmt.Sprintf("s-maxage=%d, stale-while-revalidate=%d", ttl, staleWhileRevalidate))
	}
}

// PurgeHTTPCache drops every cached response.
func PurgeHTTPCache(ctx context.Context, rdb *redis.Client) (int64, error) {
	if rdb == nil {
		return 0, nil
	}
	return redispkg.DeletePrefix(ctx, rdb, APICachePrefix)
}

func skipPath(path string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		} else if p != "" && path == p {
			return true
		}
	}
	return false
}

func cacheBusted(r *http.Request) bool {
	q := r.URL.Query()
	for _, key := range []string{"ts", "timestamp", "_t", "t"} {
		if strings.TrimSpace(q.Get(key)) != "" {
			return true
		}
	}
	return false
}

func cacheable(status int, h http.Header) bool {
	if status != http.StatusOK {
		return false
	}
	cc := strings.ToLower(h.Get("Cache-Control"))
	for _, directive := range []string{"no-cache", "no-store", "private"} {
		if strings.Contains(cc, directive) {
			return false
		}
	}
	return true
}

func noStore(h http.Header) {
	const value = "private, max-age=0, no-cache, no-store, must-revalidate"
	h.Set("Cache-Control", value)
	h.Set("CDN-Cache-Control", value)
}
