package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
	"go.uber.org/zap"
)

const rateLimitPrefix = "cms:rate_limit:"

type RateLimitOptions struct {
	Requests int
	Window   time.Duration
	Log      *zap.Logger
	now      func() time.Time
}

// RateLimit caps anonymous requests per client IP to Requests per fixed
// Window. Authenticated requests and redis failures are let through.
func RateLimit(rdb *redis.Client, opts RateLimitOptions) gin.HandlerFunc {
	if opts.Requests <= 0 {
		opts.Requests = 300
	}
	if opts.Window <= 0 {
		opts.Window = time.Minute
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	return func(c *gin.Context) {
		if rdb == nil || IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		bucket := opts.now().UnixNano() / int64(opts.Window)
		key := fmt.Sprintf("%s%s:%d", rateLimitPrefix, ip, bucket)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			opts.Log.Warn("rate limit counter failed", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, opts.Window+time.Second)
		}

		remaining := int64(opts.Requests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(opts.Requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(opts.Requests) {
			opts.Log.Info("rate limited", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
