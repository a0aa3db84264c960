package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencePrefix = "cms:idempotence:"
	idempotenceTTL    = 60 * time.Second
)

// Idempotence rejects a repeated write that carries an Idempotency-Key already
// seen within the last minute. The key is scoped to method, path and token.
// Failed requests release their key so they can be retried.
func Idempotence(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			c.Next()
			return
		}
		hdr := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if hdr == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		redisKey := idempotencePrefix + idempotenceKey(c, hdr)

		ok, err := rdb.SetNX(ctx, redisKey, "0", idempotenceTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !ok {
			msg := "a request with this idempotency key already succeeded"
			if val, _ := rdb.Get(ctx, redisKey).Result(); val == "0" {
				msg = "a request with this idempotency key is still in progress"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			rdb.Set(ctx, redisKey, "1", redis.KeepTTL)
		} else {
			rdb.Del(ctx, redisKey)
		}
	}
}

func idempotenceKey(c *gin.Context, hdr string) string {
	raw := c.Request.Method + "|" + c.Request.URL.Path + "|" + NormalizeToken(c.GetHeader("Authorization")) + "|" + hdr
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
