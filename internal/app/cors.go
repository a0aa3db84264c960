package app

import (
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/config"
	"github.com/webapp-skeleton/cms/internal/middleware"
)

func newCORS(cfg *config.AppConfig) gin.HandlerFunc {
	allow := func(string) bool { return true }
	if !cfg.IsDev() && len(cfg.AllowedOrigins) > 0 {
		allow = compileOrigins(cfg.AllowedOrigins).allows
	}
	return cors.New(cors.Config{
		AllowOriginFunc:  allow,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.IdempotencyHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.CacheStateHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
	})
}

// originRule is one allow-list entry: an exact host, a `*.domain` suffix or a
// `host:*` any-port prefix.
type originRule struct {
	exact  string
	suffix string
	prefix string
}

type originList []originRule

func compileOrigins(patterns []string) originList {
	out := make(originList, 0, len(patterns))
	for _, p := range patterns {
		p = originHost(strings.TrimSpace(p))
		switch {
		case p == "":
		case strings.HasPrefix(p, "*."):
			out = append(out, originRule{suffix: p[1:]})
		case strings.HasSuffix(p, ":*"):
			out = append(out, originRule{prefix: strings.TrimSuffix(p, "*")})
		default:
			out = append(out, originRule{exact: p})
		}
	}
	return out
}

func (l originList) allows(origin string) bool {
	host := originHost(origin)
	for _, r := range l {
		if r.match(host) {
			return true
		}
	}
	return false
}

func (r originRule) match(host string) bool {
	switch {
	case r.suffix != "":
		return strings.HasSuffix(host, r.suffix)
	case r.prefix != "":
		return strings.HasPrefix(host, r.prefix)
	default:
		return host == r.exact
	}
}

// originHost reduces "scheme://host[:port]" to "host[:port]". Anything that
// does not parse as a URL with a host is returned as is.
func originHost(origin string) string {
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return u.Host
	}
	return origin
}
