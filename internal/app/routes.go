package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/middleware"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/auth/token"
	"github.com/webapp-skeleton/cms/internal/modules/content/article"
	"github.com/webapp-skeleton/cms/internal/modules/content/author"
	"github.com/webapp-skeleton/cms/internal/modules/content/blogpost"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/modules/content/taxonomy"
	"github.com/webapp-skeleton/cms/internal/modules/storage/upload"
	"github.com/webapp-skeleton/cms/internal/modules/syndication/feed"
	"github.com/webapp-skeleton/cms/internal/modules/syndication/sitemap"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router
	db := a.db
	rdb := a.redis.Raw()
	auth := middleware.NewTokenAuth(db, a.signer, a.logger)
	writeMW := auth.RequireFullAccess()
	purger := crud.PurgeFunc(a.purge)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})
	r.GET("/_health", func(c *gin.Context) {
		response.NoContent(c)
	})

	uploads := upload.NewHandler(upload.NewService(db, a.provider, int64(a.cfg.Upload.MaxSizeMB)<<20, purger, a.logger))
	uploads.RegisterStatic(r)
	sitemap.NewHandler(db, a.cfg.Site.URL).RegisterRoutes(r)
	feed.NewHandler(db, a.cfg.Site, a.cfg.PublicURL).RegisterRoutes(r)

	api := r.Group("/api")
	api.Use(auth.Optional())
	if !a.cfg.RateLimit.Disable {
		api.Use(middleware.RateLimit(rdb, middleware.RateLimitOptions{
			Requests: a.cfg.RateLimit.Requests,
			Window:   time.Duration(a.cfg.RateLimit.WindowSeconds) * time.Second,
			Log:      a.logger,
		}))
	}
	api.Use(middleware.HTTPCache(rdb, middleware.HTTPCacheOptions{
		TTL:       time.Duration(a.cfg.Cache.TTLSeconds) * time.Second,
		Disable:   a.cfg.Cache.Disable,
		SkipPaths: []string{"/api/upload*", "/api/tokens*"},
		Log:       a.logger,
	}))
	api.Use(middleware.Idempotence(rdb))

	ctrl := article.NewController(crud.New[models.Article](db, crud.ArticleSchema))
	article.NewHandler(ctrl, article.NewService(db, ctrl, purger, a.logger)).RegisterRoutes(api, writeMW)
	blogpost.NewHandler(blogpost.NewService(db, purger, a.logger)).RegisterRoutes(api, writeMW)
	author.NewHandler(author.NewService(db, purger, a.logger)).RegisterRoutes(api, writeMW)
	taxonomy.NewHandler(taxonomy.NewService[models.Category](db, taxonomy.Categories, purger, a.logger)).RegisterRoutes(api, writeMW)
	taxonomy.NewHandler(taxonomy.NewService[models.Tag](db, taxonomy.Tags, purger, a.logger)).RegisterRoutes(api, writeMW)
	uploads.RegisterRoutes(api, writeMW)
	token.NewHandler(token.NewService(db, a.signer)).RegisterRoutes(api, writeMW)
}
