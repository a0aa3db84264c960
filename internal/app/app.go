package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/config"
	"github.com/webapp-skeleton/cms/internal/database"
	"github.com/webapp-skeleton/cms/internal/middleware"
	"github.com/webapp-skeleton/cms/internal/modules/storage/upload"
	"github.com/webapp-skeleton/cms/internal/pkg/jwt"
	pkgredis "github.com/webapp-skeleton/cms/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	redis    *pkgredis.Client
	signer   *jwt.Signer
	provider upload.Provider
	logger   *zap.Logger
}

// New initializes the application: config → DB → Redis → routes.
func New(ctx context.Context, logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	var rc *pkgredis.Client
	if cfg.Redis.Disable {
		logger.Warn("redis disabled: response cache, rate limit and idempotency keys are off")
	} else if rc, err = pkgredis.Connect(ctx, cfg.RedisURL); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	return Assemble(logger, cfg, db, rc)
}

// Assemble wires an App from already opened stores. rc may be nil.
func Assemble(logger *zap.Logger, cfg *config.AppConfig, db *gorm.DB, rc *pkgredis.Client) (*App, error) {
	if cfg.JWTSecret == "" {
		logger.Warn("jwt_secret is empty, using built-in development secret")
	}
	provider, err := upload.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("upload provider: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(newCORS(cfg))

	app := &App{
		cfg:      cfg,
		router:   router,
		db:       db,
		redis:    rc,
		signer:   jwt.NewSigner(cfg.JWTSecret),
		provider: provider,
		logger:   logger,
	}
	app.registerRoutes()
	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown releases the store connections.
func (a *App) Shutdown() {
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("close redis", zap.Error(err))
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
}

// purge drops the public response cache after content writes.
func (a *App) purge(ctx context.Context) error {
	n, err := middleware.PurgeHTTPCache(ctx, a.redis.Raw())
	if err != nil {
		return err
	}
	if n > 0 {
		a.logger.Debug("http cache purged", zap.Int64("keys", n))
	}
	return nil
}
