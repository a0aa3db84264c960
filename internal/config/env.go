package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// envOverrides are the process-level settings that take precedence over the
// YAML file. Unset variables leave the file's values alone.
type envOverrides struct {
	Port           int      `env:"PORT"`
	Env            string   `env:"APP_ENV"`
	DatabaseDSN    string   `env:"DATABASE_DSN"`
	RedisURL       string   `env:"REDIS_URL"`
	RedisDisable   *bool    `env:"REDIS_DISABLE"`
	JWTSecret      string   `env:"JWT_SECRET"`
	SiteURL        string   `env:"SITE_URL"`
	PublicURL      string   `env:"PUBLIC_URL"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"      envSeparator:","`
	LogDir         string   `env:"LOG_DIR"`
	StaticDir      string   `env:"STATIC_DIR"`
	UploadProvider string   `env:"UPLOAD_PROVIDER"`
	S3Bucket       string   `env:"S3_BUCKET"`
	S3Region       string   `env:"S3_REGION"`
	S3Endpoint     string   `env:"S3_ENDPOINT"`
	S3AccessKeyID  string   `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string   `env:"S3_SECRET_ACCESS_KEY"`
	S3CustomDomain string   `env:"S3_CUSTOM_DOMAIN"`
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setInt(&cfg.Port, o.Port)
	setString(&cfg.Env, o.Env)
	setString(&cfg.Database.DSN, o.DatabaseDSN)
	setString(&cfg.Redis.URL, o.RedisURL)
	setPtr(&cfg.Redis.Disable, o.RedisDisable)
	setString(&cfg.JWTSecret, o.JWTSecret)
	setString(&cfg.Site.URL, o.SiteURL)
	setString(&cfg.PublicURL, o.PublicURL)
	if len(o.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = normalizeOrigins(o.AllowedOrigins)
	}
	setString(&cfg.Paths.Logs, o.LogDir)
	setString(&cfg.Paths.Static, o.StaticDir)
	setString(&cfg.Upload.Provider, o.UploadProvider)
	s3 := &cfg.Upload.S3
	setString(&s3.Bucket, o.S3Bucket)
	setString(&s3.Region, o.S3Region)
	setString(&s3.Endpoint, o.S3Endpoint)
	setString(&s3.AccessKeyID, o.S3AccessKeyID)
	setString(&s3.SecretAccessKey, o.S3SecretKey)
	setString(&s3.CustomDomain, o.S3CustomDomain)
	return nil
}

// ClientConfig configures the content and backend clients used by the site
// renderer and the CLI. The variable names are the ones the frontend build
// already exports.
type ClientConfig struct {
	CMSURL         string        `env:"NEXT_PUBLIC_STRAPI_URL"       envDefault:"http://localhost:1337"`
	CMSInternalURL string        `env:"STRAPI_INTERNAL_URL"`
	CMSToken       string        `env:"NEXT_PUBLIC_STRAPI_API_TOKEN"`
	BackendURL     string        `env:"NEXT_PUBLIC_API_URL"          envDefault:"http://localhost:8000/api/v1"`
	BackendToken   string        `env:"BACKEND_API_TOKEN"`
	Timeout        time.Duration `env:"CLIENT_TIMEOUT"               envDefault:"10s"`
}

// LoadClient reads ClientConfig from `.env` and the environment.
func LoadClient() (ClientConfig, error) {
	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return ClientConfig{}, err
	}
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.CMSURL = strings.TrimRight(firstNonEmpty(cfg.CMSURL, defaultCMSURL), "/")
	cfg.CMSInternalURL = strings.TrimRight(strings.TrimSpace(cfg.CMSInternalURL), "/")
	cfg.BackendURL = strings.TrimRight(firstNonEmpty(cfg.BackendURL, defaultBackendURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg, nil
}

// InternalURL is the base used for server-side requests: the internal URL when
// configured, otherwise the public one.
func (c ClientConfig) InternalURL() string {
	return firstNonEmpty(c.CMSInternalURL, c.CMSURL)
}
