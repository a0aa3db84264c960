package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig holds runtime startup configuration loaded from YAML and the
// environment.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	DSN            string                `yaml:"dsn"`
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	PublicURL      string                `yaml:"public_url"`
	Site           SiteConfig            `yaml:"site"`
	Cache          CacheConfig           `yaml:"cache"`
	RateLimit      RateLimitConfig       `yaml:"rate_limit"`
	Upload         UploadConfig          `yaml:"upload"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	Disable  bool              `yaml:"disable"`
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type RuntimePathsConfig struct {
	Logs   string `yaml:"logs"`
	Static string `yaml:"static"`
}

// SiteConfig describes the public blog that renders this content.
type SiteConfig struct {
	URL         string `yaml:"url"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type CacheConfig struct {
	Disable    bool `yaml:"disable"`
	TTLSeconds int  `yaml:"ttl_seconds"`
}

type RateLimitConfig struct {
	Disable       bool `yaml:"disable"`
	Requests      int  `yaml:"requests"`
	WindowSeconds int  `yaml:"window_seconds"`
}

type UploadConfig struct {
	Provider  string   `yaml:"provider"` // "local" | "s3"
	MaxSizeMB int      `yaml:"max_size_mb"`
	S3        S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	CustomDomain    string `yaml:"custom_domain"`
	PathPrefix      string `yaml:"path_prefix"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

type rawAppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"`
	DSN            string             `yaml:"dsn"`
	RedisURL       string             `yaml:"redis_url"`
	Database       rawDatabaseConfig  `yaml:"database"`
	Redis          rawRedisConfig     `yaml:"redis"`
	Paths          RuntimePathsConfig `yaml:"paths"`
	AllowedOrigins []string           `yaml:"allowed_origins"`
	JWTSecret      string             `yaml:"jwt_secret"`
	PublicURL      string             `yaml:"public_url"`
	Site           SiteConfig         `yaml:"site"`
	Cache          rawCacheConfig     `yaml:"cache"`
	RateLimit      rawRateLimitConfig `yaml:"rate_limit"`
	Upload         UploadConfig       `yaml:"upload"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	Disable  *bool             `yaml:"disable"`
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type rawCacheConfig struct {
	Disable    *bool `yaml:"disable"`
	TTLSeconds int   `yaml:"ttl_seconds"`
}

type rawRateLimitConfig struct {
	Disable       *bool `yaml:"disable"`
	Requests      int   `yaml:"requests"`
	WindowSeconds int   `yaml:"window_seconds"`
}

// Load reads the YAML file at configPath, then applies `.env` and process
// environment overrides. A missing file is only an error when configPath was
// given explicitly.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		raw := rawAppConfig{}
		if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
		applyRawAppConfig(&cfg, raw)
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	finalize(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port:      defaultPort,
		Env:       defaultEnv,
		PublicURL: defaultCMSURL,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Site:      SiteConfig{URL: defaultSiteURL, Title: defaultSiteTitle},
		Cache:     CacheConfig{TTLSeconds: defaultCacheTTLSeconds},
		RateLimit: RateLimitConfig{Requests: defaultRateLimitRequests, WindowSeconds: defaultRateLimitWindow},
		Upload:    UploadConfig{Provider: defaultUploadProvider, MaxSizeMB: defaultUploadMaxSizeMB},
	}
	finalize(&cfg)
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	setInt(&cfg.Port, raw.Port)
	setString(&cfg.Env, raw.Env)
	cfg.Database.apply(raw.Database, raw.DSN)
	cfg.Redis.apply(raw.Redis, raw.RedisURL)

	setString(&cfg.Paths.Logs, raw.Paths.Logs)
	setString(&cfg.Paths.Static, raw.Paths.Static)
	if raw.AllowedOrigins != nil {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}
	setString(&cfg.JWTSecret, raw.JWTSecret)
	setString(&cfg.PublicURL, raw.PublicURL)
	setString(&cfg.Site.URL, raw.Site.URL)
	setString(&cfg.Site.Title, raw.Site.Title)
	setString(&cfg.Site.Description, raw.Site.Description)

	setPtr(&cfg.Cache.Disable, raw.Cache.Disable)
	setInt(&cfg.Cache.TTLSeconds, raw.Cache.TTLSeconds)
	setPtr(&cfg.RateLimit.Disable, raw.RateLimit.Disable)
	setInt(&cfg.RateLimit.Requests, raw.RateLimit.Requests)
	setInt(&cfg.RateLimit.WindowSeconds, raw.RateLimit.WindowSeconds)

	setString(&cfg.Upload.Provider, raw.Upload.Provider)
	setInt(&cfg.Upload.MaxSizeMB, raw.Upload.MaxSizeMB)
	s3 := &cfg.Upload.S3
	setString(&s3.Bucket, raw.Upload.S3.Bucket)
	setString(&s3.Region, raw.Upload.S3.Region)
	setString(&s3.Endpoint, raw.Upload.S3.Endpoint)
	setString(&s3.AccessKeyID, raw.Upload.S3.AccessKeyID)
	setString(&s3.SecretAccessKey, raw.Upload.S3.SecretAccessKey)
	setString(&s3.CustomDomain, raw.Upload.S3.CustomDomain)
	setString(&s3.PathPrefix, raw.Upload.S3.PathPrefix)
	s3.ForcePathStyle = s3.ForcePathStyle || raw.Upload.S3.ForcePathStyle
}

// apply overlays the YAML database block. A top-level dsn wins over
// database.dsn.
func (c *DatabaseRuntimeConfig) apply(raw rawDatabaseConfig, topDSN string) {
	setString(&c.DSN, raw.DSN)
	setString(&c.DSN, topDSN)
	setString(&c.Host, raw.Host)
	setInt(&c.Port, raw.Port)
	setString(&c.User, raw.User)
	setString(&c.Password, raw.Password)
	setString(&c.Name, raw.Name)
	setString(&c.Charset, raw.Charset)
	setPtr(&c.ParseTime, raw.ParseTime)
	setString(&c.Loc, raw.Loc)
	if raw.Params != nil {
		c.Params = copyStringMap(raw.Params)
	}
	c.normalize()
}

// apply overlays the YAML redis block. A top-level redis_url wins over
// redis.url.
func (c *RedisRuntimeConfig) apply(raw rawRedisConfig, topURL string) {
	setPtr(&c.Disable, raw.Disable)
	setString(&c.URL, raw.URL)
	setString(&c.URL, topURL)
	setString(&c.Host, raw.Host)
	setInt(&c.Port, raw.Port)
	setString(&c.Username, raw.Username)
	setString(&c.Password, raw.Password)
	setPtr(&c.DB, raw.DB)
	setPtr(&c.TLS, raw.TLS)
	setString(&c.Scheme, raw.Scheme)
	if raw.Params != nil {
		c.Params = copyStringMap(raw.Params)
	}
	c.normalize()
}

// finalize derives DSN and RedisURL and normalizes everything once all
// sources were applied.
func finalize(cfg *AppConfig) {
	cfg.Database.normalize()
	cfg.Redis.normalize()
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Paths.Logs = strings.TrimSpace(cfg.Paths.Logs)
	cfg.Paths.Static = strings.TrimSpace(cfg.Paths.Static)
	cfg.Site.normalize()
	cfg.PublicURL = strings.TrimRight(firstNonEmpty(cfg.PublicURL, defaultCMSURL), "/")
	cfg.Upload.normalize()
	cfg.Env = strings.ToLower(firstNonEmpty(cfg.Env, defaultEnv))
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d, expected 1-65535", c.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db %d, expected >= 0", c.Redis.DB)
	}
	if c.Cache.TTLSeconds < 1 {
		return fmt.Errorf("cache.ttl_seconds %d, expected >= 1", c.Cache.TTLSeconds)
	}
	switch c.Upload.Provider {
	case "local":
	case "s3":
		if c.Upload.S3.Bucket == "" {
			return errors.New("upload.s3.bucket is required for the s3 provider")
		}
	default:
		return fmt.Errorf("upload.provider %q, expected local or s3", c.Upload.Provider)
	}
	if !c.IsDev() && c.JWTSecret == "" {
		return errors.New("jwt_secret is required outside development")
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

func (c *AppConfig) StaticDir() string {
	if c == nil {
		return ResolveRuntimePath("", "public")
	}
	return ResolveRuntimePath(c.Paths.Static, "public")
}
