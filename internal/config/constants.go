package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	// DefaultEnvFile is loaded into the process environment when present.
	DefaultEnvFile = ".env"

	defaultPort       = 1337
	defaultEnv        = "development"
	defaultSiteURL    = "http://localhost:3000"
	defaultSiteTitle  = "Blog"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "skeleton_cms"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultCacheTTLSeconds   = 15
	defaultRateLimitRequests = 300
	defaultRateLimitWindow   = 60
	defaultUploadProvider    = "local"
	defaultUploadMaxSizeMB   = 50

	defaultCMSURL     = "http://localhost:1337"
	defaultBackendURL = "http://localhost:8000/api/v1"
)
