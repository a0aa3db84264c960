package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func assertDSN(t *testing.T, dsn, user, pass, addr, name string) {
	t.Helper()
	m, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, user, m.User)
	assert.Equal(t, pass, m.Passwd)
	assert.Equal(t, "tcp", m.Net)
	assert.Equal(t, addr, m.Addr)
	assert.Equal(t, name, m.DBName)
	assert.True(t, m.ParseTime)
	assert.Equal(t, time.Local, m.Loc)
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assertDSN(t, cfg.DSN, "root", "password", "127.0.0.1:3306", "skeleton_cms")
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 15, cfg.Cache.TTLSeconds)
	assert.Equal(t, "local", cfg.Upload.Provider)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "port: 8080\nmystery: true\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
port: 8080
env: Production
jwt_secret: s3cret
database:
  host: db
  name: cms
  user: cms
  password: pw
redis:
  url: cache:6379/2
site:
  url: https://blog.example.com/
allowed_origins: [" https://blog.example.com ", ""]
upload:
  provider: S3
  s3:
    bucket: media
    custom_domain: https://cdn.example.com/
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.IsDev())
	assertDSN(t, cfg.DSN, "cms", "pw", "db:3306", "cms")
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, "https://blog.example.com", cfg.Site.URL)
	assert.Equal(t, []string{"https://blog.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "s3", cfg.Upload.Provider)
	assert.Equal(t, "https://cdn.example.com", cfg.Upload.S3.CustomDomain)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "port: 8080\nredis:\n  url: redis://file:6379/0\n")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DSN", "u:p@tcp(env:3306)/x")
	t.Setenv("REDIS_URL", "redis://env:6379/1")
	t.Setenv("REDIS_DISABLE", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "u:p@tcp(env:3306)/x", cfg.DSN)
	assert.Equal(t, "redis://env:6379/1", cfg.RedisURL)
	assert.True(t, cfg.Redis.Disable)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"bad port":          "port: 70000\n",
		"bad provider":      "upload:\n  provider: ftp\n",
		"s3 without bucket": "upload:\n  provider: s3\n",
		"prod without jwt":  "env: production\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadDotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SITE_URL=https://dotenv.example\nPORT=7000\n"), 0o600))
	t.Setenv("PORT", "7100")
	t.Cleanup(func() { os.Unsetenv("SITE_URL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port)
	assert.Equal(t, "https://dotenv.example", cfg.Site.URL)
}

func TestLoadClient(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NEXT_PUBLIC_STRAPI_URL", "https://cms.example.com/")
	t.Setenv("STRAPI_INTERNAL_URL", "")
	t.Setenv("NEXT_PUBLIC_STRAPI_API_TOKEN", "tok")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "https://cms.example.com", cfg.CMSURL)
	assert.Equal(t, "https://cms.example.com", cfg.InternalURL())
	assert.Equal(t, "tok", cfg.CMSToken)
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.BackendURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)

	t.Setenv("STRAPI_INTERNAL_URL", "http://cms:1337")
	cfg, err = LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://cms:1337", cfg.InternalURL())
}
