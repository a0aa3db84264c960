package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DSNValue returns the explicit DSN when set, otherwise the MySQL DSN for the
// individual fields.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}
	return c.MySQL().FormatDSN()
}

// MySQL maps the fields onto a driver config. Unknown locations fall back to
// UTC.
func (c DatabaseRuntimeConfig) MySQL() *mysql.Config {
	m := mysql.NewConfig()
	m.User = strings.TrimSpace(c.User)
	m.Passwd = strings.TrimSpace(c.Password)
	m.Net = "tcp"
	m.Addr = net.JoinHostPort(firstNonEmpty(c.Host, defaultDBHost), strconv.Itoa(orDefaultPort(c.Port, defaultDBPort)))
	m.DBName = firstNonEmpty(c.Name, defaultDBName)
	m.ParseTime = c.ParseTime
	if loc, err := time.LoadLocation(firstNonEmpty(c.Loc, defaultDBLoc)); err == nil {
		m.Loc = loc
	}

	m.Params = copyStringMap(c.Params)
	if m.Params == nil {
		m.Params = map[string]string{}
	}
	if _, ok := m.Params["charset"]; !ok {
		m.Params["charset"] = firstNonEmpty(c.Charset, defaultDBCharset)
	}
	return m
}

// URLValue returns the explicit URL when set, otherwise a redis:// (or
// rediss:// with TLS) URL for the individual fields.
func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}

	scheme := "redis"
	if c.TLS || strings.EqualFold(strings.TrimSpace(c.Scheme), "rediss") {
		scheme = "rediss"
	}
	db := c.DB
	if db < 0 {
		db = defaultRedisDB
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(firstNonEmpty(c.Host, defaultRedisHost), strconv.Itoa(orDefaultPort(c.Port, defaultRedisPort))),
		Path:   "/" + strconv.Itoa(db),
	}

	user, pass := strings.TrimSpace(c.Username), strings.TrimSpace(c.Password)
	switch {
	case pass != "":
		u.User = url.UserPassword(user, pass)
	case user != "":
		u.User = url.User(user)
	}

	if params := copyStringMap(c.Params); len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func orDefaultPort(port, fallback int) int {
	if port == 0 {
		return fallback
	}
	return port
}
