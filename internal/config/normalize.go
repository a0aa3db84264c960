package config

import "strings"

// setString overwrites dst when src has non-blank content.
func setString(dst *string, src string) {
	if v := strings.TrimSpace(src); v != "" {
		*dst = v
	}
}

func setInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// setPtr copies an explicitly set YAML or env value, including false and 0.
func setPtr[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (c *DatabaseRuntimeConfig) normalize() {
	c.DSN = strings.TrimSpace(c.DSN)
	for _, f := range []struct {
		v   *string
		def string
	}{
		{&c.Host, defaultDBHost},
		{&c.User, defaultDBUser},
		{&c.Password, defaultDBPassword},
		{&c.Name, defaultDBName},
		{&c.Charset, defaultDBCharset},
		{&c.Loc, defaultDBLoc},
	} {
		*f.v = firstNonEmpty(*f.v, f.def)
	}
	c.Port = orDefaultPort(c.Port, defaultDBPort)
	c.Params = copyStringMap(c.Params)
}

// normalize fills the host only when no URL is given, so URLValue can tell
// the two forms apart.
func (c *RedisRuntimeConfig) normalize() {
	c.URL = normalizeRedisRawURL(c.URL)
	c.Host = strings.TrimSpace(c.Host)
	c.Username = strings.TrimSpace(c.Username)
	c.Password = strings.TrimSpace(c.Password)
	if c.URL == "" {
		c.Host = firstNonEmpty(c.Host, defaultRedisHost)
	}
	c.Port = orDefaultPort(c.Port, defaultRedisPort)
	if c.DB < 0 {
		c.DB = defaultRedisDB
	}

	c.Scheme = strings.ToLower(strings.TrimSpace(c.Scheme))
	if c.Scheme == "" && c.TLS {
		c.Scheme = "rediss"
	} else if c.Scheme == "" {
		c.Scheme = "redis"
	}
	c.Params = copyStringMap(c.Params)
}

// normalizeRedisRawURL accepts a bare host:port and adds the redis scheme.
func normalizeRedisRawURL(raw string) string {
	u := strings.TrimSpace(raw)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "redis://"), strings.HasPrefix(u, "rediss://"):
		return u
	default:
		return "redis://" + u
	}
}

func (s *SiteConfig) normalize() {
	s.URL = strings.TrimRight(firstNonEmpty(s.URL, defaultSiteURL), "/")
	s.Title = firstNonEmpty(s.Title, defaultSiteTitle)
	s.Description = strings.TrimSpace(s.Description)
}

func (u *UploadConfig) normalize() {
	u.Provider = strings.ToLower(firstNonEmpty(u.Provider, defaultUploadProvider))
	if u.MaxSizeMB <= 0 {
		u.MaxSizeMB = defaultUploadMaxSizeMB
	}
	u.S3.CustomDomain = strings.TrimRight(strings.TrimSpace(u.S3.CustomDomain), "/")
	u.S3.PathPrefix = strings.Trim(strings.TrimSpace(u.S3.PathPrefix), "/")
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// copyStringMap trims keys and values and drops blank entries. nil stays nil.
func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
