// Package cmsclient reads published content from the CMS REST API the way the
// site renderer does: paginated article lists, slug lookups and featured
// articles, plus the helpers that turn the payloads into page metadata.
package cmsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/webapp-skeleton/cms/internal/config"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/pkg/pagination"
	"github.com/webapp-skeleton/cms/internal/pkg/populate"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"go.uber.org/zap"
)

var (
	// ErrNotFound means the requested entry does not exist. Callers render a
	// not-found page for it rather than a generic error.
	ErrNotFound = errors.New("cmsclient: not found")
	// ErrFetchFailed matches every transport and non-2xx failure.
	ErrFetchFailed     = errors.New("cmsclient: fetch failed")
	ErrInvalidArgument = errors.New("cmsclient: invalid argument")
)

// BackendError is a non-2xx answer from the CMS.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("cmsclient: backend returned %d: %s", e.Status, e.Body)
}

func (e *BackendError) Is(target error) bool { return target == ErrFetchFailed }

// NetworkError wraps a failure to reach the CMS at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "cmsclient: request failed: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrFetchFailed }

const (
	maxErrorBody = 64 << 10
	slugPageSize = 100
)

// ArticleList is the `{data, meta.pagination}` list envelope.
type ArticleList struct {
	Data []models.Article `json:"data"`
	Meta ListMeta         `json:"meta"`
}

type ListMeta struct {
	Pagination pagination.Meta `json:"pagination"`
}

// SingleArticle is one article with empty metadata.
type SingleArticle struct {
	Data models.Article `json:"data"`
	Meta map[string]any `json:"meta"`
}

type Options struct {
	BaseURL    string // used for API calls and ImageURL
	PublicURL  string // used by PublicImageURL; defaults to BaseURL
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Log        *zap.Logger
}

type Client struct {
	base   string
	public string
	token  string
	http   *http.Client
	log    *zap.Logger
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	public := strings.TrimRight(opts.PublicURL, "/")
	if public == "" {
		public = base
	}
	return &Client{base: base, public: public, token: opts.Token, http: hc, log: log}
}

// FromConfig builds a client for server-side rendering: requests go to the
// internal URL, public image links use the public one.
func FromConfig(cfg config.ClientConfig, log *zap.Logger) *Client {
	return New(Options{
		BaseURL:   cfg.InternalURL(),
		PublicURL: cfg.CMSURL,
		Token:     cfg.CMSToken,
		Timeout:   cfg.Timeout,
		Log:       log,
	})
}

var newestFirst = []query.Sort{{Field: "publishDate", Desc: true}}

// ListArticles returns one page of articles, newest first, with every
// relation populated.
func (c *Client) ListArticles(ctx context.Context, page, pageSize int) (*ArticleList, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page and pageSize must be >= 1, got %d and %d", ErrInvalidArgument, page, pageSize)
	}
	return c.list(ctx, query.Spec{
		Pagination: query.Pagination{Page: page, PageSize: pageSize},
		Sort:       newestFirst,
		Populate:   populate.All(),
	})
}

// GetFeaturedArticles returns up to limit featured articles, newest first.
func (c *Client) GetFeaturedArticles(ctx context.Context, limit int) (*ArticleList, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidArgument, limit)
	}
	return c.list(ctx, query.Spec{
		Filters:    []query.Condition{query.Eq("featured", "true")},
		Pagination: query.Pagination{Page: 1, PageSize: limit},
		Sort:       newestFirst,
		Populate:   populate.All(),
	})
}

// GetArticleBySlug loads the article with the given slug and its full
// relation tree. When several rows share a slug the first one is returned.
func (c *Client) GetArticleBySlug(ctx context.Context, slug string) (*SingleArticle, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("%w: slug is empty", ErrInvalidArgument)
	}
	res, err := c.list(ctx, query.Spec{
		Filters:  []query.Condition{query.Eq("slug", slug)},
		Populate: models.ArticlePopulate(),
	})
	if err != nil {
		return nil, err
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("%w: article %q", ErrNotFound, slug)
	}
	if len(res.Data) > 1 {
		c.log.Warn("slug matches several articles, using the first", zap.String("slug", slug), zap.Int("matches", len(res.Data)))
	}
	return &SingleArticle{Data: res.Data[0], Meta: map[string]any{}}, nil
}

// ArticleSlugs walks every list page and collects the slugs, for static path
// generation.
func (c *Client) ArticleSlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	for page := 1; ; page++ {
		res, err := c.list(ctx, query.Spec{
			Pagination: query.Pagination{Page: page, PageSize: slugPageSize},
			Sort:       newestFirst,
		})
		if err != nil {
			return nil, err
		}
		for _, a := range res.Data {
			slugs = append(slugs, a.Slug)
		}
		if len(res.Data) == 0 || page >= res.Meta.Pagination.PageCount {
			return slugs, nil
		}
	}
}

func (c *Client) list(ctx context.Context, spec query.Spec) (*ArticleList, error) {
	var out ArticleList
	if err := c.get(ctx, "articles", spec.Values(), &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []models.Article{}
	}
	p := &out.Meta.Pagination
	if p.Page == 0 {
		p.Page = spec.Pagination.Page
	}
	if p.PageSize == 0 {
		p.PageSize = spec.Pagination.PageSize
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, values url.Values, out any) error {
	target := c.base + "/api/" + endpoint
	if encoded := values.Encode(); encoded != "" {
		target += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	c.log.Debug("cms request",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &BackendError{Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrFetchFailed, endpoint, err)
	}
	return nil
}

// ImageURL resolves a media path against the base URL. Empty stays empty and
// absolute URLs are returned unchanged.
func (c *Client) ImageURL(path string) string {
	return resolve(c.base, path)
}

// PublicImageURL is ImageURL against the browser-facing base.
func (c *Client) PublicImageURL(path string) string {
	return resolve(c.public, path)
}

func resolve(base, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "//") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
