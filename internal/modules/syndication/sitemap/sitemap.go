// Package sitemap publishes the blog's URL set: the home page, the blog index
// and one page per article.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
	"gorm.io/gorm"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Handler renders /sitemap.xml from the article table.
type Handler struct {
	db      *gorm.DB
	siteURL string
	now     func() time.Time
}

func NewHandler(db *gorm.DB, siteURL string) *Handler {
	return &Handler{db: db, siteURL: siteURL, now: time.Now}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/sitemap.xml", h.render)
}

func (h *Handler) render(c *gin.Context) {
	body, err := h.Build(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// Build returns the encoded sitemap document.
func (h *Handler) Build(ctx context.Context) ([]byte, error) {
	base, err := url.Parse(h.siteURL)
	if err != nil {
		return nil, fmt.Errorf("parse site url: %w", err)
	}

	var articles []models.Article
	if err := h.db.WithContext(ctx).
		Select("slug", "updated_at").
		Order("publish_date DESC").
		Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	today := h.now().UTC().Format(time.DateOnly)
	set := urlSet{Xmlns: xmlns, URLs: []entry{
		{Loc: base.String(), LastMod: today, ChangeFreq: "daily", Priority: "1.0"},
		{Loc: base.JoinPath("blog").String(), LastMod: today, ChangeFreq: "daily", Priority: "0.9"},
	}}
	for _, a := range articles {
		set.URLs = append(set.URLs, entry{
			Loc:        base.JoinPath("blog", a.Slug).String(),
			LastMod:    a.UpdatedAt.UTC().Format(time.DateOnly),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
