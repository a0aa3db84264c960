// Package feed publishes the latest articles as RSS 2.0 and Atom.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/config"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/processing/markdown"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
	"gorm.io/gorm"
)

// Limit is how many articles a feed carries.
const Limit = 20

// Item is one article as it appears in a feed.
type Item struct {
	Title     string
	Link      string
	GUID      string
	Author    string
	Summary   string
	HTML      string
	Published time.Time
	Updated   time.Time
}

type Handler struct {
	db        *gorm.DB
	site      config.SiteConfig
	mediaBase string
	now       func() time.Time
}

// NewHandler builds the feed handler. mediaBase is prefixed to relative image
// URLs inside rendered content.
func NewHandler(db *gorm.DB, site config.SiteConfig, mediaBase string) *Handler {
	return &Handler{db: db, site: site, mediaBase: mediaBase, now: time.Now}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/feed.xml", h.rss)
	r.GET("/atom.xml", h.atom)
}

func (h *Handler) rss(c *gin.Context) {
	items, err := h.Items(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	body, err := h.RSS(items)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", body)
}

func (h *Handler) atom(c *gin.Context) {
	items, err := h.Items(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	body, err := h.Atom(items)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/atom+xml; charset=utf-8", body)
}

// Items loads the latest articles by publish date, content rendered to HTML.
func (h *Handler) Items(ctx context.Context) ([]Item, error) {
	base, err := url.Parse(h.site.URL)
	if err != nil {
		return nil, fmt.Errorf("parse site url: %w", err)
	}

	var articles []models.Article
	if err := h.db.WithContext(ctx).
		Preload("Author").
		Order("publish_date DESC").
		Order("id DESC").
		Limit(Limit).
		Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	items := make([]Item, 0, len(articles))
	for _, a := range articles {
		published := a.CreatedAt
		if a.PublishDate != nil {
			published = *a.PublishDate
		}
		updated := a.UpdatedAt
		if a.UpdateDate != nil {
			updated = *a.UpdateDate
		}
		item := Item{
			Title:     a.Title,
			Link:      base.JoinPath("blog", a.Slug).String(),
			GUID:      a.DocumentID,
			Summary:   a.Summary,
			HTML:      markdown.Render(a.Content, markdown.RenderOptions{MediaBaseURL: h.mediaBase}),
			Published: published.UTC(),
			Updated:   updated.UTC(),
		}
		if a.Author != nil {
			item.Author = a.Author.Name
		}
		items = append(items, item)
	}
	return items, nil
}

type rssDoc struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	DCNS      string     `xml:"xmlns:dc,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
	Creator     string  `xml:"dc:creator,omitempty"`
	Description string  `xml:"description"`
	Content     cdata   `xml:"content:encoded"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

// RSS encodes items as an RSS 2.0 document.
func (h *Handler) RSS(items []Item) ([]byte, error) {
	doc := rssDoc{
		Version:   "2.0",
		DCNS:      "http://purl.org/dc/elements/1.1/",
		ContentNS: "http://purl.org/rss/1.0/modules/content/",
		Channel: rssChannel{
			Title:         h.site.Title,
			Link:          h.site.URL,
			Description:   h.site.Description,
			LastBuildDate: h.now().UTC().Format(time.RFC1123Z),
		},
	}
	for _, it := range items {
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       it.Title,
			Link:        it.Link,
			GUID:        rssGUID{Value: it.GUID},
			PubDate:     it.Published.Format(time.RFC1123Z),
			Creator:     it.Author,
			Description: it.Summary,
			Content:     cdata{Value: it.HTML},
		})
	}
	return encode(doc)
}

type atomDoc struct {
	XMLName  xml.Name    `xml:"feed"`
	Xmlns    string      `xml:"xmlns,attr"`
	ID       string      `xml:"id"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle,omitempty"`
	Link     atomLink    `xml:"link"`
	Updated  string      `xml:"updated"`
	Entries  []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

type atomEntry struct {
	ID        string      `xml:"id"`
	Title     string      `xml:"title"`
	Link      atomLink    `xml:"link"`
	Published string      `xml:"published"`
	Updated   string      `xml:"updated"`
	Author    *atomAuthor `xml:"author,omitempty"`
	Summary   string      `xml:"summary,omitempty"`
	Content   atomContent `xml:"content"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomContent struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",cdata"`
}

// Atom encodes items as an Atom 1.0 document.
func (h *Handler) Atom(items []Item) ([]byte, error) {
	updated := h.now().UTC()
	if len(items) > 0 {
		updated = items[0].Updated
		for _, it := range items[1:] {
			if it.Updated.After(updated) {
				updated = it.Updated
			}
		}
	}
	doc := atomDoc{
		Xmlns:    "http://www.w3.org/2005/Atom",
		ID:       h.site.URL,
		Title:    h.site.Title,
		Subtitle: h.site.Description,
		Link:     atomLink{Href: h.site.URL},
		Updated:  updated.Format(time.RFC3339),
	}
	for _, it := range items {
		e := atomEntry{
			ID:        "urn:uuid:" + it.GUID,
			Title:     it.Title,
			Link:      atomLink{Href: it.Link},
			Published: it.Published.Format(time.RFC3339),
			Updated:   it.Updated.Format(time.RFC3339),
			Summary:   it.Summary,
			Content:   atomContent{Type: "html", Value: it.HTML},
		}
		if it.Author != "" {
			e.Author = &atomAuthor{Name: it.Author}
		}
		doc.Entries = append(doc.Entries, e)
	}
	return encode(doc)
}

func encode(doc any) ([]byte, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
