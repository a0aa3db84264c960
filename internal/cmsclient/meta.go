package cmsclient

import (
	"time"

	"github.com/webapp-skeleton/cms/internal/models"
)

// MetaTags is the head metadata of an article page.
type MetaTags struct {
	Title          string
	Description    string
	Keywords       string
	Robots         string
	Canonical      string
	OpenGraph      OpenGraph
	Twitter        Twitter
	StructuredData map[string]any
}

type OpenGraph struct {
	Title       string
	Description string
	Images      []string
}

type Twitter struct {
	Card        string
	Title       string
	Description string
	Image       string
}

// MetaTags maps an SEO block onto page metadata. Open Graph and Twitter fields
// fall back to the plain meta title and description.
func (c *Client) MetaTags(seo *models.SEO) MetaTags {
	if seo == nil {
		return MetaTags{}
	}
	m := MetaTags{
		Title:          seo.MetaTitle,
		Description:    seo.MetaDescription,
		Keywords:       seo.MetaKeywords,
		Robots:         seo.MetaRobots,
		Canonical:      seo.CanonicalURL,
		StructuredData: seo.StructuredData,
		OpenGraph: OpenGraph{
			Title:       orElse(seo.OGTitle, seo.MetaTitle),
			Description: orElse(seo.OGDescription, seo.MetaDescription),
		},
		Twitter: Twitter{
			Card:        orElse(seo.TwitterCardType, "summary_large_image"),
			Title:       orElse(seo.TwitterTitle, orElse(seo.OGTitle, seo.MetaTitle)),
			Description: orElse(seo.TwitterDescription, orElse(seo.OGDescription, seo.MetaDescription)),
		},
	}

	var ogImage string
	if seo.OGImage != nil {
		ogImage = c.PublicImageURL(seo.OGImage.URL)
	} else if img, ok := seo.StructuredData["image"].(string); ok {
		ogImage = c.PublicImageURL(img)
	}
	if ogImage != "" {
		m.OpenGraph.Images = []string{ogImage}
	}
	m.Twitter.Image = ogImage
	if seo.TwitterImage != nil {
		m.Twitter.Image = c.PublicImageURL(seo.TwitterImage.URL)
	}
	return m
}

// ImageAlt picks alt text for an image: alternative text, then name, then
// caption, then fallback ("Image" when empty).
func ImageAlt(m *models.Media, fallback string) string {
	if fallback == "" {
		fallback = "Image"
	}
	if m == nil {
		return fallback
	}
	for _, v := range []string{m.AlternativeText, m.Name, m.Caption} {
		if v != "" {
			return v
		}
	}
	return fallback
}

// FormatDate renders t like "March 5, 2024". A nil or zero time is "".
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

func orElse(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
