package cmsclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/webapp-skeleton/cms/internal/models"
)

func TestMetaTags(t *testing.T) {
	c := New(Options{BaseURL: "http://cms:1337", PublicURL: "https://cms.example.com"})

	assert.Equal(t, MetaTags{}, c.MetaTags(nil))

	m := c.MetaTags(&models.SEO{
		MetaTitle:       "Title",
		MetaDescription: "Description",
		MetaKeywords:    "go,cms",
		CanonicalURL:    "https://blog.example.com/blog/x",
		OGImage:         &models.Media{URL: "/uploads/og.png"},
		StructuredData:  map[string]any{"@type": "Article"},
	})
	assert.Equal(t, "Title", m.OpenGraph.Title)
	assert.Equal(t, "Description", m.OpenGraph.Description)
	assert.Equal(t, "go,cms", m.Keywords)
	assert.Equal(t, []string{"https://cms.example.com/uploads/og.png"}, m.OpenGraph.Images)
	assert.Equal(t, "summary_large_image", m.Twitter.Card)
	assert.Equal(t, "https://cms.example.com/uploads/og.png", m.Twitter.Image)
	assert.Equal(t, "Article", m.StructuredData["@type"])

	m = c.MetaTags(&models.SEO{
		MetaTitle:      "Title",
		OGTitle:        "OG",
		StructuredData: map[string]any{"image": "https://img.example.com/a.png"},
	})
	assert.Equal(t, "OG", m.OpenGraph.Title)
	assert.Equal(t, "OG", m.Twitter.Title)
	assert.Equal(t, []string{"https://img.example.com/a.png"}, m.OpenGraph.Images)
}

func TestImageAlt(t *testing.T) {
	assert.Equal(t, "Image", ImageAlt(nil, ""))
	assert.Equal(t, "Cover", ImageAlt(nil, "Cover"))
	assert.Equal(t, "alt", ImageAlt(&models.Media{AlternativeText: "alt", Name: "name"}, ""))
	assert.Equal(t, "name.png", ImageAlt(&models.Media{Name: "name.png", Caption: "cap"}, ""))
	assert.Equal(t, "cap", ImageAlt(&models.Media{Caption: "cap"}, ""))
	assert.Equal(t, "Image", ImageAlt(&models.Media{}, ""))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, "March 5, 2024", FormatDate(&d))
	assert.Equal(t, "", FormatDate(nil))
	assert.Equal(t, "", FormatDate(&time.Time{}))
}
