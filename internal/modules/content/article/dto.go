package article

import (
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
)

type articleBody struct {
	Data *ArticleInput `json:"data" binding:"required"`
}

// ArticleInput is the write payload for articles. Nil fields are left as they
// are on update; relation lists replace the current set when present.
type ArticleInput struct {
	Title       *string         `json:"title"       binding:"omitempty,min=1,max=255"`
	Slug        *string         `json:"slug"        binding:"omitempty,slug"`
	Summary     *string         `json:"summary"`
	Content     *string         `json:"content"`
	ReadingTime *int            `json:"readingTime" binding:"omitempty,min=0"`
	PublishDate *crud.Timestamp `json:"publishDate"`
	UpdateDate  *crud.Timestamp `json:"updateDate"`
	Featured    *bool           `json:"featured"`

	FeaturedImage   crud.Link  `json:"featuredImage"`
	Author          crud.Link  `json:"author"`
	Categories      []crud.Ref `json:"categories"`
	Tags            []crud.Ref `json:"tags"`
	Gallery         []crud.Ref `json:"gallery"`
	RelatedArticles []crud.Ref `json:"relatedArticles"`

	SEO        *SEOInput        `json:"seo"`
	Sections   []SectionInput   `json:"sections"   binding:"omitempty,dive"`
	References []ReferenceInput `json:"references" binding:"omitempty,dive"`
}

// SEOInput replaces the article's SEO block.
type SEOInput struct {
	MetaTitle          string         `json:"metaTitle"          binding:"max=60"`
	MetaDescription    string         `json:"metaDescription"    binding:"max=160"`
	MetaKeywords       string         `json:"metaKeywords"`
	MetaRobots         string         `json:"metaRobots"`
	CanonicalURL       string         `json:"canonicalURL"       binding:"omitempty,url"`
	OGTitle            string         `json:"ogTitle"            binding:"max=60"`
	OGDescription      string         `json:"ogDescription"      binding:"max=160"`
	OGImage            crud.Ref       `json:"ogImage"`
	TwitterTitle       string         `json:"twitterTitle"       binding:"max=60"`
	TwitterDescription string         `json:"twitterDescription" binding:"max=160"`
	TwitterImage       crud.Ref       `json:"twitterImage"`
	TwitterCardType    string         `json:"twitterCardType"    binding:"omitempty,oneof=summary summary_large_image app player"`
	StructuredData     map[string]any `json:"structuredData"`
}

// SectionInput is one body block; list order becomes display order.
type SectionInput struct {
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Media           crud.Ref  `json:"media"`
	Layout          string    `json:"layout"          binding:"omitempty,oneof=standard wide full-width two-column media-left media-right media-center"`
	BackgroundColor string    `json:"backgroundColor"`
	Anchor          string    `json:"anchor"          binding:"omitempty,slug"`
	CallToAction    *CTAInput `json:"callToAction"`
}

type CTAInput struct {
	Text   string `json:"text"   binding:"required"`
	URL    string `json:"url"    binding:"required"`
	Type   string `json:"type"   binding:"omitempty,oneof=primary secondary tertiary link"`
	NewTab bool   `json:"newTab"`
	Icon   string `json:"icon"`
}

type ReferenceInput struct {
	Title         string          `json:"title"         binding:"required"`
	URL           string          `json:"url"           binding:"omitempty,url"`
	Authors       string          `json:"authors"`
	Publisher     string          `json:"publisher"`
	PublishDate   *crud.Timestamp `json:"publishDate"`
	Description   string          `json:"description"`
	ReferenceType string          `json:"referenceType" binding:"omitempty,reference_type"`
}
