package models

import "time"

// SEO limits shared by validation and the site meta helpers.
const (
	SEOTitleMax       = 60
	SEODescriptionMax = 160
)

// SEO is the search/social metadata block owned by an article.
type SEO struct {
	Component
	ArticleID          uint           `json:"-"                  gorm:"uniqueIndex;not null"`
	MetaTitle          string         `json:"metaTitle"          gorm:"size:60"`
	MetaDescription    string         `json:"metaDescription"    gorm:"size:160"`
	MetaKeywords       string         `json:"metaKeywords"       gorm:"type:text"`
	MetaRobots         string         `json:"metaRobots"`
	CanonicalURL       string         `json:"canonicalURL"`
	OGTitle            string         `json:"ogTitle"            gorm:"size:60"`
	OGDescription      string         `json:"ogDescription"      gorm:"size:160"`
	TwitterTitle       string         `json:"twitterTitle"       gorm:"size:60"`
	TwitterDescription string         `json:"twitterDescription" gorm:"size:160"`
	TwitterCardType    string         `json:"twitterCardType"`
	StructuredData     map[string]any `json:"structuredData"     gorm:"type:text;serializer:json"`

	OGImageID      *uint  `json:"-"`
	OGImage        *Media `json:"ogImage,omitempty"      gorm:"foreignKey:OGImageID"`
	TwitterImageID *uint  `json:"-"`
	TwitterImage   *Media `json:"twitterImage,omitempty" gorm:"foreignKey:TwitterImageID"`
}

func (SEO) TableName() string { return "components_shared_seos" }

// ContentSection is one ordered block of an article body.
type ContentSection struct {
	Component
	ArticleID       uint   `json:"-"               gorm:"index;not null"`
	Position        int    `json:"-"               gorm:"default:0"`
	Title           string `json:"title"`
	Content         string `json:"content"         gorm:"type:longtext"`
	Layout          string `json:"layout"`
	BackgroundColor string `json:"backgroundColor"`
	Anchor          string `json:"anchor"`

	MediaID      *uint         `json:"-"`
	Media        *Media        `json:"media,omitempty"        gorm:"foreignKey:MediaID"`
	CallToAction *CallToAction `json:"callToAction,omitempty" gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"`
}

func (ContentSection) TableName() string { return "components_sections_content_sections" }

// CallToAction is a button or link attached to a section.
type CallToAction struct {
	Component
	SectionID uint   `json:"-"      gorm:"uniqueIndex;not null"`
	Text      string `json:"text"   gorm:"not null"`
	URL       string `json:"url"    gorm:"not null"`
	Type      string `json:"type"`
	NewTab    bool   `json:"newTab" gorm:"default:false"`
	Icon      string `json:"icon"`
}

func (CallToAction) TableName() string { return "components_shared_call_to_actions" }

// Reference is a citation listed under an article.
type Reference struct {
	Component
	ArticleID     uint       `json:"-"             gorm:"index;not null"`
	Position      int        `json:"-"             gorm:"default:0"`
	Title         string     `json:"title"         gorm:"not null"`
	URL           string     `json:"url"`
	Authors       string     `json:"authors"`
	Publisher     string     `json:"publisher"`
	PublishDate   *time.Time `json:"publishDate"`
	Description   string     `json:"description"   gorm:"type:text"`
	ReferenceType string     `json:"referenceType"`
}

func (Reference) TableName() string { return "components_shared_references" }

// SocialLink points at an author's profile elsewhere.
type SocialLink struct {
	Component
	AuthorID uint   `json:"-"        gorm:"index;not null"`
	Platform string `json:"platform" gorm:"not null"`
	URL      string `json:"url"      gorm:"not null"`
	Username string `json:"username"`
}

func (SocialLink) TableName() string { return "components_shared_social_links" }
