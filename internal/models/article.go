package models

import "time"

// Article is the main editorial content type.
type Article struct {
	Base
	Title       string     `json:"title"       gorm:"not null"`
	Slug        string     `json:"slug"        gorm:"size:191;uniqueIndex;not null"`
	Summary     string     `json:"summary"     gorm:"type:text"`
	Content     string     `json:"content"     gorm:"type:longtext"`
	ReadingTime int        `json:"readingTime" gorm:"default:0"`
	PublishDate *time.Time `json:"publishDate" gorm:"index"`
	UpdateDate  *time.Time `json:"updateDate"`
	Featured    bool       `json:"featured"    gorm:"default:false;index"`

	FeaturedImageID *uint   `json:"-"`
	FeaturedImage   *Media  `json:"featuredImage,omitempty" gorm:"foreignKey:FeaturedImageID"`
	AuthorID        *uint   `json:"-"                       gorm:"index"`
	Author          *Author `json:"author,omitempty"        gorm:"foreignKey:AuthorID"`

	Categories []Category       `json:"categories,omitempty" gorm:"many2many:articles_categories"`
	Tags       []Tag            `json:"tags,omitempty"       gorm:"many2many:articles_tags"`
	SEO        *SEO             `json:"seo,omitempty"        gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	Sections   []ContentSection `json:"sections,omitempty"   gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	Gallery    []Media          `json:"gallery,omitempty"    gorm:"many2many:articles_gallery"`
	References []Reference      `json:"references,omitempty" gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`

	// many2many self-reference for related articles
	RelatedArticles []Article `json:"relatedArticles,omitempty" gorm:"many2many:articles_related;joinForeignKey:ArticleID;joinReferences:RelatedArticleID"`
}

func (Article) TableName() string { return "articles" }

// BlogPost is the lightweight blog content type. Its controller adds no
// default relations.
type BlogPost struct {
	Base
	Title       string     `json:"title"       gorm:"not null"`
	Slug        string     `json:"slug"        gorm:"size:191;uniqueIndex;not null"`
	Excerpt     string     `json:"excerpt"     gorm:"type:text"`
	Content     string     `json:"content"     gorm:"type:longtext"`
	PublishDate *time.Time `json:"publishDate" gorm:"index"`

	CoverImageID *uint  `json:"-"`
	CoverImage   *Media `json:"coverImage,omitempty" gorm:"foreignKey:CoverImageID"`
}

func (BlogPost) TableName() string { return "blog_posts" }
