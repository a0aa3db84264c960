package models

// Author writes articles.
type Author struct {
	Base
	Name      string `json:"name"      gorm:"not null"`
	Slug      string `json:"slug"      gorm:"size:191;uniqueIndex;not null"`
	Email     string `json:"email"`
	Bio       string `json:"bio"       gorm:"type:text"`
	JobTitle  string `json:"jobTitle"`
	Expertise string `json:"expertise"`

	ProfilePictureID *uint        `json:"-"`
	ProfilePicture   *Media       `json:"profilePicture,omitempty" gorm:"foreignKey:ProfilePictureID"`
	SocialLinks      []SocialLink `json:"socialLinks,omitempty"    gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func (Author) TableName() string { return "authors" }

// Taxonomy is the shape shared by categories and tags.
type Taxonomy struct {
	Base
	Name        string `json:"name"        gorm:"not null"`
	Slug        string `json:"slug"        gorm:"size:191;uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`
}

// Term exposes the shared fields to code generic over categories and tags.
func (t *Taxonomy) Term() *Taxonomy { return t }

// Category groups articles by subject.
type Category struct {
	Taxonomy
}

func (Category) TableName() string { return "categories" }

// Tag is a free-form article label.
type Tag struct {
	Taxonomy
}

func (Tag) TableName() string { return "tags" }
