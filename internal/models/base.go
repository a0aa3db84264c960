package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is the base model for all content entries.
// ID is the internal numeric key; DocumentID is the stable external identifier.
type Base struct {
	ID         uint      `json:"id"         gorm:"primaryKey"`
	DocumentID string    `json:"documentId" gorm:"type:char(36);uniqueIndex;not null"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.DocumentID == "" {
		b.DocumentID = uuid.New().String()
	}
	return nil
}

// Component is the base of entries owned by a parent (SEO, sections, ...). They
// have no document identity of their own.
type Component struct {
	ID uint `json:"id" gorm:"primaryKey"`
}
