package models

// MediaFormat is a resized rendition of an uploaded image.
type MediaFormat struct {
	Name   string  `json:"name,omitempty"`
	URL    string  `json:"url"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Mime   string  `json:"mime,omitempty"`
	Size   float64 `json:"size,omitempty"`
}

// Media is an uploaded file. URL is relative (`/uploads/...`) for the local
// provider and absolute for remote providers.
type Media struct {
	Base
	Name            string                 `json:"name"            gorm:"not null"`
	AlternativeText string                 `json:"alternativeText"`
	Caption         string                 `json:"caption"`
	Width           int                    `json:"width"`
	Height          int                    `json:"height"`
	Hash            string                 `json:"hash"            gorm:"index"`
	Ext             string                 `json:"ext"`
	Mime            string                 `json:"mime"`
	Size            float64                `json:"size"`
	URL             string                 `json:"url"             gorm:"not null"`
	Provider        string                 `json:"provider"`
	Formats         map[string]MediaFormat `json:"formats,omitempty" gorm:"type:text;serializer:json"`
}

func (Media) TableName() string { return "files" }
