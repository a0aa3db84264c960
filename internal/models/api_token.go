package models

import "time"

// API token types.
const (
	TokenReadOnly   = "read-only"
	TokenFullAccess = "full-access"
)

// APIToken records an issued API token. The token itself is a signed JWT whose
// `tid` claim is the row's DocumentID; nothing secret is stored here.
type APIToken struct {
	Base
	Name        string     `json:"name"        gorm:"size:191;uniqueIndex;not null"`
	Description string     `json:"description"`
	Type        string     `json:"type"        gorm:"not null;default:read-only"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	LastUsedAt  *time.Time `json:"lastUsedAt"`
	RevokedAt   *time.Time `json:"revokedAt"`
}

func (APIToken) TableName() string { return "api_tokens" }

// Usable reports whether the token may authenticate a request at now.
func (t APIToken) Usable(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}
