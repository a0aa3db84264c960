package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/pkg/jwt"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ContextKeyToken = "api_token"

// ErrTokenUnusable is returned for well-formed tokens whose row is missing,
// revoked or expired.
var ErrTokenUnusable = errors.New("api token revoked or expired")

// TokenAuth authenticates API tokens: a signed JWT whose tid claim names an
// api_tokens row that must still be usable.
type TokenAuth struct {
	db     *gorm.DB
	signer *jwt.Signer
	log    *zap.Logger
	now    func() time.Time
}

func NewTokenAuth(db *gorm.DB, signer *jwt.Signer, log *zap.Logger) *TokenAuth {
	if log == nil {
		log = zap.NewNop()
	}
	return &TokenAuth{db: db, signer: signer, log: log, now: time.Now}
}

// Optional authenticates the request when a token is present. Public routes
// stay public, but a presented token that fails validation is a 401.
func (a *TokenAuth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			c.Next()
			return
		}
		tok, err := a.Validate(c.Request.Context(), raw)
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyToken, tok)
		c.Next()
	}
}

// RequireFullAccess rejects requests without a full-access token: 401 when no
// valid token was presented, 403 for a read-only one.
func (a *TokenAuth) RequireFullAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := CurrentToken(c)
		if tok == nil {
			raw := extractToken(c)
			if raw == "" {
				response.Unauthorized(c)
				return
			}
			var err error
			if tok, err = a.Validate(c.Request.Context(), raw); err != nil {
				response.Unauthorized(c)
				return
			}
			c.Set(ContextKeyToken, tok)
		}
		if tok.Type != models.TokenFullAccess {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// Validate checks the signature and the backing row, and records the use.
func (a *TokenAuth) Validate(ctx context.Context, raw string) (*models.APIToken, error) {
	token := NormalizeToken(raw)
	if token == "" {
		return nil, errors.New("token is required")
	}
	claims, err := a.signer.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	var row models.APIToken
	err = a.db.WithContext(ctx).Where("document_id = ?", claims.TokenID).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrTokenUnusable
	case err != nil:
		return nil, fmt.Errorf("load token: %w", err)
	}
	now := a.now()
	if !row.Usable(now) {
		return nil, ErrTokenUnusable
	}

	if err := a.db.WithContext(ctx).Model(&row).UpdateColumn("last_used_at", now).Error; err != nil {
		a.log.Warn("record token use failed", zap.String("token", row.DocumentID), zap.Error(err))
	}
	row.LastUsedAt = &now
	return &row, nil
}

// CurrentToken returns the token that authenticated the request, if any.
func CurrentToken(c *gin.Context) *models.APIToken {
	v, ok := c.Get(ContextKeyToken)
	if !ok {
		return nil
	}
	tok, _ := v.(*models.APIToken)
	return tok
}

// IsAuthenticated reports whether a valid token came with the request.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentToken(c) != nil
}

func extractToken(c *gin.Context) string {
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
