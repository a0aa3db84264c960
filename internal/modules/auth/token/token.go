// Package token issues, lists and revokes API tokens. The first full-access
// token has to be created with `skeletonctl tokens create`; after that tokens
// can be managed over HTTP as well.
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/pkg/jwt"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
	"gorm.io/gorm"
)

// CreateInput describes a token to issue. A zero TTL never expires.
type CreateInput struct {
	Name        string        `json:"name"        binding:"required,max=191"`
	Description string        `json:"description"`
	Type        string        `json:"type"        binding:"omitempty,oneof=read-only full-access"`
	TTL         time.Duration `json:"-"`
	// Lifespan is the HTTP form of TTL, in days.
	Lifespan int `json:"lifespan" binding:"min=0"`
}

// Issued is a freshly created token. AccessKey is only ever shown once.
type Issued struct {
	models.APIToken
	AccessKey string `json:"accessKey"`
}

type Service struct {
	db     *gorm.DB
	signer *jwt.Signer
	now    func() time.Time
}

func NewService(db *gorm.DB, signer *jwt.Signer) *Service {
	return &Service{db: db, signer: signer, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Issued, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, query.Invalid("name", "name must be defined")
	}
	typ := in.Type
	if typ == "" {
		typ = models.TokenReadOnly
	}
	if typ != models.TokenReadOnly && typ != models.TokenFullAccess {
		return nil, query.Invalid("type", "must be one of read-only, full-access")
	}
	ttl := in.TTL
	if ttl == 0 && in.Lifespan > 0 {
		ttl = time.Duration(in.Lifespan) * 24 * time.Hour
	}

	row := models.APIToken{Name: name, Description: in.Description, Type: typ}
	if ttl > 0 {
		exp := s.now().Add(ttl)
		row.ExpiresAt = &exp
	}

	var out *Issued
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := crud.EnsureUnique[models.APIToken](tx, "name", "name", name, 0); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create token: %w", err)
		}
		key, err := s.signer.Sign(row.DocumentID, row.Type, row.ExpiresAt)
		if err != nil {
			return err
		}
		out = &Issued{APIToken: row, AccessKey: key}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns every token, newest first.
func (s *Service) List(ctx context.Context) ([]models.APIToken, error) {
	var rows []models.APIToken
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return rows, nil
}

// Revoke marks the token unusable. id is the numeric id, the documentId or
// the token name. Revoking twice keeps the first timestamp.
func (s *Service) Revoke(ctx context.Context, id string) (*models.APIToken, error) {
	db := s.db.WithContext(ctx)
	row, err := crud.Take[models.APIToken](db, id)
	if errors.Is(err, crud.ErrNotFound) {
		row = &models.APIToken{}
		if err := db.Where("name = ?", id).Take(row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, crud.ErrNotFound
			}
			return nil, fmt.Errorf("find token: %w", err)
		}
	} else if err != nil {
		return nil, err
	}
	if row.RevokedAt != nil {
		return row, nil
	}
	now := s.now()
	if err := db.Model(row).UpdateColumn("revoked_at", now).Error; err != nil {
		return nil, fmt.Errorf("revoke token: %w", err)
	}
	row.RevokedAt = &now
	return row, nil
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts token management. Every route needs a full-access
// token.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/tokens", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.POST("/:id/revoke", h.revoke)
}

func (h *Handler) list(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context())
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Entry(c, rows, nil)
}

func (h *Handler) create(c *gin.Context) {
	var body struct {
		Data *CreateInput `json:"data" binding:"required"`
	}
	if !crud.Bind(c, &body) {
		return
	}
	issued, err := h.svc.Create(c.Request.Context(), *body.Data)
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Created(c, issued)
}

func (h *Handler) revoke(c *gin.Context) {
	row, err := h.svc.Revoke(c.Request.Context(), c.Param("id"))
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Entry(c, row, nil)
}
