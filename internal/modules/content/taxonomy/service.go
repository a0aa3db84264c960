package taxonomy

import (
	"context"
	"fmt"
	"strings"

	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Kind describes one taxonomy collection and the article join table that
// points at it.
type Kind struct {
	Plural     string
	Schema     *crud.Schema
	JoinTable  string
	JoinColumn string
}

var (
	Categories = Kind{Plural: "categories", Schema: crud.CategorySchema, JoinTable: "articles_categories", JoinColumn: "category_id"}
	Tags       = Kind{Plural: "tags", Schema: crud.TagSchema, JoinTable: "articles_tags", JoinColumn: "tag_id"}
)

// term is satisfied by *models.Category and *models.Tag.
type term[T any] interface {
	*T
	Term() *models.Taxonomy
}

type Input struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=191"`
	Slug        *string `json:"slug"        binding:"omitempty,slug"`
	Description *string `json:"description"`
}

type body struct {
	Data *Input `json:"data" binding:"required"`
}

type Service[T any, P term[T]] struct {
	db     *gorm.DB
	kind   Kind
	engine *crud.Engine[T]
	purger crud.Purger
	log    *zap.Logger
}

func NewService[T any, P term[T]](db *gorm.DB, kind Kind, purger crud.Purger, log *zap.Logger) *Service[T, P] {
	if purger == nil {
		purger = crud.PurgeFunc(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service[T, P]{db: db, kind: kind, engine: crud.New[T](db, kind.Schema), purger: purger, log: log}
}

func (s *Service[T, P]) Find(ctx context.Context, spec query.Spec) (crud.Result[T], error) {
	return s.engine.Find(ctx, spec)
}

func (s *Service[T, P]) FindOne(ctx context.Context, id string, spec query.Spec) (crud.Single[T], error) {
	return s.engine.FindOne(ctx, id, spec)
}

func (s *Service[T, P]) Create(ctx context.Context, in *Input) (*T, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, query.Invalid("name", "must be defined")
	}
	if in.Slug == nil || *in.Slug == "" {
		return nil, query.Invalid("slug", "must be defined")
	}

	var v T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := crud.EnsureUnique[T](tx, "slug", "slug", *in.Slug, 0); err != nil {
			return err
		}
		apply(P(&v).Term(), in)
		if err := tx.Create(&v).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.kind.Schema.Name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return &v, nil
}

func (s *Service[T, P]) Update(ctx context.Context, id string, in *Input) (*T, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, query.Invalid("name", "must not be empty")
	}
	if in.Slug != nil && *in.Slug == "" {
		return nil, query.Invalid("slug", "must not be empty")
	}

	var out *T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := crud.Take[T](tx, id)
		if err != nil {
			return err
		}
		t := P(v).Term()
		if in.Slug != nil && *in.Slug != t.Slug {
			if err := crud.EnsureUnique[T](tx, "slug", "slug", *in.Slug, t.ID); err != nil {
				return err
			}
		}
		apply(t, in)
		if err := tx.Save(v).Error; err != nil {
			return fmt.Errorf("save %s: %w", s.kind.Schema.Name, err)
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return out, nil
}

// Delete removes the entry and detaches it from every article.
func (s *Service[T, P]) Delete(ctx context.Context, id string) (*T, error) {
	var out *T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := crud.Take[T](tx, id)
		if err != nil {
			return err
		}
		detach := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.kind.JoinTable, s.kind.JoinColumn)
		if err := tx.Exec(detach, P(v).Term().ID).Error; err != nil {
			return fmt.Errorf("detach %s: %w", s.kind.Schema.Name, err)
		}
		if err := tx.Delete(v).Error; err != nil {
			return fmt.Errorf("delete %s: %w", s.kind.Schema.Name, err)
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return out, nil
}

func (s *Service[T, P]) purge(ctx context.Context) {
	if err := s.purger.Purge(ctx); err != nil {
		s.log.Warn("purge http cache failed", zap.String("type", s.kind.Schema.Name), zap.Error(err))
	}
}

func apply(t *models.Taxonomy, in *Input) {
	if in.Name != nil {
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil {
		t.Slug = *in.Slug
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
}
