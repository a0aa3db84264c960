package author

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type body struct {
	Data *Input `json:"data" binding:"required"`
}

type Input struct {
	Name           *string           `json:"name"      binding:"omitempty,min=1,max=191"`
	Slug           *string           `json:"slug"      binding:"omitempty,slug"`
	Email          *string           `json:"email"     binding:"omitempty,email"`
	Bio            *string           `json:"bio"`
	JobTitle       *string           `json:"jobTitle"`
	Expertise      *string           `json:"expertise"`
	ProfilePicture crud.Link         `json:"profilePicture"`
	SocialLinks    []SocialLinkInput `json:"socialLinks" binding:"omitempty,dive"`
}

type SocialLinkInput struct {
	Platform string `json:"platform" binding:"required,social_platform"`
	URL      string `json:"url"      binding:"required,url"`
	Username string `json:"username"`
}

type Service struct {
	db     *gorm.DB
	engine *crud.Engine[models.Author]
	purger crud.Purger
	log    *zap.Logger
}

func NewService(db *gorm.DB, purger crud.Purger, log *zap.Logger) *Service {
	if purger == nil {
		purger = crud.PurgeFunc(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, engine: crud.New[models.Author](db, crud.AuthorSchema), purger: purger, log: log}
}

func (s *Service) Find(ctx context.Context, spec query.Spec) (crud.Result[models.Author], error) {
	return s.engine.Find(ctx, spec)
}

func (s *Service) FindOne(ctx context.Context, id string, spec query.Spec) (crud.Single[models.Author], error) {
	return s.engine.FindOne(ctx, id, spec)
}

func (s *Service) Create(ctx context.Context, in *Input) (*models.Author, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, query.Invalid("name", "must be defined")
	}
	if in.Slug == nil || *in.Slug == "" {
		return nil, query.Invalid("slug", "must be defined")
	}

	var a models.Author
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := crud.EnsureUnique[models.Author](tx, "slug", "slug", *in.Slug, 0); err != nil {
			return err
		}
		if err := apply(ctx, tx, &a, in); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&a).Error; err != nil {
			return fmt.Errorf("create author: %w", err)
		}
		return replaceSocialLinks(tx, a.ID, in.SocialLinks)
	})
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return s.reload(ctx, a.ID)
}

func (s *Service) Update(ctx context.Context, id string, in *Input) (*models.Author, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, query.Invalid("name", "must not be empty")
	}
	if in.Slug != nil && *in.Slug == "" {
		return nil, query.Invalid("slug", "must not be empty")
	}

	var authorID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := crud.Take[models.Author](tx, id)
		if err != nil {
			return err
		}
		authorID = a.ID
		if in.Slug != nil && *in.Slug != a.Slug {
			if err := crud.EnsureUnique[models.Author](tx, "slug", "slug", *in.Slug, a.ID); err != nil {
				return err
			}
		}
		if err := apply(ctx, tx, a, in); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(a).Error; err != nil {
			return fmt.Errorf("save author: %w", err)
		}
		if in.SocialLinks == nil {
			return nil
		}
		return replaceSocialLinks(tx, a.ID, in.SocialLinks)
	})
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return s.reload(ctx, authorID)
}

// Delete removes the author and their social links. Their articles stay,
// without an author.
func (s *Service) Delete(ctx context.Context, id string) (*models.Author, error) {
	var out *models.Author
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := crud.Take[models.Author](tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Article{}).Where("author_id = ?", a.ID).Update("author_id", nil).Error; err != nil {
			return fmt.Errorf("detach author: %w", err)
		}
		if err := tx.Select(clause.Associations).Delete(a).Error; err != nil {
			return fmt.Errorf("delete author: %w", err)
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return out, nil
}

func (s *Service) reload(ctx context.Context, id uint) (*models.Author, error) {
	res, err := s.engine.FindOne(ctx, strconv.FormatUint(uint64(id), 10), query.Spec{
		Populate: crud.AuthorSchema.Expand(),
	})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *Service) purge(ctx context.Context) {
	if err := s.purger.Purge(ctx); err != nil {
		s.log.Warn("purge http cache failed", zap.Error(err))
	}
}

func apply(ctx context.Context, tx *gorm.DB, a *models.Author, in *Input) error {
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil {
		a.Slug = *in.Slug
	}
	if in.Email != nil {
		a.Email = *in.Email
	}
	if in.Bio != nil {
		a.Bio = *in.Bio
	}
	if in.JobTitle != nil {
		a.JobTitle = *in.JobTitle
	}
	if in.Expertise != nil {
		a.Expertise = *in.Expertise
	}
	if in.ProfilePicture.Set {
		m, err := crud.LookupOne[models.Media](ctx, tx, "profilePicture", in.ProfilePicture.Ref)
		if err != nil {
			return err
		}
		a.ProfilePictureID = nil
		if m != nil {
			a.ProfilePictureID = &m.ID
		}
	}
	return nil
}

func replaceSocialLinks(tx *gorm.DB, authorID uint, in []SocialLinkInput) error {
	if err := tx.Where("author_id = ?", authorID).Delete(&models.SocialLink{}).Error; err != nil {
		return fmt.Errorf("clear social links: %w", err)
	}
	if len(in) == 0 {
		return nil
	}
	links := make([]models.SocialLink, 0, len(in))
	for _, l := range in {
		links = append(links, models.SocialLink{AuthorID: authorID, Platform: l.Platform, URL: l.URL, Username: l.Username})
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("create social links: %w", err)
	}
	return nil
}
