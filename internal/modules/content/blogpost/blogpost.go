// Package blogpost serves the lightweight blog content type. Unlike articles,
// reads populate exactly what the caller asks for.
package blogpost

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type body struct {
	Data *Input `json:"data" binding:"required"`
}

type Input struct {
	Title       *string         `json:"title"       binding:"omitempty,min=1,max=255"`
	Slug        *string         `json:"slug"        binding:"omitempty,slug"`
	Excerpt     *string         `json:"excerpt"`
	Content     *string         `json:"content"`
	PublishDate *crud.Timestamp `json:"publishDate"`
	CoverImage  crud.Link       `json:"coverImage"`
}

type Service struct {
	db     *gorm.DB
	engine *crud.Engine[models.BlogPost]
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
	return &Service{db: db, engine: crud.New[models.BlogPost](db, crud.BlogPostSchema), purger: purger, log: log}
}

func (s *Service) Find(ctx context.Context, spec query.Spec) (crud.Result[models.BlogPost], error) {
	return s.engine.Find(ctx, spec)
}

func (s *Service) FindOne(ctx context.Context, id string, spec query.Spec) (crud.Single[models.BlogPost], error) {
	return s.engine.FindOne(ctx, id, spec)
}

// Save creates a post when id is empty and updates it otherwise.
func (s *Service) Save(ctx context.Context, id string, in *Input) (*models.BlogPost, error) {
	creating := id == ""
	if creating && (in.Title == nil || in.Slug == nil) {
		return nil, query.Invalid("data", "title and slug must be defined")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, query.Invalid("title", "must not be empty")
	}
	if in.Slug != nil && *in.Slug == "" {
		return nil, query.Invalid("slug", "must not be empty")
	}

	var postID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := &models.BlogPost{}
		if !creating {
			var err error
			if p, err = crud.Take[models.BlogPost](tx, id); err != nil {
				return err
			}
		}
		if in.Slug != nil && *in.Slug != p.Slug {
			if err := crud.EnsureUnique[models.BlogPost](tx, "slug", "slug", *in.Slug, p.ID); err != nil {
				return err
			}
		}
		if in.Title != nil {
			p.Title = strings.TrimSpace(*in.Title)
		}
		if in.Slug != nil {
			p.Slug = *in.Slug
		}
		if in.Excerpt != nil {
			p.Excerpt = *in.Excerpt
		}
		if in.Content != nil {
			p.Content = *in.Content
		}
		if in.PublishDate != nil {
			p.PublishDate = in.PublishDate.Ptr()
		}
		if in.CoverImage.Set {
			m, err := crud.LookupOne[models.Media](ctx, tx, "coverImage", in.CoverImage.Ref)
			if err != nil {
				return err
			}
			p.CoverImageID = nil
			if m != nil {
				p.CoverImageID = &m.ID
			}
		}
		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return fmt.Errorf("save blog post: %w", err)
		}
		postID = p.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.purge(ctx)

	res, err := s.engine.FindOne(ctx, strconv.FormatUint(uint64(postID), 10), query.Spec{Populate: crud.BlogPostSchema.Expand()})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *Service) Delete(ctx context.Context, id string) (*models.BlogPost, error) {
	p, err := s.engine.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return p, nil
}

func (s *Service) purge(ctx context.Context) {
	if err := s.purger.Purge(ctx); err != nil {
		s.log.Warn("purge http cache failed", zap.Error(err))
	}
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	posts := rg.Group("/blog-posts")
	posts.GET("", crud.List[models.BlogPost](h.svc))
	posts.GET("/:id", crud.Get[models.BlogPost](h.svc))

	authed := posts.Group("", authMW)
	authed.POST("", h.save)
	authed.PUT("/:id", h.save)
	authed.DELETE("/:id", h.delete)
}

func (h *Handler) save(c *gin.Context) {
	var b body
	if !crud.Bind(c, &b) {
		return
	}
	id := c.Param("id")
	p, err := h.svc.Save(c.Request.Context(), id, b.Data)
	if err != nil {
		crud.Fail(c, err)
		return
	}
	if id == "" {
		response.Created(c, p)
		return
	}
	response.Entry(c, p, nil)
}

func (h *Handler) delete(c *gin.Context) {
	p, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Entry(c, p, nil)
}
