package article

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/modules/processing/markdown"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Field defaults applied when a write leaves them blank.
const (
	DefaultMetaRobots      = "index, follow"
	DefaultTwitterCardType = "summary_large_image"
	DefaultLayout          = "standard"
	DefaultCTAType         = "primary"
	DefaultReferenceType   = "Website"
)

// Service handles article writes. Reads go through the Controller so every
// returned entry is fully populated.
type Service struct {
	db     *gorm.DB
	reader *Controller
	purger crud.Purger
	log    *zap.Logger
}

func NewService(db *gorm.DB, reader *Controller, purger crud.Purger, log *zap.Logger) *Service {
	if purger == nil {
		purger = crud.PurgeFunc(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, reader: reader, purger: purger, log: log}
}

// Create inserts a new article with its components and relations.
func (s *Service) Create(ctx context.Context, in *ArticleInput) (*models.Article, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, query.Invalid("title", "must be defined")
	}
	if in.Slug == nil || *in.Slug == "" {
		return nil, query.Invalid("slug", "must be defined")
	}

	var a models.Article
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := crud.EnsureUnique[models.Article](tx, "slug", "slug", *in.Slug, 0); err != nil {
			return err
		}
		if err := applyAttributes(ctx, tx, &a, in); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&a).Error; err != nil {
			return fmt.Errorf("create article: %w", err)
		}
		return replaceRelations(ctx, tx, &a, in)
	})
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return s.reload(ctx, a.ID)
}

// Update changes the article id refers to. Only fields present in the payload
// are written.
func (s *Service) Update(ctx context.Context, id string, in *ArticleInput) (*models.Article, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, query.Invalid("title", "must not be empty")
	}
	if in.Slug != nil && *in.Slug == "" {
		return nil, query.Invalid("slug", "must not be empty")
	}

	var articleID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := crud.Take[models.Article](tx, id)
		if err != nil {
			return err
		}
		articleID = a.ID
		if in.Slug != nil && *in.Slug != a.Slug {
			if err := crud.EnsureUnique[models.Article](tx, "slug", "slug", *in.Slug, a.ID); err != nil {
				return err
			}
		}
		if err := applyAttributes(ctx, tx, a, in); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(a).Error; err != nil {
			return fmt.Errorf("save article: %w", err)
		}
		return replaceRelations(ctx, tx, a, in)
	})
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return s.reload(ctx, articleID)
}

// Delete removes the article, its components and every join row pointing at
// it. The returned entry is the article as it was before deletion.
func (s *Service) Delete(ctx context.Context, id string) (*models.Article, error) {
	before, err := s.reader.FindOne(ctx, id, query.Spec{})
	if err != nil {
		return nil, err
	}
	a := before.Data

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteSections(tx, a.ID); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM articles_related WHERE related_article_id = ?", a.ID).Error; err != nil {
			return fmt.Errorf("unlink related articles: %w", err)
		}
		if err := tx.Select(clause.Associations).Delete(&models.Article{Base: a.Base}).Error; err != nil {
			return fmt.Errorf("delete article %d: %w", a.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.purge(ctx)
	return a, nil
}

func (s *Service) reload(ctx context.Context, id uint) (*models.Article, error) {
	res, err := s.reader.FindOne(ctx, strconv.FormatUint(uint64(id), 10), query.Spec{})
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

// applyAttributes copies scalar fields and to-one relations onto a.
func applyAttributes(ctx context.Context, tx *gorm.DB, a *models.Article, in *ArticleInput) error {
	if in.Title != nil {
		a.Title = strings.TrimSpace(*in.Title)
	}
	if in.Slug != nil {
		a.Slug = *in.Slug
	}
	if in.Summary != nil {
		a.Summary = *in.Summary
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	switch {
	case in.ReadingTime != nil:
		a.ReadingTime = *in.ReadingTime
	case in.Content != nil:
		a.ReadingTime = markdown.ReadingTime(a.Content)
	}
	if in.PublishDate != nil {
		a.PublishDate = in.PublishDate.Ptr()
	}
	if in.UpdateDate != nil {
		a.UpdateDate = in.UpdateDate.Ptr()
	}
	if in.Featured != nil {
		a.Featured = *in.Featured
	}

	if in.FeaturedImage.Set {
		m, err := crud.LookupOne[models.Media](ctx, tx, "featuredImage", in.FeaturedImage.Ref)
		if err != nil {
			return err
		}
		a.FeaturedImageID = idOf(m, func(m *models.Media) uint { return m.ID })
	}
	if in.Author.Set {
		au, err := crud.LookupOne[models.Author](ctx, tx, "author", in.Author.Ref)
		if err != nil {
			return err
		}
		a.AuthorID = idOf(au, func(au *models.Author) uint { return au.ID })
	}
	return nil
}

func idOf[T any](v *T, id func(*T) uint) *uint {
	if v == nil {
		return nil
	}
	n := id(v)
	return &n
}

// replaceRelations rewrites every list relation and component present in in.
func replaceRelations(ctx context.Context, tx *gorm.DB, a *models.Article, in *ArticleInput) error {
	if in.Categories != nil {
		rows, err := crud.Lookup[models.Category](ctx, tx, "categories", in.Categories)
		if err != nil {
			return err
		}
		if err := replaceAssociation(tx, a, "Categories", rows); err != nil {
			return err
		}
	}
	if in.Tags != nil {
		rows, err := crud.Lookup[models.Tag](ctx, tx, "tags", in.Tags)
		if err != nil {
			return err
		}
		if err := replaceAssociation(tx, a, "Tags", rows); err != nil {
			return err
		}
	}
	if in.Gallery != nil {
		rows, err := crud.Lookup[models.Media](ctx, tx, "gallery", in.Gallery)
		if err != nil {
			return err
		}
		if err := replaceAssociation(tx, a, "Gallery", rows); err != nil {
			return err
		}
	}
	if in.RelatedArticles != nil {
		rows, err := crud.Lookup[models.Article](ctx, tx, "relatedArticles", in.RelatedArticles)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.ID == a.ID {
				return query.Invalid("relatedArticles", "an article cannot relate to itself")
			}
		}
		if err := replaceAssociation(tx, a, "RelatedArticles", rows); err != nil {
			return err
		}
	}

	if in.SEO != nil {
		if err := replaceSEO(ctx, tx, a.ID, in.SEO); err != nil {
			return err
		}
	}
	if in.Sections != nil {
		if err := replaceSections(ctx, tx, a.ID, in.Sections); err != nil {
			return err
		}
	}
	if in.References != nil {
		if err := replaceReferences(tx, a.ID, in.References); err != nil {
			return err
		}
	}
	return nil
}

func replaceAssociation[T any](tx *gorm.DB, a *models.Article, name string, rows []T) error {
	assoc := tx.Model(a).Association(name)
	var err error
	if len(rows) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(rows)
	}
	if err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func replaceSEO(ctx context.Context, tx *gorm.DB, articleID uint, in *SEOInput) error {
	og, err := crud.LookupOne[models.Media](ctx, tx, "seo.ogImage", in.OGImage)
	if err != nil {
		return err
	}
	tw, err := crud.LookupOne[models.Media](ctx, tx, "seo.twitterImage", in.TwitterImage)
	if err != nil {
		return err
	}
	mediaID := func(m *models.Media) uint { return m.ID }

	seo := models.SEO{
		ArticleID:          articleID,
		MetaTitle:          in.MetaTitle,
		MetaDescription:    in.MetaDescription,
		MetaKeywords:       in.MetaKeywords,
		MetaRobots:         orDefault(in.MetaRobots, DefaultMetaRobots),
		CanonicalURL:       in.CanonicalURL,
		OGTitle:            in.OGTitle,
		OGDescription:      in.OGDescription,
		OGImageID:          idOf(og, mediaID),
		TwitterTitle:       in.TwitterTitle,
		TwitterDescription: in.TwitterDescription,
		TwitterImageID:     idOf(tw, mediaID),
		TwitterCardType:    orDefault(in.TwitterCardType, DefaultTwitterCardType),
		StructuredData:     in.StructuredData,
	}
	if err := tx.Where("article_id = ?", articleID).Delete(&models.SEO{}).Error; err != nil {
		return fmt.Errorf("clear seo: %w", err)
	}
	if err := tx.Create(&seo).Error; err != nil {
		return fmt.Errorf("create seo: %w", err)
	}
	return nil
}

func deleteSections(tx *gorm.DB, articleID uint) error {
	owned := tx.Model(&models.ContentSection{}).Select("id").Where("article_id = ?", articleID)
	if err := tx.Where("section_id IN (?)", owned).Delete(&models.CallToAction{}).Error; err != nil {
		return fmt.Errorf("clear calls to action: %w", err)
	}
	if err := tx.Where("article_id = ?", articleID).Delete(&models.ContentSection{}).Error; err != nil {
		return fmt.Errorf("clear sections: %w", err)
	}
	return nil
}

func replaceSections(ctx context.Context, tx *gorm.DB, articleID uint, in []SectionInput) error {
	if err := deleteSections(tx, articleID); err != nil {
		return err
	}
	for i, si := range in {
		media, err := crud.LookupOne[models.Media](ctx, tx, fmt.Sprintf("sections[%d].media", i), si.Media)
		if err != nil {
			return err
		}
		section := models.ContentSection{
			ArticleID:       articleID,
			Position:        i,
			Title:           si.Title,
			Content:         si.Content,
			Layout:          orDefault(si.Layout, DefaultLayout),
			BackgroundColor: si.BackgroundColor,
			Anchor:          si.Anchor,
			MediaID:         idOf(media, func(m *models.Media) uint { return m.ID }),
		}
		if cta := si.CallToAction; cta != nil {
			section.CallToAction = &models.CallToAction{
				Text:   cta.Text,
				URL:    cta.URL,
				Type:   orDefault(cta.Type, DefaultCTAType),
				NewTab: cta.NewTab,
				Icon:   cta.Icon,
			}
		}
		if err := tx.Create(&section).Error; err != nil {
			return fmt.Errorf("create section %d: %w", i, err)
		}
	}
	return nil
}

func replaceReferences(tx *gorm.DB, articleID uint, in []ReferenceInput) error {
	if err := tx.Where("article_id = ?", articleID).Delete(&models.Reference{}).Error; err != nil {
		return fmt.Errorf("clear references: %w", err)
	}
	if len(in) == 0 {
		return nil
	}
	refs := make([]models.Reference, 0, len(in))
	for i, ri := range in {
		refs = append(refs, models.Reference{
			ArticleID:     articleID,
			Position:      i,
			Title:         ri.Title,
			URL:           ri.URL,
			Authors:       ri.Authors,
			Publisher:     ri.Publisher,
			PublishDate:   ri.PublishDate.Ptr(),
			Description:   ri.Description,
			ReferenceType: orDefault(ri.ReferenceType, DefaultReferenceType),
		})
	}
	if err := tx.Create(&refs).Error; err != nil {
		return fmt.Errorf("create references: %w", err)
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
