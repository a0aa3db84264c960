package article

import (
	"context"

	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/pkg/populate"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
)

// Core is the generic engine the controller delegates to.
type Core interface {
	Find(ctx context.Context, spec query.Spec) (crud.Result[models.Article], error)
	FindOne(ctx context.Context, id string, spec query.Spec) (crud.Single[models.Article], error)
}

// Controller wraps the article reads so every response carries the full
// relation set the site needs, whatever the caller asked to populate.
type Controller struct {
	core     Core
	required populate.Tree
}

func NewController(core Core) *Controller {
	return &Controller{core: core, required: models.ArticlePopulate()}
}

// Find lists articles. The caller's populate tree is merged with the required
// one; required wins on shared keys. Filters, sort and pagination pass through.
func (c *Controller) Find(ctx context.Context, spec query.Spec) (crud.Result[models.Article], error) {
	spec.Populate = populate.Merge(spec.Populate, c.required)
	return c.core.Find(ctx, spec)
}

// FindOne loads one article by id or documentId with the same populate merge.
func (c *Controller) FindOne(ctx context.Context, id string, spec query.Spec) (crud.Single[models.Article], error) {
	spec.Populate = populate.Merge(spec.Populate, c.required)
	return c.core.FindOne(ctx, id, spec)
}

// FindBySlug returns the first article whose slug equals slug, or nil data
// when none does. Slugs are unique on write, so "first" only matters for rows
// that predate the unique index.
func (c *Controller) FindBySlug(ctx context.Context, slug string) (crud.Single[models.Article], error) {
	res, err := c.core.Find(ctx, query.Spec{
		Filters:  []query.Condition{query.Eq("slug", slug)},
		Populate: c.required.Clone(),
	})
	if err != nil {
		return crud.Single[models.Article]{}, err
	}
	out := crud.Single[models.Article]{Meta: res.Meta}
	if len(res.Data) > 0 {
		out.Data = &res.Data[0]
	}
	return out, nil
}
