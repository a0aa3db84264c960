package crud

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
	"github.com/webapp-skeleton/cms/internal/pkg/validation"
)

// Reader is the read half of a content type, as served by List and Get.
type Reader[T any] interface {
	Find(ctx context.Context, spec query.Spec) (Result[T], error)
	FindOne(ctx context.Context, id string, spec query.Spec) (Single[T], error)
}

// Purger drops cached public responses after a write.
type Purger interface {
	Purge(ctx context.Context) error
}

// PurgeFunc adapts a function to Purger.
type PurgeFunc func(ctx context.Context) error

func (f PurgeFunc) Purge(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

// List serves `GET /<plural>` from r.
func List[T any](r Reader[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		spec, err := query.Parse(c.Request.URL.Query())
		if err != nil {
			Fail(c, err)
			return
		}
		res, err := r.Find(c.Request.Context(), spec)
		if err != nil {
			Fail(c, err)
			return
		}
		response.Entry(c, res.Data, res.Meta)
	}
}

// Get serves `GET /<plural>/:id` from r.
func Get[T any](r Reader[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		spec, err := query.Parse(c.Request.URL.Query())
		if err != nil {
			Fail(c, err)
			return
		}
		res, err := r.FindOne(c.Request.Context(), c.Param("id"), spec)
		if err != nil {
			Fail(c, err)
			return
		}
		response.Entry(c, res.Data, res.Meta)
	}
}

// Fail writes err as an error envelope, 404 for ErrNotFound.
func Fail(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c)
		return
	}
	response.Fail(c, err)
}

// Bind decodes a `{"data": {...}}` body into dst and runs its binding rules.
// It writes the 400 itself and reports false when the body is rejected.
func Bind(c *gin.Context, dst any) bool {
	validation.Register()
	if err := c.ShouldBindJSON(dst); err != nil {
		response.ValidationFailed(c, validation.Message(err), validation.Details(err))
		return false
	}
	return true
}
