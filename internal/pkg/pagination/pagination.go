package pagination

import (
	"math"

	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"gorm.io/gorm"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Meta is the pagination block of list responses.
type Meta struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	PageCount int   `json:"pageCount"`
	Total     int64 `json:"total"`
}

// Normalize fills defaults and caps the page size.
func Normalize(p query.Pagination) query.Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// PageCount is the number of pages needed for total items.
func PageCount(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// Paginate counts db's rows, then loads the requested page into dest. The
// scopes (preloads, ordering) are applied to the page query only.
func Paginate[T any](db *gorm.DB, p query.Pagination, dest *[]T, scopes ...func(*gorm.DB) *gorm.DB) (Meta, error) {
	p = Normalize(p)

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Meta{}, err
	}

	if p.Page-1 > math.MaxInt/p.PageSize {
		*dest = []T{}
		return Meta{Page: p.Page, PageSize: p.PageSize, PageCount: PageCount(total, p.PageSize), Total: total}, nil
	}
	offset := (p.Page - 1) * p.PageSize
	if err := db.Session(&gorm.Session{}).Scopes(scopes...).Offset(offset).Limit(p.PageSize).Find(dest).Error; err != nil {
		return Meta{}, err
	}
	if *dest == nil {
		*dest = []T{}
	}

	return Meta{
		Page:      p.Page,
		PageSize:  p.PageSize,
		PageCount: PageCount(total, p.PageSize),
		Total:     total,
	}, nil
}
