package pagination_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webapp-skeleton/cms/internal/database/dbtest"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/pkg/pagination"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
)

func TestPaginateSecondPage(t *testing.T) {
	db := dbtest.Open(t)
	for i := 1; i <= 5; i++ {
		tag := models.Tag{Taxonomy: models.Taxonomy{Name: fmt.Sprintf("tag %d", i), Slug: fmt.Sprintf("tag-%d", i)}}
		require.NoError(t, db.Create(&tag).Error)
	}

	var page []models.Tag
	meta, err := pagination.Paginate(db.Model(&models.Tag{}).Order("id"), query.Pagination{Page: 2, PageSize: 2}, &page)
	require.NoError(t, err)
	assert.Equal(t, pagination.Meta{Page: 2, PageSize: 2, PageCount: 3, Total: 5}, meta)
	require.Len(t, page, 2)
	assert.Equal(t, "tag-3", page[0].Slug)
}

func TestPaginateHugePageIsEmpty(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, db.Create(&models.Tag{Taxonomy: models.Taxonomy{Name: "only", Slug: "only"}}).Error)

	var page []models.Tag
	huge := math.MaxInt/pagination.DefaultPageSize + 2
	meta, err := pagination.Paginate(db.Model(&models.Tag{}), query.Pagination{Page: huge}, &page)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.NotNil(t, page)
	assert.Equal(t, huge, meta.Page)
	assert.EqualValues(t, 1, meta.Total)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, query.Pagination{Page: 1, PageSize: 25}, pagination.Normalize(query.Pagination{}))
	assert.Equal(t, query.Pagination{Page: 3, PageSize: 100}, pagination.Normalize(query.Pagination{Page: 3, PageSize: 500}))
	assert.Zero(t, pagination.PageCount(0, 10))
	assert.Equal(t, 3, pagination.PageCount(21, 10))
}
