package sitemap

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webapp-skeleton/cms/internal/database/dbtest"
	"github.com/webapp-skeleton/cms/internal/models"
)

func TestSitemapListsEveryArticle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.Open(t)
	for _, slug := range []string{"first-post", "second-post"} {
		require.NoError(t, db.Create(&models.Article{Title: slug, Slug: slug}).Error)
	}

	h := NewHandler(db, "https://blog.example.com")
	h.now = func() time.Time { return time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC) }
	router := gin.New()
	h.RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")

	var set urlSet
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &set))
	locs := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		locs = append(locs, u.Loc)
	}
	assert.ElementsMatch(t, []string{
		"https://blog.example.com",
		"https://blog.example.com/blog",
		"https://blog.example.com/blog/first-post",
		"https://blog.example.com/blog/second-post",
	}, locs)
	assert.Equal(t, "2024-05-06", set.URLs[0].LastMod)
}

func TestSitemapWithoutArticles(t *testing.T) {
	h := NewHandler(dbtest.Open(t), "http://localhost:3000")
	body, err := h.Build(t.Context())
	require.NoError(t, err)

	var set urlSet
	require.NoError(t, xml.Unmarshal(body, &set))
	assert.Len(t, set.URLs, 2)
}
