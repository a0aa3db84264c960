package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appcfg "github.com/webapp-skeleton/cms/internal/config"
	"github.com/webapp-skeleton/cms/internal/database/dbtest"
	"github.com/webapp-skeleton/cms/internal/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func multipartBody(t *testing.T, fileInfo string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	if fileInfo != "" {
		require.NoError(t, mw.WriteField("fileInfo", fileInfo))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestLocalUploadLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.Open(t)
	dir := t.TempDir()
	h := NewHandler(NewService(db, NewLocal(dir), 1<<20, nil, nil))

	router := gin.New()
	h.RegisterRoutes(router.Group("/api"), func(c *gin.Context) { c.Next() })
	h.RegisterStatic(router)

	body, contentType := multipartBody(t, `{"alternativeText":"A square","caption":"Pixels"}`, map[string][]byte{
		"My Photo.png": pngBytes(t, 4, 3),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var media []models.Media
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &media))
	require.Len(t, media, 1)
	m := media[0]
	assert.Equal(t, "My Photo.png", m.Name)
	assert.Equal(t, "image/png", m.Mime)
	assert.Equal(t, ".png", m.Ext)
	assert.Equal(t, 4, m.Width)
	assert.Equal(t, 3, m.Height)
	assert.Equal(t, "A square", m.AlternativeText)
	assert.Equal(t, "Pixels", m.Caption)
	assert.Equal(t, "local", m.Provider)
	assert.Regexp(t, `^/uploads/my_photo_[0-9a-f]{10}\.png$`, m.URL)
	assert.FileExists(t, filepath.Join(dir, m.Hash+m.Ext))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, m.URL, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/upload/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []models.Media `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Data, 1)

	article := models.Article{Title: "A", Slug: "a", FeaturedImageID: &m.ID, Gallery: []models.Media{m}}
	require.NoError(t, db.Create(&article).Error)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/upload/files/"+m.DocumentID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := os.Stat(filepath.Join(dir, m.Hash+m.Ext))
	assert.True(t, os.IsNotExist(err))

	var reloaded models.Article
	require.NoError(t, db.Take(&reloaded, article.ID).Error)
	assert.Nil(t, reloaded.FeaturedImageID)
	var joins int64
	require.NoError(t, db.Table("articles_gallery").Count(&joins).Error)
	assert.Zero(t, joins)
}

func TestUploadRejectsOversizedAndEmpty(t *testing.T) {
	db := dbtest.Open(t)
	dir := t.TempDir()
	svc := NewService(db, NewLocal(dir), 8, nil, nil)

	_, err := svc.Upload(context.Background(), nil, FileInfo{})
	assert.Error(t, err)

	_, err = svc.Upload(context.Background(), []File{
		{Name: "ok.txt", Body: bytes.NewReader([]byte("tiny"))},
		{Name: "big.txt", Body: bytes.NewReader([]byte("way too large"))},
	}, FileInfo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "big.txt")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial uploads are removed")

	var n int64
	require.NoError(t, db.Model(&models.Media{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUploadSniffsMissingExtension(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(db, NewLocal(t.TempDir()), 1<<20, nil, nil)

	media, err := svc.Upload(context.Background(), []File{{Name: "noext", Body: bytes.NewReader(pngBytes(t, 1, 1))}}, FileInfo{})
	require.NoError(t, err)
	assert.Equal(t, ".png", media[0].Ext)
	assert.Equal(t, "image/png", media[0].Mime)
}

type fakeObjects struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3URLs(t *testing.T) {
	cases := []struct {
		name string
		cfg  appcfg.S3Config
		want string
	}{
		{"aws virtual host", appcfg.S3Config{Bucket: "media", Region: "eu-west-1"}, "https://media.s3.eu-west-1.amazonaws.com/x.png"},
		{"aws path style", appcfg.S3Config{Bucket: "media", Region: "eu-west-1", ForcePathStyle: true}, "https://s3.eu-west-1.amazonaws.com/media/x.png"},
		{"custom endpoint", appcfg.S3Config{Bucket: "media", Region: "auto", Endpoint: "minio.local:9000/"}, "https://minio.local:9000/media/x.png"},
		{"custom domain and prefix", appcfg.S3Config{Bucket: "media", Region: "auto", CustomDomain: "https://cdn.example.com/", PathPrefix: "/blog/"}, "https://cdn.example.com/blog/x.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewS3(tc.cfg)
			require.NoError(t, err)
			fake := &fakeObjects{}
			p.client = fake

			url, err := p.Put(context.Background(), "x.png", []byte("data"), "image/png")
			require.NoError(t, err)
			assert.Equal(t, tc.want, url)
			require.Len(t, fake.puts, 1)
			assert.Equal(t, "media", aws.ToString(fake.puts[0].Bucket))
			assert.Equal(t, "image/png", aws.ToString(fake.puts[0].ContentType))

			require.NoError(t, p.Delete(context.Background(), "x.png"))
			assert.Equal(t, aws.ToString(fake.puts[0].Key), aws.ToString(fake.deletes[0].Key))
		})
	}
}

func TestNewS3RequiresBucketAndRegion(t *testing.T) {
	_, err := NewS3(appcfg.S3Config{Bucket: "media"})
	assert.Error(t, err)
}

func TestObjectKeysStayInside(t *testing.T) {
	assert.Equal(t, "etc/passwd", normalizeObjectKey("../../etc/passwd"))
	assert.Equal(t, "a/b.png", normalizeObjectKey(`\a\\b.png`))
	assert.Equal(t, "", normalizeObjectKey("  "))
}
