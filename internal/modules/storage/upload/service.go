package upload

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// File is one incoming upload.
type File struct {
	Name string
	Body io.Reader
}

// FileInfo carries the editable metadata of a media entry.
type FileInfo struct {
	Name            *string `json:"name"`
	AlternativeText *string `json:"alternativeText"`
	Caption         *string `json:"caption"`
}

type Service struct {
	db       *gorm.DB
	provider Provider
	maxBytes int64
	engine   *crud.Engine[models.Media]
	purger   crud.Purger
	log      *zap.Logger
}

func NewService(db *gorm.DB, provider Provider, maxBytes int64, purger crud.Purger, log *zap.Logger) *Service {
	if purger == nil {
		purger = crud.PurgeFunc(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:       db,
		provider: provider,
		maxBytes: maxBytes,
		engine:   crud.New[models.Media](db, crud.MediaSchema),
		purger:   purger,
		log:      log,
	}
}

func (s *Service) Provider() Provider { return s.provider }

func (s *Service) Find(ctx context.Context, spec query.Spec) (crud.Result[models.Media], error) {
	return s.engine.Find(ctx, spec)
}

func (s *Service) FindOne(ctx context.Context, id string, spec query.Spec) (crud.Single[models.Media], error) {
	return s.engine.FindOne(ctx, id, spec)
}

// Upload stores every file and records a media entry for it. info, when set,
// applies to all files. Files stored before a failure are removed again.
func (s *Service) Upload(ctx context.Context, files []File, info FileInfo) ([]models.Media, error) {
	if len(files) == 0 {
		return nil, query.Invalid("files", "no files were uploaded")
	}

	out := make([]models.Media, 0, len(files))
	var stored []string
	cleanup := func() {
		for _, key := range stored {
			if err := s.provider.Delete(ctx, key); err != nil {
				s.log.Warn("remove partial upload failed", zap.String("key", key), zap.Error(err))
			}
		}
	}

	for _, f := range files {
		m, key, err := s.store(ctx, f, info)
		if err != nil {
			cleanup()
			return nil, err
		}
		stored = append(stored, key)
		out = append(out, m)
	}

	if err := s.db.WithContext(ctx).Create(&out).Error; err != nil {
		cleanup()
		return nil, fmt.Errorf("create media: %w", err)
	}
	return out, nil
}

func (s *Service) store(ctx context.Context, f File, info FileInfo) (models.Media, string, error) {
	body, err := io.ReadAll(io.LimitReader(f.Body, s.maxBytes+1))
	if err != nil {
		return models.Media{}, "", fmt.Errorf("read upload %s: %w", f.Name, err)
	}
	if int64(len(body)) > s.maxBytes {
		return models.Media{}, "", query.Invalid("files", "%s exceeds the upload size limit of %d bytes", f.Name, s.maxBytes)
	}
	if len(body) == 0 {
		return models.Media{}, "", query.Invalid("files", "%s is empty", f.Name)
	}

	mtype := mimetype.Detect(body)
	ext := strings.ToLower(filepath.Ext(f.Name))
	if ext == "" || len(ext) > 10 {
		ext = mtype.Extension()
	}
	hash := buildHash(f.Name)
	key := hash + ext

	m := models.Media{
		Name:     strings.TrimSpace(filepath.Base(f.Name)),
		Hash:     hash,
		Ext:      ext,
		Mime:     mtype.String(),
		Size:     sizeKB(len(body)),
		Provider: s.provider.Name(),
	}
	if strings.HasPrefix(mtype.String(), "image/") {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(body)); err == nil {
			m.Width, m.Height = cfg.Width, cfg.Height
		}
	}
	applyInfo(&m, info)

	url, err := s.provider.Put(ctx, key, body, m.Mime)
	if err != nil {
		return models.Media{}, "", err
	}
	m.URL = url
	return m, key, nil
}

// UpdateInfo edits the name, alternative text or caption of a media entry.
func (s *Service) UpdateInfo(ctx context.Context, id string, info FileInfo) (*models.Media, error) {
	m, err := crud.Take[models.Media](s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	applyInfo(m, info)
	if err := s.db.WithContext(ctx).Save(m).Error; err != nil {
		return nil, fmt.Errorf("save media: %w", err)
	}
	s.purge(ctx)
	return m, nil
}

// mediaRefs are the nullable columns that point at files.
var mediaRefs = []struct{ table, column string }{
	{"articles", "featured_image_id"},
	{"authors", "profile_picture_id"},
	{"blog_posts", "cover_image_id"},
	{"components_shared_seos", "og_image_id"},
	{"components_shared_seos", "twitter_image_id"},
	{"components_sections_content_sections", "media_id"},
}

// Delete removes the media entry, its stored bytes and every reference to it.
func (s *Service) Delete(ctx context.Context, id string) (*models.Media, error) {
	var out *models.Media
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := crud.Take[models.Media](tx, id)
		if err != nil {
			return err
		}
		for _, ref := range mediaRefs {
			if err := tx.Table(ref.table).Where(ref.column+" = ?", m.ID).Update(ref.column, nil).Error; err != nil {
				return fmt.Errorf("detach media from %s: %w", ref.table, err)
			}
		}
		if err := tx.Exec("DELETE FROM articles_gallery WHERE media_id = ?", m.ID).Error; err != nil {
			return fmt.Errorf("detach media from galleries: %w", err)
		}
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("delete media: %w", err)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.provider.Delete(ctx, out.Hash+out.Ext); err != nil {
		s.log.Warn("remove stored file failed", zap.String("hash", out.Hash), zap.Error(err))
	}
	s.purge(ctx)
	return out, nil
}

func (s *Service) purge(ctx context.Context) {
	if err := s.purger.Purge(ctx); err != nil {
		s.log.Warn("purge http cache failed", zap.Error(err))
	}
}

func applyInfo(m *models.Media, info FileInfo) {
	if info.Name != nil && strings.TrimSpace(*info.Name) != "" {
		m.Name = strings.TrimSpace(*info.Name)
	}
	if info.AlternativeText != nil {
		m.AlternativeText = *info.AlternativeText
	}
	if info.Caption != nil {
		m.Caption = *info.Caption
	}
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]+`)

// buildHash derives a readable, collision-resistant storage name such as
// "cover_photo_3f9a1c2b7d".
func buildHash(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(strings.ToLower(base), "_"), "_")
	if len(base) > 40 {
		base = base[:40]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	if base == "" {
		return suffix
	}
	return base + "_" + suffix
}

func sizeKB(n int) float64 {
	return math.Round(float64(n)/1024*100) / 100
}
