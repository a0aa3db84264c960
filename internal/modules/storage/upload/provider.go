package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appcfg "github.com/webapp-skeleton/cms/internal/config"
)

// Provider stores uploaded bytes and says where they can be fetched from.
type Provider interface {
	Name() string
	// Put stores body under key and returns its URL: relative for providers
	// served by this process, absolute otherwise.
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewProvider builds the provider selected in config.
func NewProvider(cfg *appcfg.AppConfig) (Provider, error) {
	switch cfg.Upload.Provider {
	case "", "local":
		return NewLocal(cfg.UploadsDir()), nil
	case "s3":
		return NewS3(cfg.Upload.S3)
	}
	return nil, fmt.Errorf("unknown upload provider %q", cfg.Upload.Provider)
}

// Local writes files to a directory that is served under /uploads.
type Local struct {
	dir string
}

func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Dir() string { return l.dir }

func (l *Local) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	key = normalizeObjectKey(key)
	if key == "" {
		return "", errors.New("invalid object key")
	}
	target := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return "/uploads/" + key, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	key = normalizeObjectKey(key)
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(l.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// objectAPI is the part of the S3 client the provider uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores files in an S3-compatible bucket. URLs are absolute.
type S3 struct {
	client       objectAPI
	bucket       string
	prefix       string
	publicBase   string
	customDomain string
}

func NewS3(opts appcfg.S3Config) (*S3, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	region := strings.TrimSpace(opts.Region)
	if bucket == "" || region == "" {
		return nil, errors.New("incomplete s3 config: bucket and region are required")
	}

	endpoint := strings.TrimSuffix(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	// Custom endpoints (MinIO, R2) are addressed path-style.
	pathStyle := opts.ForcePathStyle || endpoint != ""

	s3opts := s3.Options{Region: region, UsePathStyle: pathStyle}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		s3opts.Credentials = credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")
	}
	if endpoint != "" {
		s3opts.BaseEndpoint = aws.String(endpoint)
	}

	publicBase := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	switch {
	case endpoint != "":
		publicBase = endpoint + "/" + bucket
	case pathStyle:
		publicBase = fmt.Sprintf("https://s3.%s.amazonaws.com/%s", region, bucket)
	}

	return &S3{
		client:       s3.New(s3opts),
		bucket:       bucket,
		prefix:       strings.Trim(opts.PathPrefix, "/"),
		publicBase:   publicBase,
		customDomain: strings.TrimRight(opts.CustomDomain, "/"),
	}, nil
}

func (p *S3) Name() string { return "aws-s3" }

func (p *S3) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	objectKey := p.objectKey(key)
	if objectKey == "" {
		return "", errors.New("invalid object key")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", objectKey, err)
	}
	return p.publicURL(objectKey), nil
}

func (p *S3) Delete(ctx context.Context, key string) error {
	objectKey := p.objectKey(key)
	if objectKey == "" {
		return nil
	}
	if _, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("s3 delete %s: %w", objectKey, err)
	}
	return nil
}

func (p *S3) objectKey(key string) string {
	key = normalizeObjectKey(key)
	if key == "" {
		return ""
	}
	if p.prefix == "" {
		return key
	}
	return path.Join(p.prefix, key)
}

func (p *S3) publicURL(objectKey string) string {
	if p.customDomain != "" {
		return p.customDomain + "/" + objectKey
	}
	return p.publicBase + "/" + objectKey
}

func normalizeObjectKey(key string) string {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	return strings.TrimPrefix(path.Clean("/"+key), "/")
}
