// Package imagestore uploads product images to S3-compatible object storage.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"product-catalog/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxBytes is the upload ceiling when none is configured.
const DefaultMaxBytes = 10 << 20

var (
	ErrNoFile   = errors.New("No image file provided")
	ErrNotImage = errors.New("Only image files are allowed")
	ErrTooLarge = errors.New("Image exceeds the maximum upload size")
)

// ObjectStore is a bucket that can hold public objects
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	URL(key string) string
}

// Config selects and configures an ObjectStore driver
type Config struct {
	Driver    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	PublicURL string
	UseSSL    bool
}

// Open returns the driver named by cfg.Driver ("minio" or "s3").
func Open(ctx context.Context, cfg Config) (ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("imagestore: bucket is not configured")
	}
	switch cfg.Driver {
	case "", "minio":
		store, err := NewMinioStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		store, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("imagestore: unknown driver %q", cfg.Driver)
}

// Image is a stored upload
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Uploader validates images and writes them to an ObjectStore
type Uploader struct {
	store    ObjectStore
	maxBytes int64
	folder   string
	logger   *zap.Logger
}

// NewUploader creates an uploader. maxBytes <= 0 means DefaultMaxBytes.
func NewUploader(store ObjectStore, maxBytes int64) *Uploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Uploader{
		store:    store,
		maxBytes: maxBytes,
		folder:   "products",
		logger:   util.GetLogger(),
	}
}

// MaxBytes is the largest accepted upload
func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Upload stores r under a fresh object name in the products folder.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (*Image, error) {
	ctx, span := util.StartSpan(ctx, "Uploader.Upload")
	defer span.End()

	if !strings.HasPrefix(contentType, "image/") {
		util.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrNotImage
	}
	if size > u.maxBytes {
		util.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrTooLarge
	}

	key := path.Join(u.folder, uuid.New().String()+strings.ToLower(path.Ext(filename)))

	start := time.Now()
	err := u.store.Put(ctx, key, io.LimitReader(r, u.maxBytes), size, contentType)
	util.ImageUploadLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.ImageUploadsTotal.WithLabelValues("failed").Inc()
		return nil, util.RecordError(span, fmt.Errorf("failed to store %s: %w", key, err))
	}

	util.ImageUploadsTotal.WithLabelValues("stored").Inc()
	u.logger.Info("Image uploaded", zap.String("key", key), zap.Int64("size", size))

	return &Image{URL: u.store.URL(key), PublicID: key}, nil
}
