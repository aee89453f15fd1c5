package minio

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
	"github.com/shahadul878/planet-2.0/internal/cfg"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
)

// ImageRepo stores copied catalog media in MinIO.
type ImageRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewImageRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ImageRepo {
	return &ImageRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload stores the image and returns its object key.
func (i *ImageRepo) Upload(ctx context.Context, image *domain.Image) (string, error) {
	reader := bytes.NewReader(image.Bytes)

	contentType := "application/octet-stream"
	if image.MimeType != nil {
		contentType = *image.MimeType
	}

	info, err := i.mc.PutObject(ctx, i.cfg.BucketName, image.ObjectKey, reader, int64(len(image.Bytes)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"source-url": image.SourceURL,
		},
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Exists reports whether an object with the key is already stored.
// Lets the product reconciler keep image copies idempotent.
func (i *ImageRepo) Exists(ctx context.Context, key string) (bool, error) {
	_, err := i.mc.StatObject(ctx, i.cfg.BucketName, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return true, nil
}

// Delete removes an object by key.
func (i *ImageRepo) Delete(ctx context.Context, key string) error {
	if err := i.mc.RemoveObject(ctx, i.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// PublicURL returns the externally reachable URL for an object key.
func (i *ImageRepo) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(i.cfg.PublicBaseURL, "/"),
		i.cfg.BucketName,
		strings.TrimLeft(key, "/"),
	)
}
