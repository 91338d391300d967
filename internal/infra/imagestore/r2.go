package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/appliance-assistant/internal/domain/flow"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

const objectPrefix = "nameplates/"

// R2Storage archives nameplate uploads in Cloudflare R2 or any other
// S3-compatible bucket.
type R2Storage struct {
	client *minio.Client
	bucket string
	logger *slog.Logger

	bucketOnce sync.Once
	bucketErr  error
}

// NewR2Storage constructs the storage adapter.
func NewR2Storage(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*R2Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanEndpoint := sanitizeEndpoint(endpoint)
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "http://")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init r2 client: %w", err)
	}
	return &R2Storage{client: client, bucket: bucket, logger: logger.With("component", "imagestore.r2")}, nil
}

func (s *R2Storage) ensureBucket(ctx context.Context) error {
	s.bucketOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err == nil && exists {
			return
		}
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
			s.bucketErr = err
		}
	})
	return s.bucketErr
}

// Put uploads the image under its content hash.
func (s *R2Storage) Put(ctx context.Context, key string, img flow.Image) error {
	if err := s.ensureBucket(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "ensure image bucket", err)
	}
	info, err := s.client.PutObject(ctx, s.bucket, objectPrefix+key, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType:      img.ContentType,
		DisableMultipart: true,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "upload image", err)
	}
	s.logger.Debug("image archived", "key", info.Key, "size", info.Size)
	return nil
}

func (s *R2Storage) Get(ctx context.Context, key string) (flow.Image, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectPrefix+key, minio.GetObjectOptions{})
	if err != nil {
		return flow.Image{}, apperrors.Wrap(apperrors.CodeStorage, "fetch image", err)
	}
	defer obj.Close()
	stat, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return flow.Image{}, errImageNotFound
		}
		return flow.Image{}, apperrors.Wrap(apperrors.CodeStorage, "stat image", err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return flow.Image{}, apperrors.Wrap(apperrors.CodeStorage, "read image", err)
	}
	return flow.Image{ContentType: stat.ContentType, Data: data}, nil
}

var _ flow.ImageStore = (*R2Storage)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
