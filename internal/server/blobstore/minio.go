package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioAPI is the subset of *minio.Client used by MinioStore.
type MinioAPI interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
}

// NewMinioClient dials an S3-compatible endpoint given as a URL such as
// "http://localhost:9000". The scheme selects TLS.
func NewMinioClient(endpoint, accessKey, secretKey, region string) (MinioAPI, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid minio endpoint %q", endpoint)
	}

	c, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: u.Scheme == "https",
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return c, nil
}

type MinioStore struct {
	client      MinioAPI
	mediaBucket string
	docsBucket  string
	baseURL     string
	region      string
}

func NewMinioStore(client MinioAPI, mediaBucket, docsBucket, baseURL, region string) *MinioStore {
	if docsBucket == "" {
		docsBucket = mediaBucket
	}
	return &MinioStore{client: client, mediaBucket: mediaBucket, docsBucket: docsBucket, baseURL: baseURL, region: region}
}

func (s *MinioStore) bucketFor(folder string) string {
	if folder == FolderReports {
		return s.docsBucket
	}
	return s.mediaBucket
}

// EnsureBuckets creates missing buckets.
func (s *MinioStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range uniq(s.mediaBucket, s.docsBucket) {
		ok, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if ok {
			continue
		}
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", bucket, err)
		}
	}
	return nil
}

func (s *MinioStore) Upload(ctx context.Context, data []byte, contentType, folder string) (ObjectRef, error) {
	bucket := s.bucketFor(folder)
	key := NewObjectKey(folder, contentType)

	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return ObjectRef{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return ObjectRef{ObjectID: key, URL: ObjectURL(s.baseURL, bucket, key)}, nil
}

func (s *MinioStore) Delete(ctx context.Context, objectID string, kind models.MediaKind) error {
	bucket := s.mediaBucket
	if kind == models.KindDocument {
		bucket = s.docsBucket
	}
	err := s.client.RemoveObject(ctx, bucket, objectID, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("remove object %s: %w", objectID, err)
	}
	return nil
}
