// Package objectstore keeps todo attachments in a MinIO or S3-compatible
// bucket.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectNotFound is returned when the object or its bucket is missing.
var ErrObjectNotFound = errors.New("object not found")

// PresignExpiry is the lifetime of URLs returned by PresignedURL.
const PresignExpiry = time.Hour

type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Region skips the bucket location lookup when presigning.
	Region string
	// Client, when set, is used instead of dialing Endpoint.
	Client *minio.Client
}

func (c *Config) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return fmt.Errorf("access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key is required when client is not provided")
	}
	return nil
}

type Store struct {
	client *minio.Client
	bucket string
	region string
}

func New(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// Object is an open attachment. Callers must close it.
type Object struct {
	io.ReadCloser
	Size        int64
	ContentType string
}

// EnsureBucket creates the bucket unless it already exists.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return translate(err)
	}
	if exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	if err != nil {
		if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return translate(err)
	}
	return nil
}

// Put uploads r under name. size may be -1 when unknown.
func (s *Store) Put(ctx context.Context, name, contentType string, size int64, r io.Reader) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	return translate(err)
}

// Get opens name for reading.
func (s *Store) Get(ctx context.Context, name string) (*Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(err)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, translate(err)
	}
	return &Object{ReadCloser: obj, Size: info.Size, ContentType: info.ContentType}, nil
}

// PresignedURL returns a GET URL for name valid for PresignExpiry.
func (s *Store) PresignedURL(ctx context.Context, name string) (*url.URL, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, name, PresignExpiry, nil)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("minio: %w", ErrObjectNotFound)
	}
	return fmt.Errorf("minio: %w", err)
}
