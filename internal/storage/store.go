package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNoBucket is returned when the configuration names no bucket.
var ErrNoBucket = errors.New("no bucket configured")

// ErrNoEndpoint is returned when the configuration names no endpoint.
var ErrNoEndpoint = errors.New("no storage endpoint configured")

// ErrPartialCredentials is returned when only one of the access key and
// secret key is set.
var ErrPartialCredentials = errors.New("access key and secret key must be set together")

// Config holds the connection settings of the object store.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Validate checks that the settings are usable. Empty keys mean anonymous access.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return ErrNoEndpoint
	}
	if c.Bucket == "" {
		return ErrNoBucket
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return ErrPartialCredentials
	}
	return nil
}

// objectClient is the subset of *minio.Client the Store needs.
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	EndpointURL() *url.URL
}

// Store uploads local files into a single bucket.
type Store struct {
	client objectClient
	bucket string
	region string
}

// New connects to the object store and makes sure the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return newStore(ctx, cli, cfg.Bucket, cfg.Region)
}

func newStore(ctx context.Context, cli objectClient, bucket, region string) (*Store, error) {
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return &Store{client: cli, bucket: bucket, region: region}, nil
}

// Upload copies the file at localPath to key and returns the object URL.
// The URL is only reachable without credentials when the bucket is public.
func (s *Store) Upload(ctx context.Context, key, localPath, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key = cleanKey(key)
	if _, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", &UploadError{Key: key, Err: err}
	}

	return s.objectURL(key), nil
}

func (s *Store) objectURL(key string) string {
	endpoint := s.client.EndpointURL()
	u := url.URL{
		Scheme: endpoint.Scheme,
		Host:   endpoint.Host,
		Path:   "/" + path.Join(s.bucket, key),
	}
	return u.String()
}

// cleanKey turns a key into a canonical object name without leading slashes.
func cleanKey(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	return strings.TrimLeft(path.Clean("/"+key), "/")
}

// UploadError is returned when an object could not be stored.
type UploadError struct {
	Key string
	Err error
}

// Error returns the error message.
func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload object %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *UploadError) Unwrap() error {
	return e.Err
}
