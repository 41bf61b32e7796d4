// Package storage provides the object stores documents, cloud files and
// archived PDFs are kept in.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appdocument "github.com/drymix/erp/internal/application/document"
	infraconfig "github.com/drymix/erp/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ appdocument.ObjectStorage = (*S3ObjectStorage)(nil)

var errNoKey = errors.New("storage key is required")

const (
	defaultEndpoint = "http://localhost:9000"
	defaultRegion   = "us-east-1"
	defaultPresign  = 15 * time.Minute
)

// S3ObjectStorage keeps objects in an S3-compatible bucket (AWS S3, MinIO).
// Browsers move file content through presigned URLs; the server only uploads
// what it renders itself.
type S3ObjectStorage struct {
	client            *s3.Client
	presigner         *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
	log               *zap.Logger
}

// S3ObjectStorageOption configures an S3ObjectStorage
type S3ObjectStorageOption func(*S3ObjectStorage)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) S3ObjectStorageOption {
	return func(s *S3ObjectStorage) { s.log = l.Named("s3") }
}

// WithPresignExpiration sets how long presigned URLs stay valid by default
func WithPresignExpiration(d time.Duration) S3ObjectStorageOption {
	return func(s *S3ObjectStorage) { s.presignExpiration = d }
}

// NewS3ObjectStorage builds a client with static credentials. It does not
// contact the service; call EnsureBucket for that.
func NewS3ObjectStorage(cfg *infraconfig.StorageConfig, opts ...S3ObjectStorageOption) (*S3ObjectStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"bucket", cfg.Bucket}, {"access key", cfg.AccessKey}, {"secret key", cfg.SecretKey},
	} {
		if f.value == "" {
			missing = append(missing, "storage "+f.name+" is required")
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(strings.Join(missing, "; "))
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})

	s := &S3ObjectStorage{
		client:            client,
		presigner:         s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		presignExpiration: cfg.PresignExpiration,
		log:               zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.presignExpiration <= 0 {
		s.presignExpiration = defaultPresign
	}
	return s, nil
}

// normalizeEndpoint adds a scheme to a bare host:port
func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	switch {
	case endpoint == "":
		return defaultEndpoint, nil
	case strings.Contains(endpoint, "://"):
	case useSSL:
		endpoint = "https://" + endpoint
	default:
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q", endpoint)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket unless it exists
func (s *S3ObjectStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	s.log.Info("Creating bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &s.bucket})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// GenerateUploadURL presigns a PUT of key with contentType
func (s *S3ObjectStorage) GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	return s.presign(key, expiresIn, func(o func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return s.presigner.PresignPutObject(ctx,
			&s3.PutObjectInput{Bucket: &s.bucket, Key: &key, ContentType: &contentType}, o)
	})
}

// GenerateDownloadURL presigns a GET of key
func (s *S3ObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return s.presign(key, expiresIn, func(o func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key}, o)
	})
}

func (s *S3ObjectStorage) presign(key string, ttl time.Duration,
	sign func(func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error),
) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errNoKey
	}
	if ttl <= 0 {
		ttl = s.presignExpiration
	}
	req, err := sign(s3.WithPresignExpires(ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, time.Now().Add(ttl), nil
}

// DeleteObject removes key. A missing key is not an error.
func (s *S3ObjectStorage) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return errNoKey
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// ObjectExists reports whether key is stored
func (s *S3ObjectStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errNoKey
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w", key, err)
}

// Upload stores data under key, e.g. an archived PDF
func (s *S3ObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errNoKey
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentType:   &contentType,
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.log.Debug("Object stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// GetBucket returns the bucket name
func (s *S3ObjectStorage) GetBucket() string { return s.bucket }

// isNotFound matches the typed errors and, for services that answer HEAD
// with a bare status, the error code in the message.
func isNotFound(err error) bool {
	var (
		nf  *types.NotFound
		nsk *types.NoSuchKey
		nsb *types.NoSuchBucket
	)
	if errors.As(err, &nf) || errors.As(err, &nsk) || errors.As(err, &nsb) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NotFound") || strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "StatusCode: 404")
}
