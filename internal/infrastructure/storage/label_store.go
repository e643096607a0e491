// Package storage offloads purchased label documents to S3-compatible
// object storage (AWS S3, MinIO, RustFS).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
	infraconfig "github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/config"
)

// S3LabelStore stores purchased shipping labels in an S3 bucket and serves
// them through presigned URLs. Keys are labels/<connection>/<tracking>.<ext>.
type S3LabelStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	urlExpiration time.Duration
	logger        *zap.Logger
}

// S3LabelStoreOption is a functional option for configuring S3LabelStore
type S3LabelStoreOption func(*S3LabelStore)

// WithLogger sets a custom logger for S3LabelStore
func WithLogger(logger *zap.Logger) S3LabelStoreOption {
	return func(s *S3LabelStore) {
		s.logger = logger
	}
}

// WithURLExpiration sets how long served label URLs stay valid
func WithURLExpiration(d time.Duration) S3LabelStoreOption {
	return func(s *S3LabelStore) {
		s.urlExpiration = d
	}
}

// NewS3LabelStore creates an S3LabelStore from configuration. Any
// S3-compatible backend works.
func NewS3LabelStore(cfg *infraconfig.StorageConfig, opts ...S3LabelStoreOption) (*S3LabelStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	store := &S3LabelStore{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		urlExpiration: cfg.PresignExpiration,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.urlExpiration == 0 {
		store.urlExpiration = 24 * time.Hour
	}
	return store, nil
}

// EnsureBucket creates the bucket if it doesn't exist. Call during startup.
func (s *S3LabelStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("creating label bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		// Two instances racing on startup both try to create it
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// StoreLabel uploads one label document and returns a presigned URL for it.
func (s *S3LabelStore) StoreLabel(ctx context.Context, connectionID uuid.UUID, trackingNumber string, artifact *integration.LabelArtifact) (string, error) {
	if trackingNumber == "" {
		return "", errors.New("tracking number is required")
	}
	if artifact == nil || len(artifact.Content) == 0 {
		return "", errors.New("label content is required")
	}

	contentType := artifact.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	key := labelKey(connectionID, trackingNumber, contentType)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(artifact.Content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload label: %w", err)
	}

	presignReq, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign label URL: %w", err)
	}

	s.logger.Debug("label stored",
		zap.String("bucket", s.bucket),
		zap.String("key", key))
	return presignReq.URL, nil
}

// DeleteLabel removes a stored label document.
func (s *S3LabelStore) DeleteLabel(ctx context.Context, connectionID uuid.UUID, trackingNumber, contentType string) error {
	key := labelKey(connectionID, trackingNumber, contentType)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}
	return nil
}

func labelKey(connectionID uuid.UUID, trackingNumber, contentType string) string {
	ext := "pdf"
	if idx := strings.LastIndex(contentType, "/"); idx >= 0 && idx < len(contentType)-1 {
		ext = contentType[idx+1:]
	}
	return fmt.Sprintf("labels/%s/%s.%s", connectionID, trackingNumber, ext)
}
