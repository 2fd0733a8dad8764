package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	appConfig "github.com/harpiastore/catalog-service/internal/config"
	"github.com/harpiastore/catalog-service/internal/domain"
)

// S3BlobStore implements domain.BlobStore using AWS SDK v2. It targets
// S3-compatible stores (SeaweedFS, MinIO) as an alternative to GridFS.
type S3BlobStore struct {
	client *s3.Client
	bucket string
}

// NewS3BlobStore creates a new S3-backed blob store
func NewS3BlobStore(ctx context.Context, cfg appConfig.S3Config) (*S3BlobStore, error) {
	// Load AWS configuration
	// For SeaweedFS (or generic S3), we need to override the endpoint resolution
	// We use static credentials "any"/"any" because SeaweedFS/MinIO often require signatures
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("any", "any", "")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	// Create S3 client
	// We use the functional options pattern for the client to override the endpoint
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // Required for many S3-compatible stores including SeaweedFS
	})

	store := &S3BlobStore{
		client: client,
		bucket: cfg.Bucket,
	}

	// Ensure bucket exists
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *S3BlobStore) Put(ctx context.Context, name string, file domain.FileUpload) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(file.Data),
		ContentType: aws.String(file.ContentType),
		Metadata: map[string]string{
			"originalname": file.OriginalName,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob %s to S3: %w", name, err)
	}
	return nil
}

func (s *S3BlobStore) Open(ctx context.Context, name string) (io.ReadCloser, domain.BlobInfo, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, domain.BlobInfo{}, domain.ErrBlobNotFound
		}
		return nil, domain.BlobInfo{}, fmt.Errorf("failed to get blob %s from S3: %w", name, err)
	}

	info := domain.BlobInfo{
		Name:        name,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}
	if info.ContentType == "" {
		info.ContentType = "application/octet-stream"
	}
	return out.Body, info, nil
}

func (s *S3BlobStore) Remove(ctx context.Context, name string) error {
	// DeleteObject succeeds on absent keys, so probe first to preserve
	// the absent-blob signal callers rely on.
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isS3NotFound(err) {
			return domain.ErrBlobNotFound
		}
		return fmt.Errorf("failed to stat blob %s on S3: %w", name, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob %s from S3: %w", name, err)
	}
	return nil
}

// ensureBucket checks if bucket exists, creating it if necessary
func (s *S3BlobStore) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})

	if err != nil {
		// If bucket doesn't exist, try to create it
		_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(s.bucket),
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// isS3NotFound reports whether err means the object does not exist.
// GetObject returns NoSuchKey, HeadObject a generic 404 "NotFound".
func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound"
}
