package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"chitfund-backend/internal/config"
	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/ports/adapter"
)

var _ adapter.ProofStore = (*S3ProofStore)(nil)

// putter is the subset of *s3.Client used to upload proofs.
type putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ProofStore uploads offline payment proof images to an S3-compatible bucket.
type S3ProofStore struct {
	client putter
	bucket string
	prefix string
}

func NewS3ProofStore(ctx context.Context, cfg config.StorageConfig) (*S3ProofStore, error) {
	c := cfg.S3
	if c.Bucket == "" {
		return nil, fmt.Errorf("storage.s3.bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3ProofStore{client: client, bucket: c.Bucket, prefix: c.Prefix}, nil
}

func (s *S3ProofStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if key == "" || len(data) == 0 {
		return "", domain.ErrInvalidArgument
	}
	objectKey := path.Join(strings.Trim(s.prefix, "/"), key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put proof %s: %w", objectKey, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, objectKey), nil
}
