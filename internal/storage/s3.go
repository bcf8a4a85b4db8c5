package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"importer/internal/domain"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store persists archives in an S3 bucket.
type S3Store struct {
	client S3API
	bucket string
}

func NewS3Store(client S3API, bucket string) (*S3Store, error) {
	if client == nil {
		return nil, errors.New("storage: s3 client is required")
	}
	if bucket == "" {
		return nil, errors.New("storage: s3 bucket is required")
	}
	return &S3Store{client: client, bucket: bucket}, nil
}

func (s *S3Store) Write(ctx context.Context, key string, data []byte) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(cleanKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 put %s: %w", cleanKey, err)
	}
	return cleanKey, nil
}

func (s *S3Store) Read(ctx context.Context, key string) ([]byte, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleanKey),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("storage: s3 get %s: %w", cleanKey, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: s3 read %s: %w", cleanKey, err)
	}
	return data, nil
}

var _ Store = (*S3Store)(nil)
