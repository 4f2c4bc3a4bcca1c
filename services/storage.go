package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appConfig "github.com/kendall-kelly/pharmacy-rx-api/config"
)

// ObjectStorage is the private object store holding prescription files
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, key string) (*StoredObject, error)
	DeleteObject(ctx context.Context, key string) error
}

// StoredObject is an object body streamed from storage. Callers must close Body.
type StoredObject struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// S3Storage implements ObjectStorage on a private S3 bucket
type S3Storage struct {
	client *s3.Client
	bucket string
}

var storageInstance ObjectStorage

// InitS3Storage initializes the S3-backed storage with AWS credentials
func InitS3Storage(cfg *appConfig.Config) (ObjectStorage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	storageInstance = &S3Storage{
		client: s3.NewFromConfig(awsConfig),
		bucket: cfg.AWSS3Bucket,
	}
	return storageInstance, nil
}

// GetStorage returns the initialized storage instance
func GetStorage() ObjectStorage {
	return storageInstance
}

// SetStorage sets the storage instance (primarily for testing)
func SetStorage(storage ObjectStorage) {
	storageInstance = storage
}

// PutObject uploads body under key. The bucket is private; no ACL is set.
func (s *S3Storage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return newError(ErrStorage, "STORAGE_WRITE_FAILED", "Failed to store file", err)
	}
	return nil
}

// GetObject fetches an object for server-side streaming
func (s *S3Storage) GetObject(ctx context.Context, key string) (*StoredObject, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, newError(ErrNotFound, "FILE_NOT_FOUND", "File not found", err)
		}
		return nil, newError(ErrStorage, "STORAGE_READ_FAILED", "Failed to read file", err)
	}

	obj := &StoredObject{Body: out.Body, ContentType: aws.ToString(out.ContentType)}
	if out.ContentLength != nil {
		obj.Size = *out.ContentLength
	}
	return obj, nil
}

// DeleteObject deletes an object from S3
func (s *S3Storage) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return newError(ErrStorage, "STORAGE_DELETE_FAILED", "Failed to delete file", err)
	}
	return nil
}
