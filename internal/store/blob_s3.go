package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
)

// s3API is the subset of *s3.Client used by [s3BlobStorage].
type s3API interface {
	s3.ListObjectsV2APIClient
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// swapped in tests
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// s3BlobStorage maps every container onto a key prefix inside one bucket:
// blob container/key is stored as object "<container>/<key>".
type s3BlobStorage struct {
	client s3API
	bucket string
	region string
	logger *logger.Logger
}

// NewS3BlobStorage constructs an S3 (or MinIO) [BlobStorage]. When
// BaseEndpoint is set, path-style addressing is used.
func NewS3BlobStorage(ctx context.Context, cfg config.S3, log *logger.Logger) (BlobStorage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	log.Debug().Str("bucket", cfg.Bucket).Msg("creating s3 blob storage")
	return &s3BlobStorage{client: client, bucket: cfg.Bucket, region: cfg.Region, logger: log}, nil
}

// EnsureContainer creates the bucket on first use; containers themselves are
// plain key prefixes and need no creation.
func (s *s3BlobStorage) EnsureContainer(ctx context.Context, container string) error {
	if !validContainer(container) {
		return ErrInvalidBlobKey
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isS3NotFound(err) {
		return fmt.Errorf("error checking bucket %s: %w", s.bucket, err)
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	if _, err = s.client.CreateBucket(ctx, in); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("error creating bucket %s: %w", s.bucket, err)
	}

	s.logger.Info().Str("bucket", s.bucket).Msg("bucket created")
	return nil
}

func (s *s3BlobStorage) Put(ctx context.Context, container, key, contentType string, content io.ReadSeeker) error {
	objectKey, err := s.objectKey(container, key)
	if err != nil {
		return err
	}

	size, err := content.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("error measuring blob content: %w", err)
	}
	if _, err = content.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("error rewinding blob content: %w", err)
	}

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          content,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err = s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("error uploading %s: %w", objectKey, err)
	}
	return nil
}

func (s *s3BlobStorage) Get(ctx context.Context, container, key string) ([]byte, error) {
	objectKey, err := s.objectKey(container, key)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("error downloading %s: %w", objectKey, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", objectKey, err)
	}
	return content, nil
}

// Delete checks for the object first because S3 deletes are idempotent and
// do not report whether anything was removed.
func (s *s3BlobStorage) Delete(ctx context.Context, container, key string) (bool, error) {
	objectKey, err := s.objectKey(container, key)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("error checking %s: %w", objectKey, err)
	}

	if _, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return false, fmt.Errorf("error deleting %s: %w", objectKey, err)
	}
	return true, nil
}

func (s *s3BlobStorage) List(ctx context.Context, container, prefix string) ([]BlobInfo, error) {
	if !validContainer(container) {
		return nil, ErrInvalidBlobKey
	}

	containerPrefix := container + "/"
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(containerPrefix + prefix),
	})

	infos := make([]BlobInfo, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isS3NotFound(err) {
				return infos, nil
			}
			return nil, fmt.Errorf("error listing %s: %w", container, err)
		}

		for _, obj := range page.Contents {
			infos = append(infos, BlobInfo{
				Container: container,
				Key:       strings.TrimPrefix(aws.ToString(obj.Key), containerPrefix),
				Size:      aws.ToInt64(obj.Size),
			})
		}
	}

	return infos, nil
}

func (s *s3BlobStorage) objectKey(container, key string) (string, error) {
	if !validContainer(container) || !validKey(key) {
		return "", ErrInvalidBlobKey
	}
	return container + "/" + key, nil
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound) || errors.As(err, &noSuchBucket)
}
