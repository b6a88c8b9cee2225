package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
)

type fakeS3Object struct {
	body        []byte
	contentType string
}

// fakeS3 is an in-memory stand-in for the handful of S3 calls the blob
// storage makes.
type fakeS3 struct {
	mu           sync.Mutex
	bucketExists bool
	created      []*s3.CreateBucketInput
	objects      map[string]fakeS3Object
	pageSize     int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]fakeS3Object), pageSize: 1000}
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.bucketExists {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bucketExists = true
	f.created = append(f.created, in)
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if int64(len(body)) != aws.ToInt64(in.ContentLength) {
		return nil, errors.New("content length mismatch")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = fakeS3Object{body: body, contentType: aws.ToString(in.ContentType)}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.body))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0)
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	out := &s3.ListObjectsV2Output{}
	if len(keys) > f.pageSize {
		keys = keys[:f.pageSize]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(f.objects[k].body)))})
	}
	return out, nil
}

func newTestS3Blobs(t *testing.T, fake *fakeS3) BlobStorage {
	t.Helper()

	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	var gotOpts s3.Options
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "eu-central-1"}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		for _, fn := range optFns {
			fn(&gotOpts)
		}
		return fake
	}

	s, err := NewS3BlobStorage(context.Background(), config.S3{
		Bucket:       "procbox",
		Region:       "eu-central-1",
		BaseEndpoint: "http://minio:9000",
		AccessKey:    "minio",
		SecretKey:    "minio123",
	}, logger.Nop())
	require.NoError(t, err)

	assert.True(t, gotOpts.UsePathStyle)
	assert.Equal(t, "http://minio:9000", aws.ToString(gotOpts.BaseEndpoint))
	return s
}

func TestS3BlobStorage_EnsureContainerCreatesBucketOnce(t *testing.T) {
	fake := newFakeS3()
	s := newTestS3Blobs(t, fake)
	ctx := context.Background()

	require.NoError(t, s.EnsureContainer(ctx, "files"))
	require.NoError(t, s.EnsureContainer(ctx, "outputs"))

	require.Len(t, fake.created, 1)
	assert.Equal(t, types.BucketLocationConstraint("eu-central-1"), fake.created[0].CreateBucketConfiguration.LocationConstraint)
}

func TestS3BlobStorage_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	fake.pageSize = 1 // exercise pagination
	s := newTestS3Blobs(t, fake)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "files", "u1/a.txt", "text/plain", strings.NewReader("aaa")))
	require.NoError(t, s.Put(ctx, "files", "u1/b.txt", "text/plain", strings.NewReader("b")))
	require.NoError(t, s.Put(ctx, "outputs", "MD5 calculatorX", "text/plain", strings.NewReader("o")))

	assert.Equal(t, "text/plain", fake.objects["files/u1/a.txt"].contentType)

	content, err := s.Get(ctx, "files", "u1/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "aaa", string(content))

	infos, err := s.List(ctx, "files", "u1/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, BlobInfo{Container: "files", Key: "u1/a.txt", Size: 3}, infos[0])
	assert.Equal(t, "u1/b.txt", infos[1].Key)

	deleted, err := s.Delete(ctx, "files", "u1/a.txt")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, "files", "u1/a.txt")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.Get(ctx, "files", "u1/a.txt")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestS3BlobStorage_RejectsInvalidKeys(t *testing.T) {
	s := newTestS3Blobs(t, newFakeS3())

	err := s.Put(context.Background(), "files", "../x", "", strings.NewReader("x"))

	assert.ErrorIs(t, err, ErrInvalidBlobKey)
}
