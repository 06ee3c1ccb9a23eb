package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/config"
)

type fakeAPI struct {
	buckets   map[string]bool
	objects   map[string]string
	types     map[string]string
	putErr    error
	existsErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		buckets: map[string]bool{},
		objects: map[string]string{},
		types:   map[string]string{},
	}
}

func (f *fakeAPI) BucketExists(_ context.Context, bucket string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.buckets[bucket], nil
}

func (f *fakeAPI) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func (f *fakeAPI) PutObject(_ context.Context, bucket, name string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucket+"/"+name] = string(body)
	f.types[bucket+"/"+name] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: name, Size: size}, nil
}

func (f *fakeAPI) RemoveObject(_ context.Context, bucket, name string, _ minio.RemoveObjectOptions) error {
	delete(f.objects, bucket+"/"+name)
	return nil
}

func TestNewWithAPI_CreatesMissingBucket(t *testing.T) {
	api := newFakeAPI()
	_, err := NewWithAPI(context.Background(), api, "images", "https://cdn.example.com/")
	require.NoError(t, err)
	assert.True(t, api.buckets["images"])

	api.existsErr = errors.New("unreachable")
	_, err = NewWithAPI(context.Background(), api, "images", "")
	assert.Error(t, err)
}

func TestClient_UploadAndDelete(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	c, err := NewWithAPI(ctx, api, "images", "https://cdn.example.com/")
	require.NoError(t, err)

	require.NoError(t, c.Upload(ctx, "images/u1/a.png", strings.NewReader("data"), 4, "image/png"))
	assert.Equal(t, "data", api.objects["images/images/u1/a.png"])
	assert.Equal(t, "image/png", api.types["images/images/u1/a.png"])
	assert.Equal(t, "https://cdn.example.com/images/u1/a.png", c.URL("images/u1/a.png"))

	key, ok := c.KeyFromURL("https://cdn.example.com/images/u1/a.png")
	require.True(t, ok)
	assert.Equal(t, "images/u1/a.png", key)
	_, ok = c.KeyFromURL("https://other.example.org/images/u1/a.png")
	assert.False(t, ok)
	_, ok = c.KeyFromURL("https://cdn.example.com/")
	assert.False(t, ok)

	require.NoError(t, c.Delete(ctx, key))
	assert.Empty(t, api.objects)

	api.putErr = errors.New("quota exceeded")
	err = c.Upload(ctx, "images/u1/b.png", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, api.putErr)
}

func TestNew_InvalidEndpoint(t *testing.T) {
	_, err := New(context.Background(), config.Storage{
		Endpoint:  "http://not valid",
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "images",
	})
	assert.Error(t, err)
}
