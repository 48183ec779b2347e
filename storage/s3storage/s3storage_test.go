package s3storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cshum/filterkit"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Storage_Path(t *testing.T) {
	cfg := aws.Config{Region: "us-east-1"}
	tests := []struct {
		name    string
		bucket  string
		options []Option
		image   string
		want    string
		ok      bool
		wantBkt string
	}{
		{"defaults", "mybucket", nil, "/foo/bar", "/foo/bar", true, "mybucket"},
		{"escape unsafe chars", "mybucket", nil, "/foo/b{:}ar", "/foo/b%7B%3A%7Dar", true, "mybucket"},
		{"keep safe chars", "mybucket", []Option{WithSafeChars("{}")}, "/foo/b{:}\"ar", "/foo/b{%3A}\"ar", true, "mybucket"},
		{"no escape", "mybucket", []Option{WithSafeChars("--")}, "/foo/b{:}\"ar", "/foo/b{:}\"ar", true, "mybucket"},
		{"base dir with prefix", "mybucket", []Option{WithBaseDir("/home/filterkit"), WithPathPrefix("/foo")}, "/foo/bar", "/home/filterkit/bar", true, "mybucket"},
		{"base dir", "mybucket", []Option{WithBaseDir("/home/filterkit")}, "/foo/bar", "/home/filterkit/foo/bar", true, "mybucket"},
		{"outside prefix", "mybucket", []Option{WithBaseDir("/home/filterkit"), WithPathPrefix("/foo")}, "/fooo/bar", "", false, "mybucket"},
		{"base dir in bucket name", "mybucket/home/filterkit", []Option{WithPathPrefix("/foo")}, "/foo/bar", "/home/filterkit/bar", true, "mybucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(cfg, tt.bucket, tt.options...)
			path, ok := s.Path(tt.image)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, path)
			assert.Equal(t, tt.wantBkt, s.Bucket)
		})
	}
}

func fakeS3Server() *httptest.Server {
	backend := s3mem.New()
	faker := gofakes3.New(backend)
	return httptest.NewServer(faker.Server())
}

func fakeS3Config(ts *httptest.Server, buckets ...string) aws.Config {
	cfg := aws.Config{
		Region:       "eu-central-1",
		Credentials:  credentials.NewStaticCredentialsProvider("YOUR-ACCESSKEYID", "YOUR-SECRETACCESSKEY", ""),
		BaseEndpoint: aws.String(ts.URL),
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	for _, bucket := range buckets {
		if _, err := client.CreateBucket(context.Background(), &s3.CreateBucketInput{
			Bucket: aws.String(bucket),
		}); err != nil {
			panic(err)
		}
	}
	return cfg
}

func readString(t *testing.T, b *filterkit.Blob) (string, error) {
	t.Helper()
	buf, err := b.ReadAll()
	return string(buf), err
}

func TestCRUD(t *testing.T) {
	ts := fakeS3Server()
	defer ts.Close()

	ctx := context.Background()
	r := (&http.Request{}).WithContext(ctx)
	s := New(fakeS3Config(ts, "test"), "test",
		WithPathPrefix("/foo"), WithACL("public-read"), WithForcePathStyle(true))
	const key = "/foo/fooo/asdf"

	t.Run("outside prefix", func(t *testing.T) {
		const outside = "/bar/fooo/asdf"
		_, err := s.Get(r, outside)
		assert.Equal(t, filterkit.ErrInvalid, err)
		_, err = s.Stat(ctx, outside)
		assert.Equal(t, filterkit.ErrInvalid, err)
		assert.ErrorIs(t, s.Put(ctx, outside, filterkit.NewBlobFromBytes([]byte("bar"))), filterkit.ErrInvalid)
		assert.Equal(t, filterkit.ErrInvalid, s.Delete(ctx, outside))
	})

	t.Run("lifecycle", func(t *testing.T) {
		b, err := s.Get(r, key)
		require.NoError(t, err)
		_, err = readString(t, b)
		assert.Equal(t, filterkit.ErrNotFound, err)

		require.NoError(t, s.Put(ctx, key, filterkit.NewBlobFromBytes([]byte("bar"))))

		stat, err := s.Stat(ctx, key)
		require.NoError(t, err)
		assert.True(t, stat.ModifiedTime.Before(time.Now()))
		assert.NotEmpty(t, stat.ETag)

		b, err = s.Get(r, key)
		require.NoError(t, err)
		body, err := readString(t, b)
		require.NoError(t, err)
		assert.Equal(t, "bar", body)
		require.NotNil(t, b.Stat)
		assert.Equal(t, stat.ModifiedTime, b.Stat.ModifiedTime)
		assert.NotEmpty(t, b.Stat.ETag)

		require.NoError(t, s.Delete(ctx, key))
		b, _ = s.Get(r, key)
		_, err = readString(t, b)
		assert.Equal(t, filterkit.ErrNotFound, err)
		_, err = s.Stat(ctx, key)
		assert.Equal(t, filterkit.ErrNotFound, err)
	})
}

func TestExpiration(t *testing.T) {
	ts := fakeS3Server()
	defer ts.Close()

	var err error
	ctx := context.Background()
	s := New(fakeS3Config(ts, "test"), "test", WithExpiration(time.Second), WithForcePathStyle(true))

	b, _ := s.Get(&http.Request{}, "/foo/bar/asdf")
	_, err = b.ReadAll()
	assert.Equal(t, filterkit.ErrNotFound, err)
	blob := filterkit.NewBlobFromBytes([]byte("bar"))
	require.NoError(t, s.Put(ctx, "/foo/bar/asdf", blob))
	b, err = s.Get(&http.Request{}, "/foo/bar/asdf")
	require.NoError(t, err)
	buf, err := b.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "bar", string(buf))

	time.Sleep(time.Second)
	b, _ = s.Get(&http.Request{}, "/foo/bar/asdf")
	_, err = b.ReadAll()
	require.ErrorIs(t, err, filterkit.ErrExpired)
}

func TestPrefixBuckets(t *testing.T) {
	ts := fakeS3Server()
	defer ts.Close()

	ctx := context.Background()
	r := (&http.Request{}).WithContext(ctx)
	s := New(fakeS3Config(ts, "default", "users"), "default",
		WithPrefixBuckets("users/=users"), WithForcePathStyle(true), WithStorageClass("STANDARD_IA"))
	assert.Equal(t, "STANDARD_IA", s.StorageClass)

	require.NoError(t, s.Put(ctx, "users/1.txt", filterkit.NewBlobFromBytes([]byte("user"))))
	require.NoError(t, s.Put(ctx, "other/1.txt", filterkit.NewBlobFromBytes([]byte("other"))))

	out, err := s.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String("users"), Key: aws.String("/users/1.txt"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), aws.ToInt64(out.ContentLength))

	b, err := s.Get(r, "other/1.txt")
	require.NoError(t, err)
	buf, err := b.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "other", string(buf))
}

func TestWithOptionsDefaults(t *testing.T) {
	s := New(aws.Config{Region: "us-east-1"}, "bucket",
		WithStorageClass("UNKNOWN"), WithACL("nope"), WithEndpoint("http://localhost:9000"))
	assert.Equal(t, "STANDARD", s.StorageClass)
	assert.Equal(t, "public-read", s.ACL)
	assert.Equal(t, "http://localhost:9000", s.Endpoint)
}
