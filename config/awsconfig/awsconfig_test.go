package awsconfig

import (
	"context"
	"testing"

	"github.com/cshum/filterkit/config"
	"github.com/cshum/filterkit/service"
	"github.com/cshum/filterkit/storage/s3storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Loader(t *testing.T) {
	srv := config.CreateServer([]string{
		"-aws-region", "asdf",
		"-aws-access-key-id", "asdf",
		"-aws-secret-access-key", "asdf",
		"-s3-endpoint", "http://localhost:9000",
		"-s3-force-path-style",
		"-s3-safe-chars", "!",

		"-s3-loader-bucket", "a",
		"-s3-loader-base-dir", "foo",
		"-s3-loader-path-prefix", "abcd",
		"-s3-loader-prefix-buckets", "users/=users-bucket",
	}, WithAWS)
	app := srv.App.(*service.Service)
	loader := app.Loaders[0].(*s3storage.S3Storage)
	assert.Equal(t, "a", loader.Bucket)
	assert.Equal(t, "/foo/", loader.BaseDir)
	assert.Equal(t, "/abcd/", loader.PathPrefix)
	assert.Equal(t, "!", loader.SafeChars)
	assert.Equal(t, "http://localhost:9000", loader.Endpoint)
	assert.True(t, loader.ForcePathStyle)
	require.NotNil(t, loader.BucketRouter)
	assert.Equal(t, "users-bucket", loader.BucketRouter.BucketFor("users/1.jpg"))

	creds, err := loader.Client.Options().Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "asdf", creds.AccessKeyID)
	assert.Equal(t, "asdf", loader.Client.Options().Region)
}

func TestS3Storage(t *testing.T) {
	srv := config.CreateServer([]string{
		"-aws-region", "asdf",
		"-aws-access-key-id", "asdf",
		"-aws-secret-access-key", "asdf",
		"-s3-safe-chars", "!",

		"-s3-loader-bucket", "a",
		"-s3-loader-base-dir", "foo",
		"-s3-loader-path-prefix", "abcd",
		"-s3-storage-bucket", "a",
		"-s3-storage-base-dir", "foo",
		"-s3-storage-path-prefix", "abcd",
		"-s3-storage-class", "STANDARD_IA",
		"-s3-storage-acl", "private",

		"-s3-result-storage-bucket", "b",
		"-s3-result-storage-base-dir", "bar",
		"-s3-result-storage-path-prefix", "bcda",
		"-s3-result-storage-class", "unknown",
	}, WithAWS)
	app := srv.App.(*service.Service)
	// storage also serves as loader, besides the http loader
	assert.Equal(t, 2, len(app.Loaders))
	storage := app.Storages[0].(*s3storage.S3Storage)
	assert.Same(t, storage, app.Loaders[0])
	assert.Equal(t, "a", storage.Bucket)
	assert.Equal(t, "/foo/", storage.BaseDir)
	assert.Equal(t, "/abcd/", storage.PathPrefix)
	assert.Equal(t, "!", storage.SafeChars)
	assert.Equal(t, "STANDARD_IA", storage.StorageClass)
	assert.Equal(t, "private", storage.ACL)

	resultStorage := app.ResultStorages[0].(*s3storage.S3Storage)
	assert.Equal(t, "b", resultStorage.Bucket)
	assert.Equal(t, "/bar/", resultStorage.BaseDir)
	assert.Equal(t, "/bcda/", resultStorage.PathPrefix)
	assert.Equal(t, "!", resultStorage.SafeChars)
	assert.Equal(t, "STANDARD", resultStorage.StorageClass)
	assert.Equal(t, "public-read", resultStorage.ACL)
}

func TestS3CredentialsOverride(t *testing.T) {
	srv := config.CreateServer([]string{
		"-aws-region", "us-east-1",
		"-aws-access-key-id", "shared",
		"-aws-secret-access-key", "shared",
		"-s3-endpoint", "http://shared:9000",

		"-aws-loader-region", "eu-west-1",
		"-aws-loader-access-key-id", "loader",
		"-aws-loader-secret-access-key", "loader",
		"-s3-loader-endpoint", "http://loader:9000",

		"-aws-result-storage-access-key-id", "result",
		"-aws-result-storage-secret-access-key", "result",

		"-s3-loader-bucket", "a",
		"-s3-storage-bucket", "b",
		"-s3-result-storage-bucket", "c",
	}, WithAWS)
	app := srv.App.(*service.Service)
	ctx := context.Background()

	storage := app.Storages[0].(*s3storage.S3Storage)
	creds, err := storage.Client.Options().Credentials.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shared", creds.AccessKeyID)
	assert.Equal(t, "us-east-1", storage.Client.Options().Region)
	assert.Equal(t, "http://shared:9000", storage.Endpoint)

	loader := app.Loaders[1].(*s3storage.S3Storage)
	assert.Equal(t, "a", loader.Bucket)
	creds, err = loader.Client.Options().Credentials.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "loader", creds.AccessKeyID)
	assert.Equal(t, "eu-west-1", loader.Client.Options().Region)
	assert.Equal(t, "http://loader:9000", loader.Endpoint)

	resultStorage := app.ResultStorages[0].(*s3storage.S3Storage)
	creds, err = resultStorage.Client.Options().Credentials.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "result", creds.AccessKeyID)
	assert.Equal(t, "us-east-1", resultStorage.Client.Options().Region)
}

func TestS3BucketRouterConfig(t *testing.T) {
	file := createTempYAML(t, `
default_bucket: images
rules:
  - prefix: users/
    bucket: users-bucket
`)
	srv := config.CreateServer([]string{
		"-aws-region", "us-east-1",
		"-s3-bucket-router-config", file,
		"-s3-storage-bucket", "a",
	}, WithAWS)
	app := srv.App.(*service.Service)
	storage := app.Storages[0].(*s3storage.S3Storage)
	require.NotNil(t, storage.BucketRouter)
	assert.Equal(t, "users-bucket", storage.BucketRouter.BucketFor("users/1.jpg"))
	assert.Equal(t, "images", storage.BucketRouter.BucketFor("a.jpg"))
}

func TestS3Disabled(t *testing.T) {
	srv := config.CreateServer([]string{
		"-aws-region", "us-east-1",
	}, WithAWS)
	app := srv.App.(*service.Service)
	assert.Empty(t, app.Storages)
	assert.Empty(t, app.ResultStorages)
	assert.Len(t, app.Loaders, 1)
}
