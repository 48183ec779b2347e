package main

import (
	"testing"

	"github.com/cshum/filterkit/loader/httploader"
	"github.com/cshum/filterkit/processor/giftprocessor"
	"github.com/cshum/filterkit/processor/vipsprocessor"
	"github.com/cshum/filterkit/service"
	"github.com/cshum/filterkit/storage/filestorage"
	"github.com/cshum/filterkit/storage/gcloudstorage"
	"github.com/cshum/filterkit/storage/s3storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	srv := newServer()
	app := srv.App.(*service.Service)

	assert.Equal(t, ":8000", srv.Addr)
	assert.False(t, app.Debug)
	assert.False(t, app.Unsafe)
	assert.Empty(t, app.ResultStorages)
	assert.Empty(t, app.Storages)
	assert.IsType(t, &httploader.HTTPLoader{}, app.Loaders[0])
	require.Len(t, app.Processors, 2)
	assert.IsType(t, &vipsprocessor.Processor{}, app.Processors[0])
	assert.IsType(t, &giftprocessor.Processor{}, app.Processors[1])
}

func TestVersion(t *testing.T) {
	assert.Nil(t, newServer("-version"))
}

func TestStorages(t *testing.T) {
	t.Setenv("STORAGE_EMULATOR_HOST", "localhost:12345")

	srv := newServer(
		"-file-storage-base-dir", "./foo",

		"-aws-region", "us-east-1",
		"-aws-access-key-id", "asdf",
		"-aws-secret-access-key", "asdf",
		"-s3-storage-bucket", "a",

		"-gcloud-result-storage-bucket", "b",
	)
	app := srv.App.(*service.Service)
	require.Len(t, app.Storages, 2)
	assert.IsType(t, &s3storage.S3Storage{}, app.Storages[0])
	assert.IsType(t, &filestorage.FileStorage{}, app.Storages[1])
	require.Len(t, app.ResultStorages, 1)
	assert.IsType(t, &gcloudstorage.GCloudStorage{}, app.ResultStorages[0])
	// storages serve as loaders ahead of the http loader
	require.Len(t, app.Loaders, 3)
	assert.IsType(t, &httploader.HTTPLoader{}, app.Loaders[2])
}
