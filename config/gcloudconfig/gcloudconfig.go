// Package gcloudconfig configures Google Cloud Storage Loader, Storage and Result Storage
package gcloudconfig

import (
	"context"
	"flag"
	"time"

	"cloud.google.com/go/storage"
	"github.com/cshum/filterkit/service"
	"github.com/cshum/filterkit/storage/gcloudstorage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// bucketRole flags of one Google Cloud Loader, Storage or Result Storage
type bucketRole struct {
	Bucket     string
	BaseDir    string
	PathPrefix string
	ACL        string
	Expiration time.Duration
}

func bucketRoleFlags(fs *flag.FlagSet, prefix, name string, writable bool) *bucketRole {
	r := &bucketRole{}
	fs.StringVar(&r.Bucket, prefix+"bucket", "",
		"Bucket name for "+name+". Enable "+name+" only if this value present")
	fs.StringVar(&r.BaseDir, prefix+"base-dir", "",
		"Base directory for "+name)
	fs.StringVar(&r.PathPrefix, prefix+"path-prefix", "",
		"Base path prefix for "+name)
	if writable {
		fs.StringVar(&r.ACL, prefix+"acl", "",
			"Upload predefined ACL for "+name+" e.g. publicRead")
		fs.DurationVar(&r.Expiration, prefix+"expiration", 0,
			name+" expiration duration e.g. 24h. Default no expiration")
	}
	return r
}

func (r *bucketRole) sameAs(o *bucketRole) bool {
	return r.Bucket == o.Bucket && r.BaseDir == o.BaseDir && r.PathPrefix == o.PathPrefix
}

func (r *bucketRole) build(client *storage.Client, safeChars string) *gcloudstorage.GCloudStorage {
	return gcloudstorage.New(client, r.Bucket,
		gcloudstorage.WithPathPrefix(r.PathPrefix),
		gcloudstorage.WithBaseDir(r.BaseDir),
		gcloudstorage.WithACL(r.ACL),
		gcloudstorage.WithSafeChars(safeChars),
		gcloudstorage.WithExpiration(r.Expiration),
	)
}

// WithGCloud with Google Cloud Storage config option.
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS, or STORAGE_EMULATOR_HOST for emulators
func WithGCloud(fs *flag.FlagSet, cb func() (*zap.Logger, bool)) service.Option {
	var (
		safeChars = fs.String("gcloud-safe-chars", "",
			"Google Cloud safe characters to be excluded from image key escape. Set -- for no-op")
		endpoint = fs.String("gcloud-endpoint", "",
			"Optional Google Cloud Storage endpoint to override default")
		loader        = bucketRoleFlags(fs, "gcloud-loader-", "Google Cloud Loader", false)
		storageRole   = bucketRoleFlags(fs, "gcloud-storage-", "Google Cloud Storage", true)
		resultStorage = bucketRoleFlags(fs, "gcloud-result-storage-", "Google Cloud Result Storage", true)

		logger, _ = cb()
	)
	return func(app *service.Service) {
		if loader.Bucket == "" && storageRole.Bucket == "" && resultStorage.Bucket == "" {
			return
		}
		var opts []option.ClientOption
		if *endpoint != "" {
			opts = append(opts, option.WithEndpoint(*endpoint))
		}
		client, err := storage.NewClient(context.Background(), opts...)
		if err != nil {
			logger.Error("gcloud", zap.Error(err))
			panic(err)
		}
		if storageRole.Bucket != "" {
			app.Storages = append(app.Storages, storageRole.build(client, *safeChars))
		}
		// storages also serve as loaders
		if loader.Bucket != "" && !loader.sameAs(storageRole) {
			app.Loaders = append(app.Loaders, loader.build(client, *safeChars))
		}
		if resultStorage.Bucket != "" {
			app.ResultStorages = append(app.ResultStorages, resultStorage.build(client, *safeChars))
		}
	}
}
