package config

import (
	"flag"
	"time"

	"github.com/cshum/filterkit/service"
	"github.com/cshum/filterkit/storage/filestorage"
	"go.uber.org/zap"
)

// fileRole flags of one File Loader, Storage or Result Storage
type fileRole struct {
	BaseDir         string
	PathPrefix      string
	MkdirPermission string
	WritePermission string
	Expiration      time.Duration
	writable        bool
}

func fileRoleFlags(fs *flag.FlagSet, prefix, name string, writable bool) *fileRole {
	r := &fileRole{writable: writable}
	fs.StringVar(&r.BaseDir, prefix+"base-dir", "",
		"Base directory for "+name+". Enable "+name+" only if this value present")
	fs.StringVar(&r.PathPrefix, prefix+"path-prefix", "",
		"Base path prefix for "+name)
	if writable {
		fs.StringVar(&r.MkdirPermission, prefix+"mkdir-permission", "0755",
			name+" mkdir permission")
		fs.StringVar(&r.WritePermission, prefix+"write-permission", "0666",
			name+" write permission")
		fs.DurationVar(&r.Expiration, prefix+"expiration", 0,
			name+" expiration duration e.g. 24h. Default no expiration")
	}
	return r
}

func (r *fileRole) enabled() bool {
	return r.BaseDir != ""
}

func (r *fileRole) sameAs(o *fileRole) bool {
	return r.BaseDir == o.BaseDir && r.PathPrefix == o.PathPrefix
}

func (r *fileRole) build(safeChars string) *filestorage.FileStorage {
	opts := []filestorage.Option{
		filestorage.WithPathPrefix(r.PathPrefix),
		filestorage.WithSafeChars(safeChars),
	}
	if r.writable {
		opts = append(opts,
			filestorage.WithMkdirPermission(r.MkdirPermission),
			filestorage.WithWritePermission(r.WritePermission),
			filestorage.WithExpiration(r.Expiration),
		)
	}
	return filestorage.New(r.BaseDir, opts...)
}

// withFileSystem with File Loader, Storage and Result Storage config option
func withFileSystem(fs *flag.FlagSet, cb func() (*zap.Logger, bool)) service.Option {
	var (
		safeChars = fs.String("file-safe-chars", "",
			"File safe characters to be excluded from image key escape. Set -- for no-op")
		loader        = fileRoleFlags(fs, "file-loader-", "File Loader", false)
		storage       = fileRoleFlags(fs, "file-storage-", "File Storage", true)
		resultStorage = fileRoleFlags(fs, "file-result-storage-", "File Result Storage", true)
	)
	_, _ = cb()
	return func(app *service.Service) {
		if storage.enabled() {
			app.Storages = append(app.Storages, storage.build(*safeChars))
		}
		// storages also serve as loaders
		if loader.enabled() && !loader.sameAs(storage) {
			app.Loaders = append(app.Loaders, loader.build(*safeChars))
		}
		if resultStorage.enabled() {
			app.ResultStorages = append(app.ResultStorages, resultStorage.build(*safeChars))
		}
	}
}
