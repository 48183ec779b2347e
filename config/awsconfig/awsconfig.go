// Package awsconfig configures S3 Loader, Storage and Result Storage
package awsconfig

import (
	"context"
	"flag"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/cshum/filterkit/service"
	"github.com/cshum/filterkit/storage/s3storage"
	"go.uber.org/zap"
)

type awsCredentials struct {
	Region          *string
	AccessKeyID     *string
	SecretAccessKey *string
	SessionToken    *string
}

func (c awsCredentials) fallback(base awsCredentials) awsCredentials {
	if *c.Region == "" {
		c.Region = base.Region
	}
	if *c.AccessKeyID == "" && *c.SecretAccessKey == "" {
		c.AccessKeyID = base.AccessKeyID
		c.SecretAccessKey = base.SecretAccessKey
		c.SessionToken = base.SessionToken
	}
	return c
}

// load resolves aws.Config, static credentials if present,
// otherwise the default chain of env vars, shared config and instance roles
func (c awsCredentials) load() aws.Config {
	var opts []func(*config.LoadOptions) error
	if *c.Region != "" {
		opts = append(opts, config.WithRegion(*c.Region))
	}
	if *c.AccessKeyID != "" && *c.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(*c.AccessKeyID, *c.SecretAccessKey, *c.SessionToken)))
	}
	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}

func credentialFlags(fs *flag.FlagSet, prefix, usage string) awsCredentials {
	return awsCredentials{
		Region: fs.String(prefix+"region", "",
			"AWS Region"+usage),
		AccessKeyID: fs.String(prefix+"access-key-id", "",
			"AWS Access Key ID"+usage),
		SecretAccessKey: fs.String(prefix+"secret-access-key", "",
			"AWS Secret Access Key"+usage),
		SessionToken: fs.String(prefix+"session-token", "",
			"AWS Session Token"+usage),
	}
}

// WithAWS with S3 Loader, Storage and Result Storage config option.
// Credentials are resolved per role, falling back to the shared aws-* flags
func WithAWS(fs *flag.FlagSet, cb func() (*zap.Logger, bool)) service.Option {
	var (
		shared             = credentialFlags(fs, "aws-", "")
		loaderCreds        = credentialFlags(fs, "aws-loader-", " for S3 Loader, overrides aws-*")
		storageCreds       = credentialFlags(fs, "aws-storage-", " for S3 Storage, overrides aws-*")
		resultStorageCreds = credentialFlags(fs, "aws-result-storage-", " for S3 Result Storage, overrides aws-*")

		s3Endpoint = fs.String("s3-endpoint", "",
			"Optional S3 Endpoint to override default")
		s3ForcePathStyle = fs.Bool("s3-force-path-style", false,
			"S3 force the request to use path-style addressing s3.amazonaws.com/bucket/key, instead of bucket.s3.amazonaws.com/key")
		s3SafeChars = fs.String("s3-safe-chars", "",
			"S3 safe characters to be excluded from image key escape. Set -- for no-op")
		s3BucketRouterConfig = fs.String("s3-bucket-router-config", "",
			"YAML file of prefix to bucket routing rules for S3 Loader and Storage")

		s3LoaderBucket = fs.String("s3-loader-bucket", "",
			"S3 Bucket for S3 Loader. Enable S3 Loader only if this value present")
		s3LoaderBaseDir = fs.String("s3-loader-base-dir", "",
			"Base directory for S3 Loader")
		s3LoaderPathPrefix = fs.String("s3-loader-path-prefix", "",
			"Base path prefix for S3 Loader")
		s3LoaderEndpoint = fs.String("s3-loader-endpoint", "",
			"S3 Endpoint for S3 Loader, overrides s3-endpoint")
		s3LoaderPrefixBuckets = fs.String("s3-loader-prefix-buckets", "",
			"S3 Loader bucket routing by csv of prefix=bucket e.g. users/=users-bucket")

		s3StorageBucket = fs.String("s3-storage-bucket", "",
			"S3 Bucket for S3 Storage. Enable S3 Storage only if this value present")
		s3StorageBaseDir = fs.String("s3-storage-base-dir", "",
			"Base directory for S3 Storage")
		s3StoragePathPrefix = fs.String("s3-storage-path-prefix", "",
			"Base path prefix for S3 Storage")
		s3StorageEndpoint = fs.String("s3-storage-endpoint", "",
			"S3 Endpoint for S3 Storage, overrides s3-endpoint")
		s3StorageACL = fs.String("s3-storage-acl", "public-read",
			"Upload ACL for S3 Storage")
		s3StorageClass = fs.String("s3-storage-class", "STANDARD",
			"S3 Storage class e.g. STANDARD, REDUCED_REDUNDANCY, STANDARD_IA")
		s3StorageExpiration = fs.Duration("s3-storage-expiration", 0,
			"S3 Storage expiration duration e.g. 24h. Default no expiration")
		s3StoragePrefixBuckets = fs.String("s3-storage-prefix-buckets", "",
			"S3 Storage bucket routing by csv of prefix=bucket e.g. users/=users-bucket")

		s3ResultStorageBucket = fs.String("s3-result-storage-bucket", "",
			"S3 Bucket for S3 Result Storage. Enable S3 Result Storage only if this value present")
		s3ResultStorageBaseDir = fs.String("s3-result-storage-base-dir", "",
			"Base directory for S3 Result Storage")
		s3ResultStoragePathPrefix = fs.String("s3-result-storage-path-prefix", "",
			"Base path prefix for S3 Result Storage")
		s3ResultStorageEndpoint = fs.String("s3-result-storage-endpoint", "",
			"S3 Endpoint for S3 Result Storage, overrides s3-endpoint")
		s3ResultStorageACL = fs.String("s3-result-storage-acl", "public-read",
			"Upload ACL for S3 Result Storage")
		s3ResultStorageClass = fs.String("s3-result-storage-class", "STANDARD",
			"S3 Result Storage class e.g. STANDARD, REDUCED_REDUNDANCY, STANDARD_IA")
		s3ResultStorageExpiration = fs.Duration("s3-result-storage-expiration", 0,
			"S3 Result Storage expiration duration e.g. 24h. Default no expiration")

		logger, _ = cb()
	)
	endpoint := func(override string) string {
		if override != "" {
			return override
		}
		return *s3Endpoint
	}
	return func(app *service.Service) {
		if *s3LoaderBucket == "" && *s3StorageBucket == "" && *s3ResultStorageBucket == "" {
			return
		}
		var router s3storage.BucketRouter
		if *s3BucketRouterConfig != "" {
			prefixRouter, err := LoadBucketRouterFromYAML(*s3BucketRouterConfig)
			if err != nil {
				panic(err)
			}
			logger.Debug("s3 bucket router", zap.String("config", *s3BucketRouterConfig),
				zap.String("fallback", prefixRouter.Fallback()))
			router = prefixRouter
		}
		if *s3StorageBucket != "" {
			// activate S3 Storage only if bucket config presents
			app.Storages = append(app.Storages,
				s3storage.New(storageCreds.fallback(shared).load(), *s3StorageBucket,
					s3storage.WithPathPrefix(*s3StoragePathPrefix),
					s3storage.WithBaseDir(*s3StorageBaseDir),
					s3storage.WithEndpoint(endpoint(*s3StorageEndpoint)),
					s3storage.WithForcePathStyle(*s3ForcePathStyle),
					s3storage.WithACL(*s3StorageACL),
					s3storage.WithStorageClass(*s3StorageClass),
					s3storage.WithSafeChars(*s3SafeChars),
					s3storage.WithExpiration(*s3StorageExpiration),
					s3storage.WithBucketRouter(router),
					s3storage.WithPrefixBuckets(*s3StoragePrefixBuckets),
				),
			)
		}
		if *s3LoaderBucket != "" &&
			(*s3LoaderPathPrefix != *s3StoragePathPrefix ||
				*s3LoaderBucket != *s3StorageBucket ||
				*s3LoaderBaseDir != *s3StorageBaseDir) {
			// storages also serve as loaders, create another loader only if different from storage
			app.Loaders = append(app.Loaders,
				s3storage.New(loaderCreds.fallback(shared).load(), *s3LoaderBucket,
					s3storage.WithPathPrefix(*s3LoaderPathPrefix),
					s3storage.WithBaseDir(*s3LoaderBaseDir),
					s3storage.WithEndpoint(endpoint(*s3LoaderEndpoint)),
					s3storage.WithForcePathStyle(*s3ForcePathStyle),
					s3storage.WithSafeChars(*s3SafeChars),
					s3storage.WithBucketRouter(router),
					s3storage.WithPrefixBuckets(*s3LoaderPrefixBuckets),
				),
			)
		}
		if *s3ResultStorageBucket != "" {
			app.ResultStorages = append(app.ResultStorages,
				s3storage.New(resultStorageCreds.fallback(shared).load(), *s3ResultStorageBucket,
					s3storage.WithPathPrefix(*s3ResultStoragePathPrefix),
					s3storage.WithBaseDir(*s3ResultStorageBaseDir),
					s3storage.WithEndpoint(endpoint(*s3ResultStorageEndpoint)),
					s3storage.WithForcePathStyle(*s3ForcePathStyle),
					s3storage.WithACL(*s3ResultStorageACL),
					s3storage.WithStorageClass(*s3ResultStorageClass),
					s3storage.WithSafeChars(*s3SafeChars),
					s3storage.WithExpiration(*s3ResultStorageExpiration),
				),
			)
		}
	}
}
