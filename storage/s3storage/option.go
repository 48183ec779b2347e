package s3storage

import (
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Option S3Storage option
type Option func(s *S3Storage)

// dirPath cleans dir into /dir/ form, empty if dir is empty
func dirPath(dir string) string {
	if dir == "" {
		return ""
	}
	if dir = strings.Trim(dir, "/"); dir == "" {
		return "/"
	}
	return "/" + dir + "/"
}

// WithBaseDir stores objects under baseDir of the bucket
func WithBaseDir(baseDir string) Option {
	return func(s *S3Storage) {
		if dir := dirPath(baseDir); dir != "" {
			s.BaseDir = dir
		}
	}
}

// WithPathPrefix only keys under prefix are handled, prefix stripped from the object key
func WithPathPrefix(prefix string) Option {
	return func(s *S3Storage) {
		if dir := dirPath(prefix); dir != "" {
			s.PathPrefix = dir
		}
	}
}

// WithACL canned ACL of uploads, unknown values keep public-read.
// https://docs.aws.amazon.com/AmazonS3/latest/userguide/acl-overview.html#canned-acl
func WithACL(acl string) Option {
	return func(s *S3Storage) {
		if slices.Contains(types.ObjectCannedACL("").Values(), types.ObjectCannedACL(acl)) {
			s.ACL = acl
		}
	}
}

// WithStorageClass storage class of uploads, unknown values keep STANDARD
func WithStorageClass(storageClass string) Option {
	return func(s *S3Storage) {
		if slices.Contains(types.StorageClass("").Values(), types.StorageClass(storageClass)) {
			s.StorageClass = storageClass
		}
	}
}

// WithSafeChars chars kept unescaped in object keys, -- disables escaping
func WithSafeChars(chars string) Option {
	return func(s *S3Storage) {
		if chars != "" {
			s.SafeChars = chars
		}
	}
}

// WithExpiration objects last modified before exp are treated as expired
func WithExpiration(exp time.Duration) Option {
	return func(s *S3Storage) {
		s.Expiration = max(exp, 0)
	}
}

// WithEndpoint custom S3 compatible endpoint e.g. MinIO
func WithEndpoint(endpoint string) Option {
	return func(s *S3Storage) {
		if endpoint != "" {
			s.Endpoint = endpoint
		}
	}
}

// WithForcePathStyle addresses s3.amazonaws.com/bucket/key instead of bucket.s3.amazonaws.com/key
func WithForcePathStyle(forcePathStyle bool) Option {
	return func(s *S3Storage) {
		s.ForcePathStyle = forcePathStyle
	}
}

// WithBucketRouter selects the bucket per key, nil keeps the default bucket
func WithBucketRouter(router BucketRouter) Option {
	return func(s *S3Storage) {
		if router != nil {
			s.BucketRouter = router
		}
	}
}

// WithPrefixBuckets routes keys to buckets by csv of prefix=bucket rules,
// keys matching no rule use the default bucket
func WithPrefixBuckets(rules string) Option {
	return func(s *S3Storage) {
		if parsed := ParsePrefixRules(rules); len(parsed) > 0 {
			s.BucketRouter = NewPrefixRouter(parsed, "")
		}
	}
}
