package gcloudstorage

import (
	"strings"
	"time"
)

// Option GCloudStorage option
type Option func(s *GCloudStorage)

// WithBaseDir stores objects under baseDir of the bucket
func WithBaseDir(baseDir string) Option {
	return func(s *GCloudStorage) {
		if baseDir != "" {
			s.BaseDir = strings.Trim(baseDir, "/")
		}
	}
}

// WithPathPrefix only keys under prefix are handled, prefix stripped from the object name
func WithPathPrefix(prefix string) Option {
	return func(s *GCloudStorage) {
		if prefix == "" {
			return
		}
		s.PathPrefix = "/"
		if p := strings.Trim(prefix, "/"); p != "" {
			s.PathPrefix += p + "/"
		}
	}
}

// WithACL predefined ACL of uploads e.g. publicRead.
// https://cloud.google.com/storage/docs/json_api/v1/objects/insert
func WithACL(acl string) Option {
	return func(s *GCloudStorage) {
		s.ACL = acl
	}
}

// WithSafeChars chars kept unescaped in object names, -- disables escaping
func WithSafeChars(chars string) Option {
	return func(s *GCloudStorage) {
		if chars != "" {
			s.SafeChars = chars
		}
	}
}

// WithExpiration objects updated before exp are treated as expired
func WithExpiration(exp time.Duration) Option {
	return func(s *GCloudStorage) {
		s.Expiration = max(exp, 0)
	}
}
