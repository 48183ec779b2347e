package filestorage

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Option FileStorage option
type Option func(s *FileStorage)

// parsePerm parses an octal permission string e.g. 0755
func parsePerm(perm string) (os.FileMode, bool) {
	if perm == "" {
		return 0, false
	}
	mode, err := strconv.ParseUint(perm, 0, 32)
	return os.FileMode(mode), err == nil
}

// WithPathPrefix only keys under prefix are stored, prefix stripped from the file path
func WithPathPrefix(prefix string) Option {
	return func(s *FileStorage) {
		if prefix == "" {
			return
		}
		s.PathPrefix = "/"
		if p := strings.Trim(prefix, "/"); p != "" {
			s.PathPrefix += p + "/"
		}
	}
}

// WithBlacklist keys matching blacklist are passed
func WithBlacklist(blacklist *regexp.Regexp) Option {
	return func(s *FileStorage) {
		if blacklist != nil {
			s.Blacklists = append(s.Blacklists, blacklist)
		}
	}
}

// WithMkdirPermission directory permission, invalid values keep 0755
func WithMkdirPermission(perm string) Option {
	return func(s *FileStorage) {
		if mode, ok := parsePerm(perm); ok {
			s.MkdirPermission = mode
		}
	}
}

// WithWritePermission file permission, invalid values keep 0666
func WithWritePermission(perm string) Option {
	return func(s *FileStorage) {
		if mode, ok := parsePerm(perm); ok {
			s.WritePermission = mode
		}
	}
}

// WithSaveErrIfExists fails Put on existing files
func WithSaveErrIfExists(saveErrIfExists bool) Option {
	return func(s *FileStorage) {
		s.SaveErrIfExists = saveErrIfExists
	}
}

// WithSafeChars chars kept unescaped in file names, -- disables escaping
func WithSafeChars(chars string) Option {
	return func(s *FileStorage) {
		if chars != "" {
			s.SafeChars = chars
		}
	}
}

// WithExpiration files modified before exp are treated as expired
func WithExpiration(exp time.Duration) Option {
	return func(s *FileStorage) {
		s.Expiration = max(exp, 0)
	}
}
